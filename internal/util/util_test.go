package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	cases := []struct {
		page, size         string
		wantPage, wantSize int
	}{
		{"", "", DefaultPage, DefaultPageSize},
		{"3", "10", 3, 10},
		{"0", "-5", DefaultPage, DefaultPageSize},
		{"x", "1000", DefaultPage, MaxPageSize},
	}
	for _, tc := range cases {
		page, size := ParsePage(tc.page, tc.size)
		assert.Equal(t, tc.wantPage, page, "page %q", tc.page)
		assert.Equal(t, tc.wantSize, size, "size %q", tc.size)
	}
}

func TestTodayUsesUTCDate(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	assert.Equal(t, "2024-05-01", Today(time.Date(2024, 5, 2, 8, 0, 0, 0, loc)))
	assert.Equal(t, "2024-05-02", Today(time.Date(2024, 5, 2, 10, 0, 0, 0, loc)))
}
