package util

import "time"

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Today formats t as a calendar date in UTC.
func Today(t time.Time) string {
	return t.UTC().Format(DateFormat)
}
