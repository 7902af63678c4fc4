package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"editorial_composer/internal/cms"
	"editorial_composer/internal/config"
	"editorial_composer/internal/model"
	"editorial_composer/internal/repository"
	"editorial_composer/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testDraft struct {
	ID   string `json:"id"`
	Form struct {
		Title     string `json:"title"`
		Questions []struct {
			Statement     string `json:"statement"`
			CorrectAnswer string `json:"correctAnswer"`
		} `json:"questions"`
	} `json:"form"`
	Workflow struct {
		Status   string `json:"status"`
		Step     string `json:"step"`
		RemoteID string `json:"remoteId"`
		Message  string `json:"message"`
		Preview  string `json:"preview"`
		Prompt   struct {
			Open bool   `json:"open"`
			Date string `json:"date"`
		} `json:"prompt"`
		Notice *struct {
			Level   string `json:"level"`
			Message string `json:"message"`
		} `json:"notice"`
	} `json:"workflow"`
}

// fakeCMS answers the editorial endpoint with editorialStatus/editorialBody
// and records daily assignments.
type fakeCMS struct {
	mu              sync.Mutex
	editorialStatus int
	editorialBody   string
	daily           []model.DailyAssignment
}

func (f *fakeCMS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/editorials":
		w.WriteHeader(f.editorialStatus)
		io.WriteString(w, f.editorialBody)
	case "/dailyeditorial":
		var a model.DailyAssignment
		json.NewDecoder(r.Body).Decode(&a)
		f.mu.Lock()
		f.daily = append(f.daily, a)
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func setupRouter(t *testing.T, remote *fakeCMS) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(remote)
	t.Cleanup(srv.Close)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.SubmissionRecord{}))
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })

	client := cms.NewClient(config.CMSConfig{
		BaseURL:       srv.URL,
		EditorialPath: "/editorials",
		DailyPath:     "/dailyeditorial",
		IDField:       "_id",
	})
	svc := service.NewEditorService(repository.NewMemoryDraftRepository(), repository.NewSubmissionRepository(db), client)

	drafts := NewDraftController(svc)
	page := NewEditorPageController(svc)
	subs := NewSubmissionController(svc)
	health := NewHealthController(db, nil)

	r := gin.New()
	r.SetHTMLTemplate(Templates())
	api := r.Group("/api")
	api.GET("/health", health.HealthCheck)
	api.GET("/submissions", subs.ListSubmissions)
	api.POST("/drafts", drafts.CreateDraft)
	api.GET("/drafts/:id", drafts.GetDraft)
	api.DELETE("/drafts/:id", drafts.DeleteDraft)
	api.POST("/drafts/:id/actions", drafts.Apply)
	api.POST("/drafts/:id/submit", drafts.Submit)
	api.GET("/drafts/:id/submissions", drafts.ListDraftSubmissions)
	api.PUT("/drafts/:id/daily", drafts.SetDailyDate)
	api.POST("/drafts/:id/daily", drafts.ConfirmDaily)
	api.DELETE("/drafts/:id/daily", drafts.CancelDaily)

	r.GET("/", page.NewDraft)
	r.GET("/drafts/:id", page.Show)
	r.POST("/drafts/:id/actions", page.Apply)
	r.POST("/drafts/:id/submit", page.Submit)
	r.POST("/drafts/:id/daily", page.ConfirmDaily)
	r.POST("/drafts/:id/daily/date", page.SetDailyDate)
	r.POST("/drafts/:id/daily/cancel", page.CancelDaily)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func decodeDraft(t *testing.T, env envelope) testDraft {
	t.Helper()
	var d testDraft
	require.NoError(t, json.Unmarshal(env.Data, &d))
	return d
}

func createFilledDraft(t *testing.T, r http.Handler) string {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/api/drafts", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeDraft(t, env).ID

	for _, a := range []map[string]any{
		{"type": "set_title", "value": "Daily Brief"},
		{"type": "set_paragraphs", "value": "Line one.\nLine two."},
		{"type": "add_question"},
		{"type": "set_statement", "question": 0, "value": "Which line is first?"},
		{"type": "update_option", "question": 0, "option": 0, "value": "Line one."},
		{"type": "mark_correct", "question": 0, "option": 0},
	} {
		w, _ := doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/actions", a)
		require.Equal(t, http.StatusOK, w.Code)
	}
	return id
}

func TestDraftLifecycle(t *testing.T) {
	remote := &fakeCMS{editorialStatus: http.StatusCreated, editorialBody: `{"_id":"abc123"}`}
	r := setupRouter(t, remote)
	id := createFilledDraft(t, r)

	w, env := doJSON(t, r, http.MethodGet, "/api/drafts/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	d := decodeDraft(t, env)
	assert.Equal(t, "Daily Brief", d.Form.Title)
	assert.Equal(t, "Line one.", d.Form.Questions[0].CorrectAnswer)

	w, env = doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	d = decodeDraft(t, env)
	assert.Equal(t, "success", d.Workflow.Status)
	assert.Equal(t, "abc123", d.Workflow.RemoteID)
	assert.True(t, d.Workflow.Prompt.Open)

	w, _ = doJSON(t, r, http.MethodPut, "/api/drafts/"+id+"/daily", map[string]string{"date": "2024-05-02"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/daily", nil)
	require.Equal(t, http.StatusOK, w.Code)
	d = decodeDraft(t, env)
	assert.Equal(t, "daily_assigned", d.Workflow.Step)
	require.NotNil(t, d.Workflow.Notice)
	assert.Equal(t, "success", d.Workflow.Notice.Level)
	remote.mu.Lock()
	assert.Equal(t, []model.DailyAssignment{{List: []string{"abc123"}, Date: "2024-05-02"}}, remote.daily)
	remote.mu.Unlock()

	w, env = doJSON(t, r, http.MethodGet, "/api/submissions?pageSize=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64 `json:"total"`
		Limit int   `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, 5, page.Limit)

	w, env = doJSON(t, r, http.MethodGet, "/api/drafts/"+id+"/submissions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []model.SubmissionRecord
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 2)
	assert.Equal(t, model.SubmissionEditorial, mine[0].Kind)
	assert.Equal(t, model.SubmissionDaily, mine[1].Kind)

	w, _ = doJSON(t, r, http.MethodDelete, "/api/drafts/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, env = doJSON(t, r, http.MethodGet, "/api/drafts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, http.StatusNotFound, env.Code)
}

func TestSubmitServerErrorIsReportedInWorkflow(t *testing.T) {
	remote := &fakeCMS{editorialStatus: http.StatusBadRequest, editorialBody: `{"message":"title required"}`}
	r := setupRouter(t, remote)
	id := createFilledDraft(t, r)

	w, env := doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	d := decodeDraft(t, env)
	assert.Equal(t, "error", d.Workflow.Status)
	assert.Equal(t, "title required", d.Workflow.Message)
	assert.True(t, strings.HasPrefix(d.Workflow.Preview, "Submission failed: title required"))
	assert.False(t, d.Workflow.Prompt.Open)
}

func TestErrorMapping(t *testing.T) {
	r := setupRouter(t, &fakeCMS{editorialStatus: http.StatusCreated, editorialBody: `{"_id":"x"}`})
	_, env := doJSON(t, r, http.MethodPost, "/api/drafts", nil)
	id := decodeDraft(t, env).ID

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		code   int
	}{
		{"unknown draft", http.MethodGet, "/api/drafts/missing", nil, http.StatusNotFound},
		{"empty form", http.MethodPost, "/api/drafts/" + id + "/submit", nil, http.StatusBadRequest},
		{"unknown action", http.MethodPost, "/api/drafts/" + id + "/actions", map[string]string{"type": "explode"}, http.StatusBadRequest},
		{"missing action type", http.MethodPost, "/api/drafts/" + id + "/actions", map[string]string{}, http.StatusBadRequest},
		{"daily without prompt", http.MethodPost, "/api/drafts/" + id + "/daily", nil, http.StatusConflict},
		{"daily date without prompt", http.MethodPut, "/api/drafts/" + id + "/daily", map[string]string{"date": "2024-05-02"}, http.StatusConflict},
		{"bad history kind", http.MethodGet, "/api/submissions?kind=weekly", nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env := doJSON(t, r, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, tc.code, env.Code)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	r := setupRouter(t, &fakeCMS{})
	w, env := doJSON(t, r, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"database":"up"`)
	assert.Contains(t, string(env.Data), `"drafts":"memory"`)
}

func postForm(r http.Handler, path string, values url.Values, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestEditorPageFlow(t *testing.T) {
	remote := &fakeCMS{editorialStatus: http.StatusCreated, editorialBody: `{"_id":"abc123"}`}
	r := setupRouter(t, remote)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusSeeOther, w.Code)
	location := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/drafts/"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, location, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<!doctype html>")
	assert.Contains(t, w.Body.String(), `id="editor"`)
	assert.Contains(t, w.Body.String(), `<main id="workspace">`)

	w = postForm(r, location+"/actions", url.Values{"type": {"set_title"}, "value": {"Daily <Brief>"}}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "<!doctype html>")
	assert.Contains(t, w.Body.String(), "Daily &lt;Brief&gt;")

	postForm(r, location+"/actions", url.Values{"type": {"set_paragraphs"}, "value": {"One.\nTwo."}}, true)
	postForm(r, location+"/actions", url.Values{"type": {"add_question"}}, true)

	w = postForm(r, location+"/submit", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Editorial posted! ID: abc123")
	assert.Contains(t, body, "Post to daily")

	w = postForm(r, location+"/daily/cancel", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Post to daily")
}

func TestEditorPageQueuesRequests(t *testing.T) {
	r := setupRouter(t, &fakeCMS{editorialStatus: http.StatusCreated, editorialBody: `{"_id":"abc123"}`})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	location := w.Header().Get("Location")

	// Field saves and submit share one queue on the element outside the swap.
	w = postForm(r, location+"/actions", url.Values{"type": {"set_title"}, "value": {"Daily Brief"}}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="editor" hx-target="#editor" hx-swap="outerHTML" hx-sync="#workspace:queue all"`)
	assert.NotContains(t, w.Body.String(), `id="workspace"`)
}

func TestEditorPageNumbersFromOne(t *testing.T) {
	r := setupRouter(t, &fakeCMS{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	location := w.Header().Get("Location")

	w = postForm(r, location+"/actions", url.Values{"type": {"add_question"}}, true)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Question 1")
	assert.NotContains(t, body, "Question 0")
	assert.Contains(t, body, `placeholder="Option 1"`)
	assert.NotContains(t, body, ">Correct</button>")

	w = postForm(r, location+"/actions", url.Values{"type": {"update_option"}, "question": {"0"}, "option": {"0"}, "value": {"Paris"}}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ">Correct</button>")
}

func TestEditorPageShowsRejections(t *testing.T) {
	r := setupRouter(t, &fakeCMS{editorialStatus: http.StatusCreated, editorialBody: `{"_id":"abc123"}`})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	location := w.Header().Get("Location")

	w = postForm(r, location+"/submit", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "title is required")

	w = postForm(r, "/drafts/missing/submit", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
