package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"editorial_composer/internal/config"
	"editorial_composer/internal/model"
	"editorial_composer/pkg/logger"
	"editorial_composer/pkg/monitoring"
	"editorial_composer/pkg/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

const (
	endpointEditorial = "editorial"
	endpointDaily     = "daily"
)

// Client talks to the remote content-management API. It sends no auth headers,
// never retries, and leaves cancellation to the caller's context.
type Client struct {
	mu           sync.RWMutex
	editorialURL string
	dailyURL     string
	idField      string
	httpClient   *http.Client
}

// DefaultTimeout bounds a CMS call when the config leaves the timeout unset.
const DefaultTimeout = 30 * time.Second

func NewClient(cfg config.CMSConfig) *Client {
	c := &Client{}
	c.SetEndpoints(cfg)
	return c
}

// SetEndpoints re-points the client, e.g. after the config file changed.
func (c *Client) SetEndpoints(cfg config.CMSConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editorialURL = cfg.EditorialURL()
	c.dailyURL = cfg.DailyURL()
	c.idField = cfg.IDField
	if c.idField == "" {
		c.idField = "_id"
	}
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c.httpClient = &http.Client{Timeout: timeout}
}

func (c *Client) endpoints() (editorialURL, dailyURL, idField string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.editorialURL, c.dailyURL, c.idField
}

// CreateEditorial posts item and returns the identifier of the created editorial.
func (c *Client) CreateEditorial(ctx context.Context, item model.ContentItem) (string, error) {
	url, _, idField := c.endpoints()
	started := time.Now()

	ctx, span := tracing.StartClientSpan(ctx, "cms.create_editorial", http.MethodPost, url)
	status, body, err := c.post(ctx, url, item)
	if err == nil && !isSuccess(status) {
		err = serverError(status, body, "HTTP error, status %d")
	}

	var id string
	if err == nil {
		id, err = extractID(body, idField)
	}

	tracing.EndSpan(span, status, err)
	monitoring.ObserveCMS(endpointEditorial, string(Outcome(err)), started)

	if err != nil {
		logger.Log.Error("editorial submission failed",
			zap.String("url", url), zap.Int("status", status), zap.Error(err))
		return "", err
	}
	logger.Log.Info("editorial submission succeeded", zap.String("id", id))
	return id, nil
}

// AssignDaily registers an editorial for a date. Any 2xx counts as success and
// the response body is not inspected.
func (c *Client) AssignDaily(ctx context.Context, assignment model.DailyAssignment) error {
	_, url, _ := c.endpoints()
	started := time.Now()

	ctx, span := tracing.StartClientSpan(ctx, "cms.assign_daily", http.MethodPost, url)
	status, body, err := c.post(ctx, url, assignment)
	if err == nil && !isSuccess(status) {
		err = serverError(status, body, "Daily post failed, status %d")
	}

	tracing.EndSpan(span, status, err)
	monitoring.ObserveCMS(endpointDaily, string(Outcome(err)), started)

	if err != nil {
		logger.Log.Error("daily assignment failed",
			zap.String("url", url), zap.Strings("list", assignment.List), zap.String("date", assignment.Date), zap.Error(err))
		return err
	}
	logger.Log.Info("daily assignment succeeded", zap.Strings("list", assignment.List), zap.String("date", assignment.Date))
	return nil
}

func (c *Client) post(ctx context.Context, url string, payload any) (int, []byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, &TransportError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	c.mu.RLock()
	client := c.httpClient
	c.mu.RUnlock()

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, &TransportError{Err: err}
	}
	return resp.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// serverError uses the body's "message" field when there is one and falls back
// to a status-coded message otherwise.
func serverError(status int, body []byte, fallback string) error {
	var errorData struct {
		Message any `json:"message"`
	}
	if err := json.Unmarshal(body, &errorData); err == nil {
		if msg, ok := errorData.Message.(string); ok && strings.TrimSpace(msg) != "" {
			return &ServerError{Status: status, Message: msg}
		}
	}
	return &ServerError{Status: status, Message: fmt.Sprintf(fallback, status)}
}

func extractID(body []byte, idField string) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var result map[string]any
	if err := dec.Decode(&result); err != nil {
		return "", &TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}

	switch v := result[idField].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case json.Number:
		return v.String(), nil
	}
	return "", ErrMissingIdentifier
}

// Outcome classifies err for metrics and the submission history.
func Outcome(err error) model.SubmissionOutcome {
	var serverErr *ServerError
	switch {
	case err == nil:
		return model.OutcomeSuccess
	case errors.Is(err, ErrMissingIdentifier):
		return model.OutcomeMissingIdentifier
	case errors.As(err, &serverErr):
		return model.OutcomeServerError
	default:
		return model.OutcomeTransportError
	}
}
