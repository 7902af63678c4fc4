package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"editorial_composer/internal/cms"
	"editorial_composer/internal/editor"
	"editorial_composer/internal/model"
	"editorial_composer/internal/repository"
	"editorial_composer/internal/util"
	"editorial_composer/internal/workflow"
	"editorial_composer/pkg/logger"

	"go.uber.org/zap"
)

var ErrInvalidForm = errors.New("invalid form")

// Publisher is the remote side of the two-step workflow.
type Publisher interface {
	CreateEditorial(ctx context.Context, item model.ContentItem) (string, error)
	AssignDaily(ctx context.Context, assignment model.DailyAssignment) error
}

// Draft is one editor session: the form being composed and where its
// submission stands.
type Draft struct {
	ID       string            `json:"id"`
	Form     editor.Form       `json:"form"`
	Workflow workflow.Workflow `json:"workflow"`
	// Runner names the service instance that started the call in flight.
	Runner    string    `json:"runner,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type EditorService struct {
	drafts    repository.DraftRepository
	history   *repository.SubmissionRepository
	publisher Publisher
	now       func() time.Time
	instance  string

	locksMu sync.Mutex
	locks   map[string]*draftLock
}

// draftLock is dropped from the map once nobody holds or waits for it.
type draftLock struct {
	mu   sync.Mutex
	refs int
}

// NewEditorService wires the service. history may be nil.
func NewEditorService(drafts repository.DraftRepository, history *repository.SubmissionRepository, publisher Publisher) *EditorService {
	return &EditorService{
		drafts:    drafts,
		history:   history,
		publisher: publisher,
		now:       time.Now,
		instance:  model.GenerateUUID(),
		locks:     make(map[string]*draftLock),
	}
}

// WithClock replaces the time source, for tests and the CLI's --today flag.
func (s *EditorService) WithClock(now func() time.Time) *EditorService {
	s.now = now
	return s
}

func (s *EditorService) today() string {
	return util.Today(s.now())
}

func (s *EditorService) lock(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &draftLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}

// interrupted reports a call left in flight by another service instance,
// typically one that stopped before the CMS answered.
func (s *EditorService) interrupted(d *Draft) bool {
	return d.Runner != s.instance && d.Workflow.InFlight()
}

func (s *EditorService) load(ctx context.Context, id string) (*Draft, error) {
	data, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", id, err)
	}
	return &d, nil
}

func (s *EditorService) save(ctx context.Context, d *Draft) error {
	d.UpdatedAt = s.now()
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.drafts.Save(ctx, d.ID, data)
}

// update loads draft id, runs fn and saves the result, all under the draft's lock.
func (s *EditorService) update(ctx context.Context, id string, fn func(d *Draft) error) (*Draft, error) {
	unlock := s.lock(id)
	defer unlock()

	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.interrupted(d) {
		d.Workflow.Interrupt(workflow.InterruptedMessage)
		logger.Log.Warn("interrupted CMS call reset", zap.String("draft", id), zap.String("runner", d.Runner))
		if err := s.save(ctx, d); err != nil {
			return nil, err
		}
	}
	if err := fn(d); err != nil {
		return d, err
	}
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *EditorService) CreateDraft(ctx context.Context) (*Draft, error) {
	return s.CreateDraftFrom(ctx, editor.NewForm(s.today()))
}

// CreateDraftFrom starts a draft from an existing form. An empty date becomes today.
func (s *EditorService) CreateDraftFrom(ctx context.Context, form editor.Form) (*Draft, error) {
	if form.Date == "" {
		form.Date = s.today()
	}
	if form.Questions == nil {
		form.Questions = []editor.QuestionEditor{}
	}
	d := &Draft{
		ID:        model.GenerateUUID(),
		Form:      form,
		Workflow:  workflow.New(),
		CreatedAt: s.now(),
	}
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	logger.Log.Debug("draft created", zap.String("draft", d.ID))
	return d, nil
}

func (s *EditorService) GetDraft(ctx context.Context, id string) (*Draft, error) {
	d, err := s.load(ctx, id)
	if err == nil && s.interrupted(d) {
		return s.update(ctx, id, func(*Draft) error { return nil })
	}
	return d, err
}

func (s *EditorService) DeleteDraft(ctx context.Context, id string) error {
	unlock := s.lock(id)
	defer unlock()

	return s.drafts.Delete(ctx, id)
}

// Apply runs one editor action against the draft's form.
func (s *EditorService) Apply(ctx context.Context, id string, action editor.Action) (*Draft, error) {
	return s.update(ctx, id, func(d *Draft) error {
		next, err := editor.Reduce(d.Form, action)
		if err != nil {
			return err
		}
		d.Form = next
		return nil
	})
}

// Submit sends the draft's content item to the CMS. The outcome, success or
// failure, is recorded in the returned draft's workflow; the error is reserved
// for problems that kept the submission from starting.
func (s *EditorService) Submit(ctx context.Context, id string) (*Draft, error) {
	var (
		payload model.ContentItem
		attempt int
	)
	d, err := s.update(ctx, id, func(d *Draft) error {
		if err := d.Form.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidForm, err)
		}
		payload = d.Form.Payload()
		n, err := d.Workflow.Begin(payload)
		attempt = n
		d.Runner = s.instance
		return err
	})
	if err != nil {
		return d, err
	}

	// Leaving the page does not abort the request.
	remoteID, callErr := s.createEditorial(context.WithoutCancel(ctx), payload)

	d, err = s.update(context.WithoutCancel(ctx), id, func(d *Draft) error {
		var settled bool
		var serverErr *cms.ServerError
		switch {
		case callErr == nil:
			settled = d.Workflow.Created(attempt, remoteID, s.today())
		case errors.Is(callErr, cms.ErrMissingIdentifier):
			settled = d.Workflow.MissingIdentifier(attempt)
		case errors.As(callErr, &serverErr):
			settled = d.Workflow.Fail(attempt, workflow.FailureServer, callErr.Error(), payload)
		default:
			settled = d.Workflow.Fail(attempt, workflow.FailureTransport, callErr.Error(), payload)
		}
		if !settled {
			logger.Log.Warn("stale submission result dropped",
				zap.String("draft", id), zap.Int("attempt", attempt))
		}
		return nil
	})

	s.record(ctx, &model.SubmissionRecord{
		DraftID:  id,
		Kind:     model.SubmissionEditorial,
		Title:    payload.Title,
		Date:     payload.Date,
		RemoteID: remoteID,
		Outcome:  cms.Outcome(callErr),
		Message:  errorText(callErr),
		Payload:  workflow.RenderPreview(payload),
	})

	return d, err
}

func (s *EditorService) SetDailyDate(ctx context.Context, id, date string) (*Draft, error) {
	return s.update(ctx, id, func(d *Draft) error {
		return d.Workflow.SetPromptDate(date)
	})
}

// ConfirmDaily posts the created editorial to the daily list for the prompt's
// date. On failure the prompt stays open and carries an error notice.
func (s *EditorService) ConfirmDaily(ctx context.Context, id string) (*Draft, error) {
	var assignment model.DailyAssignment
	var title string
	d, err := s.update(ctx, id, func(d *Draft) error {
		var err error
		assignment, err = d.Workflow.BeginDaily()
		title = d.Form.Title
		d.Runner = s.instance
		return err
	})
	if err != nil {
		return d, err
	}

	callErr := s.assignDaily(context.WithoutCancel(ctx), assignment)

	d, err = s.update(context.WithoutCancel(ctx), id, func(d *Draft) error {
		if callErr != nil {
			d.Workflow.DailyFailed(callErr.Error())
		} else {
			d.Workflow.DailyDone()
		}
		return nil
	})

	s.record(ctx, &model.SubmissionRecord{
		DraftID:  id,
		Kind:     model.SubmissionDaily,
		Title:    title,
		Date:     assignment.Date,
		RemoteID: firstOrEmpty(assignment.List),
		Outcome:  cms.Outcome(callErr),
		Message:  errorText(callErr),
		Payload:  workflow.RenderPreview(assignment),
	})

	return d, err
}

// CancelDaily closes the prompt without touching the created editorial.
func (s *EditorService) CancelDaily(ctx context.Context, id string) (*Draft, error) {
	return s.update(ctx, id, func(d *Draft) error {
		return d.Workflow.CancelPrompt()
	})
}

func (s *EditorService) History(ctx context.Context, kind model.SubmissionKind, page, pageSize int) ([]model.SubmissionRecord, int64, error) {
	if s.history == nil {
		return []model.SubmissionRecord{}, 0, nil
	}
	return s.history.List(ctx, kind, page, pageSize)
}

// DraftHistory lists the CMS calls made for one draft, oldest first.
func (s *EditorService) DraftHistory(ctx context.Context, id string) ([]model.SubmissionRecord, error) {
	if s.history == nil {
		return []model.SubmissionRecord{}, nil
	}
	return s.history.FindByDraftID(ctx, id)
}

// createEditorial and assignDaily turn a publisher panic into a transport
// failure so the attempt is still settled.
func (s *EditorService) createEditorial(ctx context.Context, item model.ContentItem) (id string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError("create editorial", r)
		}
	}()
	return s.publisher.CreateEditorial(ctx, item)
}

func (s *EditorService) assignDaily(ctx context.Context, assignment model.DailyAssignment) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError("assign daily", r)
		}
	}()
	return s.publisher.AssignDaily(ctx, assignment)
}

func recoveredError(call string, r any) error {
	logger.Log.Error("publisher panicked", zap.String("call", call), zap.Any("panic", r), zap.Stack("stack"))
	return &cms.TransportError{Err: fmt.Errorf("%s: %v", call, r)}
}

func (s *EditorService) record(ctx context.Context, rec *model.SubmissionRecord) {
	if s.history == nil {
		return
	}
	if err := s.history.Create(context.WithoutCancel(ctx), rec); err != nil {
		logger.Log.Error("failed to record submission", zap.String("draft", rec.DraftID), zap.Error(err))
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func firstOrEmpty(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}
