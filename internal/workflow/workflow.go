package workflow

import (
	"encoding/json"
	"errors"
	"fmt"

	"editorial_composer/internal/model"
)

var (
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrDailyInFlight      = errors.New("the daily assignment is already being posted")
	ErrNoPrompt           = errors.New("daily assignment prompt is not open")
	ErrNotCreated         = errors.New("no created editorial to assign")
	ErrDateRequired       = errors.New("daily date is required")
)

// MissingIdentifierMessage is shown when the CMS accepted the editorial but
// returned no identifier, so the daily step cannot run.
const MissingIdentifierMessage = "Submission succeeded, but the response had no identifier for the daily update."

// InterruptedMessage explains a call that never settled, e.g. because the
// server restarted while it was in flight.
const InterruptedMessage = "The request was interrupted before the CMS answered."

type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

type Step string

const (
	StepNotStarted    Step = "not_started"
	StepCreated       Step = "created"
	StepDailyAssigned Step = "daily_assigned"
)

type FailureKind string

const (
	FailureTransport         FailureKind = "transport"
	FailureServer            FailureKind = "server"
	FailureMissingIdentifier FailureKind = "missing_identifier"
)

// Prompt is the optional daily-assignment step offered after a successful create.
type Prompt struct {
	Open    bool   `json:"open"`
	Date    string `json:"date"`
	Posting bool   `json:"posting"`
}

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Workflow tracks one draft through create-editorial and assign-daily.
// Attempt increases on every Begin; settle calls from an older attempt are
// dropped so a late response cannot overwrite a newer submission.
type Workflow struct {
	Status   Status      `json:"status"`
	Loading  bool        `json:"loading"`
	Step     Step        `json:"step"`
	RemoteID string      `json:"remoteId,omitempty"`
	Failure  FailureKind `json:"failure,omitempty"`
	Message  string      `json:"message,omitempty"`
	Preview  string      `json:"preview"`
	Prompt   Prompt      `json:"prompt"`
	Notice   *Notice     `json:"notice,omitempty"`
	Attempt  int         `json:"attempt"`
}

func New() Workflow {
	return Workflow{Status: StatusIdle, Step: StepNotStarted}
}

// RenderPreview formats a payload the way the preview pane shows it.
func RenderPreview(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// Begin moves the workflow to pending and renders the payload into the preview
// before any network call is made. It returns the attempt number the caller
// must hand back when settling.
func (w *Workflow) Begin(payload model.ContentItem) (int, error) {
	if w.Status == StatusPending {
		return 0, ErrSubmissionInFlight
	}
	if w.Prompt.Posting {
		return 0, ErrDailyInFlight
	}
	w.Attempt++
	w.Status = StatusPending
	w.Loading = true
	w.Step = StepNotStarted
	w.RemoteID = ""
	w.Failure = ""
	w.Message = ""
	w.Notice = nil
	w.Prompt = Prompt{}
	w.Preview = RenderPreview(payload)
	return w.Attempt, nil
}

func (w *Workflow) current(attempt int) bool {
	return attempt == w.Attempt && w.Status == StatusPending
}

// Fail settles attempt with a transport or server failure. The preview is
// replaced by the error text followed by the payload that was sent.
func (w *Workflow) Fail(attempt int, kind FailureKind, message string, payload model.ContentItem) bool {
	if !w.current(attempt) {
		return false
	}
	w.Status = StatusError
	w.Loading = false
	w.Failure = kind
	w.Message = message
	w.Preview = fmt.Sprintf("Submission failed: %s\n\n%s", message, RenderPreview(payload))
	return true
}

// MissingIdentifier settles attempt as the distinct "created but no id" error.
// The prompt stays closed.
func (w *Workflow) MissingIdentifier(attempt int) bool {
	if !w.current(attempt) {
		return false
	}
	w.Status = StatusError
	w.Loading = false
	w.Failure = FailureMissingIdentifier
	w.Message = MissingIdentifierMessage
	w.Preview = MissingIdentifierMessage
	return true
}

// Created settles attempt successfully and opens the prompt dated today.
func (w *Workflow) Created(attempt int, id, today string) bool {
	if !w.current(attempt) {
		return false
	}
	w.Status = StatusSuccess
	w.Loading = false
	w.Step = StepCreated
	w.RemoteID = id
	w.Message = fmt.Sprintf("Editorial posted! ID: %s", id)
	w.Prompt = Prompt{Open: true, Date: today}
	return true
}

func (w *Workflow) SetPromptDate(date string) error {
	if !w.Prompt.Open {
		return ErrNoPrompt
	}
	if w.Prompt.Posting {
		return ErrDailyInFlight
	}
	w.Prompt.Date = date
	return nil
}

// BeginDaily marks the prompt as posting and returns what to send.
func (w *Workflow) BeginDaily() (model.DailyAssignment, error) {
	switch {
	case !w.Prompt.Open:
		return model.DailyAssignment{}, ErrNoPrompt
	case w.Prompt.Posting:
		return model.DailyAssignment{}, ErrDailyInFlight
	case w.Step != StepCreated || w.RemoteID == "":
		return model.DailyAssignment{}, ErrNotCreated
	case w.Prompt.Date == "":
		return model.DailyAssignment{}, ErrDateRequired
	}
	w.Prompt.Posting = true
	w.Notice = nil
	return model.DailyAssignment{List: []string{w.RemoteID}, Date: w.Prompt.Date}, nil
}

// DailyDone settles a posting prompt successfully. It reports false when no
// daily post was in flight.
func (w *Workflow) DailyDone() bool {
	if !w.Prompt.Posting {
		return false
	}
	date := w.Prompt.Date
	w.Prompt = Prompt{}
	w.Step = StepDailyAssigned
	w.Notice = &Notice{
		Level:   NoticeSuccess,
		Message: fmt.Sprintf("Successfully added editorial %s to daily for %s.", w.RemoteID, date),
	}
	return true
}

// DailyFailed leaves the prompt open so the editor can retry.
func (w *Workflow) DailyFailed(message string) bool {
	if !w.Prompt.Posting {
		return false
	}
	w.Prompt.Posting = false
	w.Notice = &Notice{
		Level:   NoticeError,
		Message: fmt.Sprintf("Failed to post to daily editorial: %s", message),
	}
	return true
}

// CancelPrompt closes the prompt; the created editorial is untouched.
func (w *Workflow) CancelPrompt() error {
	if w.Prompt.Posting {
		return ErrDailyInFlight
	}
	w.Prompt = Prompt{}
	return nil
}

// InFlight reports whether a create or daily call was started and not yet settled.
func (w Workflow) InFlight() bool {
	return w.Status == StatusPending || w.Prompt.Posting
}

// Interrupt settles any unsettled call as a transport failure. The attempt
// counter moves on so a result that still arrives for it is dropped.
func (w *Workflow) Interrupt(message string) bool {
	changed := false
	if w.Status == StatusPending {
		w.Attempt++
		w.Status = StatusError
		w.Loading = false
		w.Failure = FailureTransport
		w.Message = message
		w.Preview = fmt.Sprintf("Submission failed: %s\n\n%s", message, w.Preview)
		changed = true
	}
	if w.Prompt.Posting {
		w.Prompt.Posting = false
		w.Notice = &Notice{
			Level:   NoticeError,
			Message: fmt.Sprintf("Failed to post to daily editorial: %s", message),
		}
		changed = true
	}
	return changed
}
