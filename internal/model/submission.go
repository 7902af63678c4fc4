package model

type SubmissionKind string

const (
	SubmissionEditorial SubmissionKind = "editorial"
	SubmissionDaily     SubmissionKind = "daily"
)

type SubmissionOutcome string

const (
	OutcomeSuccess           SubmissionOutcome = "success"
	OutcomeTransportError    SubmissionOutcome = "transport_error"
	OutcomeServerError       SubmissionOutcome = "server_error"
	OutcomeMissingIdentifier SubmissionOutcome = "missing_identifier"
)

// SubmissionRecord is one settled call to the CMS.
type SubmissionRecord struct {
	BaseModel
	DraftID  string            `gorm:"size:36;index" json:"draftId"`
	Kind     SubmissionKind    `gorm:"size:20;not null" json:"kind"`
	Title    string            `gorm:"size:255" json:"title"`
	Date     string            `gorm:"size:10" json:"date"`
	RemoteID string            `gorm:"size:64;index" json:"remoteId"`
	Outcome  SubmissionOutcome `gorm:"size:32;not null" json:"outcome"`
	Message  string            `gorm:"type:text" json:"message"`
	Payload  string            `gorm:"type:text" json:"payload"`
}

func (SubmissionRecord) TableName() string {
	return "submission_records"
}
