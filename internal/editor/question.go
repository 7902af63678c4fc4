package editor

import (
	"editorial_composer/internal/model"

	"github.com/google/uuid"
)

// OptionRow is an answer choice while it is being edited. The ID never leaves
// the editor; the CMS only receives the statement.
type OptionRow struct {
	ID        string `json:"id"`
	Statement string `json:"statement"`
}

// QuestionEditor holds one question's fields. CorrectAnswer is the value sent to
// the CMS. CorrectOptionID is set when the answer was picked from the option
// list, so renaming that option keeps the answer in sync and two options with
// the same text stay distinguishable.
type QuestionEditor struct {
	Statement       string      `json:"statement"`
	Options         []OptionRow `json:"options"`
	CorrectAnswer   string      `json:"correctAnswer"`
	CorrectOptionID string      `json:"correctOptionId,omitempty"`
}

func newOption() OptionRow {
	return OptionRow{ID: uuid.NewString()}
}

// NewQuestion returns a question with an empty statement and one empty option.
func NewQuestion() QuestionEditor {
	return QuestionEditor{Options: []OptionRow{newOption()}}
}

func (q *QuestionEditor) SetStatement(text string) {
	q.Statement = text
}

func (q *QuestionEditor) AddOption() {
	q.Options = append(q.Options, newOption())
}

func (q *QuestionEditor) UpdateOption(i int, text string) {
	if i < 0 || i >= len(q.Options) {
		return
	}
	q.Options[i].Statement = text
	if q.CorrectOptionID != "" && q.Options[i].ID == q.CorrectOptionID {
		q.CorrectAnswer = text
	}
}

// DeleteOption removes option i unless it is the only one left.
func (q *QuestionEditor) DeleteOption(i int) {
	if i < 0 || i >= len(q.Options) || len(q.Options) <= 1 {
		return
	}
	removed := q.Options[i]
	if q.CorrectOptionID != "" {
		if removed.ID == q.CorrectOptionID {
			q.clearCorrect()
		}
	} else if removed.Statement == q.CorrectAnswer {
		q.clearCorrect()
	}
	q.Options = append(q.Options[:i:i], q.Options[i+1:]...)
}

// SetCorrect is the free-text override. It drops any option mark.
func (q *QuestionEditor) SetCorrect(text string) {
	q.CorrectAnswer = text
	q.CorrectOptionID = ""
}

// MarkCorrect picks option i as the correct answer. Options without text
// cannot be picked.
func (q *QuestionEditor) MarkCorrect(i int) {
	if i < 0 || i >= len(q.Options) || q.Options[i].Statement == "" {
		return
	}
	q.CorrectOptionID = q.Options[i].ID
	q.CorrectAnswer = q.Options[i].Statement
}

func (q QuestionEditor) IsCorrect(i int) bool {
	if i < 0 || i >= len(q.Options) {
		return false
	}
	if q.CorrectOptionID != "" {
		return q.Options[i].ID == q.CorrectOptionID
	}
	return q.Options[i].Statement != "" && q.Options[i].Statement == q.CorrectAnswer
}

func (q *QuestionEditor) clearCorrect() {
	q.CorrectAnswer = ""
	q.CorrectOptionID = ""
}

// Question converts the editor state to the wire model.
func (q QuestionEditor) Question() model.Question {
	options := make([]model.Option, len(q.Options))
	for i, o := range q.Options {
		options[i] = model.Option{Statement: o.Statement}
	}
	return model.Question{
		Statement:     q.Statement,
		Options:       options,
		CorrectAnswer: q.CorrectAnswer,
	}
}

func (q QuestionEditor) clone() QuestionEditor {
	c := q
	c.Options = append([]OptionRow(nil), q.Options...)
	return c
}

// QuestionFromModel builds an editor from a wire question, e.g. one read from a
// draft file. An option whose text equals the correct answer is marked.
func QuestionFromModel(m model.Question) QuestionEditor {
	q := QuestionEditor{Statement: m.Statement, CorrectAnswer: m.CorrectAnswer}
	for _, o := range m.Options {
		row := newOption()
		row.Statement = o.Statement
		q.Options = append(q.Options, row)
	}
	if len(q.Options) == 0 {
		q.Options = []OptionRow{newOption()}
	}
	for _, o := range q.Options {
		if o.Statement != "" && o.Statement == q.CorrectAnswer {
			q.CorrectOptionID = o.ID
			break
		}
	}
	return q
}
