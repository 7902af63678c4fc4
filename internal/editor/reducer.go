package editor

import (
	"errors"
	"fmt"
)

var ErrUnknownAction = errors.New("unknown editor action")

type ActionType string

const (
	ActionSetTitle       ActionType = "set_title"
	ActionSetDate        ActionType = "set_date"
	ActionSetParagraphs  ActionType = "set_paragraphs"
	ActionAddQuestion    ActionType = "add_question"
	ActionDeleteQuestion ActionType = "delete_question"
	ActionSetStatement   ActionType = "set_statement"
	ActionAddOption      ActionType = "add_option"
	ActionUpdateOption   ActionType = "update_option"
	ActionDeleteOption   ActionType = "delete_option"
	ActionSetCorrect     ActionType = "set_correct"
	ActionMarkCorrect    ActionType = "mark_correct"
)

// Action is a single edit. Question and Option are indexes into the form;
// Value carries the new text where the action needs one.
type Action struct {
	Type     ActionType `json:"type" form:"type" binding:"required"`
	Question int        `json:"question" form:"question"`
	Option   int        `json:"option" form:"option"`
	Value    string     `json:"value" form:"value"`
}

// Reduce returns the form after applying a. The input is left untouched.
// Question-level edits run against a copy of that question which then replaces
// the original through UpdateQuestion. Indexes out of range leave the form as is.
func Reduce(f Form, a Action) (Form, error) {
	next := f.clone()

	switch a.Type {
	case ActionSetTitle:
		next.Title = a.Value
	case ActionSetDate:
		next.Date = a.Value
	case ActionSetParagraphs:
		next.ParagraphText = a.Value
	case ActionAddQuestion:
		next.AddQuestion()
	case ActionDeleteQuestion:
		next.DeleteQuestion(a.Question)
	case ActionSetStatement, ActionAddOption, ActionUpdateOption,
		ActionDeleteOption, ActionSetCorrect, ActionMarkCorrect:
		if a.Question < 0 || a.Question >= len(next.Questions) {
			return next, nil
		}
		q := next.Questions[a.Question].clone()
		applyQuestion(&q, a)
		next.UpdateQuestion(a.Question, q)
	default:
		return f, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}

	return next, nil
}

func applyQuestion(q *QuestionEditor, a Action) {
	switch a.Type {
	case ActionSetStatement:
		q.SetStatement(a.Value)
	case ActionAddOption:
		q.AddOption()
	case ActionUpdateOption:
		q.UpdateOption(a.Option, a.Value)
	case ActionDeleteOption:
		q.DeleteOption(a.Option)
	case ActionSetCorrect:
		q.SetCorrect(a.Value)
	case ActionMarkCorrect:
		q.MarkCorrect(a.Option)
	}
}
