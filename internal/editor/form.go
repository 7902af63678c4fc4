package editor

import (
	"errors"
	"strings"

	"editorial_composer/internal/model"

	"github.com/go-playground/validator/v10"
)

var (
	ErrTitleRequired     = errors.New("title is required")
	ErrParagraphRequired = errors.New("paragraph text is required")
)

var validate = validator.New()

// Form is the top-level editor state: the article fields and its questions.
type Form struct {
	Title         string           `json:"title" validate:"required"`
	Date          string           `json:"date"`
	ParagraphText string           `json:"paragraphText" validate:"required"`
	Questions     []QuestionEditor `json:"questions"`
}

// NewForm returns an empty form dated today (YYYY-MM-DD).
func NewForm(today string) Form {
	return Form{Date: today, Questions: []QuestionEditor{}}
}

func (f *Form) AddQuestion() {
	f.Questions = append(f.Questions, NewQuestion())
}

// UpdateQuestion replaces question i wholesale.
func (f *Form) UpdateQuestion(i int, q QuestionEditor) {
	if i < 0 || i >= len(f.Questions) {
		return
	}
	f.Questions[i] = q
}

func (f *Form) DeleteQuestion(i int) {
	if i < 0 || i >= len(f.Questions) {
		return
	}
	f.Questions = append(f.Questions[:i:i], f.Questions[i+1:]...)
}

// Validate checks the fields the editor page marks as required. Everything
// else, including empty questions and odd dates, is passed through as typed.
func (f Form) Validate() error {
	trimmed := f
	trimmed.Title = strings.TrimSpace(f.Title)
	trimmed.ParagraphText = strings.TrimSpace(f.ParagraphText)

	if err := validate.Struct(trimmed); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "Title":
				return ErrTitleRequired
			case "ParagraphText":
				return ErrParagraphRequired
			}
		}
		return err
	}
	return nil
}

// Payload assembles the content item sent to the CMS.
func (f Form) Payload() model.ContentItem {
	questions := make([]model.Question, len(f.Questions))
	for i, q := range f.Questions {
		questions[i] = q.Question()
	}
	return model.ContentItem{
		Title:     f.Title,
		Paragraph: SplitParagraphs(f.ParagraphText),
		Questions: questions,
		Date:      f.Date,
	}
}

// SplitParagraphs splits text on line breaks, trims each line and drops the
// empty ones.
func SplitParagraphs(text string) []string {
	paragraphs := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return paragraphs
}

func (f Form) clone() Form {
	c := f
	c.Questions = make([]QuestionEditor, len(f.Questions))
	for i, q := range f.Questions {
		c.Questions[i] = q.clone()
	}
	return c
}

// FormFromContent builds a form from a content item, joining paragraphs with
// blank lines.
func FormFromContent(item model.ContentItem) Form {
	f := Form{
		Title:         item.Title,
		Date:          item.Date,
		ParagraphText: strings.Join(item.Paragraph, "\n\n"),
		Questions:     []QuestionEditor{},
	}
	for _, q := range item.Questions {
		f.Questions = append(f.Questions, QuestionFromModel(q))
	}
	return f
}
