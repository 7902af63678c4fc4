package model

// Option is one answer choice as the CMS expects it.
type Option struct {
	Statement string `json:"statement" yaml:"statement"`
}

type Question struct {
	Statement     string   `json:"statement" yaml:"statement"`
	Options       []Option `json:"options" yaml:"options"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correctAnswer"`
}

// ContentItem is the body of the create-editorial call.
type ContentItem struct {
	Title     string     `json:"title"`
	Paragraph []string   `json:"paragraph"`
	Questions []Question `json:"questions"`
	Date      string     `json:"date"`
}

// DailyAssignment links a created editorial to a date.
type DailyAssignment struct {
	List []string `json:"list"`
	Date string   `json:"date"`
}
