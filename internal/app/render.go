package app

import "github.com/dhanalakshmipoojary/quiz-managment/internal/domain"

// InputKind tells a client which control captures the answer.
type InputKind string

const (
	InputChoice   InputKind = "choice"
	InputText     InputKind = "text"
	InputTextarea InputKind = "textarea"
)

const (
	statusAnswerSaved   = "Your answer has been saved"
	statusAnswerMissing = "Please provide an answer before proceeding"
)

// Choice is one selectable answer. For true-false questions ID and Text are both the literal.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionView is the learner-facing rendering of one question. It never
// carries the correct answer.
type QuestionView struct {
	Index     int                 `json:"index"`
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Text      string              `json:"text"`
	Type      domain.QuestionType `json:"type"`
	TypeLabel string              `json:"typeLabel"`
	Marks     int                 `json:"marks"`
	InputKind InputKind           `json:"inputKind"`
	Choices   []Choice            `json:"choices,omitempty"`
	Answer    string              `json:"answer"`
	Status    string              `json:"status"`
}

// RenderQuestion builds the view of q at position index with the learner's current answer.
func RenderQuestion(index int, q domain.Question, answer string) QuestionView {
	v := QuestionView{
		Index:     index,
		ID:        q.ID,
		Title:     q.Title,
		Text:      q.Text,
		Type:      q.Type,
		TypeLabel: q.Type.Label(),
		Marks:     q.Marks,
		Answer:    answer,
		Status:    statusAnswerMissing,
	}
	if answer != "" {
		v.Status = statusAnswerSaved
	}

	switch q.Type {
	case domain.QuestionTypeMCQ:
		v.InputKind = InputChoice
		for _, opt := range q.Options {
			v.Choices = append(v.Choices, Choice{ID: opt.ID, Text: opt.Text})
		}
	case domain.QuestionTypeTrueFalse:
		v.InputKind = InputChoice
		for _, c := range domain.TrueFalseChoices {
			v.Choices = append(v.Choices, Choice{ID: c, Text: c})
		}
	case domain.QuestionTypeEssay:
		v.InputKind = InputTextarea
	default:
		v.InputKind = InputText
	}
	return v
}

// ProgressCell is one button of the navigation grid.
type ProgressCell struct {
	Index      int    `json:"index"`
	QuestionID string `json:"questionId"`
	Current    bool   `json:"current"`
	Answered   bool   `json:"answered"`
}

// Progress is the navigation grid plus position summary.
type Progress struct {
	Current  int            `json:"current"`
	Total    int            `json:"total"`
	Answered int            `json:"answered"`
	Percent  int            `json:"percent"`
	Cells    []ProgressCell `json:"cells"`
}

// BuildProgress derives the navigation grid from an attempt. Answered status
// is keyed by question id, not by position.
func BuildProgress(a *Attempt) Progress {
	questions := a.quiz.Questions
	p := Progress{
		Current:  a.current,
		Total:    len(questions),
		Answered: len(a.answered),
		Cells:    make([]ProgressCell, len(questions)),
	}
	if p.Total > 0 {
		p.Percent = (a.current + 1) * 100 / p.Total
	}
	for i, q := range questions {
		p.Cells[i] = ProgressCell{
			Index:      i,
			QuestionID: q.ID,
			Current:    i == a.current,
			Answered:   a.IsAnswered(q.ID),
		}
	}
	return p
}
