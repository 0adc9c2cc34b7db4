package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/validator"
	"github.com/google/uuid"
)

var formValidator = validator.New()

type questionForm struct {
	Title string              `json:"title" validate:"notblank"`
	Text  string              `json:"text" validate:"notblank"`
	Type  domain.QuestionType `json:"type" validate:"question_type"`
	Marks int                 `json:"marks" validate:"min=1"`
}

// QuestionEditor holds the in-progress state of a single question form.
// It starts in create mode when no existing question is given.
type QuestionEditor struct {
	id          string
	order       int
	editing     bool
	title       string
	text        string
	explanation string
	qtype       domain.QuestionType
	options     []domain.Option
	correct     string
	marks       int
	closed      bool
	newID       func() string
}

// NewQuestionEditor opens an editor. A nil existing question means create mode.
func NewQuestionEditor(existing *domain.Question) *QuestionEditor {
	return newQuestionEditor(existing, uuid.NewString)
}

func newQuestionEditor(existing *domain.Question, newID func() string) *QuestionEditor {
	e := &QuestionEditor{
		qtype: domain.QuestionTypeMCQ,
		marks: 1,
		newID: newID,
	}
	if existing == nil {
		e.id = newID()
		return e
	}
	e.editing = true
	e.id = existing.ID
	e.order = existing.Order
	e.title = existing.Title
	e.text = existing.Text
	e.explanation = existing.Explanation
	e.qtype = existing.Type
	e.options = append([]domain.Option(nil), existing.Options...)
	e.correct = existing.CorrectAnswer
	if existing.Marks > 0 {
		e.marks = existing.Marks
	}
	return e
}

// ID is the identifier the saved question will carry.
func (e *QuestionEditor) ID() string { return e.id }

// Editing reports whether the editor was opened on an existing question.
func (e *QuestionEditor) Editing() bool { return e.editing }

// Closed reports whether the editor was saved or cancelled.
func (e *QuestionEditor) Closed() bool { return e.closed }

func (e *QuestionEditor) Type() domain.QuestionType { return e.qtype }

func (e *QuestionEditor) CorrectAnswer() string { return e.correct }

func (e *QuestionEditor) SetTitle(title string) { e.title = title }

func (e *QuestionEditor) SetText(text string) { e.text = text }

func (e *QuestionEditor) SetExplanation(explanation string) { e.explanation = explanation }

// SetMarks stores the question weight; values below one become one.
func (e *QuestionEditor) SetMarks(marks int) {
	if marks < 1 {
		marks = 1
	}
	e.marks = marks
}

// SetType switches the question type. Switching to a different type drops the
// option set and the correct-answer selection.
func (e *QuestionEditor) SetType(t domain.QuestionType) error {
	if !t.Valid() {
		return domain.NewValidationError("type", "must be a valid question type (mcq, true-false, text, short-answer, essay)")
	}
	if t == e.qtype {
		return nil
	}
	e.qtype = t
	e.options = nil
	e.correct = ""
	return nil
}

// Options returns a copy of the current option list.
func (e *QuestionEditor) Options() []domain.Option {
	return append([]domain.Option(nil), e.options...)
}

// AddOption appends an empty option with a fresh id.
func (e *QuestionEditor) AddOption() (domain.Option, error) {
	if e.qtype != domain.QuestionTypeMCQ {
		return domain.Option{}, domain.NewValidationError("options", "options can only be added to mcq questions")
	}
	opt := domain.Option{ID: e.newID()}
	e.options = append(e.options, opt)
	return opt, nil
}

func (e *QuestionEditor) UpdateOption(id, text string) error {
	for i := range e.options {
		if e.options[i].ID == id {
			e.options[i].Text = text
			return nil
		}
	}
	return fmt.Errorf("update option %q: %w", id, domain.ErrOptionNotFound)
}

// RemoveOption deletes an option. Removing the selected correct option leaves
// a dangling selection that the next Save rejects.
func (e *QuestionEditor) RemoveOption(id string) error {
	for i := range e.options {
		if e.options[i].ID == id {
			e.options = append(e.options[:i], e.options[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("remove option %q: %w", id, domain.ErrOptionNotFound)
}

// SelectCorrectAnswer marks the correct option id (mcq) or True/False.
func (e *QuestionEditor) SelectCorrectAnswer(value string) error {
	switch e.qtype {
	case domain.QuestionTypeMCQ:
		if !hasOption(e.options, value) {
			return domain.NewValidationError("correctAnswer", "must reference one of the current options")
		}
	case domain.QuestionTypeTrueFalse:
		if !isTrueFalse(value) {
			return domain.NewValidationError("correctAnswer", "must be True or False")
		}
	default:
		return domain.NewValidationError("correctAnswer", "free-text questions have no correct answer")
	}
	e.correct = value
	return nil
}

// Save validates the form and returns the completed question, closing the
// editor. On failure nothing is changed and the editor stays open.
func (e *QuestionEditor) Save() (domain.Question, error) {
	if e.closed {
		return domain.Question{}, domain.ErrEditorClosed
	}

	var errs domain.ValidationErrors
	if err := formValidator.Struct(questionForm{Title: e.title, Text: e.text, Type: e.qtype, Marks: e.marks}); err != nil {
		var verrs domain.ValidationErrors
		if !errors.As(err, &verrs) {
			return domain.Question{}, err
		}
		errs = append(errs, verrs...)
	}
	if e.qtype.HasChoices() {
		switch {
		case e.correct == "":
			errs = append(errs, domain.ValidationError{Field: "correctAnswer", Message: "a correct answer must be selected"})
		case e.qtype == domain.QuestionTypeMCQ && !hasOption(e.options, e.correct):
			errs = append(errs, domain.ValidationError{Field: "correctAnswer", Message: "must reference one of the current options"})
		case e.qtype == domain.QuestionTypeTrueFalse && !isTrueFalse(e.correct):
			errs = append(errs, domain.ValidationError{Field: "correctAnswer", Message: "must be True or False"})
		}
	}
	if len(errs) > 0 {
		return domain.Question{}, errs
	}

	q := domain.Question{
		ID:          e.id,
		Title:       strings.TrimSpace(e.title),
		Text:        strings.TrimSpace(e.text),
		Type:        e.qtype,
		Marks:       e.marks,
		Explanation: e.explanation,
		Order:       e.order,
	}
	if e.qtype.HasChoices() {
		q.CorrectAnswer = e.correct
	}
	if e.qtype == domain.QuestionTypeMCQ {
		q.Options = e.Options()
	}
	e.closed = true
	return q, nil
}

// Cancel discards the in-progress edits.
func (e *QuestionEditor) Cancel() {
	e.closed = true
}

func hasOption(options []domain.Option, id string) bool {
	for _, opt := range options {
		if opt.ID == id {
			return true
		}
	}
	return false
}

func isTrueFalse(value string) bool {
	for _, choice := range domain.TrueFalseChoices {
		if value == choice {
			return true
		}
	}
	return false
}
