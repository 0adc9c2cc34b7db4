package app

import (
	"fmt"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
)

// AttemptState is the lifecycle position of a quiz attempt.
type AttemptState string

const (
	StateInProgress       AttemptState = "in-progress"
	StateConfirmingSubmit AttemptState = "confirming-submit"
	StateSubmitted        AttemptState = "submitted"
)

// Confirmation is shown before a manual submit.
type Confirmation struct {
	Answered   int    `json:"answered"`
	Total      int    `json:"total"`
	Unanswered int    `json:"unanswered"`
	Warning    string `json:"warning,omitempty"`
}

// Result is the frozen outcome of a submitted attempt.
type Result struct {
	Answers        map[string]string `json:"answers"`
	AnsweredCount  int               `json:"answeredCount"`
	TotalQuestions int               `json:"totalQuestions"`
	TimedOut       bool              `json:"timedOut"`
}

// Attempt is the answer-session state machine of one learner taking one quiz.
// It is not safe for concurrent use; Session serialises access to it.
type Attempt struct {
	quiz     domain.Quiz
	state    AttemptState
	current  int
	answers  map[string]string
	answered map[string]struct{}
	result   *Result
}

func NewAttempt(quiz domain.Quiz) *Attempt {
	return &Attempt{
		quiz:     quiz,
		state:    StateInProgress,
		answers:  make(map[string]string),
		answered: make(map[string]struct{}),
	}
}

func (a *Attempt) State() AttemptState { return a.state }

func (a *Attempt) CurrentIndex() int { return a.current }

func (a *Attempt) Total() int { return len(a.quiz.Questions) }

// Current returns the question at the current index.
func (a *Attempt) Current() domain.Question {
	return a.quiz.Questions[a.current]
}

func (a *Attempt) Quiz() domain.Quiz { return a.quiz }

// Answer returns the stored answer for a question, or "".
func (a *Attempt) Answer(questionID string) string { return a.answers[questionID] }

func (a *Attempt) IsAnswered(questionID string) bool {
	_, ok := a.answered[questionID]
	return ok
}

func (a *Attempt) AnsweredCount() int { return len(a.answered) }

// Answers returns a copy of the answer mapping.
func (a *Attempt) Answers() map[string]string {
	out := make(map[string]string, len(a.answers))
	for k, v := range a.answers {
		out[k] = v
	}
	return out
}

// Result is nil until the attempt is submitted.
func (a *Attempt) Result() *Result {
	if a.result == nil {
		return nil
	}
	r := *a.result
	r.Answers = make(map[string]string, len(a.result.Answers))
	for k, v := range a.result.Answers {
		r.Answers[k] = v
	}
	return &r
}

// SetAnswer records value for questionID, overwriting any previous answer.
// Choice questions only accept one of their choices.
func (a *Attempt) SetAnswer(questionID, value string) error {
	if err := a.requireInProgress(); err != nil {
		return err
	}
	q, ok := a.quiz.Question(questionID)
	if !ok {
		return fmt.Errorf("answer %q: %w", questionID, domain.ErrQuestionNotFound)
	}
	switch q.Type {
	case domain.QuestionTypeMCQ:
		if !q.HasOption(value) {
			return fmt.Errorf("answer %q with %q: %w", questionID, value, domain.ErrOptionNotFound)
		}
	case domain.QuestionTypeTrueFalse:
		if !isTrueFalse(value) {
			return domain.NewValidationError("value", "must be True or False")
		}
	}
	a.answers[questionID] = value
	a.answered[questionID] = struct{}{}
	return nil
}

// Next moves forward one question. It reports false at the last question.
func (a *Attempt) Next() (bool, error) {
	if err := a.requireInProgress(); err != nil {
		return false, err
	}
	if a.current >= len(a.quiz.Questions)-1 {
		return false, nil
	}
	a.current++
	return true, nil
}

// Previous moves back one question. It reports false at the first question.
func (a *Attempt) Previous() (bool, error) {
	if err := a.requireInProgress(); err != nil {
		return false, err
	}
	if a.current == 0 {
		return false, nil
	}
	a.current--
	return true, nil
}

// JumpTo sets the current index regardless of answered status.
func (a *Attempt) JumpTo(index int) error {
	if err := a.requireInProgress(); err != nil {
		return err
	}
	if index < 0 || index >= len(a.quiz.Questions) {
		return fmt.Errorf("jump to %d of %d: %w", index, len(a.quiz.Questions), domain.ErrIndexOutOfRange)
	}
	a.current = index
	return nil
}

// RequestSubmit moves to the confirmation step. Only allowed on the last question.
func (a *Attempt) RequestSubmit() (Confirmation, error) {
	if err := a.requireInProgress(); err != nil {
		return Confirmation{}, err
	}
	if a.current != len(a.quiz.Questions)-1 {
		return Confirmation{}, domain.ErrNotLastQuestion
	}
	a.state = StateConfirmingSubmit
	return a.confirmation(), nil
}

func (a *Attempt) confirmation() Confirmation {
	total := len(a.quiz.Questions)
	c := Confirmation{
		Answered:   len(a.answered),
		Total:      total,
		Unanswered: total - len(a.answered),
	}
	if c.Unanswered > 0 {
		c.Warning = fmt.Sprintf("%d question(s) remain unanswered", c.Unanswered)
	}
	return c
}

func (a *Attempt) ConfirmSubmit() (Result, error) {
	if err := a.requireState(StateConfirmingSubmit); err != nil {
		return Result{}, err
	}
	return a.submit(false), nil
}

// CancelConfirm returns to answering with nothing else changed.
func (a *Attempt) CancelConfirm() error {
	if err := a.requireState(StateConfirmingSubmit); err != nil {
		return err
	}
	a.state = StateInProgress
	return nil
}

// TimeExpire force-submits from any non-terminal state. It reports false when
// the attempt was already submitted.
func (a *Attempt) TimeExpire() (Result, bool) {
	if a.state == StateSubmitted {
		return Result{}, false
	}
	return a.submit(true), true
}

func (a *Attempt) submit(timedOut bool) Result {
	a.state = StateSubmitted
	a.result = &Result{
		Answers:        a.Answers(),
		AnsweredCount:  len(a.answered),
		TotalQuestions: len(a.quiz.Questions),
		TimedOut:       timedOut,
	}
	return *a.Result()
}

func (a *Attempt) requireInProgress() error {
	return a.requireState(StateInProgress)
}

func (a *Attempt) requireState(want AttemptState) error {
	switch {
	case a.state == want:
		return nil
	case a.state == StateSubmitted:
		return domain.ErrSessionSubmitted
	default:
		return fmt.Errorf("expected %s, session is %s: %w", want, a.state, domain.ErrInvalidTransition)
	}
}
