package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrDraftNotFound is returned when an authoring draft does not exist.
	ErrDraftNotFound = errors.New("quiz draft not found")
	// ErrSessionNotFound is returned when a quiz-taking session does not exist.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionNotFound indicates a question ID is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates an option ID is not part of the question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrInvalidTransition is returned when an action is not allowed in the current session state.
	ErrInvalidTransition = errors.New("action not allowed in current session state")
	// ErrSessionSubmitted is returned for any mutation of a submitted session.
	ErrSessionSubmitted = errors.New("quiz session already submitted")
	// ErrNotLastQuestion is returned when submission is requested before the last question.
	ErrNotLastQuestion = errors.New("submission is only available on the last question")
	// ErrSubmitInFlight rejects a submission while a previous one is outstanding.
	ErrSubmitInFlight = errors.New("submission already in progress")
	// ErrEditorClosed is returned when saving an editor that was already saved or cancelled.
	ErrEditorClosed = errors.New("question editor is closed")
	// ErrNoPendingDelete is returned when a deletion is confirmed without being requested.
	ErrNoPendingDelete = errors.New("no deletion awaiting confirmation")
	// ErrIndexOutOfRange is returned when jumping to a question that does not exist.
	ErrIndexOutOfRange = errors.New("question index out of range")
	// ErrQuizNotPublished is returned when starting a session on a draft quiz.
	ErrQuizNotPublished = errors.New("quiz is not published")
	// ErrQuizEmpty is returned when starting a session on a quiz with no questions.
	ErrQuizEmpty = errors.New("quiz has no questions")
	// ErrConfirmationRequired is returned by destructive actions that were not confirmed yet.
	ErrConfirmationRequired = errors.New("confirmation required")
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Rule    string `json:"rule,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ValidationErrors collects every field rejected by one validation pass.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// NewValidationError builds a single-field validation failure.
func NewValidationError(field, message string) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message}}
}

// IsValidation reports whether err carries validation failures.
func IsValidation(err error) bool {
	var many ValidationErrors
	if errors.As(err, &many) {
		return true
	}
	var one *ValidationError
	return errors.As(err, &one)
}

// SubmissionError wraps a failed call to an external collaborator. The
// caller's state is left untouched so the operation can be retried.
type SubmissionError struct {
	Op  string
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// IsSubmission reports whether err is a collaborator failure.
func IsSubmission(err error) bool {
	var sub *SubmissionError
	return errors.As(err, &sub)
}
