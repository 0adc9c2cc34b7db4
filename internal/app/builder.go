package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
	"github.com/google/uuid"
)

// QuizSaver persists a created or updated quiz.
type QuizSaver interface {
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
}

// QuizBuilder is one authoring draft: a title, a question list and at most
// one open question editor. It exclusively owns its questions until submitted.
type QuizBuilder struct {
	id    string
	now   func() time.Time
	newID func() string

	mu          sync.Mutex
	quizID      string
	title       string
	description string
	createdAt   time.Time
	published   bool
	questions   *QuestionList
	editor      *QuestionEditor
	submitting  bool
}

// DraftView is a point-in-time copy of a draft for display.
type DraftView struct {
	ID            string            `json:"id"`
	QuizID        string            `json:"quizId"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	Questions     []domain.Question `json:"questions"`
	QuestionCount int               `json:"questionCount"`
	TotalMarks    int               `json:"totalMarks"`
	Empty         bool              `json:"empty"`
	IsPublished   bool              `json:"isPublished"`
	Submitting    bool              `json:"submitting"`
	PendingDelete string            `json:"pendingDelete,omitempty"`
	EditorOpen    bool              `json:"editorOpen"`
}

// NewQuizBuilder starts an empty draft for a new quiz.
func NewQuizBuilder(id string) *QuizBuilder {
	return newQuizBuilder(id, nil, time.Now, uuid.NewString)
}

// EditQuizBuilder opens a draft on an existing quiz; submitting it updates the quiz in place.
func EditQuizBuilder(id string, quiz domain.Quiz) *QuizBuilder {
	return newQuizBuilder(id, &quiz, time.Now, uuid.NewString)
}

func newQuizBuilder(id string, existing *domain.Quiz, now func() time.Time, newID func() string) *QuizBuilder {
	b := &QuizBuilder{
		id:        id,
		now:       now,
		newID:     newID,
		questions: NewQuestionList(nil),
	}
	if existing == nil {
		b.quizID = newID()
		return b
	}
	b.quizID = existing.ID
	b.title = existing.Title
	b.description = existing.Description
	b.createdAt = existing.CreatedAt
	b.published = existing.IsPublished
	b.questions = NewQuestionList(existing.Questions)
	return b
}

func (b *QuizBuilder) ID() string { return b.id }

func (b *QuizBuilder) QuizID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.quizID
}

func (b *QuizBuilder) SetDetails(title, description string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.title = title
	b.description = description
}

// OpenEditor opens the question editor. An empty questionID opens it in
// create mode. Any editor already open is discarded.
func (b *QuizBuilder) OpenEditor(questionID string) (*QuestionEditor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if questionID == "" {
		b.editor = newQuestionEditor(nil, b.newID)
		return b.editor, nil
	}
	q, ok := b.questions.Get(questionID)
	if !ok {
		return nil, fmt.Errorf("edit question %q: %w", questionID, domain.ErrQuestionNotFound)
	}
	b.editor = newQuestionEditor(&q, b.newID)
	return b.editor, nil
}

// SaveEditor saves the open editor into the question list. When validation
// fails the editor stays open with its input.
func (b *QuizBuilder) SaveEditor() (domain.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.editor == nil {
		return domain.Question{}, domain.ErrEditorClosed
	}
	q, err := b.editor.Save()
	if err != nil {
		return domain.Question{}, err
	}
	b.editor = nil
	return b.questions.Upsert(q), nil
}

// EditQuestion opens an editor, runs fill over it and saves it while holding
// the draft, so concurrent edits of one draft never share an editor. When fill
// or validation fails the editor stays open with its input.
func (b *QuizBuilder) EditQuestion(questionID string, fill func(*QuestionEditor) error) (domain.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var editor *QuestionEditor
	if questionID == "" {
		editor = newQuestionEditor(nil, b.newID)
	} else {
		q, ok := b.questions.Get(questionID)
		if !ok {
			return domain.Question{}, fmt.Errorf("edit question %q: %w", questionID, domain.ErrQuestionNotFound)
		}
		editor = newQuestionEditor(&q, b.newID)
	}
	b.editor = editor
	if err := fill(editor); err != nil {
		return domain.Question{}, err
	}
	q, err := editor.Save()
	if err != nil {
		return domain.Question{}, err
	}
	b.editor = nil
	return b.questions.Upsert(q), nil
}

func (b *QuizBuilder) CancelEditor() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.editor != nil {
		b.editor.Cancel()
		b.editor = nil
	}
}

// MoveQuestion swaps a question with its neighbour. It reports false at the boundaries.
func (b *QuizBuilder) MoveQuestion(questionID string, dir Direction) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.questions.IndexOf(questionID)
	if idx < 0 {
		return false, fmt.Errorf("move question %q: %w", questionID, domain.ErrQuestionNotFound)
	}
	return b.questions.Move(idx, dir), nil
}

func (b *QuizBuilder) RequestDelete(questionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.questions.RequestDelete(questionID)
}

func (b *QuizBuilder) ConfirmDelete(questionID string) (domain.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.questions.ConfirmDelete(questionID)
}

func (b *QuizBuilder) CancelDelete() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.questions.CancelDelete()
}

func (b *QuizBuilder) Questions() []domain.Question {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.questions.Questions()
}

// TotalMarks is recomputed from the current questions on every call.
func (b *QuizBuilder) TotalMarks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.questions.TotalMarks()
}

// Submitting reports whether a save is outstanding.
func (b *QuizBuilder) Submitting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.submitting
}

func (b *QuizBuilder) Snapshot() DraftView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return DraftView{
		ID:            b.id,
		QuizID:        b.quizID,
		Title:         b.title,
		Description:   b.description,
		Questions:     b.questions.Questions(),
		QuestionCount: b.questions.Len(),
		TotalMarks:    b.questions.TotalMarks(),
		Empty:         b.questions.IsEmpty(),
		IsPublished:   b.published,
		Submitting:    b.submitting,
		PendingDelete: b.questions.PendingDelete(),
		EditorOpen:    b.editor != nil,
	}
}

// Submit saves the draft as a quiz, published or not. The in-flight flag is
// set before the saver is called and cleared when it returns, so a second
// Submit in between fails with ErrSubmitInFlight. A failed save leaves the
// draft untouched for a retry.
func (b *QuizBuilder) Submit(ctx context.Context, saver QuizSaver, publish bool) (domain.Quiz, error) {
	b.mu.Lock()
	if b.submitting {
		b.mu.Unlock()
		return domain.Quiz{}, domain.ErrSubmitInFlight
	}
	if errs := b.validateLocked(); len(errs) > 0 {
		b.mu.Unlock()
		return domain.Quiz{}, errs
	}
	quiz := b.buildLocked(publish)
	b.submitting = true
	b.mu.Unlock()

	err := saver.SaveQuiz(ctx, quiz)

	b.mu.Lock()
	b.submitting = false
	if err == nil {
		b.createdAt = quiz.CreatedAt
		b.published = quiz.IsPublished
	}
	b.mu.Unlock()

	if err != nil {
		return domain.Quiz{}, &domain.SubmissionError{Op: "save quiz", Err: err}
	}
	return quiz, nil
}

func (b *QuizBuilder) validateLocked() domain.ValidationErrors {
	var errs domain.ValidationErrors
	if strings.TrimSpace(b.title) == "" {
		errs = append(errs, domain.ValidationError{Field: "title", Message: "please enter a quiz title"})
	}
	if b.questions.IsEmpty() {
		errs = append(errs, domain.ValidationError{Field: "questions", Message: "please add at least one question"})
	}
	return errs
}

func (b *QuizBuilder) buildLocked(publish bool) domain.Quiz {
	now := b.now()
	createdAt := b.createdAt
	if createdAt.IsZero() {
		createdAt = now
	}
	questions := b.questions.Questions()
	return domain.Quiz{
		ID:          b.quizID,
		Title:       strings.TrimSpace(b.title),
		Description: b.description,
		IsPublished: publish,
		TotalMarks:  domain.TotalMarks(questions),
		Questions:   questions,
		CreatedAt:   createdAt,
		UpdatedAt:   now,
	}
}
