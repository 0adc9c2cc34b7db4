package app

import (
	"fmt"
	"sort"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
)

// Direction is the neighbour a question swaps with when moved.
type Direction int

const (
	DirectionUp   Direction = -1
	DirectionDown Direction = 1
)

// ParseDirection accepts "up" or "down".
func ParseDirection(raw string) (Direction, error) {
	switch raw {
	case "up":
		return DirectionUp, nil
	case "down":
		return DirectionDown, nil
	default:
		return 0, domain.NewValidationError("direction", "must be up or down")
	}
}

// QuestionList is the ordered question sequence of a quiz being authored.
// Order fields always read 0..n-1.
type QuestionList struct {
	items         []domain.Question
	pendingDelete string
}

func NewQuestionList(questions []domain.Question) *QuestionList {
	items := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		items = append(items, cloneQuestion(q))
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Order < items[j].Order })
	l := &QuestionList{items: items}
	l.renumber()
	return l
}

func (l *QuestionList) Len() int { return len(l.items) }

// IsEmpty reports the zero-question state, which is valid.
func (l *QuestionList) IsEmpty() bool { return len(l.items) == 0 }

// Questions returns a copy of the sequence in order.
func (l *QuestionList) Questions() []domain.Question {
	out := make([]domain.Question, len(l.items))
	for i, q := range l.items {
		out[i] = cloneQuestion(q)
	}
	return out
}

func (l *QuestionList) IndexOf(id string) int {
	for i, q := range l.items {
		if q.ID == id {
			return i
		}
	}
	return -1
}

func (l *QuestionList) Get(id string) (domain.Question, bool) {
	idx := l.IndexOf(id)
	if idx < 0 {
		return domain.Question{}, false
	}
	return cloneQuestion(l.items[idx]), true
}

// Upsert replaces the question with the same id in place, or appends it.
func (l *QuestionList) Upsert(q domain.Question) domain.Question {
	q = cloneQuestion(q)
	if idx := l.IndexOf(q.ID); idx >= 0 {
		q.Order = idx
		l.items[idx] = q
		return cloneQuestion(q)
	}
	q.Order = len(l.items)
	l.items = append(l.items, q)
	return cloneQuestion(q)
}

// Move swaps the question at index with its neighbour in direction. It is a
// no-op, returning false, when the index or the neighbour is out of range.
func (l *QuestionList) Move(index int, dir Direction) bool {
	target := index + int(dir)
	if index < 0 || index >= len(l.items) || target < 0 || target >= len(l.items) || dir == 0 {
		return false
	}
	l.items[index], l.items[target] = l.items[target], l.items[index]
	l.renumber()
	return true
}

func (l *QuestionList) MoveUp(index int) bool { return l.Move(index, DirectionUp) }

func (l *QuestionList) MoveDown(index int) bool { return l.Move(index, DirectionDown) }

// RequestDelete marks a question for deletion; ConfirmDelete performs it.
func (l *QuestionList) RequestDelete(id string) error {
	if l.IndexOf(id) < 0 {
		return fmt.Errorf("delete question %q: %w", id, domain.ErrQuestionNotFound)
	}
	l.pendingDelete = id
	return nil
}

// PendingDelete is the id awaiting confirmation, or "".
func (l *QuestionList) PendingDelete() string { return l.pendingDelete }

func (l *QuestionList) CancelDelete() { l.pendingDelete = "" }

// ConfirmDelete removes the question previously passed to RequestDelete.
func (l *QuestionList) ConfirmDelete(id string) (domain.Question, error) {
	if l.pendingDelete == "" || l.pendingDelete != id {
		return domain.Question{}, domain.ErrNoPendingDelete
	}
	l.pendingDelete = ""
	idx := l.IndexOf(id)
	if idx < 0 {
		return domain.Question{}, fmt.Errorf("delete question %q: %w", id, domain.ErrQuestionNotFound)
	}
	removed := l.items[idx]
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	l.renumber()
	return removed, nil
}

func (l *QuestionList) TotalMarks() int {
	return domain.TotalMarks(l.items)
}

func (l *QuestionList) renumber() {
	for i := range l.items {
		l.items[i].Order = i
	}
}

func cloneQuestion(q domain.Question) domain.Question {
	if q.Options != nil {
		q.Options = append([]domain.Option(nil), q.Options...)
	}
	return q
}
