package domain

import (
	"strings"
	"time"
)

// QuestionType is the fixed set of question kinds a quiz can hold.
type QuestionType string

const (
	QuestionTypeMCQ         QuestionType = "mcq"
	QuestionTypeTrueFalse   QuestionType = "true-false"
	QuestionTypeText        QuestionType = "text"
	QuestionTypeShortAnswer QuestionType = "short-answer"
	QuestionTypeEssay       QuestionType = "essay"
)

// QuestionTypes lists every supported type in display order.
var QuestionTypes = []QuestionType{
	QuestionTypeMCQ,
	QuestionTypeTrueFalse,
	QuestionTypeText,
	QuestionTypeShortAnswer,
	QuestionTypeEssay,
}

// TrueFalseChoices is the implicit option set of a true-false question.
var TrueFalseChoices = []string{"True", "False"}

// Valid reports whether t is one of the supported question types.
func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// HasChoices reports whether answers are picked from a closed set (mcq, true-false).
func (t QuestionType) HasChoices() bool {
	return t == QuestionTypeMCQ || t == QuestionTypeTrueFalse
}

// Label is the human readable name of the type.
func (t QuestionType) Label() string {
	switch t {
	case QuestionTypeMCQ:
		return "Multiple Choice"
	case QuestionTypeTrueFalse:
		return "True/False"
	case QuestionTypeText:
		return "Text Input"
	case QuestionTypeShortAnswer:
		return "Short Answer"
	case QuestionTypeEssay:
		return "Essay"
	default:
		return string(t)
	}
}

// Option represents a possible answer for an MCQ question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is one quiz item.
type Question struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       []Option     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"`
	Marks         int          `json:"marks,omitempty"` // 0 means unset
	Explanation   string       `json:"explanation,omitempty"`
	Order         int          `json:"order"`
}

// HasOption reports whether id names one of the question's stored options.
func (q Question) HasOption(id string) bool {
	for _, opt := range q.Options {
		if opt.ID == id {
			return true
		}
	}
	return false
}

// Quiz is an ordered collection of questions plus metadata.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	IsPublished bool       `json:"isPublished"`
	TotalMarks  int        `json:"totalMarks"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Question looks up a question by id.
func (q Quiz) Question(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// TotalMarks sums question marks; unset marks count as zero.
func TotalMarks(questions []Question) int {
	total := 0
	for _, q := range questions {
		total += q.Marks
	}
	return total
}

// QuizStatus filters quizzes by publication state.
type QuizStatus string

const (
	QuizStatusAll       QuizStatus = "all"
	QuizStatusPublished QuizStatus = "published"
	QuizStatusDraft     QuizStatus = "draft"
)

// QuizFilter narrows a quiz listing.
type QuizFilter struct {
	Search string     `json:"search,omitempty"`
	Status QuizStatus `json:"status,omitempty"`
}

// Matches reports whether quiz satisfies the filter. Search is a
// case-insensitive substring match over title and description.
func (f QuizFilter) Matches(quiz Quiz) bool {
	switch f.Status {
	case QuizStatusPublished:
		if !quiz.IsPublished {
			return false
		}
	case QuizStatusDraft:
		if quiz.IsPublished {
			return false
		}
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(quiz.Title), term) ||
		strings.Contains(strings.ToLower(quiz.Description), term)
}

// QuizSummary is the listing row for a quiz.
type QuizSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	QuestionCount int       `json:"questionCount"`
	TotalMarks    int       `json:"totalMarks"`
	IsPublished   bool      `json:"isPublished"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Summarize builds the listing row for quiz.
func Summarize(quiz Quiz) QuizSummary {
	return QuizSummary{
		ID:            quiz.ID,
		Title:         quiz.Title,
		Description:   quiz.Description,
		QuestionCount: len(quiz.Questions),
		TotalMarks:    TotalMarks(quiz.Questions),
		IsPublished:   quiz.IsPublished,
		CreatedAt:     quiz.CreatedAt,
		UpdatedAt:     quiz.UpdatedAt,
	}
}

// Stats is the admin dashboard overview.
type Stats struct {
	TotalQuizzes     int `json:"totalQuizzes"`
	PublishedQuizzes int `json:"publishedQuizzes"`
	DraftQuizzes     int `json:"draftQuizzes"`
	TotalQuestions   int `json:"totalQuestions"`
	ActiveSessions   int `json:"activeSessions"`
}

// Submission is the payload handed to the submit-answers collaborator.
type Submission struct {
	QuizID         string            `json:"quizId"`
	SessionID      string            `json:"sessionId"`
	Answers        map[string]string `json:"answers"`
	AnsweredCount  int               `json:"answeredCount"`
	TotalQuestions int               `json:"totalQuestions"`
	TimedOut       bool              `json:"timedOut"`
	SubmittedAt    time.Time         `json:"submittedAt"`
}
