package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
	"github.com/google/uuid"
)

// DraftRepository holds the open authoring drafts.
type DraftRepository interface {
	Put(draft *QuizBuilder)
	Get(draftID string) (*QuizBuilder, bool)
	Delete(draftID string)
}

// OptionInput is one option as sent by a client. ID is empty for new options.
type OptionInput struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionInput is the full question form submitted in one request.
// CorrectIndex, when set, selects an mcq option by position instead of id.
type QuestionInput struct {
	Title         string              `json:"title"`
	Text          string              `json:"text"`
	Type          domain.QuestionType `json:"type"`
	Options       []OptionInput       `json:"options"`
	CorrectAnswer string              `json:"correctAnswer"`
	CorrectIndex  *int                `json:"correctIndex"`
	Marks         int                 `json:"marks"`
	Explanation   string              `json:"explanation"`
}

type listFilter struct {
	Status domain.QuizStatus `json:"status" validate:"quiz_status"`
}

// AuthoringOption configures an AuthoringService.
type AuthoringOption func(*AuthoringService)

func WithAuthoringLogger(logger *slog.Logger) AuthoringOption {
	return func(s *AuthoringService) { s.logger = logger }
}

func WithAuthoringEvents(events EventPublisher) AuthoringOption {
	return func(s *AuthoringService) { s.events = events }
}

// WithActiveSessions supplies the live session count for Stats.
func WithActiveSessions(count func() int) AuthoringOption {
	return func(s *AuthoringService) { s.activeSessions = count }
}

// AuthoringService contains the quiz authoring use cases: drafts, the
// question editor and question list, listing and stats.
type AuthoringService struct {
	drafts         DraftRepository
	quizzes        QuizRepository
	events         EventPublisher
	logger         *slog.Logger
	activeSessions func() int
	newID          func() string
}

func NewAuthoringService(drafts DraftRepository, quizzes QuizRepository, opts ...AuthoringOption) *AuthoringService {
	s := &AuthoringService{
		drafts:         drafts,
		quizzes:        quizzes,
		events:         nopPublisher{},
		logger:         slog.Default(),
		activeSessions: func() int { return 0 },
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDraft opens a draft. A non-empty quizID loads that quiz for editing.
func (s *AuthoringService) NewDraft(ctx context.Context, quizID string) (DraftView, error) {
	var draft *QuizBuilder
	if quizID == "" {
		draft = NewQuizBuilder(s.newID())
	} else {
		quiz, err := s.quizzes.GetQuiz(ctx, quizID)
		if err != nil {
			return DraftView{}, err
		}
		draft = EditQuizBuilder(s.newID(), quiz)
	}
	s.drafts.Put(draft)
	return draft.Snapshot(), nil
}

func (s *AuthoringService) draft(draftID string) (*QuizBuilder, error) {
	draft, ok := s.drafts.Get(draftID)
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	return draft, nil
}

func (s *AuthoringService) Draft(_ context.Context, draftID string) (DraftView, error) {
	draft, err := s.draft(draftID)
	if err != nil {
		return DraftView{}, err
	}
	return draft.Snapshot(), nil
}

// Discard cancels a draft; nothing is saved.
func (s *AuthoringService) Discard(_ context.Context, draftID string) error {
	if _, err := s.draft(draftID); err != nil {
		return err
	}
	s.drafts.Delete(draftID)
	return nil
}

func (s *AuthoringService) UpdateDetails(_ context.Context, draftID, title, description string) (DraftView, error) {
	draft, err := s.draft(draftID)
	if err != nil {
		return DraftView{}, err
	}
	draft.SetDetails(title, description)
	return draft.Snapshot(), nil
}

// SaveQuestion runs the question editor over in. An empty questionID
// creates a question; otherwise the existing one is edited. On failure the
// draft's question list is unchanged.
func (s *AuthoringService) SaveQuestion(_ context.Context, draftID, questionID string, in QuestionInput) (domain.Question, error) {
	draft, err := s.draft(draftID)
	if err != nil {
		return domain.Question{}, err
	}
	return draft.EditQuestion(questionID, func(e *QuestionEditor) error {
		return fillEditor(e, in)
	})
}

func fillEditor(e *QuestionEditor, in QuestionInput) error {
	e.SetTitle(in.Title)
	e.SetText(in.Text)
	e.SetExplanation(in.Explanation)
	e.SetMarks(in.Marks)
	if in.Type != "" {
		if err := e.SetType(in.Type); err != nil {
			return err
		}
	}

	ids := make(map[string]string, len(in.Options))
	var resolved []string
	if e.Type() == domain.QuestionTypeMCQ {
		keep := make(map[string]bool, len(in.Options))
		for _, opt := range in.Options {
			keep[opt.ID] = true
		}
		for _, opt := range e.Options() {
			if !keep[opt.ID] {
				_ = e.RemoveOption(opt.ID)
			}
		}
		for _, opt := range in.Options {
			id := opt.ID
			if id == "" || !hasOption(e.Options(), id) {
				added, err := e.AddOption()
				if err != nil {
					return err
				}
				id = added.ID
			}
			if err := e.UpdateOption(id, opt.Text); err != nil {
				return err
			}
			if opt.ID != "" {
				ids[opt.ID] = id
			}
			resolved = append(resolved, id)
		}
	} else if len(in.Options) > 0 {
		return domain.NewValidationError("options", "options can only be set on mcq questions")
	}

	correct := in.CorrectAnswer
	if in.CorrectIndex != nil {
		idx := *in.CorrectIndex
		if idx < 0 || idx >= len(resolved) {
			return domain.NewValidationError("correctIndex", "must reference one of the current options")
		}
		correct = resolved[idx]
	} else if id, ok := ids[correct]; ok {
		correct = id
	}
	if correct == "" || !e.Type().HasChoices() {
		return nil
	}
	return e.SelectCorrectAnswer(correct)
}

// MoveQuestion swaps a question with its neighbour; moving past an end is a no-op.
func (s *AuthoringService) MoveQuestion(_ context.Context, draftID, questionID string, dir Direction) (DraftView, error) {
	draft, err := s.draft(draftID)
	if err != nil {
		return DraftView{}, err
	}
	if _, err := draft.MoveQuestion(questionID, dir); err != nil {
		return DraftView{}, err
	}
	return draft.Snapshot(), nil
}

// DeleteQuestion is two-step: without confirm it records the pending deletion
// and returns ErrConfirmationRequired; with confirm it removes the question
// previously requested.
func (s *AuthoringService) DeleteQuestion(_ context.Context, draftID, questionID string, confirm bool) (DraftView, error) {
	draft, err := s.draft(draftID)
	if err != nil {
		return DraftView{}, err
	}
	if !confirm {
		if err := draft.RequestDelete(questionID); err != nil {
			return DraftView{}, err
		}
		return draft.Snapshot(), fmt.Errorf("delete question %q: %w", questionID, domain.ErrConfirmationRequired)
	}
	if _, err := draft.ConfirmDelete(questionID); err != nil {
		return DraftView{}, err
	}
	return draft.Snapshot(), nil
}

func (s *AuthoringService) CancelDelete(_ context.Context, draftID string) (DraftView, error) {
	draft, err := s.draft(draftID)
	if err != nil {
		return DraftView{}, err
	}
	draft.CancelDelete()
	return draft.Snapshot(), nil
}

// Submit saves the draft as a quiz. The draft is closed once the save succeeds.
func (s *AuthoringService) Submit(ctx context.Context, draftID string, publish bool) (domain.Quiz, error) {
	draft, err := s.draft(draftID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz, err := draft.Submit(ctx, s.quizzes, publish)
	if err != nil {
		if domain.IsSubmission(err) {
			s.logger.Error("save quiz",
				slog.String("draft_id", draftID),
				slog.String("quiz_id", draft.QuizID()),
				slog.Any("error", err),
			)
		}
		return domain.Quiz{}, err
	}
	s.drafts.Delete(draftID)

	s.logger.Info("quiz saved",
		slog.String("quiz_id", quiz.ID),
		slog.Bool("published", quiz.IsPublished),
		slog.Int("questions", len(quiz.Questions)),
		slog.Int("total_marks", quiz.TotalMarks),
	)
	if err := s.events.QuizSaved(ctx, quiz); err != nil {
		s.logger.Warn("publish quiz saved", slog.String("quiz_id", quiz.ID), slog.Any("error", err))
	}
	return quiz, nil
}

func (s *AuthoringService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// ListQuizzes returns summaries matching filter, most recently updated first.
func (s *AuthoringService) ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.QuizSummary, error) {
	if err := formValidator.Struct(listFilter{Status: filter.Status}); err != nil {
		return nil, err
	}
	quizzes, err := s.quizzes.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.QuizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		if filter.Matches(quiz) {
			out = append(out, domain.Summarize(quiz))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// Stats computes the dashboard overview from stored quizzes and live sessions.
func (s *AuthoringService) Stats(ctx context.Context) (domain.Stats, error) {
	quizzes, err := s.quizzes.ListQuizzes(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	stats := domain.Stats{TotalQuizzes: len(quizzes), ActiveSessions: s.activeSessions()}
	for _, quiz := range quizzes {
		if quiz.IsPublished {
			stats.PublishedQuizzes++
		} else {
			stats.DraftQuizzes++
		}
		stats.TotalQuestions += len(quiz.Questions)
	}
	return stats, nil
}
