package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
)

// AnswerSink is the default submit-answers collaborator. It waits for a
// configurable delay, logs the payload and keeps it in memory.
type AnswerSink struct {
	delay  time.Duration
	logger *slog.Logger

	mu          sync.Mutex
	submissions []domain.Submission
}

func NewAnswerSink(delay time.Duration, logger *slog.Logger) *AnswerSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerSink{delay: delay, logger: logger}
}

func (s *AnswerSink) SubmitAnswers(ctx context.Context, submission domain.Submission) error {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	s.logger.Info("submitting answers",
		slog.String("quiz_id", submission.QuizID),
		slog.String("session_id", submission.SessionID),
		slog.Any("answers", submission.Answers),
		slog.Int("total_questions", submission.TotalQuestions),
		slog.Int("answered_questions", submission.AnsweredCount),
		slog.Bool("timed_out", submission.TimedOut),
	)

	s.mu.Lock()
	s.submissions = append(s.submissions, submission)
	s.mu.Unlock()
	return nil
}

// Submissions returns every payload received so far.
func (s *AnswerSink) Submissions() []domain.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Submission(nil), s.submissions...)
}
