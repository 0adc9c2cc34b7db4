package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
	"github.com/google/uuid"
)

// QuizStore is the backing store for quiz content (Postgres, SQLite, memory).
type QuizStore interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// QuizRepository serves quiz content to the services, usually through a cache.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// AnswerSubmitter receives the answers of a submitted session. Scoring is its concern.
type AnswerSubmitter interface {
	SubmitAnswers(ctx context.Context, submission domain.Submission) error
}

// EventPublisher announces completed saves and submissions.
type EventPublisher interface {
	QuizSaved(ctx context.Context, quiz domain.Quiz) error
	AnswersSubmitted(ctx context.Context, submission domain.Submission) error
}

// SessionRepository abstracts how live sessions are tracked (in-memory, Redis, etc).
type SessionRepository interface {
	Put(ctx context.Context, session *Session) error
	Get(sessionID string) (*Session, bool)
	Delete(ctx context.Context, sessionID string)
	Count() int
}

type nopPublisher struct{}

func (nopPublisher) QuizSaved(context.Context, domain.Quiz) error { return nil }

func (nopPublisher) AnswersSubmitted(context.Context, domain.Submission) error { return nil }

// TakingOption configures a TakingService.
type TakingOption func(*TakingService)

func WithTakingLogger(logger *slog.Logger) TakingOption {
	return func(s *TakingService) { s.logger = logger }
}

func WithTakingEvents(events EventPublisher) TakingOption {
	return func(s *TakingService) { s.events = events }
}

// WithDefaultDuration is used when Start is called without a duration.
func WithDefaultDuration(minutes int) TakingOption {
	return func(s *TakingService) {
		if minutes > 0 {
			s.defaultMinutes = minutes
		}
	}
}

// WithSessionOptions is applied to every session the service starts.
func WithSessionOptions(opts ...SessionOption) TakingOption {
	return func(s *TakingService) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

// WithDeliveryTimeout bounds the delivery triggered by time expiry.
func WithDeliveryTimeout(d time.Duration) TakingOption {
	return func(s *TakingService) {
		if d > 0 {
			s.deliveryTimeout = d
		}
	}
}

// WithSessionRetention keeps a delivered session readable for d before it is
// removed. Zero removes it as soon as delivery succeeds.
func WithSessionRetention(d time.Duration) TakingOption {
	return func(s *TakingService) {
		if d >= 0 {
			s.retention = d
		}
	}
}

// TakingService contains the quiz-taking use cases.
type TakingService struct {
	sessions  SessionRepository
	quizzes   QuizRepository
	submitter AnswerSubmitter
	events    EventPublisher
	logger    *slog.Logger

	defaultMinutes  int
	deliveryTimeout time.Duration
	retention       time.Duration
	sessionOpts     []SessionOption
	newID           func() string

	mu       sync.Mutex
	retiring map[string]*time.Timer
}

func NewTakingService(sessions SessionRepository, quizzes QuizRepository, submitter AnswerSubmitter, opts ...TakingOption) *TakingService {
	s := &TakingService{
		sessions:        sessions,
		quizzes:         quizzes,
		submitter:       submitter,
		events:          nopPublisher{},
		logger:          slog.Default(),
		defaultMinutes:  30,
		deliveryTimeout: 30 * time.Second,
		retention:       time.Minute,
		newID:           uuid.NewString,
		retiring:        make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a session on a published quiz and starts its countdown.
// minutes <= 0 uses the configured default duration.
func (s *TakingService) Start(ctx context.Context, quizID string, minutes int) (SessionView, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return SessionView{}, err
	}
	if !quiz.IsPublished {
		return SessionView{}, domain.ErrQuizNotPublished
	}
	if len(quiz.Questions) == 0 {
		return SessionView{}, domain.ErrQuizEmpty
	}
	if minutes <= 0 {
		minutes = s.defaultMinutes
	}

	opts := append([]SessionOption{WithExpiryHook(s.onExpired)}, s.sessionOpts...)
	session := NewSession(s.newID(), quiz, minutes, opts...)
	if err := s.sessions.Put(ctx, session); err != nil {
		return SessionView{}, err
	}
	// The countdown outlives the request that started it; Close stops it.
	session.Start(context.Background())

	s.logger.Info("quiz session started",
		slog.String("session_id", session.ID()),
		slog.String("quiz_id", quizID),
		slog.Int("minutes", minutes),
		slog.Int("questions", len(quiz.Questions)),
	)
	return session.Snapshot(), nil
}

func (s *TakingService) Session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *TakingService) Snapshot(_ context.Context, sessionID string) (SessionView, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return session.Snapshot(), nil
}

// Answer records an answer for the given question without moving.
func (s *TakingService) Answer(_ context.Context, sessionID, questionID, value string) (SessionView, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return session.Answer(questionID, value)
}

func (s *TakingService) Next(_ context.Context, sessionID string) (SessionView, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return session.Next()
}

func (s *TakingService) Previous(_ context.Context, sessionID string) (SessionView, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return session.Previous()
}

func (s *TakingService) JumpTo(_ context.Context, sessionID string, index int) (SessionView, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return session.JumpTo(index)
}

func (s *TakingService) RequestSubmit(_ context.Context, sessionID string) (Confirmation, SessionView, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return Confirmation{}, SessionView{}, err
	}
	return session.RequestSubmit()
}

func (s *TakingService) CancelConfirm(_ context.Context, sessionID string) (SessionView, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return session.CancelConfirm()
}

// ConfirmSubmit freezes the session and delivers its answers. A delivery
// failure is returned as a SubmissionError while the session stays
// submitted; Deliver retries it.
func (s *TakingService) ConfirmSubmit(ctx context.Context, sessionID string) (SessionView, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if _, err := session.ConfirmSubmit(); err != nil {
		return session.Snapshot(), err
	}
	err = s.deliver(ctx, session)
	return session.Snapshot(), err
}

// Deliver retries delivery of a submitted session.
func (s *TakingService) Deliver(ctx context.Context, sessionID string) (SessionView, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	err = s.deliver(ctx, session)
	return session.Snapshot(), err
}

// Subscribe returns a channel that receives snapshots of a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *TakingService) Subscribe(_ context.Context, sessionID string) (<-chan SessionView, func(), error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// Abandon ends a session without submitting it, releasing its countdown.
func (s *TakingService) Abandon(ctx context.Context, sessionID string) error {
	session, err := s.Session(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if timer, ok := s.retiring[sessionID]; ok {
		timer.Stop()
		delete(s.retiring, sessionID)
	}
	s.mu.Unlock()
	session.Close()
	s.sessions.Delete(ctx, sessionID)
	s.logger.Info("quiz session closed",
		slog.String("session_id", sessionID),
		slog.String("state", string(session.State())),
	)
	return nil
}

// ActiveSessions counts sessions still being taken or awaiting delivery.
func (s *TakingService) ActiveSessions() int {
	s.mu.Lock()
	retiring := len(s.retiring)
	s.mu.Unlock()
	if n := s.sessions.Count() - retiring; n > 0 {
		return n
	}
	return 0
}

// retire schedules removal of a delivered session.
func (s *TakingService) retire(session *Session) {
	if s.retention == 0 {
		s.remove(session)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.retiring[session.ID()]; ok {
		return
	}
	s.retiring[session.ID()] = time.AfterFunc(s.retention, func() { s.remove(session) })
}

func (s *TakingService) remove(session *Session) {
	session.Close()
	s.mu.Lock()
	s.sessions.Delete(context.Background(), session.ID())
	delete(s.retiring, session.ID())
	s.mu.Unlock()
	s.logger.Debug("quiz session retired", slog.String("session_id", session.ID()))
}

func (s *TakingService) onExpired(session *Session) {
	s.logger.Info("quiz session timed out", slog.String("session_id", session.ID()))
	ctx, cancel := context.WithTimeout(context.Background(), s.deliveryTimeout)
	defer cancel()
	_ = s.deliver(ctx, session)
}

func (s *TakingService) deliver(ctx context.Context, session *Session) error {
	sub, delivered, err := session.Deliver(ctx, s.submitter)
	if err != nil {
		if errors.Is(err, domain.ErrSubmitInFlight) {
			return err
		}
		s.logger.Error("deliver answers",
			slog.String("session_id", session.ID()),
			slog.Any("error", err),
		)
		return err
	}
	if !delivered {
		return nil
	}
	s.logger.Info("answers delivered",
		slog.String("session_id", sub.SessionID),
		slog.String("quiz_id", sub.QuizID),
		slog.Int("answered", sub.AnsweredCount),
		slog.Int("total", sub.TotalQuestions),
		slog.Bool("timed_out", sub.TimedOut),
	)
	if err := s.events.AnswersSubmitted(ctx, sub); err != nil {
		s.logger.Warn("publish answers submitted", slog.String("session_id", sub.SessionID), slog.Any("error", err))
	}
	s.retire(session)
	return nil
}
