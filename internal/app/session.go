package app

import (
	"context"
	"sync"
	"time"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
)

// SessionView is the snapshot pushed to clients after every transition and tick.
type SessionView struct {
	ID            string        `json:"id"`
	QuizID        string        `json:"quizId"`
	QuizTitle     string        `json:"quizTitle"`
	TotalMarks    int           `json:"totalMarks"`
	State         AttemptState  `json:"state"`
	Question      *QuestionView `json:"question,omitempty"`
	Progress      Progress      `json:"progress"`
	Remaining     int           `json:"remaining"`
	Clock         string        `json:"clock"`
	LowTime       bool          `json:"lowTime"`
	Confirmation  *Confirmation `json:"confirmation,omitempty"`
	Result        *Result       `json:"result,omitempty"`
	Delivering    bool          `json:"delivering"`
	Delivered     bool          `json:"delivered"`
	DeliveryError string        `json:"deliveryError,omitempty"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock replaces time.Now for deterministic timestamps.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithCountdownOptions passes options through to the session's countdown.
func WithCountdownOptions(opts ...CountdownOption) SessionOption {
	return func(s *Session) { s.countdownOpts = append(s.countdownOpts, opts...) }
}

// WithExpiryHook is called, outside the session lock, after the countdown
// forces the Submitted transition.
func WithExpiryHook(fn func(*Session)) SessionOption {
	return func(s *Session) { s.onExpired = fn }
}

// Session is one learner's live quiz attempt: the answer state machine, its
// countdown and the subscribers watching it. Lock order is Session.mu before
// the countdown's own lock.
type Session struct {
	id            string
	createdAt     time.Time
	now           func() time.Time
	countdownOpts []CountdownOption
	onExpired     func(*Session)

	mu           sync.Mutex
	attempt      *Attempt
	timer        *Countdown
	confirmation *Confirmation
	subscribers  map[chan SessionView]struct{}
	closed       bool

	delivering  bool
	delivered   bool
	deliveryErr string
	submittedAt time.Time
}

// NewSession builds a session on quiz with a countdown of minutes. The
// countdown does not run until Start.
func NewSession(id string, quiz domain.Quiz, minutes int, opts ...SessionOption) *Session {
	s := &Session{
		id:          id,
		now:         time.Now,
		attempt:     NewAttempt(quiz),
		subscribers: make(map[chan SessionView]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.createdAt = s.now()
	countdownOpts := append([]CountdownOption{WithTickObserver(s.tick)}, s.countdownOpts...)
	s.timer = NewCountdown(minutes, s.expire, countdownOpts...)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) QuizID() string { return s.attempt.quiz.ID }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Start runs the countdown until ctx ends, the session closes or time expires.
func (s *Session) Start(ctx context.Context) {
	s.timer.Start(ctx)
}

// Countdown exposes the session's timer.
func (s *Session) Countdown() *Countdown { return s.timer }

func (s *Session) Snapshot() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) State() AttemptState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt.State()
}

func (s *Session) Answer(questionID, value string) (SessionView, error) {
	return s.mutate(func(a *Attempt) error { return a.SetAnswer(questionID, value) })
}

func (s *Session) Next() (SessionView, error) {
	return s.mutate(func(a *Attempt) error {
		_, err := a.Next()
		return err
	})
}

func (s *Session) Previous() (SessionView, error) {
	return s.mutate(func(a *Attempt) error {
		_, err := a.Previous()
		return err
	})
}

func (s *Session) JumpTo(index int) (SessionView, error) {
	return s.mutate(func(a *Attempt) error { return a.JumpTo(index) })
}

func (s *Session) RequestSubmit() (Confirmation, SessionView, error) {
	var c Confirmation
	view, err := s.mutate(func(a *Attempt) error {
		var err error
		c, err = a.RequestSubmit()
		if err == nil {
			s.confirmation = &c
		}
		return err
	})
	return c, view, err
}

func (s *Session) CancelConfirm() (SessionView, error) {
	return s.mutate(func(a *Attempt) error {
		if err := a.CancelConfirm(); err != nil {
			return err
		}
		s.confirmation = nil
		return nil
	})
}

// ConfirmSubmit performs the manual submit. If the countdown has already run
// out but its expiry has not been applied yet, the timed-out submit wins.
func (s *Session) ConfirmSubmit() (SessionView, error) {
	return s.mutate(func(a *Attempt) error {
		if a.State() == StateConfirmingSubmit && s.timer.Expired() {
			a.TimeExpire()
		} else if _, err := a.ConfirmSubmit(); err != nil {
			return err
		}
		s.submittedLocked()
		return nil
	})
}

func (s *Session) mutate(fn func(*Attempt) error) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return SessionView{}, domain.ErrSessionNotFound
	}
	if err := fn(s.attempt); err != nil {
		return s.snapshotLocked(), err
	}
	return s.broadcastLocked(), nil
}

// expire is the countdown callback.
func (s *Session) expire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if _, ok := s.attempt.TimeExpire(); !ok {
		s.mu.Unlock()
		return
	}
	s.submittedLocked()
	s.broadcastLocked()
	hook := s.onExpired
	s.mu.Unlock()

	if hook != nil {
		hook(s)
	}
}

func (s *Session) tick(int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.attempt.State() == StateSubmitted {
		return
	}
	s.broadcastLocked()
}

func (s *Session) submittedLocked() {
	s.confirmation = nil
	s.submittedAt = s.now()
	s.timer.Stop()
}

// Submission is the payload for the submit-answers collaborator. It reports
// false until the session is submitted.
func (s *Session) Submission() (domain.Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submissionLocked()
}

func (s *Session) submissionLocked() (domain.Submission, bool) {
	res := s.attempt.Result()
	if res == nil {
		return domain.Submission{}, false
	}
	return domain.Submission{
		QuizID:         s.attempt.quiz.ID,
		SessionID:      s.id,
		Answers:        res.Answers,
		AnsweredCount:  res.AnsweredCount,
		TotalQuestions: res.TotalQuestions,
		TimedOut:       res.TimedOut,
		SubmittedAt:    s.submittedAt,
	}, true
}

// Deliver hands the submitted answers to submitter and reports whether this
// call delivered them. A delivered session is never delivered again; a second
// call while one is outstanding fails with ErrSubmitInFlight. Failures are
// kept on the session and may be retried.
func (s *Session) Deliver(ctx context.Context, submitter AnswerSubmitter) (domain.Submission, bool, error) {
	s.mu.Lock()
	sub, ok := s.submissionLocked()
	switch {
	case !ok:
		s.mu.Unlock()
		return domain.Submission{}, false, domain.ErrInvalidTransition
	case s.delivered:
		s.mu.Unlock()
		return sub, false, nil
	case s.delivering:
		s.mu.Unlock()
		return domain.Submission{}, false, domain.ErrSubmitInFlight
	}
	s.delivering = true
	s.deliveryErr = ""
	s.broadcastLocked()
	s.mu.Unlock()

	err := submitter.SubmitAnswers(ctx, sub)

	s.mu.Lock()
	s.delivering = false
	if err != nil {
		s.deliveryErr = err.Error()
	} else {
		s.delivered = true
	}
	if !s.closed {
		s.broadcastLocked()
	}
	s.mu.Unlock()

	if err != nil {
		return domain.Submission{}, false, &domain.SubmissionError{Op: "submit answers", Err: err}
	}
	return sub, true, nil
}

// Close stops the countdown and disconnects every subscriber.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.timer.Stop()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Subscribe returns a channel of snapshots, primed with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan SessionView, func()) {
	ch := make(chan SessionView, 8)

	s.mu.Lock()
	// primed before registration so no broadcast can fill the buffer first
	ch <- s.snapshotLocked()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() SessionView {
	view := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// drop the oldest snapshot so a slow client never blocks the session
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}

func (s *Session) snapshotLocked() SessionView {
	a := s.attempt
	remaining := s.timer.Remaining()
	view := SessionView{
		ID:            s.id,
		QuizID:        a.quiz.ID,
		QuizTitle:     a.quiz.Title,
		TotalMarks:    domain.TotalMarks(a.quiz.Questions),
		State:         a.State(),
		Progress:      BuildProgress(a),
		Remaining:     remaining,
		Clock:         FormatClock(remaining),
		LowTime:       IsLowTime(remaining),
		Result:        a.Result(),
		Delivering:    s.delivering,
		Delivered:     s.delivered,
		DeliveryError: s.deliveryErr,
		UpdatedAt:     s.now(),
	}
	if a.State() != StateSubmitted {
		q := RenderQuestion(a.CurrentIndex(), a.Current(), a.Answer(a.Current().ID))
		view.Question = &q
	}
	if s.confirmation != nil {
		c := *s.confirmation
		view.Confirmation = &c
	}
	return view
}
