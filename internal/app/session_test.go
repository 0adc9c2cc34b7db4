package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSubmitter struct {
	mu    sync.Mutex
	calls int
	err   error
	got   []domain.Submission
}

func (s *stubSubmitter) SubmitAnswers(_ context.Context, sub domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, sub)
	return nil
}

func (s *stubSubmitter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestSessionManualSubmitAndDeliverOnce(t *testing.T) {
	s := NewSession("s1", reactQuiz(), 30)
	_, err := s.Answer("q1", "opt1")
	require.NoError(t, err)
	_, err = s.JumpTo(4)
	require.NoError(t, err)

	c, view, err := s.RequestSubmit()
	require.NoError(t, err)
	assert.Equal(t, 4, c.Unanswered)
	require.NotNil(t, view.Confirmation)

	view, err = s.ConfirmSubmit()
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, view.State)
	assert.Nil(t, view.Confirmation)
	assert.Nil(t, view.Question)
	require.NotNil(t, view.Result)
	assert.False(t, view.Result.TimedOut)

	sub := &stubSubmitter{}
	got, delivered, err := s.Deliver(context.Background(), sub)
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.Equal(t, "quiz-1", got.QuizID)
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, 1, got.AnsweredCount)

	_, delivered, err = s.Deliver(context.Background(), sub)
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Equal(t, 1, sub.callCount(), "never delivered twice")
	assert.True(t, s.Snapshot().Delivered)
}

func TestSessionDeliverBeforeSubmitRejected(t *testing.T) {
	s := NewSession("s1", reactQuiz(), 30)
	_, _, err := s.Deliver(context.Background(), &stubSubmitter{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSessionDeliveryFailureIsRetryable(t *testing.T) {
	s := NewSession("s1", reactQuiz(), 30)
	s.expire()

	sub := &stubSubmitter{err: errors.New("gateway timeout")}
	_, _, err := s.Deliver(context.Background(), sub)
	require.Error(t, err)
	assert.True(t, domain.IsSubmission(err))
	assert.Equal(t, "gateway timeout", s.Snapshot().DeliveryError)
	assert.Equal(t, StateSubmitted, s.State())

	sub.mu.Lock()
	sub.err = nil
	sub.mu.Unlock()
	_, delivered, err := s.Deliver(context.Background(), sub)
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.Empty(t, s.Snapshot().DeliveryError)
}

func TestSessionExpiryRacesManualSubmit(t *testing.T) {
	for i := 0; i < 50; i++ {
		var hooks int32
		s := NewSession("s1", reactQuiz(), 30, WithExpiryHook(func(*Session) { atomic.AddInt32(&hooks, 1) }))
		_, err := s.JumpTo(4)
		require.NoError(t, err)
		_, _, err = s.RequestSubmit()
		require.NoError(t, err)

		var wg sync.WaitGroup
		var confirmErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, confirmErr = s.ConfirmSubmit()
		}()
		go func() {
			defer wg.Done()
			s.expire()
		}()
		wg.Wait()

		res := s.Snapshot().Result
		require.NotNil(t, res)
		if res.TimedOut {
			assert.Equal(t, int32(1), atomic.LoadInt32(&hooks))
			assert.ErrorIs(t, confirmErr, domain.ErrSessionSubmitted)
		} else {
			assert.Equal(t, int32(0), atomic.LoadInt32(&hooks))
			assert.NoError(t, confirmErr)
		}
	}
}

func TestSessionConfirmAfterTimerRanOutIsTimedOut(t *testing.T) {
	s := NewSession("s1", reactQuiz(), 0)
	_, err := s.JumpTo(4)
	require.NoError(t, err)
	_, _, err = s.RequestSubmit()
	require.NoError(t, err)

	// expire the countdown without letting its callback run first
	s.timer.mu.Lock()
	s.timer.expired = true
	s.timer.mu.Unlock()

	view, err := s.ConfirmSubmit()
	require.NoError(t, err)
	require.NotNil(t, view.Result)
	assert.True(t, view.Result.TimedOut)
}

func TestSessionCountdownExpiryRunsHook(t *testing.T) {
	hooked := make(chan *Session, 1)
	s := NewSession("s1", reactQuiz(), 1,
		WithCountdownOptions(WithTickInterval(time.Millisecond)),
		WithExpiryHook(func(s *Session) { hooked <- s }),
	)
	_, err := s.Answer("q2", "False")
	require.NoError(t, err)
	s.Start(context.Background())

	select {
	case got := <-hooked:
		assert.Equal(t, "s1", got.ID())
	case <-time.After(5 * time.Second):
		t.Fatal("expiry hook not called")
	}
	view := s.Snapshot()
	assert.Equal(t, StateSubmitted, view.State)
	assert.Equal(t, "00:00", view.Clock)
	assert.True(t, view.Result.TimedOut)
	assert.Equal(t, 1, view.Result.AnsweredCount)
}

func TestSessionSubscribeReceivesUpdates(t *testing.T) {
	s := NewSession("s1", reactQuiz(), 30)
	ch, cancel := s.Subscribe()
	defer cancel()

	initial := <-ch
	assert.Equal(t, StateInProgress, initial.State)
	assert.Equal(t, "30:00", initial.Clock)

	_, err := s.Next()
	require.NoError(t, err)
	update := <-ch
	assert.Equal(t, 1, update.Progress.Current)
	require.NotNil(t, update.Question)
	assert.Equal(t, "q2", update.Question.ID)
}

func TestSessionCloseStopsTimerAndSubscribers(t *testing.T) {
	s := NewSession("s1", reactQuiz(), 30, WithCountdownOptions(WithTickInterval(time.Millisecond)))
	s.Start(context.Background())
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Close()
	select {
	case <-s.Countdown().Done():
	case <-time.After(time.Second):
		t.Fatal("countdown not released on close")
	}
	for range ch {
	}
	_, err := s.Next()
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionSubscribeDuringBroadcasts(t *testing.T) {
	s := NewSession("s1", reactQuiz(), 30)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				_, _ = s.Next()
			} else {
				_, _ = s.Previous()
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, cancel := s.Subscribe()
			defer cancel()
			first := <-ch
			assert.Equal(t, "s1", first.ID)
		}()
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcasts blocked by a new subscriber")
	}
}
