package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/app"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/infra/memory"
)

type testServer struct {
	*httptest.Server
	taking *app.TakingService
	sink   *memory.AnswerSink
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	quizzes := memory.NewQuizRepository(memory.NewQuizStore(sampleQuizzes()...), time.Minute)
	sessions := memory.NewSessionStore()
	sink := memory.NewAnswerSink(0, logger)

	taking := app.NewTakingService(sessions, quizzes, sink, app.WithTakingLogger(logger))
	authoring := app.NewAuthoringService(memory.NewDraftStore(), quizzes,
		app.WithAuthoringLogger(logger),
		app.WithActiveSessions(taking.ActiveSessions),
	)
	router := NewRouter(NewHandler(authoring, taking, logger), NewWSHandler(taking, logger), RouterConfig{Logger: logger})

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
	})
	return &testServer{Server: srv, taking: taking, sink: sink}
}

// do sends a JSON request and decodes the JSON response into out when non-nil.
func (s *testServer) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (s *testServer) startSession(t *testing.T, quizID string) app.SessionView {
	t.Helper()
	var view app.SessionView
	if status := s.do(t, http.MethodPost, "/api/quizzes/"+quizID+"/sessions", map[string]int{"durationMinutes": 5}, &view); status != http.StatusCreated {
		t.Fatalf("start session: status %d", status)
	}
	t.Cleanup(func() { _ = s.taking.Abandon(context.Background(), view.ID) })
	return view
}

func sampleQuizzes() []domain.Quiz {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Quiz{
		{
			ID:          "quiz-1",
			Title:       "Arithmetic",
			IsPublished: true,
			TotalMarks:  3,
			CreatedAt:   created,
			UpdatedAt:   created,
			Questions: []domain.Question{
				{
					ID: "q1", Title: "Addition", Text: "What is 2 + 2?", Type: domain.QuestionTypeMCQ,
					Options:       []domain.Option{{ID: "o1", Text: "3"}, {ID: "o2", Text: "4"}},
					CorrectAnswer: "o2", Marks: 1,
				},
				{ID: "q2", Title: "Explain", Text: "Explain addition", Type: domain.QuestionTypeEssay, Marks: 2, Order: 1},
			},
		},
		{
			ID:        "draft-1",
			Title:     "Unfinished",
			CreatedAt: created.Add(time.Hour),
			UpdatedAt: created.Add(time.Hour),
			Questions: []domain.Question{{ID: "d1", Title: "Draft", Text: "Draft question", Type: domain.QuestionTypeText}},
		},
	}
}
