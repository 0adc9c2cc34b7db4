package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/app"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/config"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/infra/memory"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/infra/postgres"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
)

// storage is the durable backend selected by storage.driver.
type storage struct {
	quizzes   app.QuizStore
	submitter app.AnswerSubmitter
	close     func()
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := RunMigrations(ctx, cfg.Postgres.URL, logger); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := postgres.NewQuizStore(pool)
		return &storage{quizzes: store, submitter: store, close: pool.Close}, nil

	case config.DriverSQLite:
		path := cfg.Storage.SQLitePath
		if path == "" {
			path = "data/quiz.db"
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		store, err := sqlite.Open(ctx, "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &storage{quizzes: store, submitter: store, close: func() { _ = store.Close() }}, nil

	default:
		delay := config.TTLDuration(cfg.Submit.Delay, time.Second)
		return &storage{
			quizzes:   memory.NewQuizStore(sampleQuizzes()...),
			submitter: memory.NewAnswerSink(delay, logger),
			close:     func() {},
		}, nil
	}
}

// sampleQuizzes seeds the in-memory store so a fresh server has something to take.
func sampleQuizzes() []domain.Quiz {
	now := time.Now()
	questions := []domain.Question{
		{
			ID: "1", Title: "What is React?", Text: "Choose the best description of React.",
			Type: domain.QuestionTypeMCQ,
			Options: []domain.Option{
				{ID: "opt1", Text: "A JavaScript library for building user interfaces"},
				{ID: "opt2", Text: "A programming language"},
				{ID: "opt3", Text: "A database management system"},
				{ID: "opt4", Text: "A server-side framework"},
			},
			CorrectAnswer: "opt1", Marks: 5, Order: 0,
		},
		{
			ID: "2", Title: "JSX Syntax", Text: "JSX lets you write HTML-like markup inside JavaScript.",
			Type: domain.QuestionTypeTrueFalse, CorrectAnswer: "True", Marks: 5, Order: 1,
		},
		{
			ID: "3", Title: "Component Types", Text: "How many kinds of components does React have?",
			Type: domain.QuestionTypeMCQ,
			Options: []domain.Option{
				{ID: "opt1", Text: "One"},
				{ID: "opt2", Text: "Two"},
				{ID: "opt3", Text: "Three"},
				{ID: "opt4", Text: "Four"},
			},
			CorrectAnswer: "opt2", Marks: 5, Order: 2,
		},
		{
			ID: "4", Title: "State Management", Text: "Name the hook used to add local state to a function component.",
			Type: domain.QuestionTypeShortAnswer, Marks: 10, Order: 3,
		},
		{
			ID: "5", Title: "Explain React Hooks", Text: "Explain what hooks are and why they were introduced.",
			Type: domain.QuestionTypeEssay, Marks: 20, Order: 4,
		},
	}
	return []domain.Quiz{{
		ID:          "react-fundamentals",
		Title:       "React Fundamentals Quiz",
		Description: "Core React concepts: components, JSX, state and hooks.",
		IsPublished: true,
		TotalMarks:  domain.TotalMarks(questions),
		Questions:   questions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}}
}
