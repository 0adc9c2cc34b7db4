package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/app"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/cli"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/events"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/infra/memory"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/infra/postgres"
	infraredis "github.com/dhanalakshmipoojary/quiz-managment/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestAuthorTakeAndSubmitEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	if err := cli.RunMigrations(ctx, pgURL, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// a second run must be a no-op
	if err := cli.RunMigrations(ctx, pgURL, logger); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	store := postgres.NewQuizStore(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	publisher, bus := events.NewInProcess(events.Config{Topic: "quiz-events", Logger: logger})
	defer publisher.Close()
	msgs, err := bus.Subscribe(ctx, "quiz-events")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	quizRepo := infraredis.NewQuizRepository(redisClient, store, 5*time.Minute)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	taking := app.NewTakingService(sessions, quizRepo, store,
		app.WithTakingLogger(logger),
		app.WithTakingEvents(publisher),
	)
	authoring := app.NewAuthoringService(memory.NewDraftStore(), quizRepo,
		app.WithAuthoringLogger(logger),
		app.WithAuthoringEvents(publisher),
		app.WithActiveSessions(taking.ActiveSessions),
	)

	quiz := authorQuiz(t, ctx, authoring)
	if env := nextEvent(t, msgs); env.Type != events.TypeQuizSaved {
		t.Fatalf("expected quiz.saved, got %s", env.Type)
	}

	var cachedTitle string
	var published bool
	if err := pool.QueryRow(ctx, `SELECT title, is_published FROM quizzes WHERE id=$1`, quiz.ID).Scan(&cachedTitle, &published); err != nil {
		t.Fatalf("query quiz row: %v", err)
	}
	if cachedTitle != "Arithmetic" || !published {
		t.Fatalf("unexpected stored quiz: title=%q published=%v", cachedTitle, published)
	}
	if n, err := redisClient.Exists(ctx, "quiz:"+quiz.ID).Result(); err != nil || n != 1 {
		t.Fatalf("expected quiz cached in redis, n=%d err=%v", n, err)
	}

	view, err := taking.Start(ctx, quiz.ID, 5)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if n, _ := redisClient.Exists(ctx, "quiz:session:"+view.ID).Result(); n != 1 {
		t.Fatalf("expected session marker in redis")
	}

	first := quiz.Questions[0]
	if _, err := taking.Answer(ctx, view.ID, first.ID, first.CorrectAnswer); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := taking.Next(ctx, view.ID); err != nil {
		t.Fatalf("next: %v", err)
	}
	if _, _, err := taking.RequestSubmit(ctx, view.ID); err != nil {
		t.Fatalf("request submit: %v", err)
	}
	final, err := taking.ConfirmSubmit(ctx, view.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if final.State != app.StateSubmitted || !final.Delivered {
		t.Fatalf("expected delivered submission, got %+v", final)
	}
	if env := nextEvent(t, msgs); env.Type != events.TypeAnswersSubmitted {
		t.Fatalf("expected answers.submitted, got %s", env.Type)
	}

	var answered, total int
	if err := pool.QueryRow(ctx, `SELECT answered_count, total_questions FROM quiz_submissions WHERE session_id=$1`, view.ID).Scan(&answered, &total); err != nil {
		t.Fatalf("query submission: %v", err)
	}
	if answered != 1 || total != 2 {
		t.Fatalf("unexpected submission counts answered=%d total=%d", answered, total)
	}

	if err := taking.Abandon(ctx, view.ID); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if n, _ := redisClient.Exists(ctx, "quiz:session:"+view.ID).Result(); n != 0 {
		t.Fatalf("expected session marker removed")
	}
}

func authorQuiz(t *testing.T, ctx context.Context, authoring *app.AuthoringService) domain.Quiz {
	t.Helper()
	draft, err := authoring.NewDraft(ctx, "")
	if err != nil {
		t.Fatalf("new draft: %v", err)
	}
	if _, err := authoring.UpdateDetails(ctx, draft.ID, "Arithmetic", "Warm-up sums"); err != nil {
		t.Fatalf("update details: %v", err)
	}
	correct := 1
	if _, err := authoring.SaveQuestion(ctx, draft.ID, "", app.QuestionInput{
		Title: "Addition", Text: "What is 2 + 2?", Type: domain.QuestionTypeMCQ,
		Options:      []app.OptionInput{{Text: "3"}, {Text: "4"}},
		CorrectIndex: &correct, Marks: 1,
	}); err != nil {
		t.Fatalf("save mcq: %v", err)
	}
	if _, err := authoring.SaveQuestion(ctx, draft.ID, "", app.QuestionInput{
		Title: "Explain", Text: "Explain carrying", Type: domain.QuestionTypeEssay, Marks: 4,
	}); err != nil {
		t.Fatalf("save essay: %v", err)
	}
	quiz, err := authoring.Submit(ctx, draft.ID, true)
	if err != nil {
		t.Fatalf("submit draft: %v", err)
	}
	return quiz
}

func nextEvent(t *testing.T, msgs <-chan *message.Message) events.Envelope {
	t.Helper()
	select {
	case msg := <-msgs:
		msg.Ack()
		env, err := events.Decode(msg)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		return env
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for event")
		return events.Envelope{}
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
