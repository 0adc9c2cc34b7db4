package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/app"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/config"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/events"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/infra/memory"
	redisinfra "github.com/dhanalakshmipoojary/quiz-managment/internal/infra/redis"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/logging"
	transport "github.com/dhanalakshmipoojary/quiz-managment/internal/transport/http"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	var quizRepo app.QuizRepository
	var sessions app.SessionRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, store.quizzes, quizTTL)
		sessions = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		quizRepo = memory.NewQuizRepository(store.quizzes, quizTTL)
		sessions = memory.NewSessionStore()
	}

	g, gctx := errgroup.WithContext(ctx)

	var publisher app.EventPublisher
	if cfg.Events.Enabled {
		pub, err := newEventPublisher(gctx, g, cfg, logger)
		if err != nil {
			return err
		}
		defer pub.Close()
		publisher = pub
	}

	takingOpts := []app.TakingOption{
		app.WithTakingLogger(logger),
		app.WithDefaultDuration(cfg.Taking.DurationMinutes),
		app.WithDeliveryTimeout(config.TTLDuration(cfg.Submit.Timeout, 30*time.Second)),
		app.WithSessionRetention(config.TTLDuration(cfg.Taking.Retention, time.Minute)),
		app.WithSessionOptions(app.WithCountdownOptions(
			app.WithTickInterval(config.TTLDuration(cfg.Taking.TickInterval, time.Second)),
		)),
	}
	authoringOpts := []app.AuthoringOption{app.WithAuthoringLogger(logger)}
	if publisher != nil {
		takingOpts = append(takingOpts, app.WithTakingEvents(publisher))
		authoringOpts = append(authoringOpts, app.WithAuthoringEvents(publisher))
	}
	taking := app.NewTakingService(sessions, quizRepo, store.submitter, takingOpts...)
	authoringOpts = append(authoringOpts, app.WithActiveSessions(taking.ActiveSessions))
	authoring := app.NewAuthoringService(memory.NewDraftStore(), quizRepo, authoringOpts...)

	router := transport.NewRouter(
		transport.NewHandler(authoring, taking, logger),
		transport.NewWSHandler(taking, logger),
		transport.RouterConfig{AllowedOrigins: cfg.CORS.AllowedOrigins, Logger: logger},
	)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("starting quiz service", "port", finalPort, "storage", cfg.Storage.Driver, "redis", redisClient != nil, "events", cfg.Events.Enabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newEventPublisher builds the configured publisher. The in-process channel
// also gets a consumer that logs every event, standing in for the external scorer.
func newEventPublisher(ctx context.Context, g *errgroup.Group, cfg config.Config, logger *slog.Logger) (*events.Publisher, error) {
	ecfg := events.Config{Brokers: cfg.Events.Brokers, Topic: cfg.Events.Topic, Logger: logger}
	if cfg.Events.Publisher == config.PublisherKafka {
		return events.NewKafkaPublisher(ecfg)
	}

	pub, ch := events.NewInProcess(ecfg)
	msgs, err := ch.Subscribe(ctx, pub.Topic())
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", pub.Topic(), err)
	}
	g.Go(func() error {
		consumeEvents(msgs, logger)
		return nil
	})
	return pub, nil
}

func consumeEvents(msgs <-chan *message.Message, logger *slog.Logger) {
	for msg := range msgs {
		env, err := events.Decode(msg)
		if err != nil {
			logger.Warn("drop undecodable event", "error", err)
			msg.Ack()
			continue
		}
		logger.Info("event received", "event_id", env.ID, "event_type", env.Type, "source", env.Source)
		msg.Ack()
	}
}
