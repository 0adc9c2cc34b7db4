package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/app"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/logging"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/validator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handler serves the authoring and quiz-taking HTTP API.
type Handler struct {
	authoring *app.AuthoringService
	taking    *app.TakingService
	validate  *validator.Validator
	logger    *slog.Logger
}

func NewHandler(authoring *app.AuthoringService, taking *app.TakingService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		authoring: authoring,
		taking:    taking,
		validate:  validator.New(),
		logger:    logger,
	}
}

// RouterConfig holds the router-level settings.
type RouterConfig struct {
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter mounts the REST endpoints and the session WebSocket.
func NewRouter(h *Handler, ws *WSHandler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.RequestLogger(logger), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	// the websocket handler owns its connection, so it stays outside the timeout group
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/stats", h.Stats)

		r.Route("/quizzes", func(r chi.Router) {
			r.Get("/", h.ListQuizzes)
			r.Route("/{quizID}", func(r chi.Router) {
				r.Get("/", h.GetQuiz)
				r.Get("/export", h.ExportQuiz)
				r.Post("/sessions", h.StartSession)
			})
		})

		r.Route("/drafts", func(r chi.Router) {
			r.Post("/", h.CreateDraft)
			r.Route("/{draftID}", func(r chi.Router) {
				r.Get("/", h.GetDraft)
				r.Put("/", h.UpdateDraft)
				r.Delete("/", h.DiscardDraft)
				r.Post("/submit", h.SubmitDraft)
				r.Post("/questions", h.CreateQuestion)
				r.Delete("/pending-delete", h.CancelDelete)
				r.Route("/questions/{questionID}", func(r chi.Router) {
					r.Put("/", h.UpdateQuestion)
					r.Delete("/", h.DeleteQuestion)
					r.Post("/move", h.MoveQuestion)
				})
			})
		})

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.AbandonSession)
			r.Post("/answers", h.AnswerQuestion)
			r.Post("/next", h.NextQuestion)
			r.Post("/previous", h.PreviousQuestion)
			r.Post("/jump", h.JumpToQuestion)
			r.Post("/submit", h.RequestSubmit)
			r.Post("/confirm", h.ConfirmSubmit)
			r.Post("/cancel", h.CancelConfirm)
			r.Post("/deliver", h.DeliverSession)
		})
	})
	return r
}
