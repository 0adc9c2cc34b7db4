package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/export"
	"github.com/go-chi/chi/v5"
)

// ListQuizzes handles GET /api/quizzes?q=&status=.
func (h *Handler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	filter := domain.QuizFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
		Status: domain.QuizStatus(r.URL.Query().Get("status")),
	}
	list, err := h.authoring.ListQuizzes(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.authoring.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// ExportQuiz streams the quiz as an XLSX attachment.
func (h *Handler) ExportQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.authoring.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	// buffer first so a failed render can still answer with an error body
	var buf bytes.Buffer
	if err := export.WriteQuiz(&buf, quiz); err != nil {
		h.logger.Error("export quiz", "quiz_id", quiz.ID, "error", err)
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="quiz-%s.xlsx"`, quiz.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.authoring.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
