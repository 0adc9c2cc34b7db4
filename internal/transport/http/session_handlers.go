package http

import (
	"net/http"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/app"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
	"github.com/go-chi/chi/v5"
)

type startSessionRequest struct {
	DurationMinutes int `json:"durationMinutes" validate:"gte=0,lte=600"`
}

type answerRequest struct {
	QuestionID string `json:"questionId" validate:"required"`
	Value      string `json:"value"`
}

type jumpRequest struct {
	Index int `json:"index" validate:"gte=0"`
}

type submitPrompt struct {
	Confirmation app.Confirmation `json:"confirmation"`
	Session      app.SessionView  `json:"session"`
}

// StartSession handles POST /api/quizzes/{quizID}/sessions.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !h.bind(w, r, &req) {
		return
	}
	view, err := h.taking.Start(r.Context(), chi.URLParam(r, "quizID"), req.DurationMinutes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.taking.Snapshot(r.Context(), chi.URLParam(r, "sessionID"))
	respondSession(w, view, err)
}

func (h *Handler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	if err := h.taking.Abandon(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !h.bind(w, r, &req) {
		return
	}
	view, err := h.taking.Answer(r.Context(), chi.URLParam(r, "sessionID"), req.QuestionID, req.Value)
	respondSession(w, view, err)
}

func (h *Handler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	view, err := h.taking.Next(r.Context(), chi.URLParam(r, "sessionID"))
	respondSession(w, view, err)
}

func (h *Handler) PreviousQuestion(w http.ResponseWriter, r *http.Request) {
	view, err := h.taking.Previous(r.Context(), chi.URLParam(r, "sessionID"))
	respondSession(w, view, err)
}

func (h *Handler) JumpToQuestion(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if !h.bind(w, r, &req) {
		return
	}
	view, err := h.taking.JumpTo(r.Context(), chi.URLParam(r, "sessionID"), req.Index)
	respondSession(w, view, err)
}

// RequestSubmit returns the confirmation prompt shown before the final submit.
func (h *Handler) RequestSubmit(w http.ResponseWriter, r *http.Request) {
	confirmation, view, err := h.taking.RequestSubmit(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitPrompt{Confirmation: confirmation, Session: view})
}

func (h *Handler) ConfirmSubmit(w http.ResponseWriter, r *http.Request) {
	view, err := h.taking.ConfirmSubmit(r.Context(), chi.URLParam(r, "sessionID"))
	respondSession(w, view, err)
}

func (h *Handler) CancelConfirm(w http.ResponseWriter, r *http.Request) {
	view, err := h.taking.CancelConfirm(r.Context(), chi.URLParam(r, "sessionID"))
	respondSession(w, view, err)
}

// DeliverSession retries delivery of a submitted session's answers.
func (h *Handler) DeliverSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.taking.Deliver(r.Context(), chi.URLParam(r, "sessionID"))
	respondSession(w, view, err)
}

// respondSession writes the snapshot, or the error with the snapshot attached
// when the session still exists. Validation failures keep their field list.
func respondSession(w http.ResponseWriter, view app.SessionView, err error) {
	if err != nil {
		if view.ID != "" && !domain.IsValidation(err) {
			writeErrorDetails(w, err, view)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
