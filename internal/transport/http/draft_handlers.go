package http

import (
	"net/http"
	"strconv"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/app"
	"github.com/go-chi/chi/v5"
)

type createDraftRequest struct {
	QuizID string `json:"quizId" validate:"omitempty,max=64"`
}

type updateDraftRequest struct {
	Title       string `json:"title" validate:"max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type moveQuestionRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

type submitDraftRequest struct {
	Publish bool `json:"publish"`
}

type confirmDeleteDetails struct {
	PendingDelete string        `json:"pendingDelete"`
	Prompt        string        `json:"prompt"`
	Draft         app.DraftView `json:"draft"`
}

// CreateDraft handles POST /api/drafts. A quizId opens the stored quiz for editing.
func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req createDraftRequest
	if !h.bind(w, r, &req) {
		return
	}
	view, err := h.authoring.NewDraft(r.Context(), req.QuizID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	view, err := h.authoring.Draft(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req updateDraftRequest
	if !h.bind(w, r, &req) {
		return
	}
	view, err := h.authoring.UpdateDetails(r.Context(), chi.URLParam(r, "draftID"), req.Title, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.authoring.Discard(r.Context(), chi.URLParam(r, "draftID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	h.saveQuestion(w, r, "", http.StatusCreated)
}

func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	h.saveQuestion(w, r, chi.URLParam(r, "questionID"), http.StatusOK)
}

func (h *Handler) saveQuestion(w http.ResponseWriter, r *http.Request, questionID string, status int) {
	var in app.QuestionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	question, err := h.authoring.SaveQuestion(r.Context(), chi.URLParam(r, "draftID"), questionID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, question)
}

func (h *Handler) MoveQuestion(w http.ResponseWriter, r *http.Request) {
	var req moveQuestionRequest
	if !h.bind(w, r, &req) {
		return
	}
	dir, err := app.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.authoring.MoveQuestion(r.Context(), chi.URLParam(r, "draftID"), chi.URLParam(r, "questionID"), dir)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DeleteQuestion answers 409 with a prompt until called again with ?confirm=true.
func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	confirm, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	questionID := chi.URLParam(r, "questionID")
	view, err := h.authoring.DeleteQuestion(r.Context(), chi.URLParam(r, "draftID"), questionID, confirm)
	if err != nil {
		if !confirm && view.ID != "" {
			writeErrorDetails(w, err, confirmDeleteDetails{
				PendingDelete: questionID,
				Prompt:        "Are you sure you want to delete this question?",
				Draft:         view,
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) CancelDelete(w http.ResponseWriter, r *http.Request) {
	view, err := h.authoring.CancelDelete(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	var req submitDraftRequest
	if !h.bind(w, r, &req) {
		return
	}
	quiz, err := h.authoring.Submit(r.Context(), chi.URLParam(r, "draftID"), req.Publish)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// bind decodes and validates a request body, writing the error response itself.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		writeError(w, err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, err)
		return false
	}
	return true
}
