package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/app"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestAuthorAndPublishQuiz(t *testing.T) {
	srv := newTestServer(t)

	var draft app.DraftView
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/api/drafts", map[string]string{}, &draft))
	require.NotEmpty(t, draft.ID)
	assert.True(t, draft.Empty)

	base := "/api/drafts/" + draft.ID
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPut, base, map[string]string{"title": "Capitals"}, &draft))

	one := 1
	var first, second domain.Question
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, base+"/questions", app.QuestionInput{
		Title: "France", Text: "Capital of France?", Type: domain.QuestionTypeMCQ,
		Options:      []app.OptionInput{{Text: "Lyon"}, {Text: "Paris"}},
		CorrectIndex: &one, Marks: 2,
	}, &first))
	assert.Equal(t, "Paris", optionText(first, first.CorrectAnswer))

	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, base+"/questions", app.QuestionInput{
		Title: "Sky", Text: "The sky is green", Type: domain.QuestionTypeTrueFalse, CorrectAnswer: "False", Marks: 1,
	}, &second))

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, base+"/questions/"+second.ID+"/move", map[string]string{"direction": "up"}, &draft))
	require.Len(t, draft.Questions, 2)
	assert.Equal(t, second.ID, draft.Questions[0].ID)
	assert.Equal(t, 3, draft.TotalMarks)

	var quiz domain.Quiz
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, base+"/submit", map[string]bool{"publish": true}, &quiz))
	assert.True(t, quiz.IsPublished)
	assert.Equal(t, 3, quiz.TotalMarks)

	// the draft is closed after a successful submit
	var errBody ErrorResponse
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, base, nil, &errBody))

	var list []domain.QuizSummary
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/quizzes?q=capit&status=published", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, quiz.ID, list[0].ID)

	var stats domain.Stats
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/stats", nil, &stats))
	assert.Equal(t, 3, stats.TotalQuizzes)
	assert.Equal(t, 2, stats.PublishedQuizzes)
}

func TestSubmitDraftValidation(t *testing.T) {
	srv := newTestServer(t)

	var draft app.DraftView
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/api/drafts", nil, &draft))

	var errBody struct {
		Message string                  `json:"message"`
		Code    string                  `json:"code"`
		Details domain.ValidationErrors `json:"details"`
	}
	status := srv.do(t, http.MethodPost, "/api/drafts/"+draft.ID+"/submit", map[string]bool{"publish": true}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, codeValidation, errBody.Code)
	require.Len(t, errBody.Details, 2)
	assert.Equal(t, "title", errBody.Details[0].Field)
}

func TestDeleteQuestionNeedsConfirmation(t *testing.T) {
	srv := newTestServer(t)

	var draft app.DraftView
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/api/drafts", map[string]string{"quizId": "quiz-1"}, &draft))
	require.Len(t, draft.Questions, 2)
	path := fmt.Sprintf("/api/drafts/%s/questions/q1", draft.ID)

	var prompt struct {
		Code    string               `json:"code"`
		Details confirmDeleteDetails `json:"details"`
	}
	require.Equal(t, http.StatusConflict, srv.do(t, http.MethodDelete, path, nil, &prompt))
	assert.Equal(t, codeConfirm, prompt.Code)
	assert.Equal(t, "q1", prompt.Details.PendingDelete)
	assert.Equal(t, "q1", prompt.Details.Draft.PendingDelete)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodDelete, path+"?confirm=true", nil, &draft))
	require.Len(t, draft.Questions, 1)
	assert.Equal(t, "q2", draft.Questions[0].ID)
	assert.Equal(t, 0, draft.Questions[0].Order)

	// confirming again without a fresh request is rejected
	var errBody ErrorResponse
	assert.Equal(t, http.StatusConflict, srv.do(t, http.MethodDelete, fmt.Sprintf("/api/drafts/%s/questions/q2?confirm=true", draft.ID), nil, &errBody))
}

func TestMoveQuestionRejectsBadDirection(t *testing.T) {
	srv := newTestServer(t)

	var draft app.DraftView
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/api/drafts", map[string]string{"quizId": "quiz-1"}, &draft))

	var errBody ErrorResponse
	status := srv.do(t, http.MethodPost, "/api/drafts/"+draft.ID+"/questions/q1/move", map[string]string{"direction": "sideways"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, codeValidation, errBody.Code)
}

func TestTakeQuizOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	view := srv.startSession(t, "quiz-1")
	assert.Equal(t, "05:00", view.Clock)
	base := "/api/sessions/" + view.ID

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, base+"/answers", map[string]string{"questionId": "q1", "value": "o2"}, &view))
	assert.Equal(t, 1, view.Progress.Answered)

	// submitting before the last question is a conflict
	var errBody ErrorResponse
	assert.Equal(t, http.StatusConflict, srv.do(t, http.MethodPost, base+"/submit", nil, &errBody))

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, base+"/next", nil, &view))
	assert.Equal(t, 1, view.Progress.Current)

	var prompt submitPrompt
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, base+"/submit", nil, &prompt))
	assert.Equal(t, 1, prompt.Confirmation.Unanswered)
	assert.Equal(t, app.StateConfirmingSubmit, prompt.Session.State)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, base+"/confirm", nil, &view))
	assert.Equal(t, app.StateSubmitted, view.State)
	assert.True(t, view.Delivered)
	require.Len(t, srv.sink.Submissions(), 1)

	assert.Equal(t, http.StatusConflict, srv.do(t, http.MethodPost, base+"/answers", map[string]string{"questionId": "q2", "value": "late"}, &errBody))
}

func TestSessionErrors(t *testing.T) {
	srv := newTestServer(t)

	var errBody ErrorResponse
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/api/sessions/nope", nil, &errBody))
	assert.Equal(t, codeNotFound, errBody.Code)

	assert.Equal(t, http.StatusConflict, srv.do(t, http.MethodPost, "/api/quizzes/draft-1/sessions", nil, &errBody))
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodPost, "/api/quizzes/missing/sessions", nil, &errBody))

	view := srv.startSession(t, "quiz-1")
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/api/sessions/"+view.ID+"/jump", map[string]int{"index": 9}, &errBody))
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/api/sessions/"+view.ID+"/answers", map[string]string{"questionId": "q1", "value": "o9"}, &errBody))

	require.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/api/sessions/"+view.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/api/sessions/"+view.ID, nil, &errBody))
}

func TestExportQuiz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/quizzes/quiz-1/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "quiz-quiz-1.xlsx")

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Questions")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func optionText(q domain.Question, id string) string {
	for _, opt := range q.Options {
		if opt.ID == id {
			return opt.Text
		}
	}
	return ""
}
