package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

const (
	codeValidation = "VALIDATION_ERROR"
	codeNotFound   = "NOT_FOUND"
	codeConflict   = "CONFLICT"
	codeConfirm    = "CONFIRMATION_REQUIRED"
	codeUpstream   = "UPSTREAM_FAILED"
	codeInternal   = "INTERNAL_ERROR"
)

var conflictErrors = []error{
	domain.ErrInvalidTransition,
	domain.ErrSessionSubmitted,
	domain.ErrSubmitInFlight,
	domain.ErrNotLastQuestion,
	domain.ErrNoPendingDelete,
	domain.ErrQuizNotPublished,
	domain.ErrQuizEmpty,
	domain.ErrEditorClosed,
}

var notFoundErrors = []error{
	domain.ErrQuizNotFound,
	domain.ErrDraftNotFound,
	domain.ErrSessionNotFound,
	domain.ErrQuestionNotFound,
}

var badRequestErrors = []error{
	domain.ErrOptionNotFound,
	domain.ErrIndexOutOfRange,
}

// statusFor maps a service error onto an HTTP status and error code.
func statusFor(err error) (int, string) {
	if domain.IsValidation(err) {
		return http.StatusBadRequest, codeValidation
	}
	if domain.IsSubmission(err) {
		return http.StatusBadGateway, codeUpstream
	}
	if errors.Is(err, domain.ErrConfirmationRequired) {
		return http.StatusConflict, codeConfirm
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return http.StatusNotFound, codeNotFound
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return http.StatusConflict, codeConflict
		}
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, codeValidation
		}
	}
	return http.StatusInternalServerError, codeInternal
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeErrorDetails(w, err, nil)
}

// writeErrorDetails attaches details to the error body. Validation failures
// always carry their field list.
func writeErrorDetails(w http.ResponseWriter, err error, details any) {
	status, code := statusFor(err)
	var fields domain.ValidationErrors
	if details == nil && errors.As(err, &fields) {
		details = fields
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeJSON(w, status, ErrorResponse{Message: msg, Code: code, Details: details})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.NewValidationError("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}
