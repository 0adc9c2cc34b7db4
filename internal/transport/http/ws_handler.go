package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/app"
	"github.com/gorilla/websocket"
)

// WSHandler streams one session to a client and applies the client's actions to it.
type WSHandler struct {
	service  *app.TakingService
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewWSHandler(service *app.TakingService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}

type jumpPayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Outbound message types.
const (
	msgSession = "session"
	msgConfirm = "confirm"
	msgError   = "error"
)

func errorMessage(err error) outboundMessage[any] {
	_, code := statusFor(err)
	return outboundMessage[any]{Type: msgError, Payload: errorPayload{Message: err.Error(), Code: code}}
}

// ServeWS upgrades HTTP requests to websockets and wires them into the session actions.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}
	// look the session up before upgrading so unknown ids get a plain 404
	if _, err := h.service.Session(sessionID); err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "session_id", sessionID, "error", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	// the subscription is primed with the current snapshot
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", "session_id", sessionID, "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: msgSession, Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if reply, ok := h.handle(r, sessionID, inbound); ok {
			send <- reply
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// handle applies one client action. Successful transitions reach the client
// through the subscription, so only prompts and errors are replied directly.
func (h *WSHandler) handle(r *http.Request, sessionID string, inbound inboundMessage) (outboundMessage[any], bool) {
	ctx := r.Context()
	var err error
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return outboundMessage[any]{Type: msgError, Payload: errorPayload{Message: "invalid answer payload", Code: codeValidation}}, true
		}
		_, err = h.service.Answer(ctx, sessionID, payload.QuestionID, payload.Value)
	case "next":
		_, err = h.service.Next(ctx, sessionID)
	case "previous":
		_, err = h.service.Previous(ctx, sessionID)
	case "jump":
		var payload jumpPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return outboundMessage[any]{Type: msgError, Payload: errorPayload{Message: "invalid jump payload", Code: codeValidation}}, true
		}
		_, err = h.service.JumpTo(ctx, sessionID, payload.Index)
	case "submit":
		var confirmation app.Confirmation
		confirmation, _, err = h.service.RequestSubmit(ctx, sessionID)
		if err == nil {
			return outboundMessage[any]{Type: msgConfirm, Payload: confirmation}, true
		}
	case "confirm":
		_, err = h.service.ConfirmSubmit(ctx, sessionID)
	case "cancel":
		_, err = h.service.CancelConfirm(ctx, sessionID)
	case "deliver":
		_, err = h.service.Deliver(ctx, sessionID)
	default:
		return outboundMessage[any]{Type: msgError, Payload: errorPayload{Message: "unsupported message type", Code: codeValidation}}, true
	}
	if err != nil {
		return errorMessage(err), true
	}
	return outboundMessage[any]{}, false
}
