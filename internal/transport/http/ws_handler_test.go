package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/app"
	"github.com/gorilla/websocket"
)

func TestWebSocketSessionFlow(t *testing.T) {
	srv := newTestServer(t)
	view := srv.startSession(t, "quiz-1")

	conn := dial(t, srv, view.ID)
	defer conn.Close()

	// Expect the current snapshot first.
	typ, payload := readNext(t, conn)
	if typ != msgSession {
		t.Fatalf("expected session, got %s", typ)
	}
	var first app.SessionView
	mustDecode(t, payload, &first)
	if first.ID != view.ID || first.Question == nil || first.Question.ID != "q1" {
		t.Fatalf("unexpected first snapshot %+v", first)
	}

	send(t, conn, "answer", map[string]string{"questionId": "q1", "value": "o2"})
	waitSession(t, conn, func(v app.SessionView) bool { return v.Progress.Answered == 1 })

	send(t, conn, "next", nil)
	waitSession(t, conn, func(v app.SessionView) bool { return v.Progress.Current == 1 })

	send(t, conn, "submit", nil)
	var confirmation app.Confirmation
	for {
		typ, payload := readNext(t, conn)
		if typ == msgConfirm {
			mustDecode(t, payload, &confirmation)
			break
		}
	}
	if confirmation.Unanswered != 1 || confirmation.Warning == "" {
		t.Fatalf("unexpected confirmation %+v", confirmation)
	}

	send(t, conn, "confirm", nil)
	final := waitSession(t, conn, func(v app.SessionView) bool { return v.State == app.StateSubmitted && v.Delivered })
	if final.Result == nil || final.Result.AnsweredCount != 1 {
		t.Fatalf("unexpected result %+v", final.Result)
	}
	if len(srv.sink.Submissions()) != 1 {
		t.Fatalf("expected one delivered submission")
	}
}

func TestWebSocketReportsErrors(t *testing.T) {
	srv := newTestServer(t)
	view := srv.startSession(t, "quiz-1")

	conn := dial(t, srv, view.ID)
	defer conn.Close()
	readNext(t, conn)

	// submitting from the first question is not allowed
	send(t, conn, "submit", nil)
	waitError(t, conn, codeConflict)

	send(t, conn, "dance", nil)
	waitError(t, conn, codeValidation)
}

func TestWebSocketRejectsUnknownSession(t *testing.T) {
	srv := newTestServer(t)
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?sessionId=missing"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %+v", resp)
	}
}

func dial(t *testing.T, srv *testServer, sessionID string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?sessionId=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}

// waitSession skips messages (countdown ticks included) until a snapshot matches.
func waitSession(t *testing.T, conn *websocket.Conn, match func(app.SessionView) bool) app.SessionView {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, payload := readNext(t, conn)
		if typ == msgError {
			t.Fatalf("unexpected error message %s", payload)
		}
		if typ != msgSession {
			continue
		}
		var view app.SessionView
		mustDecode(t, payload, &view)
		if match(view) {
			return view
		}
	}
	t.Fatalf("no matching session snapshot")
	return app.SessionView{}
}

func waitError(t *testing.T, conn *websocket.Conn, code string) {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, payload := readNext(t, conn)
		if typ != msgError {
			continue
		}
		var body errorPayload
		mustDecode(t, payload, &body)
		if body.Code != code {
			t.Fatalf("expected code %s, got %+v", code, body)
		}
		return
	}
	t.Fatalf("no error message received")
}

func mustDecode(t *testing.T, raw json.RawMessage, dst any) {
	t.Helper()
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
}
