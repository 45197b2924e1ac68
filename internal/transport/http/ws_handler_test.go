package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"reveal-party-service/internal/domain"
	"reveal-party-service/internal/infra/memory"
	"reveal-party-service/internal/party"
)

func newTestServer(t *testing.T) (*httptest.Server, *party.Service) {
	t.Helper()

	loader := memory.NewStaticQuestionLoader(map[string]domain.Question{
		"q1": {
			ID:            "q1",
			Question:      "How many months?",
			CorrectAnswer: "9",
			Points:        10,
			Type:          domain.KindNumber,
		},
	})
	questions := memory.NewQuestionRepository(loader, time.Minute)
	prompts := memory.NewPromptBank()
	service := party.NewService(party.NewSession(), questions, prompts)

	mux := http.NewServeMux()
	wsHandler := NewWSHandler(service, "test-secret")
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, service
}

func dialWS(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", query, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestGuestTriviaFlow(t *testing.T) {
	server, _ := newTestServer(t)

	guest := dialWS(t, server, "role=guest&name=Alice")
	admin := dialWS(t, server, "role=admin&secret=test-secret")

	// Registration confirmation arrives before anything else.
	_, reg := readNext(guest, t, party.EvRegistrationSuccess)
	if reg["name"] != "Alice" || reg["guestId"] == "" {
		t.Fatalf("unexpected registration payload: %v", reg)
	}
	readNext(guest, t, party.EvGuestUpdate)

	start := map[string]any{
		"type":    string(party.CmdStartQuestion),
		"payload": map[string]any{"questionId": "q1"},
	}
	if err := admin.WriteJSON(start); err != nil {
		t.Fatalf("write start: %v", err)
	}

	_, question := readUntil(guest, t, party.EvQuestionStarted)
	if question["questionId"] != "q1" {
		t.Fatalf("unexpected question payload: %v", question)
	}
	if _, leaked := question["correctAnswer"]; leaked {
		t.Fatalf("answer leaked to guests: %v", question)
	}

	answer := map[string]any{
		"type":    "trivia-response",
		"payload": map[string]any{"answer": "9"},
	}
	if err := guest.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	readUntil(guest, t, party.EvResponseAck)

	show := map[string]any{"type": string(party.CmdShowQuestionResults)}
	if err := admin.WriteJSON(show); err != nil {
		t.Fatalf("write show: %v", err)
	}

	_, personal := readUntil(guest, t, party.EvPersonalResult)
	if personal["isCorrect"] != true || personal["points"].(float64) != 10 {
		t.Fatalf("unexpected personal result: %v", personal)
	}

	// The aggregate with identities goes to staff, never to guests.
	_, aggregate := readUntil(admin, t, party.EvQuestionResults)
	if aggregate["correctAnswer"] != "9" {
		t.Fatalf("unexpected aggregate: %v", aggregate)
	}
}

func TestAdminRequiresSecret(t *testing.T) {
	server, _ := newTestServer(t)

	u := "ws" + server.URL[len("http"):] + "/ws?role=admin&secret=wrong"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected rejected dial")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}

func TestGuestRequiresName(t *testing.T) {
	server, _ := newTestServer(t)

	u := "ws" + server.URL[len("http"):] + "/ws?role=guest"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected rejected dial")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %+v", resp)
	}
}

func TestChatCensorsOpenAnswer(t *testing.T) {
	server, service := newTestServer(t)

	guest := dialWS(t, server, "role=guest&name=Alice")
	readNext(guest, t, party.EvRegistrationSuccess)

	service.StartQuestion(context.Background(), "q1")
	readUntil(guest, t, party.EvQuestionStarted)

	chat := map[string]any{
		"type":    "send-message",
		"payload": map[string]any{"message": "it is 9, maybe nine"},
	}
	if err := guest.WriteJSON(chat); err != nil {
		t.Fatalf("write chat: %v", err)
	}

	_, msg := readUntil(guest, t, party.EvNewMessage)
	if msg["message"] != "it is ***, maybe ***" {
		t.Fatalf("expected censored chat, got %v", msg["message"])
	}
}

func TestGuestReconnectKeepsIdentity(t *testing.T) {
	server, _ := newTestServer(t)

	first := dialWS(t, server, "role=guest&name=Alice")
	_, reg := readNext(first, t, party.EvRegistrationSuccess)
	guestID := reg["guestId"].(string)
	first.Close()

	second := dialWS(t, server, "role=guest&name=Alice&guestId="+guestID)
	_, back := readNext(second, t, party.EvRegistrationSuccess)
	if back["guestId"] != guestID || back["isReconnection"] != true {
		t.Fatalf("expected reconnection with same id, got %v", back)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	// roster payloads are arrays; callers that care decode those themselves
	payload := map[string]any{}
	if len(msg.Payload) > 0 && msg.Payload[0] == '{' {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
	}
	return msg.Type, payload
}

// readUntil skips unrelated broadcasts until the wanted type shows up.
func readUntil(conn *websocket.Conn, t *testing.T, want string) (string, map[string]any) {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == want {
			return typ, payload
		}
	}
	t.Fatalf("never saw %s", want)
	return "", nil
}
