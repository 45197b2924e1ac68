package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"reveal-party-service/internal/domain"
	"reveal-party-service/internal/party"
)

// WSHandler upgrades connections for the three client roles and wires
// them into the session. Guests register on connect; admin and
// projection authenticate with the shared secret.
type WSHandler struct {
	service  *party.Service
	secret   string
	upgrader websocket.Upgrader
}

func NewWSHandler(service *party.Service, secret string) *WSHandler {
	return &WSHandler{
		service: service,
		secret:  secret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS handles /ws?role=guest|admin|projection. Guests also pass
// name and, when reconnecting, guestId.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	role := domain.Role(r.URL.Query().Get("role"))
	if role == "" {
		role = domain.RoleGuest
	}

	switch role {
	case domain.RoleGuest:
		if r.URL.Query().Get("name") == "" && r.URL.Query().Get("guestId") == "" {
			http.Error(w, "missing name", http.StatusBadRequest)
			return
		}
	case domain.RoleAdmin, domain.RoleProjection:
		if r.URL.Query().Get("secret") != h.secret {
			http.Error(w, "invalid secret", http.StatusUnauthorized)
			return
		}
	default:
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := h.service.Session()

	var guestID, handle string
	var reg party.Registration
	if role == domain.RoleGuest {
		handle = uuid.NewString()
		reg = session.Register(r.URL.Query().Get("name"), r.URL.Query().Get("guestId"), handle)
		guestID = reg.GuestID
		defer session.MarkDisconnected(handle)
	}

	updates, cancel := session.Subscribe(role, guestID)
	defer cancel()

	send := make(chan outboundMessage, 32)
	closing := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer goroutine; gorilla connections do not allow
	// concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage{Type: ev.Type, Payload: ev.Payload}:
				case <-closing:
					return
				}
			case <-closing:
				return
			}
		}
	}()

	// Registration happens before the subscription exists, so the
	// confirmation and an initial roster snapshot go out directly.
	if role == domain.RoleGuest {
		send <- outboundMessage{Type: party.EvRegistrationSuccess, Payload: party.RegistrationSuccess{
			GuestID:        reg.GuestID,
			Name:           reg.Name,
			IsReconnection: reg.IsReconnection,
			TotalScore:     reg.TotalScore,
		}}
	}
	send <- outboundMessage{Type: party.EvGuestUpdate, Payload: session.Roster()}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch role {
		case domain.RoleGuest:
			h.handleGuestMessage(guestID, inbound, send)
		case domain.RoleAdmin:
			h.handleAdminCommand(r, inbound)
		}
		// projection never sends commands; anything inbound is dropped
	}

	close(closing)
	<-updatesDone
	close(send)
	<-writerDone
}

type textPayload struct {
	Message string `json:"message"`
	Emoji   string `json:"emoji"`
	Answer  string `json:"answer"`
	Vote    string `json:"vote"`
	Image   string `json:"imageData"`
	Drawing string `json:"drawingId"`
}

func (h *WSHandler) handleGuestMessage(guestID string, inbound inboundMessage, send chan<- outboundMessage) {
	var payload textPayload
	if len(inbound.Payload) > 0 {
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid payload"}}
			return
		}
	}

	session := h.service.Session()
	var err error
	switch inbound.Type {
	case "send-message":
		text := payload.Message
		if answer, kind, open := session.ActiveAnswer(); open {
			text = CensorAnswer(text, answer, kind)
		}
		err = session.SendMessage(guestID, text)
	case "send-emoji":
		err = session.SendEmoji(guestID, payload.Emoji)
	case "trivia-response":
		err = session.SubmitResponse(guestID, payload.Answer)
	case "final-vote":
		err = session.CastVote(guestID, domain.GenderChoice(payload.Vote))
	case "submit-drawing":
		err = session.SubmitDrawing(guestID, payload.Image)
	case "vote-drawing":
		err = session.VoteDrawing(guestID, payload.Drawing)
	default:
		send <- outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		return
	}

	// Validation failures go back to the offending guest only; anything
	// else (unknown guest, wrong phase) is silently dropped.
	if errors.Is(err, domain.ErrNumbersOnly) || errors.Is(err, domain.ErrInvalidChoice) {
		send <- outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}
}

type adminPayload struct {
	QuestionID string `json:"questionId"`
	PromptID   string `json:"promptId"`
	Duration   int    `json:"duration"`
	GuestID    string `json:"guestId"`
	Gender     string `json:"gender"`
}

func (h *WSHandler) handleAdminCommand(r *http.Request, inbound inboundMessage) {
	var payload adminPayload
	if len(inbound.Payload) > 0 {
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			log.Printf("admin command %s: bad payload: %v", inbound.Type, err)
			return
		}
	}

	session := h.service.Session()
	switch party.Command(inbound.Type) {
	case party.CmdStartQuestion:
		h.service.StartQuestion(r.Context(), payload.QuestionID)
	case party.CmdShowQuestionResults:
		h.service.ShowQuestionResults()
	case party.CmdEndTrivia:
		session.EndTrivia()
	case party.CmdStartVoting:
		session.StartVoting()
	case party.CmdEndVoting:
		session.EndVoting()
	case party.CmdStartCountdown:
		session.StartCountdown()
	case party.CmdRevealGender:
		session.RevealGender()
	case party.CmdShowWinner:
		session.ShowWinner()
	case party.CmdStartDrawing:
		h.service.StartDrawing(r.Context(), payload.PromptID, payload.Duration)
	case party.CmdDrawingVoting:
		session.AdvanceDrawingVoting()
	case party.CmdShowDrawingResults:
		session.ShowDrawingResults()
	case party.CmdReset:
		h.service.ResetEvent()
	default:
		switch inbound.Type {
		case "remove-guest":
			session.RemoveGuest(payload.GuestID)
		case "set-gender":
			if err := session.SetGender(domain.GenderChoice(payload.Gender)); err != nil {
				log.Printf("set gender: %v", err)
			}
		default:
			log.Printf("unknown admin command: %s", inbound.Type)
		}
	}
}
