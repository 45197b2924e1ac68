package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"

	"reveal-party-service/internal/domain"
	"reveal-party-service/internal/party"
)

// QuestionBank is the CRUD surface over the durable question list.
type QuestionBank interface {
	List() []domain.Question
	Create(domain.Question) (domain.Question, error)
	Update(string, domain.Question) (domain.Question, error)
	Delete(string) error
}

// PromptBank is the CRUD surface over the in-memory prompt list.
type PromptBank interface {
	List() []domain.Prompt
	Create(theme string) domain.Prompt
	Update(id, theme string) (domain.Prompt, error)
	Delete(id string) error
}

// APIHandler serves the admin REST surface: bank CRUD, the gender
// secret, status and the join QR code. Everything is gated by the shared
// secret.
type APIHandler struct {
	service    *party.Service
	questions  QuestionBank
	prompts    PromptBank
	secret     string
	joinURL    string
	invalidate func(id string)
}

func NewAPIHandler(service *party.Service, questions QuestionBank, prompts PromptBank, secret, joinURL string, invalidate func(id string)) *APIHandler {
	if invalidate == nil {
		invalidate = func(string) {}
	}
	return &APIHandler{
		service:    service,
		questions:  questions,
		prompts:    prompts,
		secret:     secret,
		joinURL:    joinURL,
		invalidate: invalidate,
	}
}

// Register mounts all API routes on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/questions", h.gate(h.listQuestions))
	mux.HandleFunc("POST /api/questions", h.gate(h.createQuestion))
	mux.HandleFunc("PUT /api/questions/{id}", h.gate(h.updateQuestion))
	mux.HandleFunc("DELETE /api/questions/{id}", h.gate(h.deleteQuestion))

	mux.HandleFunc("GET /api/prompts", h.gate(h.listPrompts))
	mux.HandleFunc("POST /api/prompts", h.gate(h.createPrompt))
	mux.HandleFunc("PUT /api/prompts/{id}", h.gate(h.updatePrompt))
	mux.HandleFunc("DELETE /api/prompts/{id}", h.gate(h.deletePrompt))

	mux.HandleFunc("GET /api/gender", h.gate(h.getGender))
	mux.HandleFunc("POST /api/gender", h.gate(h.setGender))
	mux.HandleFunc("GET /api/status", h.gate(h.status))
	mux.HandleFunc("GET /api/guests", h.gate(h.listGuests))
	mux.HandleFunc("DELETE /api/guests/{id}", h.gate(h.removeGuest))
	mux.HandleFunc("GET /api/join-qr", h.gate(h.joinQR))
}

func (h *APIHandler) gate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		secret := r.Header.Get("X-Admin-Secret")
		if secret == "" {
			secret = r.URL.Query().Get("secret")
		}
		if secret != h.secret {
			writeError(w, http.StatusUnauthorized, "invalid secret")
			return
		}
		next(w, r)
	}
}

func (h *APIHandler) listQuestions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.questions.List())
}

func (h *APIHandler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var q domain.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid question")
		return
	}
	created, err := h.questions.Create(q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (h *APIHandler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if h.service.QuestionUsed(id) {
		writeError(w, http.StatusConflict, domain.ErrQuestionInUse.Error())
		return
	}
	var q domain.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid question")
		return
	}
	updated, err := h.questions.Update(id, q)
	if errors.Is(err, domain.ErrQuestionNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.invalidate(id)
	writeJSON(w, http.StatusOK, updated)
}

func (h *APIHandler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if h.service.QuestionUsed(id) {
		writeError(w, http.StatusConflict, domain.ErrQuestionInUse.Error())
		return
	}
	err := h.questions.Delete(id)
	if errors.Is(err, domain.ErrQuestionNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.invalidate(id)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type promptBody struct {
	Theme string `json:"theme"`
}

func (h *APIHandler) listPrompts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.prompts.List())
}

func (h *APIHandler) createPrompt(w http.ResponseWriter, r *http.Request) {
	var body promptBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Theme == "" {
		writeError(w, http.StatusBadRequest, "invalid prompt")
		return
	}
	writeJSON(w, http.StatusOK, h.prompts.Create(body.Theme))
}

func (h *APIHandler) updatePrompt(w http.ResponseWriter, r *http.Request) {
	var body promptBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Theme == "" {
		writeError(w, http.StatusBadRequest, "invalid prompt")
		return
	}
	updated, err := h.prompts.Update(r.PathValue("id"), body.Theme)
	if errors.Is(err, domain.ErrPromptNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *APIHandler) deletePrompt(w http.ResponseWriter, r *http.Request) {
	if err := h.prompts.Delete(r.PathValue("id")); errors.Is(err, domain.ErrPromptNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type genderBody struct {
	Gender string `json:"gender"`
}

func (h *APIHandler) getGender(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, genderBody{Gender: string(h.service.Session().Gender())})
}

func (h *APIHandler) setGender(w http.ResponseWriter, r *http.Request) {
	var body genderBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := h.service.Session().SetGender(domain.GenderChoice(body.Gender)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *APIHandler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Session().StatusSnapshot())
}

func (h *APIHandler) listGuests(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Session().Roster())
}

func (h *APIHandler) removeGuest(w http.ResponseWriter, r *http.Request) {
	h.service.Session().RemoveGuest(r.PathValue("id"))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *APIHandler) joinQR(w http.ResponseWriter, r *http.Request) {
	size := 256
	if raw := r.URL.Query().Get("size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 64 && parsed <= 2048 {
			size = parsed
		}
	}
	png, err := qrcode.Encode(h.joinURL, qrcode.Medium, size)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		log.Printf("write qr: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
