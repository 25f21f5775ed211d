package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

const signatureHeader = "X-Twilio-Signature"

// Submitter runs one chat turn for an inbound message.
type Submitter interface {
	SubmitMessage(ctx context.Context, identity, text string) error
}

// SignatureValidator checks Twilio request signatures.
type SignatureValidator interface {
	Validate(url string, params map[string]string, expectedSignature string) bool
}

type Config struct {
	ServiceName string
	// Validator is optional; without it signatures are not checked.
	Validator SignatureValidator
	// PublicURL is the externally visible base URL Twilio signs against.
	PublicURL  string
	RateLimit  int
	RateWindow time.Duration
}

type Handler struct {
	svc Submitter
	cfg Config
}

func NewHandler(svc Submitter, cfg Config) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

func (h *Handler) Routes(r chi.Router) {
	receive := http.Handler(http.HandlerFunc(h.receive))
	if h.cfg.RateLimit > 0 {
		receive = rateLimitBySender(h.cfg.RateLimit, h.cfg.RateWindow)(receive)
	}

	r.Method(http.MethodPost, "/webhook", receive)
	r.Get("/health", h.health)
	r.Post("/test-message", h.testMessage)
}

// rateLimitBySender keys on the WhatsApp sender, falling back to the client IP.
func rateLimitBySender(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if from := r.FormValue("From"); from != "" {
				return "sender:" + from, nil
			}

			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		}),
	)
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if h.cfg.Validator != nil && !h.validSignature(r) {
		slog.Warn("rejected webhook with invalid signature", "remote", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusForbidden)

		return
	}

	from := strings.TrimSpace(r.PostForm.Get("From"))
	body, hasBody := r.PostForm["Body"]

	if from == "" || !hasBody {
		slog.Warn("incomplete webhook payload", "from", from, "has_body", hasBody)
		http.Error(w, "From and Body are required", http.StatusBadRequest)

		return
	}

	slog.Info("inbound message", "from", from, "message_sid", r.PostForm.Get("MessageSid"))

	if err := h.svc.SubmitMessage(r.Context(), from, body[0]); err != nil {
		slog.Error("processing inbound message", "from", from, "error", err)
		w.WriteHeader(http.StatusInternalServerError)

		return
	}

	// An empty 200 keeps Twilio from sending an automatic reply.
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) validSignature(r *http.Request) bool {
	params := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	return h.cfg.Validator.Validate(h.requestURL(r), params, r.Header.Get(signatureHeader))
}

func (h *Handler) requestURL(r *http.Request) string {
	if h.cfg.PublicURL != "" {
		return strings.TrimSuffix(h.cfg.PublicURL, "/") + r.URL.RequestURI()
	}

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}

	return scheme + "://" + r.Host + r.URL.RequestURI()
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(healthResponse{Status: "UP", Service: h.cfg.ServiceName}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) testMessage(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(r.FormValue("phoneNumber"))
	message := r.FormValue("message")

	if phone == "" || message == "" {
		http.Error(w, "phoneNumber and message are required", http.StatusBadRequest)
		return
	}

	slog.Info("test message", "from", phone)

	if err := h.svc.SubmitMessage(r.Context(), phone, message); err != nil {
		slog.Error("processing test message", "from", phone, "error", err)
		http.Error(w, "Error: "+err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Test message processed"))
}
