// Package server exposes the streaming chat endpoint and its supporting
// routes.
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chatrelay/chatrelay/pkg/config"
	"github.com/chatrelay/chatrelay/pkg/forms"
	"github.com/chatrelay/chatrelay/pkg/knowledge"
	"github.com/chatrelay/chatrelay/pkg/model"
	"github.com/chatrelay/chatrelay/pkg/tenant"
)

const maxRequestBody = 1 << 20

// Server wires the request dispatcher to its collaborators.
type Server struct {
	opts     *config.Options
	tenants  *tenant.Store
	kb       *knowledge.Retriever
	streamer model.Streamer
	forms    *forms.Handler
	metrics  *metrics
	now      func() time.Time
}

// New constructs a Server. kb may be nil when no knowledge base is wired.
func New(opts *config.Options, tenants *tenant.Store, kb *knowledge.Retriever, streamer model.Streamer, formsHandler *forms.Handler) *Server {
	return &Server{
		opts:     opts,
		tenants:  tenants,
		kb:       kb,
		streamer: streamer,
		forms:    formsHandler,
		metrics:  newMetrics(),
		now:      time.Now,
	}
}

// Router builds the HTTP surface: the chat endpoint plus health and metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.cors)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	r.Post("/chat", s.handleChat)
	r.Post("/", s.handleChat)

	return r
}

// cors answers preflights and stamps the allow headers on every response.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := "*"
		if len(s.opts.AllowedOrigins) > 0 && s.opts.AllowedOrigins[0] != "*" {
			origin = s.opts.AllowedOrigins[0]
			for _, o := range s.opts.AllowedOrigins {
				if o == r.Header.Get("Origin") {
					origin = o
					break
				}
			}
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleChat is the single streaming endpoint. Every response, including
// rejections, is a well-formed SSE stream terminated by [DONE].
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sw, err := NewStreamWriter(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sw.Prelude()
	sw.Data(map[string]string{"type": "start"})

	body, readErr := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if readErr != nil {
		s.reject(sw, "failed to read request body")
		return
	}

	req, parseErr := parseRequest(body)
	if parseErr != nil {
		s.reject(sw, parseErr.Error())
		return
	}
	if req.TenantHash == "" {
		s.reject(sw, "tenant_hash is required")
		return
	}
	if !req.FormMode && req.UserInput == "" {
		s.reject(sw, "user_input is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	cfg := s.tenants.Load(ctx, req.TenantHash)
	if cfg == nil {
		cfg = tenant.DefaultConfig(req.TenantHash, s.opts.BedrockModelID)
	}

	if req.FormMode {
		s.handleFormMode(ctx, sw, req, cfg)
		return
	}
	s.handleChatMode(ctx, sw, req, cfg)
}

func (s *Server) reject(sw *StreamWriter, msg string) {
	s.metrics.requestsTotal.WithLabelValues("invalid", "rejected").Inc()
	sw.Data(map[string]string{"type": "error", "error": msg})
	sw.Done()
}

// handleFormMode answers a validate or submit action with one data frame.
func (s *Server) handleFormMode(ctx context.Context, sw *StreamWriter, req *ChatRequest, cfg *tenant.Config) {
	switch req.Action {
	case "validate_field":
		s.metrics.requestsTotal.WithLabelValues("form", "ok").Inc()
		sw.Data(forms.ValidateField(req.FieldID, req.FieldValue, cfg))

	case "submit_form":
		result := s.forms.Submit(ctx, forms.SubmitRequest{
			FormID:         req.FormID,
			FormData:       req.FormData,
			Config:         cfg,
			SessionID:      req.SessionID,
			ConversationID: req.ConversationID,
		})
		outcome := "ok"
		if result.Type == "form_error" {
			outcome = "error"
		}
		s.metrics.requestsTotal.WithLabelValues("form", outcome).Inc()
		sw.Data(result)

	default:
		s.metrics.requestsTotal.WithLabelValues("form", "rejected").Inc()
		sw.Data(map[string]string{"type": "error", "error": "unsupported form action"})
	}
	sw.Done()
}
