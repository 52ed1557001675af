package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/chatnote/internal/processor"
	"github.com/MikeSquared-Agency/chatnote/internal/store"
)

// ConversationReader serves stored conversations back to clients.
type ConversationReader interface {
	GetConversation(ctx context.Context, id uuid.UUID) (*store.Conversation, error)
	ListConversations(ctx context.Context, limit int) ([]store.Conversation, error)
}

type Server struct {
	router         *chi.Mux
	port           int
	locale         string
	proc           *processor.Processor
	reader         ConversationReader
	maxUploadBytes int64
	logger         *slog.Logger
	httpServer     *http.Server
}

// NewServer wires the HTTP routes. reader may be nil when storage is off;
// the conversation endpoints then answer 503.
func NewServer(port int, apiToken, locale string, proc *processor.Processor, reader ConversationReader, maxUploadBytes int64, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:         router,
		port:           port,
		locale:         locale,
		proc:           proc,
		reader:         reader,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/chatnote/status", s.status)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Post("/imports", s.createImport)
		r.Get("/conversations", s.listConversations)
		r.Get("/conversations/{id}", s.getConversation)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// BearerAuthMiddleware requires "Authorization: Bearer <token>" when token
// is non-empty.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "chatnote",
		"locale":  s.locale,
		"storage": s.proc.StorageEnabled(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
