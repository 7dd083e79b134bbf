package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/anthropics/groupwarden/internal/biz/usecase"
)

// Server provides a read-only HTTP view of the running bot for
// operators: current settings snapshot and basic status.
type Server struct {
	settings *usecase.SettingsUsecase

	server  *http.Server
	port    int
	started time.Time
}

// NewServer creates a new status API server.
func NewServer(settings *usecase.SettingsUsecase, port int) *Server {
	return &Server{
		settings: settings,
		port:     port,
		started:  time.Now(),
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/settings", s.handleSettings)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: mux,
	}

	fmt.Printf("[API] Starting HTTP server on port %d\n", s.port)
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Shutdown(context.Background())
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	settings := s.settings.Settings()
	writeJSON(w, map[string]any{
		"uptime_seconds":   int(time.Since(s.started).Seconds()),
		"managed_chats":    len(settings.ManagedChats),
		"banned_phrases":   len(settings.BannedPhrases),
		"schedule_enabled": settings.Schedule.Enabled,
	})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.settings.Settings())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
