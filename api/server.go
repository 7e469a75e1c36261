// Package api serves modsh consoles over HTTP.
//
// Sessions are created, listed and removed with plain JSON requests. Lines
// are fed to a session over a websocket that speaks JSON-RPC 2.0, method
// console.execute.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Config holds server configuration.
type Config struct {
	CORSOrigins []string
	Logger      *zerolog.Logger
}

// SessionInfo describes a session in API responses.
type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
	Location  string    `json:"location"`
}

// CreateSessionRequest is the optional body of a create request.
type CreateSessionRequest struct {
	Unit string `json:"unit,omitempty"`
}

// CreateSessionResponse carries the new session and its banner.
type CreateSessionResponse struct {
	Session SessionInfo    `json:"session"`
	Banner  *ExecuteResult `json:"banner"`
}

// ListSessionsResponse lists the live sessions.
type ListSessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

// RemoveSessionRequest names the session to remove.
type RemoveSessionRequest struct {
	SessionID string `json:"session_id"`
}

// RemoveSessionResponse reports a removal.
type RemoveSessionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server routes requests to a SessionManager.
type Server struct {
	Sessions *SessionManager

	router   chi.Router
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewServer creates a server whose sessions are built by factory.
func NewServer(factory ConsoleFactory, cfg Config) *Server {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	s := &Server{
		Sessions: NewSessionManager(factory),
		log:      log,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	s.router = s.routes(cfg)
	return s
}

func (s *Server) routes(cfg Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Route("/api/v1/session", func(r chi.Router) {
		r.Post("/create", s.handleCreateSession)
		r.Post("/list", s.handleListSessions)
		r.Post("/remove", s.handleRemoveSession)
		r.Get("/repl", s.handleREPL)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	session, banner, err := s.Sessions.CreateSession(r.Context(), req.Unit)
	if err != nil {
		s.log.Warn().Err(err).Str("unit", req.Unit).Msg("session not created")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.log.Info().Str("session", session.ID).Str("unit", session.Console.Location()).Msg("session created")

	writeJSON(w, http.StatusCreated, CreateSessionResponse{
		Session: session.Info(),
		Banner:  banner,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.Sessions.ListSessions()
	infos := make([]SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, session.Info())
	}
	writeJSON(w, http.StatusOK, ListSessionsResponse{Sessions: infos})
}

func (s *Server) handleRemoveSession(w http.ResponseWriter, r *http.Request) {
	var req RemoveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.Sessions.RemoveSession(req.SessionID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.log.Info().Str("session", req.SessionID).Msg("session removed")
	writeJSON(w, http.StatusOK, RemoveSessionResponse{Success: true, Message: "Session removed successfully"})
}

// handleREPL answers JSON-RPC requests read from a websocket until the
// client goes away.
func (s *Server) handleREPL(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		var req JSONRPCRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Msg("websocket closed")
			}
			return
		}
		resp := HandleJSONRPC(r.Context(), s.Sessions, &req)
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
