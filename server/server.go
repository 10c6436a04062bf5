package server

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/schoolmesh/core"
	"github.com/hupe1980/schoolmesh/runner"
	"github.com/hupe1980/schoolmesh/session"
)

//go:embed static
var staticFiles embed.FS

// TurnRunner runs one conversational turn; *runner.Runner implements it.
type TurnRunner interface {
	Turn(ctx context.Context, sess *core.Session, utterance string, optFns ...func(o *runner.TurnOptions)) (runner.TurnResult, error)
}

// Options configures the server.
type Options struct {
	Addr            string
	ServiceName     string
	ShutdownTimeout time.Duration
	// TurnTimeout bounds a single turn. Zero means no bound beyond the request.
	TurnTimeout time.Duration
	Logger      zerolog.Logger
}

// Server serves the chat API for one household.
type Server struct {
	turns     TurnRunner
	sessions  *session.InMemoryStore
	household core.Household
	opts      Options
	validate  *validator.Validate
	upgrader  websocket.Upgrader
	httpSrv   *http.Server
}

// New creates a server answering for household.
func New(turns TurnRunner, sessions *session.InMemoryStore, household core.Household, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:            ":3000",
		ServiceName:     "schoolmesh",
		ShutdownTimeout: 10 * time.Second,
		Logger:          zerolog.Nop(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if sessions == nil {
		sessions = session.NewInMemoryStore()
	}

	s := &Server{
		turns:     turns,
		sessions:  sessions,
		household: household,
		opts:      opts,
		validate:  validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.httpSrv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Sessions exposes the session registry.
func (s *Server) Sessions() *session.InMemoryStore { return s.sessions }

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/chat/history", s.handleHistory)
	mux.HandleFunc("POST /api/chat/reset", s.handleReset)
	mux.HandleFunc("GET /api/chat/ws", s.handleWS)
	mux.HandleFunc("GET /health", s.handleHealth)

	static, _ := fs.Sub(staticFiles, "static")
	mux.Handle("GET /{$}", http.FileServerFS(static))

	return s.logRequests(mux)
}

// Run listens on Options.Addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.opts.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
// within Options.ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := s.opts.Logger
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Str("service", s.opts.ServiceName).Msg("server.start")
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server.serve.failed")
			return errors.Wrap(err, "serve")
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server.shutdown.failed")
			return errors.Wrap(err, "shutdown")
		}
		log.Info().Msg("server.shutdown.complete")
		return nil
	})

	return eg.Wait()
}

type chatRequest struct {
	Message   *string `json:"message" validate:"required"`
	SessionID string  `json:"sessionId" validate:"omitempty,max=128,printascii"`
}

type chatResponse struct {
	Response   string `json:"response,omitempty"`
	Error      string `json:"error,omitempty"`
	Success    bool   `json:"success"`
	SessionID  string `json:"sessionId,omitempty"`
	Capability string `json:"capability,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			writeError(w, http.StatusBadRequest, msgMissingMessage)
			return
		}
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, msgMissingMessage)
		return
	}
	if strings.TrimSpace(*req.Message) == "" {
		writeError(w, http.StatusBadRequest, msgEmptyMessage)
		return
	}

	res, sessionID, err := s.runTurn(r.Context(), req.SessionID, *req.Message)
	if err != nil {
		status, msg := classify(err)
		s.opts.Logger.Warn().Err(err).Str("session_id", sessionID).Int("status", status).Msg("chat.turn.failed")
		writeJSON(w, status, chatResponse{Error: msg, SessionID: sessionID})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Response:   res.Text,
		Success:    true,
		SessionID:  sessionID,
		Capability: res.Capability,
	})
}

// runTurn resolves the session and runs one turn under its lock.
func (s *Server) runTurn(ctx context.Context, sessionID, utterance string, optFns ...func(o *runner.TurnOptions)) (runner.TurnResult, string, error) {
	sess, created := s.sessions.GetOrCreate(sessionID, s.household)
	if created {
		s.opts.Logger.Debug().Str("session_id", sess.ID()).Msg("chat.session.created")
	}

	if s.opts.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.TurnTimeout)
		defer cancel()
	}

	var res runner.TurnResult
	err := s.sessions.Do(ctx, sess.ID(), func(current *core.Session) error {
		var err error
		res, err = s.turns.Turn(ctx, current, utterance, optFns...)
		return err
	})
	return res, sess.ID(), err
}

type historyEntry struct {
	Role    core.Role `json:"role"`
	Author  string    `json:"author,omitempty"`
	Content string    `json:"content"`
}

type historyResponse struct {
	SessionID string         `json:"sessionId"`
	History   []historyEntry `json:"history"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("sessionId")
	if id == "" {
		writeError(w, http.StatusBadRequest, msgMissingSession)
		return
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, msgSessionNotFound)
		return
	}

	msgs := sess.History()
	out := historyResponse{SessionID: id, History: make([]historyEntry, 0, len(msgs))}
	for _, m := range msgs {
		out.History = append(out.History, historyEntry{Role: m.Role, Author: m.Author, Content: m.Text()})
	}
	writeJSON(w, http.StatusOK, out)
}

type resetRequest struct {
	SessionID string `json:"sessionId" validate:"required,max=128"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, msgMissingSession)
		return
	}

	err := s.sessions.Do(r.Context(), req.SessionID, func(*core.Session) error {
		_, err := s.sessions.Reset(req.SessionID)
		return err
	})
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgSessionNotFound)
		return
	}
	if err != nil {
		status, msg := classify(err)
		writeError(w, status, msg)
		return
	}
	s.opts.Logger.Info().Str("session_id", req.SessionID).Msg("chat.session.reset")
	writeJSON(w, http.StatusOK, chatResponse{Success: true, SessionID: req.SessionID})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": s.opts.ServiceName})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, chatResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
