package web

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/vbonduro/dishout/internal/auth"
	"github.com/vbonduro/dishout/internal/service"
	"github.com/vbonduro/dishout/internal/session"
)

// Services groups the operations served over HTTP.
type Services struct {
	Accounts  *service.AccountService
	Scans     *service.ScanService
	Chats     *service.ChatService
	Dashboard *service.DashboardService
}

// sessionSource is the subset of session.Registry the state stream requires.
type sessionSource interface {
	Get(ctx context.Context, clientID string) *session.Store
}

type Server struct {
	svc      Services
	sessions sessionSource
	tokens   *auth.Issuer
	mux      *http.ServeMux
	handler  http.Handler
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewServer builds the JSON API. allowedOrigins configures CORS and the
// websocket origin check; "*" allows any origin.
func NewServer(svc Services, sessions sessionSource, tokens *auth.Issuer, allowedOrigins []string, logger *slog.Logger) *Server {
	s := &Server{
		svc:      svc,
		sessions: sessions,
		tokens:   tokens,
		mux:      http.NewServeMux(),
		logger:   logger,
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)}
	s.registerRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	s.handler = requestLogger(logger, securityHeaders(c.Handler(s.mux)))
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/clients", s.handleCreateClient)

	s.mux.HandleFunc("GET /api/state", s.client(s.handleGetState))
	s.mux.HandleFunc("GET /api/state/stream", s.client(s.handleStateStream))

	s.mux.HandleFunc("POST /api/auth/signup", s.client(s.handleSignup))
	s.mux.HandleFunc("POST /api/auth/login", s.client(s.handleLogin))
	s.mux.HandleFunc("POST /api/auth/logout", s.client(s.handleLogout))
	s.mux.HandleFunc("PUT /api/view", s.client(s.handleSetView))
	s.mux.HandleFunc("PUT /api/profile/avatar", s.client(s.handleUpdateAvatar))

	s.mux.HandleFunc("POST /api/scans", s.client(s.handleScan))
	s.mux.HandleFunc("GET /api/photos", s.client(s.handleListPhotos))
	s.mux.HandleFunc("GET /api/photos/{id}", s.client(s.handleGetPhoto))
	s.mux.HandleFunc("DELETE /api/photos/{id}", s.client(s.handleDeletePhoto))

	s.mux.HandleFunc("POST /api/chats", s.client(s.handleStartChat))
	s.mux.HandleFunc("PUT /api/chats/active", s.client(s.handleSetActiveChat))
	s.mux.HandleFunc("POST /api/chats/{id}/messages", s.client(s.handleSendMessage))
	s.mux.HandleFunc("POST /api/chats/{id}/accept", s.client(s.handleAcceptLead))
	s.mux.HandleFunc("POST /api/chats/{id}/decline", s.client(s.handleDeclineLead))
	s.mux.HandleFunc("POST /api/chats/{id}/convert", s.client(s.handleConvertLead))
	s.mux.HandleFunc("POST /api/map/focus", s.client(s.handleFocusMap))

	s.mux.HandleFunc("PUT /api/restaurant/menu", s.client(s.handleUpdateMenu))
	s.mux.HandleFunc("PUT /api/restaurant/location", s.client(s.handleUpdateLocation))
	s.mux.HandleFunc("POST /api/restaurant/sync", s.client(s.handleSyncProfile))
	s.mux.HandleFunc("GET /api/restaurant/qrcode", s.client(s.handleQRCode))
}

// clientHandler is a handler that runs on behalf of an authenticated client.
type clientHandler func(w http.ResponseWriter, r *http.Request, clientID string)

// client resolves the client id from the bearer token. Browsers cannot set
// headers on websocket requests, so a token query parameter is accepted too.
func (s *Server) client(next clientHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			token = r.URL.Query().Get("token")
		}
		clientID, err := s.tokens.Parse(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid client token")
			return
		}
		next(w, r, clientID)
	}
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateClient(w http.ResponseWriter, _ *http.Request) {
	clientID, token, err := s.tokens.Issue()
	if err != nil {
		s.serverError(w, "issue client token failed", err)
		return
	}
	s.logger.Info("client registered", "client_id", clientID)
	writeJSON(w, http.StatusCreated, map[string]string{"clientId": clientID, "token": token})
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
