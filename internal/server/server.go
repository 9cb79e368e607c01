package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"intraprep/internal/app"
	"intraprep/internal/util"
	"intraprep/pkg/domain"
)

// Limiter gates request rates per client key.
type Limiter interface {
	Allow(key string) bool
}

// Config tunes the HTTP layer.
type Config struct {
	App *app.App

	// Optional: per-IP limiter for unauthenticated auth endpoints.
	AuthLimiter Limiter
	// Optional: trusted proxy allowlist for client IP resolution.
	TrustedProxies *util.TrustedProxies

	// Maximum accepted upload size in bytes; defaults to 5 MiB.
	MaxUploadBytes int64
}

// Server is the HTTP front for the application.
type Server struct {
	app            *app.App
	authLimiter    Limiter
	trustedProxies *util.TrustedProxies
	maxUploadBytes int64
	mux            *http.ServeMux
}

const defaultMaxUploadBytes = 5 << 20

// New builds the server and registers all routes.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app required")
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	s := &Server{
		app:            cfg.App,
		authLimiter:    cfg.AuthLimiter,
		trustedProxies: cfg.TrustedProxies,
		maxUploadBytes: maxUpload,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /api/auth/signup", s.limited(s.handleSignup))
	s.mux.HandleFunc("POST /api/auth/verify", s.limited(s.handleVerifyEmail))
	s.mux.HandleFunc("POST /api/auth/resend", s.limited(s.handleResendVerification))
	s.mux.HandleFunc("POST /api/auth/login", s.limited(s.handleLogin))
	s.mux.HandleFunc("POST /api/auth/forgot-password", s.limited(s.handleForgotPassword))
	s.mux.HandleFunc("POST /api/auth/reset-password", s.limited(s.handleResetPassword))
	s.mux.HandleFunc("POST /api/auth/logout", s.authed(s.handleLogout))

	s.mux.HandleFunc("GET /api/me", s.authed(s.handleMe))
	s.mux.HandleFunc("GET /api/profile", s.authed(s.handleGetProfile))
	s.mux.HandleFunc("PUT /api/profile", s.authed(s.handleUpdateProfile))
	s.mux.HandleFunc("POST /api/profile/leetcode", s.authed(s.handleLinkLeetCode))

	s.mux.HandleFunc("GET /api/usage", s.authed(s.handleUsage))
	s.mux.HandleFunc("GET /api/streak", s.authed(s.handleStreak))

	s.mux.HandleFunc("POST /api/resume/scan", s.authed(s.handleScanResume))
	s.mux.HandleFunc("POST /api/resume/match", s.authed(s.handleMatchJD))
	s.mux.HandleFunc("GET /api/resume/analyses", s.authed(s.handleListAnalyses))
	s.mux.HandleFunc("GET /api/resume/draft", s.authed(s.handleGetDraft))
	s.mux.HandleFunc("PUT /api/resume/draft", s.authed(s.handleSaveDraft))
	s.mux.HandleFunc("POST /api/resume/draft/review", s.authed(s.handleReviewDraft))

	s.mux.HandleFunc("GET /api/questions", s.handleQuestions)
	s.mux.HandleFunc("GET /api/progress", s.authed(s.handleProgress))
	s.mux.HandleFunc("POST /api/questions/{id}/verify", s.authed(s.handleVerifySubmission))
	s.mux.HandleFunc("POST /api/sync", s.authed(s.handleEnqueueSync))
	s.mux.HandleFunc("GET /api/sync/{id}", s.authed(s.handleSyncJob))

	s.mux.HandleFunc("GET /api/quizzes", s.authed(s.handleListQuizzes))
	s.mux.HandleFunc("POST /api/quizzes/{id}/results", s.authed(s.handleSubmitQuizResult))
	s.mux.HandleFunc("GET /api/quiz-results", s.authed(s.handleListQuizResults))

	s.mux.HandleFunc("POST /api/waitlist", s.authed(s.handleJoinWaitlist))
	s.mux.HandleFunc("GET /api/waitlist", s.authed(s.handleWaitlistStatus))
}

// Handler wraps the mux in the standard middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = util.WithSecurityHeaders(h)
	h = util.WithCORS(h)
	h = util.WithRequestLog(h)
	h = util.WithRequestID(h)
	return h
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// limited applies the per-IP auth limiter when one is configured.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	if s.authLimiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path + ":" + util.ClientIP(r, s.trustedProxies)
		if !s.authLimiter.Allow(key) {
			writeError(w, http.StatusTooManyRequests, "Too many requests. Try again shortly.")
			return
		}
		next(w, r)
	}
}

type authedHandler func(w http.ResponseWriter, r *http.Request, user domain.User)

// authed resolves the bearer token to a user before calling the handler.
func (s *Server) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		user, ok := s.app.UserFromToken(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}
		next(w, r, user)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeBody(r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeAppError maps application sentinels onto HTTP statuses. Unknown
// errors are logged and reported as a generic 500 so backend failures
// never leak internals to the client.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	var invalid app.ValidationError
	if errors.As(err, &invalid) {
		writeError(w, http.StatusBadRequest, invalid.Error())
		return
	}
	switch {
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrEmailNotVerified):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrEmailAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrUsernameTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrLeetCodeUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrSubmissionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrInvalidOrExpiredCode):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrLeetCodeNotLinked):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrEmailRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrResendCooldown):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, app.ErrUnauthorized), errors.Is(err, app.ErrUserDisabled):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrSyncUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
