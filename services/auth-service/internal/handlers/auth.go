package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/md-rashed-zaman/slotbook/libs/auth"
	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/services/auth-service/internal/sessions"
	"github.com/md-rashed-zaman/slotbook/services/auth-service/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type UserStore interface {
	Create(ctx context.Context, user storage.User) error
	GetByEmail(ctx context.Context, email string) (storage.User, error)
	GetByID(ctx context.Context, id string) (storage.User, error)
}

type RefreshStore interface {
	Create(ctx context.Context, userID, rawToken string, expiresAt time.Time) (string, error)
	GetByHash(ctx context.Context, hash string) (sessions.RefreshToken, error)
	Revoke(ctx context.Context, id string) error
	Rotate(ctx context.Context, oldID, userID, rawToken string, expiresAt time.Time) error
}

type Config struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

type AuthHandler struct {
	users   UserStore
	refresh RefreshStore
	logger  *slog.Logger
	cfg     Config
}

func NewAuthHandler(users UserStore, refresh RefreshStore, logger *slog.Logger, cfg Config) *AuthHandler {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AuthHandler{users: users, refresh: refresh, logger: logger, cfg: cfg}
}

func (h *AuthHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})
	return r
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type meResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.credentials(w, r)
	if !ok {
		return
	}
	if len(req.Password) < minPasswordLength {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "password must be at least 8 characters")
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		h.internal(w, r, "hash password", err)
		return
	}
	user := storage.User{
		ID:           uuid.NewString(),
		Email:        storage.NormalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         auth.RoleOwner,
		CreatedAt:    h.cfg.Now().UTC(),
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			httpx.WriteError(w, http.StatusConflict, "email_taken", "email already registered")
			return
		}
		h.internal(w, r, "create user", err)
		return
	}
	h.logger.Info("user registered", "user_id", user.ID)
	h.writeTokens(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.credentials(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
			return
		}
		h.internal(w, r, "lookup user", err)
		return
	}
	if err := verifyPassword(user.PasswordHash, req.Password); err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		return
	}
	h.writeTokens(w, r, http.StatusOK, user)
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked so it cannot be replayed.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	record, ok := h.lookupRefresh(w, r)
	if !ok {
		return
	}
	if !record.Usable(h.cfg.Now()) {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "refresh token expired")
		return
	}

	user, err := h.users.GetByID(r.Context(), record.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "invalid refresh token")
			return
		}
		h.internal(w, r, "lookup user", err)
		return
	}

	raw, err := newRefreshToken()
	if err != nil {
		h.internal(w, r, "generate refresh token", err)
		return
	}
	if err := h.refresh.Rotate(r.Context(), record.ID, user.ID, raw, h.cfg.Now().Add(h.cfg.RefreshTTL)); err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "refresh token already used")
			return
		}
		h.internal(w, r, "rotate refresh token", err)
		return
	}
	access, err := h.issueAccess(user)
	if err != nil {
		h.internal(w, r, "issue token", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken:  access,
		RefreshToken: raw,
		TokenType:    "Bearer",
		ExpiresIn:    int64(h.cfg.AccessTTL.Seconds()),
	})
}

// Logout is idempotent: unknown or revoked tokens still answer 204.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh_token required")
		return
	}

	record, err := h.refresh.GetByHash(r.Context(), sessions.HashToken(req.RefreshToken))
	switch {
	case errors.Is(err, sessions.ErrNotFound):
	case err != nil:
		h.internal(w, r, "lookup refresh token", err)
		return
	case record.RevokedAt == nil:
		if err := h.refresh.Revoke(r.Context(), record.ID); err != nil {
			h.internal(w, r, "revoke refresh token", err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") || len(strings.TrimSpace(authHeader)) <= len("Bearer ") {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "missing or invalid Authorization header")
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	claims, err := auth.ParseAndVerifyHS256(token, h.cfg.JWTSecret)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, meResponse{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	})
}

func (h *AuthHandler) credentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return req, false
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password required")
		return req, false
	}
	return req, true
}

func (h *AuthHandler) lookupRefresh(w http.ResponseWriter, r *http.Request) (sessions.RefreshToken, bool) {
	var req tokenRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return sessions.RefreshToken{}, false
	}
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh_token required")
		return sessions.RefreshToken{}, false
	}
	record, err := h.refresh.GetByHash(r.Context(), sessions.HashToken(req.RefreshToken))
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "invalid refresh token")
			return sessions.RefreshToken{}, false
		}
		h.internal(w, r, "lookup refresh token", err)
		return sessions.RefreshToken{}, false
	}
	return record, true
}

func (h *AuthHandler) writeTokens(w http.ResponseWriter, r *http.Request, status int, user storage.User) {
	access, err := h.issueAccess(user)
	if err != nil {
		h.internal(w, r, "issue token", err)
		return
	}
	raw, err := newRefreshToken()
	if err != nil {
		h.internal(w, r, "generate refresh token", err)
		return
	}
	if _, err := h.refresh.Create(r.Context(), user.ID, raw, h.cfg.Now().Add(h.cfg.RefreshTTL)); err != nil {
		h.internal(w, r, "store refresh token", err)
		return
	}
	httpx.WriteJSON(w, status, loginResponse{
		AccessToken:  access,
		RefreshToken: raw,
		TokenType:    "Bearer",
		ExpiresIn:    int64(h.cfg.AccessTTL.Seconds()),
	})
}

func (h *AuthHandler) issueAccess(user storage.User) (string, error) {
	return auth.SignHS256(auth.NewClaims(user.ID, user.Email, user.Role, h.cfg.AccessTTL, h.cfg.Now()), h.cfg.JWTSecret)
}

func (h *AuthHandler) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error(op+" failed", "request_id", httpx.RequestIDFromContext(r.Context()), "err", err)
	httpx.WriteError(w, http.StatusInternalServerError, "internal", "internal server error")
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashPassword(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(hash string, raw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
}
