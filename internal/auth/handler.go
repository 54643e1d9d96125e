package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/osmacan/weather-api/internal/httpx"
	"github.com/osmacan/weather-api/internal/token"
	"github.com/osmacan/weather-api/internal/user"
	"github.com/osmacan/weather-api/pkg/id"
)

type Handler interface {
	Routes() chi.Router
}

type handler struct {
	logger      *zap.Logger
	authService Service
	blacklist   *token.Blacklist
	mw          *Middleware
	validator   *validator.Validate
}

func NewHandler(authService Service, blacklist *token.Blacklist, mw *Middleware, l *zap.Logger) Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	return &handler{
		logger:      l,
		authService: authService,
		blacklist:   blacklist,
		mw:          mw,
		validator:   v,
	}
}

func (h *handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Post("/logout", h.Logout)
		r.Post("/logout-all", h.LogoutAll)
		r.Get("/profile", h.Profile)
		r.Get("/verify", h.Verify)
		r.With(h.mw.RequireAdmin).Get("/blacklist-stats", h.BlacklistStats)
	})
	return r
}

type registerRequest struct {
	FirstName string `json:"firstname" validate:"required,min=1,max=64"`
	LastName  string `json:"lastname"  validate:"required,min=1,max=64"`
	Email     string `json:"email"     validate:"required,email"`
	City      string `json:"city"      validate:"required,min=1,max=64"`
	Role      string `json:"role"      validate:"omitempty,oneof=user admin"`
	Password  string `json:"password"  validate:"required,min=8,max=72"`
}

func (h *handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var req registerRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	created, err := h.authService.Register(ctx, &RegisterDTO{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		City:      req.City,
		Role:      user.Role(req.Role),
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrWeakPassword):
			httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
				Code:    httpx.ErrValidationFailed,
				Message: "password must be at least 8 characters long and contain at least one uppercase letter, one lowercase letter, and one number",
			})
		case errors.Is(err, ErrInvalidRole):
			httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
				Code:    httpx.ErrValidationFailed,
				Message: "invalid role specified",
			})
		case errors.Is(err, user.ErrDuplicateEmail):
			h.logger.Debug("duplicate email on register", zap.String("email", req.Email))
			httpx.WriteError(w, http.StatusConflict, httpx.ErrorResponse[any]{
				Code:    httpx.ErrConflict,
				Message: "email already registered",
			})
		default:
			h.logger.Error("failed to register user", zap.Error(err))
			httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorResponse[any]{
				Code:    httpx.ErrInternal,
				Message: "internal server error",
			})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, created)
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	User      *user.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresIn int64      `json:"expiresIn"`
}

func (h *handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var req loginRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	result, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrLockedOut):
			httpx.WriteError(w, http.StatusTooManyRequests, httpx.ErrorResponse[any]{
				Code:    httpx.ErrLockedOut,
				Message: "too many login attempts, please try again later",
			})
		case errors.Is(err, ErrInvalidCredentials):
			httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorResponse[any]{
				Code:    httpx.ErrUnauthorized,
				Message: "invalid credentials",
			})
		default:
			h.logger.Error("login failed", zap.Error(err))
			httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorResponse[any]{
				Code:    httpx.ErrInternal,
				Message: "internal server error",
			})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		User:      result.User,
		Token:     result.Token,
		ExpiresIn: result.ExpiresIn,
	})
}

type logoutResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (h *handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.revokePresentedToken(w, r, "logged out successfully")
}

// LogoutAll currently revokes only the presented token, same as Logout.
// True all-device revocation needs a per-user token epoch in claims; the
// product has not decided on that, so the single-token behaviour stands.
func (h *handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	h.revokePresentedToken(w, r, "logged out from all devices successfully")
}

func (h *handler) revokePresentedToken(w http.ResponseWriter, r *http.Request, message string) {
	claims, okClaims := ClaimsFrom(r.Context())
	raw, okToken := RawTokenFrom(r.Context())
	if !okClaims || !okToken {
		writeUnauthorized(w, "authentication required")
		return
	}

	// Entry lives exactly as long as the token it revokes.
	h.blacklist.Revoke(raw, claims.ExpiresAt.Time)
	h.logger.Info("token revoked", zap.String("sub", string(claims.Sub)))

	httpx.WriteJSON(w, http.StatusOK, logoutResponse{
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

type profileUser struct {
	UserID id.PublicID `json:"userId"`
	Email  string      `json:"email"`
	Role   user.Role   `json:"role"`
}

type profileResponse struct {
	User       profileUser `json:"user"`
	TokenValid bool        `json:"tokenValid"`
	Timestamp  string      `json:"timestamp"`
}

func (h *handler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, profileResponse{
		User: profileUser{
			UserID: claims.Sub,
			Email:  claims.Email,
			Role:   claims.Role,
		},
		TokenValid: true,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

type verifyResponse struct {
	Valid     bool        `json:"valid"`
	User      profileUser `json:"user"`
	Timestamp string      `json:"timestamp"`
}

func (h *handler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, verifyResponse{
		Valid: true,
		User: profileUser{
			UserID: claims.Sub,
			Email:  claims.Email,
			Role:   claims.Role,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) BlacklistStats(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.blacklist.Stats())
}

// decodeBody applies the shared request hygiene: size cap, content type,
// strict JSON, struct validation. Returns false after writing the error
// response.
func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		httpx.WriteError(w, http.StatusUnsupportedMediaType, httpx.ErrorResponse[any]{
			Code:    httpx.ErrUnsupportedMedia,
			Message: "Content-Type must be application/json",
		})
		return false
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.logger.Warn("failed to decode request body", zap.Error(err))
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInvalidJSON,
			Message: "invalid request body",
		})
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		h.logger.Warn("trailing data after JSON body", zap.Error(err))
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInvalidJSON,
			Message: "request body must contain a single JSON object",
		})
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		h.logger.Warn("request validation failed", zap.Error(err))
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[[]httpx.FieldError]{
			Code:    httpx.ErrValidationFailed,
			Message: "validation failed",
			Details: httpx.ValidationDetails(err),
		})
		return false
	}
	return true
}
