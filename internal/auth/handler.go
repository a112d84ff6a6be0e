package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gatekit/authgate/internal/platform/httpx"
	"github.com/gatekit/authgate/internal/shared"
	"github.com/gatekit/authgate/internal/token"
)

// Handler wires the unauthenticated HTTP surface: register, login, verify.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	tokens    *token.Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, tokens *token.Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		tokens:    tokens,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Get("/verify", h.handleVerify)
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    PublicUser `json:"user"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Corps JSON invalide")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Email, password et name sont requis")
		return
	}

	user, signed, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.logger.Warn("register failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	h.logger.Info("user registered", slog.Int64("user_id", user.ID))
	httpx.JSON(w, http.StatusCreated, sessionResponse{
		Message: "Utilisateur créé avec succès",
		Token:   signed,
		User:    user.Public(),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Corps JSON invalide")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Email et password sont requis")
		return
	}

	user, signed, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("login failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	h.logger.Info("user logged in", slog.Int64("user_id", user.ID))
	httpx.JSON(w, http.StatusOK, sessionResponse{
		Message: "Connexion réussie",
		Token:   signed,
		User:    user.Public(),
	})
}

type verifyResponse struct {
	Valid bool         `json:"valid"`
	User  verifiedUser `json:"user"`
}

type verifiedUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	raw, err := BearerToken(r)
	if err != nil {
		httpx.Message(w, http.StatusUnauthorized, "Token manquant")
		return
	}

	claims, err := h.tokens.Verify(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			h.logger.Info("verify: expired token")
		} else {
			h.logger.Info("verify: rejected token", slog.Any("error", err))
		}
		httpx.Message(w, http.StatusUnauthorized, "Token invalide")
		return
	}

	httpx.JSON(w, http.StatusOK, verifyResponse{
		Valid: true,
		User:  verifiedUser{ID: claims.UserID, Email: claims.Email},
	})
}

// BearerToken extracts the token from an Authorization: Bearer header.
// An absent header and a non-Bearer scheme are the same failure: no
// usable credential was presented.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", shared.ErrTokenMissing
	}
	scheme, rest, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" || rest == "" {
		return "", shared.ErrTokenMissing
	}
	return rest, nil
}
