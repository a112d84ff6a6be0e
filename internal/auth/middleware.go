package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gatekit/authgate/internal/platform/httpx"
	"github.com/gatekit/authgate/internal/shared"
	"github.com/gatekit/authgate/internal/token"
)

// defaultOpenPrefixes lists the only route prefixes reachable without a
// token. An explicit allow-list, checked before verification.
var defaultOpenPrefixes = []string{"/auth", "/healthz"}

// Gate rejects unauthenticated requests before they reach protected
// resources. It fails closed: any verification problem is a 401.
type Gate struct {
	logger       *slog.Logger
	tokens       *token.Service
	openPrefixes []string
}

// NewGate constructs the access gate with the default allow-list.
func NewGate(logger *slog.Logger, tokens *token.Service) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{logger: logger, tokens: tokens, openPrefixes: defaultOpenPrefixes}
}

// Open reports whether the path may bypass authentication.
func (g *Gate) Open(path string) bool {
	for _, prefix := range g.openPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Middleware wraps next with the access check. On success the decoded
// identity is attached to the request context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Open(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := BearerToken(r)
		if err != nil {
			httpx.Message(w, http.StatusUnauthorized, "Accès non autorisé - Token manquant")
			return
		}

		claims, err := g.tokens.Verify(raw)
		if err != nil || claims == nil {
			if errors.Is(err, token.ErrExpiredToken) {
				g.logger.Info("gate: expired token", slog.String("path", r.URL.Path))
			} else {
				g.logger.Info("gate: rejected token", slog.String("path", r.URL.Path))
			}
			httpx.Message(w, http.StatusUnauthorized, "Token invalide ou expiré")
			return
		}

		ctx := shared.ContextWithIdentity(r.Context(), shared.Identity{
			UserID: claims.UserID,
			Email:  claims.Email,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
