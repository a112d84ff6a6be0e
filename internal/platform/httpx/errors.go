package httpx

import (
	"errors"
	"net/http"

	"github.com/gatekit/authgate/internal/shared"
)

// RespondError maps domain errors to HTTP responses. Internal errors are
// never detailed to the client.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Message(w, http.StatusNotFound, "Ressource introuvable")
	case errors.Is(err, shared.ErrEmailTaken):
		Message(w, http.StatusConflict, "Cet email est déjà utilisé")
	case errors.Is(err, shared.ErrInvalidCredentials):
		Message(w, http.StatusUnauthorized, "Email ou mot de passe incorrect")
	case errors.Is(err, shared.ErrTokenMissing):
		Message(w, http.StatusUnauthorized, "Token manquant")
	case errors.Is(err, shared.ErrInvalidToken):
		Message(w, http.StatusUnauthorized, "Token invalide")
	default:
		Message(w, http.StatusInternalServerError, "Erreur interne")
	}
}
