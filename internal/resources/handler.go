package resources

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gatekit/authgate/internal/platform/httpx"
	"github.com/gatekit/authgate/internal/shared"
)

const maxPerPage = 100

// Handler exposes the collection CRUD routes. Every route here sits
// behind the access gate, so a verified identity is always in context.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the generic collection routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{collection}", h.list)
	r.Post("/{collection}", h.create)
	r.Get("/{collection}/{id}", h.get)
	r.Put("/{collection}/{id}", h.replace)
	r.Patch("/{collection}/{id}", h.merge)
	r.Delete("/{collection}/{id}", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	page, perPage := shared.PageFromRequest(r, maxPerPage)

	docs, pagination, err := h.service.List(r.Context(), collection, shared.Pagination{Page: page, PerPage: perPage})
	if err != nil {
		h.fail(w, r, "list documents", err)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(pagination.Total))
	httpx.JSON(w, http.StatusOK, docs)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := h.target(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Get(r.Context(), collection, id)
	if err != nil {
		h.fail(w, r, "get document", err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	data, ok := h.body(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Create(r.Context(), collection, data)
	if err != nil {
		h.fail(w, r, "create document", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := h.target(w, r)
	if !ok {
		return
	}
	data, ok := h.body(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Replace(r.Context(), collection, id, data)
	if err != nil {
		h.fail(w, r, "replace document", err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) merge(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := h.target(w, r)
	if !ok {
		return
	}
	data, ok := h.body(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Merge(r.Context(), collection, id, data)
	if err != nil {
		h.fail(w, r, "patch document", err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), collection, id); err != nil {
		h.fail(w, r, "delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// target parses the collection/id pair, answering 404 on a bad id.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	collection := chi.URLParam(r, "collection")
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.ErrNotFound)
		return "", 0, false
	}
	return collection, id, true
}

// body reads and validates the JSON object payload.
func (h *Handler) body(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	var data json.RawMessage
	if err := httpx.DecodeJSON(r, &data); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Corps JSON invalide")
		return nil, false
	}
	var probe map[string]any
	if err := json.Unmarshal(data, &probe); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Un objet JSON est attendu")
		return nil, false
	}
	return data, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	identity, _ := shared.IdentityFromContext(r.Context())
	h.logger.Warn(op,
		slog.String("collection", chi.URLParam(r, "collection")),
		slog.Int64("user_id", identity.UserID),
		slog.Any("error", err))
	httpx.RespondError(w, err)
}
