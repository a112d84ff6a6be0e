package resources

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/gatekit/authgate/testing"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	svc, _ := newTestService(t)
	handler := NewHandler(nil, svc)
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func TestHandlerCRUD(t *testing.T) {
	router := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name":"chair"}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusCreated, res.Code)

	var created Document
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	req = httptest.NewRequest(http.MethodGet, "/products", nil)
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "1", res.Header().Get("X-Total-Count"))

	req = httptest.NewRequest(http.MethodPatch, "/products/1", strings.NewReader(`{"price":5}`))
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	req = httptest.NewRequest(http.MethodDelete, "/products/1", nil)
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusNoContent, res.Code)

	req = httptest.NewRequest(http.MethodGet, "/products/1", nil)
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestHandlerRejectsNonObjectBody(t *testing.T) {
	router := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`[1,2,3]`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	req = httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`not json`))
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestHandlerUnknownTargets(t *testing.T) {
	router := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/products/abc", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusNotFound, res.Code)

	req = httptest.NewRequest(http.MethodGet, "/users/1", nil)
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusNotFound, res.Code)

	req = httptest.NewRequest(http.MethodPut, "/products/999", strings.NewReader(`{"name":"x"}`))
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusNotFound, res.Code)
}
