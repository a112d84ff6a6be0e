package app_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekit/authgate/internal/app"
	"github.com/gatekit/authgate/internal/auth"
	"github.com/gatekit/authgate/internal/resources"
	"github.com/gatekit/authgate/internal/token"
	_ "github.com/gatekit/authgate/testing"
)

func newTestGateway(t *testing.T) http.Handler {
	t.Helper()

	tokens, err := token.NewService(token.Config{Secret: []byte("router-secret"), TTL: time.Hour})
	require.NoError(t, err)

	logger := app.NewLogger(nil)

	authService := auth.NewService(auth.NewMemoryRepository(), auth.NewHasher(4), tokens, nil, logger)
	authHandler := auth.NewHandler(logger, authService, tokens)
	gate := auth.NewGate(logger, tokens)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	resourceService := resources.NewService(resources.NewMemoryRepository(), resources.NewCache(redisClient, time.Minute))
	resourcesHandler := resources.NewHandler(logger, resourceService)

	cfg := &app.Config{AppRequestTimeout: 5 * time.Second, RateLimit: 1000, RateLimitWindow: time.Minute}
	return app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthHandler:      authHandler,
		Gate:             gate,
		ResourcesHandler: resourcesHandler,
	})
}

func request(t *testing.T, router http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestHealthzIsOpen(t *testing.T) {
	router := newTestGateway(t)

	res := request(t, router, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestProtectedPathsRequireToken(t *testing.T) {
	router := newTestGateway(t)

	res := request(t, router, http.MethodGet, "/products", "", "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Contains(t, res.Body.String(), "Token manquant")

	res = request(t, router, http.MethodGet, "/products", "", "bad-token")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Contains(t, res.Body.String(), "Token invalide ou expiré")
}

func TestRegisterThenAccessResources(t *testing.T) {
	router := newTestGateway(t)

	res := request(t, router, http.MethodPost, "/auth/register",
		`{"email":"a@x.com","password":"p1","name":"A"}`, "")
	require.Equal(t, http.StatusCreated, res.Code)

	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)

	res = request(t, router, http.MethodPost, "/products", `{"name":"chair"}`, session.Token)
	require.Equal(t, http.StatusCreated, res.Code)

	res = request(t, router, http.MethodGet, "/products", "", session.Token)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "1", res.Header().Get("X-Total-Count"))

	res = request(t, router, http.MethodGet, "/auth/verify", "", session.Token)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"valid":true`)
}
