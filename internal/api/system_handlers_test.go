package api

import (
	"net/http"
	"testing"

	"droply/internal/auth"
	"droply/internal/batch"
	"droply/internal/drive"
	"droply/internal/kvstore"
	"droply/internal/logging"
	"droply/internal/storage"

	"github.com/stretchr/testify/require"
)

func TestAPI_Health(t *testing.T) {
	env := newTestEnv(t, false)

	rr := env.do(t, http.MethodGet, "/health", "", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", decode[HealthResponse](t, rr).Status)
}

func TestAPI_HealthUnavailable(t *testing.T) {
	logger := logging.Discard()
	repo, err := kvstore.Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	objects, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/objects")
	require.NoError(t, err)
	svc, err := drive.NewService(repo, objects, batch.New(0, logger), nil, logger, drive.Options{})
	require.NoError(t, err)

	handler := NewServer(testConfig(), svc, logger, Options{Health: failingPinger{}}).Routes()
	env := &testEnv{handler: handler}

	rr := env.do(t, http.MethodGet, "/health", "", nil, "")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Equal(t, "unavailable", decode[HealthResponse](t, rr).Status)
}

func TestAPI_Metrics(t *testing.T) {
	env := newTestEnv(t, false)
	env.do(t, http.MethodGet, "/api/v1/nodes", env.token, nil, "")

	rr := env.do(t, http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "droply_http_requests_total")
	require.Contains(t, rr.Body.String(), `route="/api/v1/nodes"`)
}

func TestAPI_CurrentUser(t *testing.T) {
	env := newTestEnv(t, false)

	rr := env.do(t, http.MethodGet, "/api/v1/me", env.other, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	claims := decode[auth.AppClaims](t, rr)
	require.Equal(t, int64(2), claims.UserID)
	require.Equal(t, "bob", claims.Username)
}

func TestAPI_WebsocketDisabled(t *testing.T) {
	env := newTestEnv(t, false)

	rr := env.do(t, http.MethodGet, "/ws?token="+env.token, "", nil, "")
	require.Equal(t, http.StatusNotImplemented, rr.Code)
}
