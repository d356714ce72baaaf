package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"droply/internal/auth"
	"droply/internal/database"
	"droply/internal/models"

	"github.com/stretchr/testify/require"
)

func (e *testEnv) login(t *testing.T, username, password string) TokenResponse {
	rr := e.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decode[TokenResponse](t, rr)
}

func TestAPI_Login(t *testing.T) {
	env := newTestEnv(t, true)

	tokens := env.login(t, "alice", "password")
	require.NotEmpty(t, tokens.AccessToken)
	require.Len(t, tokens.RefreshToken, 40)

	claims, err := auth.VerifyJWT(tokens.AccessToken, testSecret)
	require.NoError(t, err)
	require.Equal(t, int64(1), claims.UserID)
	require.Equal(t, "alice", claims.Username)

	rr := env.do(t, http.MethodGet, "/api/v1/me", tokens.AccessToken, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Username: "alice", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Username: "nobody", Password: "password"})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAPI_RefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t, true)
	tokens := env.login(t, "alice", "password")

	rr := env.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", "", RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rotated := decode[TokenResponse](t, rr)
	require.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)
	require.NotEmpty(t, rotated.AccessToken)

	rr = env.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", "", RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", "", RefreshTokenRequest{})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_Sessions(t *testing.T) {
	env := newTestEnv(t, true)
	first := env.login(t, "alice", "password")
	env.login(t, "alice", "password")

	rr := env.do(t, http.MethodGet, "/api/v1/sessions", env.token, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	sessions := decode[[]models.Session](t, rr)
	require.Len(t, sessions, 2)

	rr = env.do(t, http.MethodDelete, "/api/v1/sessions/not-a-uuid", env.token, nil, "")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodDelete, "/api/v1/sessions/"+sessions[0].ID.String(), env.token, nil, "")
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/v1/sessions", env.token, nil, "")
	require.Len(t, decode[[]models.Session](t, rr), 1)

	rr = env.do(t, http.MethodPost, "/api/v1/sessions/terminate_all", env.token, nil, "")
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/v1/sessions", env.token, nil, "")
	require.Empty(t, decode[[]models.Session](t, rr))

	rr = env.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", "", RefreshTokenRequest{RefreshToken: first.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAPI_EventsAndStorage(t *testing.T) {
	env := newTestEnv(t, true)
	env.accounts.used = 2048
	env.accounts.events = []database.Event{
		{ID: 1, EventType: "node_created", EventTime: time.Now(), Payload: json.RawMessage(`{"id":"a"}`)},
		{ID: 2, EventType: "node_deleted", EventTime: time.Now(), Payload: json.RawMessage(`{"ids":["a"]}`)},
	}

	rr := env.do(t, http.MethodGet, "/api/v1/events?since=1", env.token, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	events := decode[[]EventResponse](t, rr)
	require.Len(t, events, 1)
	require.Equal(t, "node_deleted", events[0].EventType)

	rr = env.do(t, http.MethodGet, "/api/v1/events?since=abc", env.token, nil, "")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/v1/me/storage", env.token, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, int64(2048), decode[StorageUsageResponse](t, rr).UsedBytes)
}

func TestAPI_AccountRoutesNeedAccounts(t *testing.T) {
	env := newTestEnv(t, false)

	rr := env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Username: "alice", Password: "password"})
	require.Equal(t, http.StatusNotFound, rr.Code)

	for _, path := range []string{"/api/v1/sessions", "/api/v1/events", "/api/v1/me/storage"} {
		rr = env.do(t, http.MethodGet, path, env.token, nil, "")
		require.Equal(t, http.StatusNotFound, rr.Code, path)
	}
}
