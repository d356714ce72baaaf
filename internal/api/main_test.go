package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"droply/internal/auth"
	"droply/internal/batch"
	"droply/internal/config"
	"droply/internal/database"
	"droply/internal/drive"
	"droply/internal/kvstore"
	"droply/internal/logging"
	"droply/internal/models"
	"droply/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "api_test_secret_value"

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	pdfBytes = []byte("%PDF-1.4\n%%EOF\n")
)

type fakeSession struct {
	id        uuid.UUID
	userID    int64
	expiresAt time.Time
	createdAt time.Time
}

type fakeAccounts struct {
	mu       sync.Mutex
	users    map[string]*models.User
	sessions map[string]fakeSession
	events   []database.Event
	used     int64
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{users: map[string]*models.User{}, sessions: map[string]fakeSession{}}
}

func (f *fakeAccounts) addUser(t *testing.T, id int64, username, password string) {
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	f.users[username] = &models.User{ID: id, Username: username, PasswordHash: hash}
}

func (f *fakeAccounts) userByID(id int64) *models.User {
	for _, u := range f.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (f *fakeAccounts) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[username], nil
}

func (f *fakeAccounts) CreateSession(ctx context.Context, arg database.CreateSessionParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[arg.RefreshToken] = fakeSession{id: arg.ID, userID: arg.UserID, expiresAt: arg.ExpiresAt, createdAt: time.Now()}
	return nil
}

func (f *fakeAccounts) RotateSession(ctx context.Context, refreshToken string, next database.CreateSessionParams) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[refreshToken]
	if !ok || time.Now().After(s.expiresAt) {
		return nil, nil
	}
	delete(f.sessions, refreshToken)
	f.sessions[next.RefreshToken] = fakeSession{id: next.ID, userID: s.userID, expiresAt: next.ExpiresAt, createdAt: time.Now()}
	return f.userByID(s.userID), nil
}

func (f *fakeAccounts) ListSessionsForUser(ctx context.Context, userID int64) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sessions := []models.Session{}
	for _, s := range f.sessions {
		if s.userID == userID {
			sessions = append(sessions, models.Session{ID: s.id, ExpiresAt: s.expiresAt, CreatedAt: s.createdAt})
		}
	}
	return sessions, nil
}

func (f *fakeAccounts) DeleteSessionByID(ctx context.Context, sessionID uuid.UUID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, s := range f.sessions {
		if s.id == sessionID && s.userID == userID {
			delete(f.sessions, token)
		}
	}
	return nil
}

func (f *fakeAccounts) DeleteAllSessionsForUser(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, s := range f.sessions {
		if s.userID == userID {
			delete(f.sessions, token)
		}
	}
	return nil
}

func (f *fakeAccounts) StorageUsed(ctx context.Context, userID int64) (int64, error) {
	return f.used, nil
}

func (f *fakeAccounts) GetEventsSince(ctx context.Context, userID int64, sinceID int64) ([]database.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := []database.Event{}
	for _, e := range f.events {
		if e.ID > sinceID {
			events = append(events, e)
		}
	}
	return events, nil
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return errors.New("database is down") }

type testEnv struct {
	handler  http.Handler
	svc      *drive.Service
	repo     *kvstore.Store
	accounts *fakeAccounts
	token    string
	other    string
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: testSecret, AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour},
		Storage: config.StorageConfig{
			Driver:    "local",
			Namespace: "droply",
		},
		Uploads: config.UploadsConfig{MaxFileBytes: 1 << 20, MaxRequestBytes: 8 << 20},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

func newTestEnv(t *testing.T, withAccounts bool) *testEnv {
	cfg := testConfig()
	logger := logging.Discard()

	repo, err := kvstore.Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	dir := t.TempDir()
	objects, err := storage.NewLocalStorage(dir, "http://localhost:8080/objects")
	require.NoError(t, err)

	svc, err := drive.NewService(repo, objects, batch.New(0, logger), nil, logger, drive.Options{
		Namespace:    cfg.Storage.Namespace,
		MaxFileBytes: cfg.Uploads.MaxFileBytes,
	})
	require.NoError(t, err)

	opts := Options{Health: repo, Objects: http.FileServer(http.Dir(dir))}
	var accounts *fakeAccounts
	if withAccounts {
		accounts = newFakeAccounts()
		accounts.addUser(t, 1, "alice", "password")
		opts.Accounts = accounts
	}

	server := NewServer(cfg, svc, logger, opts)
	env := &testEnv{handler: server.Routes(), svc: svc, repo: repo, accounts: accounts}
	env.token = tokenFor(t, 1, "alice")
	env.other = tokenFor(t, 2, "bob")
	return env
}

func tokenFor(t *testing.T, id int64, username string) string {
	token, err := auth.GenerateJWT(&models.User{ID: id, Username: username}, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	return e.do(t, method, path, token, body, "application/json")
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type formFile struct {
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, files []formFile, fields map[string]string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, f.name))
		header.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) createFolder(t *testing.T, token, name string, parentID *string) models.Node {
	rr := e.doJSON(t, http.MethodPost, "/api/v1/folders", token, CreateFolderRequest{Name: name, ParentID: parentID})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[models.Node](t, rr)
}

func (e *testEnv) uploadPNG(t *testing.T, token, name string, parentID string) models.Node {
	fields := map[string]string{}
	if parentID != "" {
		fields["parent_id"] = parentID
	}
	body, ct := multipartBody(t, []formFile{{name: name, contentType: "image/png", data: pngBytes}}, fields)
	rr := e.do(t, http.MethodPost, "/api/v1/uploads", token, body, ct)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	report := decode[drive.UploadReport](t, rr)
	require.Len(t, report.Created, 1)
	return report.Created[0]
}
