package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"droply/internal/batch"
	"droply/internal/kvstore"
	"droply/internal/logging"
	"droply/internal/models"
	"droply/internal/storage"

	"github.com/stretchr/testify/require"
)

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
)

type fakeObjectStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	deleted    []string
	failUpload map[string]bool
	failDelete bool
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}, failUpload: map[string]bool{}}
}

func (f *fakeObjectStore) Upload(ctx context.Context, data []byte, destinationPath, desiredName, contentType string) (*storage.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failUpload[string(data)] {
		return nil, models.AdapterFailure("upload", fmt.Errorf("quota exceeded"))
	}

	key := storage.ObjectKey(destinationPath, desiredName)
	f.objects[key] = data
	url := "https://cdn.test/" + key
	var thumb *string
	if strings.HasPrefix(contentType, "image/") {
		thumb = &url
	}
	return &storage.Object{URL: url, ThumbnailURL: thumb, StoredPath: key, Size: int64(len(data))}, nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, storedPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failDelete {
		return models.AdapterFailure("delete", fmt.Errorf("network unreachable"))
	}
	delete(f.objects, storedPath)
	f.deleted = append(f.deleted, storedPath)
	return nil
}

func (f *fakeObjectStore) Open(ctx context.Context, storedPath string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[storedPath]
	if !ok {
		return nil, models.AdapterFailure("open", fmt.Errorf("object %s not found", storedPath))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjectStore) UploadCredentials(ctx context.Context, prefix string) (*storage.Credentials, error) {
	return &storage.Credentials{
		Method:    "PUT",
		URL:       "https://cdn.test/" + prefix + "/signed",
		Key:       prefix + "/object",
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func (f *fakeObjectStore) URL(storedPath string) string {
	return "https://cdn.test/" + storedPath
}

func (f *fakeObjectStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// failingRepo fails the next Update of failID once.
type failingRepo struct {
	NodeRepository
	mu     sync.Mutex
	failID string
}

func (r *failingRepo) Update(ctx context.Context, id string, ownerID int64, patch models.NodePatch) (*models.Node, error) {
	r.mu.Lock()
	fail := id == r.failID
	if fail {
		r.failID = ""
	}
	r.mu.Unlock()
	if fail {
		return nil, fmt.Errorf("write of %s failed: %w", id, models.ErrAdapter)
	}
	return r.NodeRepository.Update(ctx, id, ownerID, patch)
}

type recordedEvent struct {
	ownerID   int64
	eventType string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) Publish(ctx context.Context, ownerID int64, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{ownerID: ownerID, eventType: eventType})
}

type testEnv struct {
	svc    *Service
	repo   *kvstore.Store
	store  *fakeObjectStore
	events *fakePublisher
}

func newTestEnv(t *testing.T) *testEnv {
	repo, err := kvstore.Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	store := newFakeObjectStore()
	events := &fakePublisher{}
	logger := logging.Discard()

	svc, err := NewService(repo, store, batch.New(0, logger), events, logger, Options{Namespace: "droply", MaxFileBytes: 5 << 20})
	require.NoError(t, err)

	return &testEnv{svc: svc, repo: repo, store: store, events: events}
}

// withRepo builds a second service sharing the store and objects of e.
func (e *testEnv) withRepo(t *testing.T, repo NodeRepository) *Service {
	logger := logging.Discard()
	svc, err := NewService(repo, e.store, batch.New(0, logger), e.events, logger, Options{Namespace: "droply", MaxFileBytes: 5 << 20})
	require.NoError(t, err)
	return svc
}

func (e *testEnv) folder(t *testing.T, ownerID int64, name string, parentID *string) *models.Node {
	node, err := e.svc.CreateFolder(context.Background(), ownerID, name, parentID)
	require.NoError(t, err)
	return node
}

func (e *testEnv) file(t *testing.T, ownerID int64, name string, parentID *string) *models.Node {
	node, err := e.svc.uploadOne(context.Background(), ownerID, parentID, Upload{Name: name, ContentType: "image/png", Data: pngBytes}, "image/png")
	require.NoError(t, err)
	return node
}
