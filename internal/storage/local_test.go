package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"droply/internal/models"

	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadOpenDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir, "http://localhost:8080/objects/")
	require.NoError(t, err)

	obj, err := ls.Upload(ctx, []byte("png-data"), "/droply/1/folders/abc", "pic.png", "image/png")
	require.NoError(t, err)
	require.Equal(t, "droply/1/folders/abc/pic.png", obj.StoredPath)
	require.Equal(t, "http://localhost:8080/objects/droply/1/folders/abc/pic.png", obj.URL)
	require.NotNil(t, obj.ThumbnailURL)
	require.Equal(t, obj.URL, *obj.ThumbnailURL)
	require.Equal(t, int64(8), obj.Size)

	_, err = os.Stat(filepath.Join(dir, "droply", "1", "folders", "abc", "pic.png"))
	require.NoError(t, err)

	rc, err := ls.Open(ctx, obj.StoredPath)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "png-data", string(data))

	require.Equal(t, obj.URL, ls.URL(obj.StoredPath))

	require.NoError(t, ls.Delete(ctx, obj.StoredPath))
	require.NoError(t, ls.Delete(ctx, obj.StoredPath))

	_, err = ls.Open(ctx, obj.StoredPath)
	require.ErrorIs(t, err, models.ErrAdapter)
}

func TestLocalStorage_PdfHasNoThumbnail(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "http://localhost/objects")
	require.NoError(t, err)

	obj, err := ls.Upload(context.Background(), []byte("%PDF"), "/droply/1", "doc.pdf", "application/pdf")
	require.NoError(t, err)
	require.Nil(t, obj.ThumbnailURL)
}

func TestLocalStorage_RejectsEscapingPaths(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "http://localhost/objects")
	require.NoError(t, err)

	_, err = ls.Open(context.Background(), "../outside.png")
	require.ErrorIs(t, err, models.ErrAdapter)

	err = ls.Delete(context.Background(), "../../etc/passwd")
	require.ErrorIs(t, err, models.ErrAdapter)
}

func TestLocalStorage_CredentialsUnsupported(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "http://localhost/objects")
	require.NoError(t, err)

	_, err = ls.UploadCredentials(context.Background(), "droply/1")
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestObjectKey(t *testing.T) {
	require.Equal(t, "droply/1/a.png", ObjectKey("/droply/1", "a.png"))
	require.Equal(t, "droply/1/a.png", ObjectKey("droply/1/", "a.png"))
	require.Equal(t, "a.png", ObjectKey("", "a.png"))
}
