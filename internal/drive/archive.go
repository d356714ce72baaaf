package drive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"droply/internal/batch"
	"droply/internal/models"
)

// Open returns a file node together with a reader for its contents.
func (s *Service) Open(ctx context.Context, id string, ownerID int64) (*models.Node, io.ReadCloser, error) {
	node, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, nil, err
	}
	if node.IsFolder {
		return nil, nil, models.Invalid("cannot download a folder")
	}

	rc, err := s.store.Open(ctx, node.StoragePath)
	if err != nil {
		return nil, nil, err
	}
	return node, rc, nil
}

type archiveEntry struct {
	name string
	node *models.Node
	data []byte
}

// Archive holds the files fetched by OpenMany until they are written out.
type Archive struct {
	Result  batch.Result
	entries []archiveEntry
}

func (a *Archive) Empty() bool {
	return len(a.entries) == 0
}

// WriteTo writes the fetched files as a zip archive.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	for _, e := range a.entries {
		header := &zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: e.node.CreatedAt,
		}
		f, err := zw.CreateHeader(header)
		if err != nil {
			return cw.n, err
		}
		if _, err := f.Write(e.data); err != nil {
			return cw.n, err
		}
	}
	err := zw.Close()
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// OpenMany fetches several files for a bulk download. Folders, missing nodes
// and unreadable objects are reported as failures; the rest end up in the
// archive in request order.
func (s *Service) OpenMany(ctx context.Context, ownerID int64, ids []string) (*Archive, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, models.Invalid("no node ids provided")
	}

	var (
		mu      sync.Mutex
		fetched = make(map[string]archiveEntry, len(ids))
	)
	items := make([]batch.Item, len(ids))
	for i, id := range ids {
		id := id
		items[i] = batch.Item{
			ID: id,
			Run: func(ctx context.Context) error {
				node, rc, err := s.Open(ctx, id, ownerID)
				if err != nil {
					return err
				}
				defer rc.Close()

				data, err := io.ReadAll(rc)
				if err != nil {
					return models.AdapterFailure("read", err)
				}
				mu.Lock()
				fetched[id] = archiveEntry{node: node, data: data}
				mu.Unlock()
				return nil
			},
		}
	}

	archive := &Archive{Result: s.batch.Run(ctx, "download", items)}

	used := make(map[string]int, len(archive.Result.Succeeded))
	for _, id := range archive.Result.Succeeded {
		entry := fetched[id]
		entry.name = uniqueEntryName(used, entry.node.Name)
		archive.entries = append(archive.entries, entry)
	}
	return archive, nil
}

// uniqueEntryName turns a repeated "a.png" into "a (1).png".
func uniqueEntryName(used map[string]int, name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	count, seen := used[name]
	used[name] = count + 1
	if !seen {
		return name
	}

	ext := path.Ext(name)
	candidate := fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), count, ext)
	if _, taken := used[candidate]; taken {
		return uniqueEntryName(used, candidate)
	}
	used[candidate] = 1
	return candidate
}
