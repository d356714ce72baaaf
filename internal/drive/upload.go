package drive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"droply/internal/batch"
	"droply/internal/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var uploadedBytes = promauto.NewCounter(prometheus.CounterOpts{
	Name: "droply_uploaded_bytes_total",
	Help: "Bytes stored through the upload endpoint.",
})

type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

type SkippedUpload struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type UploadReport struct {
	Created []models.Node   `json:"created"`
	Skipped []SkippedUpload `json:"skipped"`
	Failed  []batch.Failure `json:"failed"`
}

// DirectUpload describes an object a client already put into the store with
// credentials from UploadCredentials.
type DirectUpload struct {
	Name        string
	ContentType string
	Size        int64
	StoragePath string
}

func allowedContentType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || contentType == "application/pdf"
}

// detectContentType trusts the declared type unless it is missing or generic.
func detectContentType(declared string, data []byte) string {
	declared = strings.TrimSpace(strings.ToLower(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	detected := mimetype.Detect(data).String()
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	return detected
}

func (s *Service) validateUpload(u Upload) (string, error) {
	if strings.TrimSpace(u.Name) == "" {
		return "", models.Invalid("file name cannot be empty")
	}
	if int64(len(u.Data)) > s.opts.MaxFileBytes {
		return "", models.Invalid("file %q exceeds the limit of %d bytes", u.Name, s.opts.MaxFileBytes)
	}

	contentType := detectContentType(u.ContentType, u.Data)
	if !allowedContentType(contentType) {
		return "", models.Invalid("file %q has unsupported type %s, only images and PDFs are accepted", u.Name, contentType)
	}
	return contentType, nil
}

// UploadFiles stores every acceptable file and records it under parentID.
// Files with a disallowed type or size are skipped, and a failure while
// storing one file does not affect the others. A request carrying a single
// unacceptable file fails with a validation error instead.
func (s *Service) UploadFiles(ctx context.Context, ownerID int64, parentID *string, uploads []Upload) (*UploadReport, error) {
	if len(uploads) == 0 {
		return nil, models.Invalid("no files provided")
	}

	parentID = normalizeParent(parentID)
	if _, err := s.resolveParent(ctx, ownerID, parentID); err != nil {
		return nil, err
	}

	report := &UploadReport{
		Created: []models.Node{},
		Skipped: []SkippedUpload{},
		Failed:  []batch.Failure{},
	}

	var (
		mu      sync.Mutex
		created = map[string]*models.Node{}
		items   []batch.Item
	)
	for i, u := range uploads {
		u := u
		contentType, err := s.validateUpload(u)
		if err != nil {
			if len(uploads) == 1 {
				return nil, err
			}
			report.Skipped = append(report.Skipped, SkippedUpload{Name: u.Name, Reason: err.Error()})
			continue
		}

		key := fmt.Sprintf("%d:%s", i, u.Name)
		items = append(items, batch.Item{
			ID: key,
			Run: func(ctx context.Context) error {
				node, err := s.uploadOne(ctx, ownerID, parentID, u, contentType)
				if err != nil {
					return err
				}
				mu.Lock()
				created[key] = node
				mu.Unlock()
				return nil
			},
		})
	}

	if len(items) == 0 {
		return report, nil
	}

	result := s.batch.Run(ctx, "upload", items)
	for _, key := range result.Succeeded {
		report.Created = append(report.Created, *created[key])
	}
	for _, f := range result.Failed {
		f.ID = uploadName(f.ID)
		report.Failed = append(report.Failed, f)
	}

	if len(uploads) == 1 && len(report.Failed) == 1 {
		return nil, singleUploadError(report.Failed[0])
	}
	return report, nil
}

func uploadName(key string) string {
	if _, name, ok := strings.Cut(key, ":"); ok {
		return name
	}
	return key
}

func singleUploadError(f batch.Failure) error {
	switch f.Code {
	case "adapter":
		return fmt.Errorf("%s: %w", f.Reason, models.ErrAdapter)
	case "not_found":
		return models.NotFound("parent folder")
	case "conflict":
		return fmt.Errorf("%s: %w", f.Reason, models.ErrConflict)
	default:
		return errors.New(f.Reason)
	}
}

func (s *Service) uploadOne(ctx context.Context, ownerID int64, parentID *string, u Upload, contentType string) (*models.Node, error) {
	id, err := s.newID(ctx)
	if err != nil {
		return nil, err
	}

	storageName := uuid.NewString() + strings.ToLower(path.Ext(u.Name))
	obj, err := s.store.Upload(ctx, u.Data, s.destination(ownerID, parentID), storageName, contentType)
	if err != nil {
		if !errors.Is(err, models.ErrAdapter) {
			err = models.AdapterFailure("upload", err)
		}
		return nil, err
	}
	uploadedBytes.Add(float64(len(u.Data)))

	size := obj.Size
	if size == 0 {
		size = int64(len(u.Data))
	}
	url := obj.URL
	node := &models.Node{
		ID:           id,
		OwnerID:      ownerID,
		ParentID:     parentID,
		Name:         u.Name,
		Size:         size,
		ContentType:  contentType,
		ContentURL:   &url,
		ThumbnailURL: obj.ThumbnailURL,
		StoragePath:  obj.StoredPath,
	}
	if err := s.repo.Insert(ctx, node); err != nil {
		if delErr := s.store.Delete(ctx, obj.StoredPath); delErr != nil {
			s.logger.WarnContext(ctx, "failed to release object after insert failure", "path", obj.StoredPath, "error", delErr)
		}
		return nil, fmt.Errorf("failed to record file %q: %w", u.Name, err)
	}

	s.publish(ctx, ownerID, EventNodeCreated, node)
	return node, nil
}

// RegisterUpload records a file the client uploaded straight to the store.
// The object must live below the caller's own namespace.
func (s *Service) RegisterUpload(ctx context.Context, ownerID int64, parentID *string, in DirectUpload) (*models.Node, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.Invalid("file name cannot be empty")
	}
	if in.Size < 0 || in.Size > s.opts.MaxFileBytes {
		return nil, models.Invalid("file %q exceeds the limit of %d bytes", name, s.opts.MaxFileBytes)
	}

	contentType := detectContentType(in.ContentType, nil)
	if !allowedContentType(contentType) {
		return nil, models.Invalid("file %q has unsupported type %s, only images and PDFs are accepted", name, contentType)
	}

	storedPath := strings.TrimPrefix(path.Clean("/"+in.StoragePath), "/")
	ownerPrefix := strings.TrimPrefix(s.destination(ownerID, nil), "/") + "/"
	if in.StoragePath == "" || !strings.HasPrefix(storedPath, ownerPrefix) {
		return nil, models.Invalid("storage path must be inside %s", ownerPrefix)
	}

	parentID = normalizeParent(parentID)
	if _, err := s.resolveParent(ctx, ownerID, parentID); err != nil {
		return nil, err
	}

	id, err := s.newID(ctx)
	if err != nil {
		return nil, err
	}

	url := s.store.URL(storedPath)
	var thumbnail *string
	if strings.HasPrefix(contentType, "image/") {
		thumbnail = &url
	}
	node := &models.Node{
		ID:           id,
		OwnerID:      ownerID,
		ParentID:     parentID,
		Name:         name,
		Size:         in.Size,
		ContentType:  contentType,
		ContentURL:   &url,
		ThumbnailURL: thumbnail,
		StoragePath:  storedPath,
	}
	if err := s.repo.Insert(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to record file %q: %w", name, err)
	}

	s.publish(ctx, ownerID, EventNodeCreated, node)
	return node, nil
}
