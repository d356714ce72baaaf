// Package drive implements the file and folder lifecycle: creating, uploading,
// starring, trashing, moving and deleting nodes of an owner's tree.
package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"droply/internal/batch"
	"droply/internal/models"
	"droply/internal/storage"

	"github.com/jaevor/go-nanoid"
)

const (
	idLength     = 21
	maxIDRetries = 10

	DefaultNamespace    = "droply"
	DefaultMaxFileBytes = 5 << 20
)

type Options struct {
	// Namespace is the first segment of every object path.
	Namespace    string
	MaxFileBytes int64
}

type Service struct {
	repo    NodeRepository
	store   storage.ObjectStore
	batch   *batch.Coordinator
	events  EventPublisher
	logger  *slog.Logger
	opts    Options
	nanoIDs func() string
}

// NewService wires the service. events may be nil.
func NewService(repo NodeRepository, store storage.ObjectStore, coordinator *batch.Coordinator, events EventPublisher, logger *slog.Logger, opts Options) (*Service, error) {
	generateID, err := nanoid.Standard(idLength)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}

	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}

	return &Service{
		repo:    repo,
		store:   store,
		batch:   coordinator,
		events:  events,
		logger:  logger,
		opts:    opts,
		nanoIDs: generateID,
	}, nil
}

func (s *Service) MaxFileBytes() int64 {
	return s.opts.MaxFileBytes
}

func (s *Service) newID(ctx context.Context) (string, error) {
	for i := 0; i < maxIDRetries; i++ {
		id := s.nanoIDs()
		exists, err := s.repo.Exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to check for node existence: %w", err)
		}
		if !exists {
			return id, nil
		}
	}

	return "", fmt.Errorf("failed to generate a unique ID after %d attempts", maxIDRetries)
}

func (s *Service) publish(ctx context.Context, ownerID int64, eventType string, payload any) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, ownerID, eventType, payload)
}

// resolveParent checks that parentID, when set, names a folder of the owner.
func (s *Service) resolveParent(ctx context.Context, ownerID int64, parentID *string) (*models.Node, error) {
	if parentID == nil {
		return nil, nil
	}

	parent, err := s.repo.FindByID(ctx, *parentID, ownerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFound("parent folder")
		}
		return nil, err
	}
	if !parent.IsFolder {
		return nil, models.NotFound("parent folder")
	}
	return parent, nil
}

// destination is the object path prefix of an owner, or of one of its folders.
func (s *Service) destination(ownerID int64, parentID *string) string {
	dest := "/" + s.opts.Namespace + "/" + strconv.FormatInt(ownerID, 10)
	if parentID != nil {
		dest += "/folders/" + *parentID
	}
	return dest
}

func normalizeParent(parentID *string) *string {
	if parentID == nil || strings.TrimSpace(*parentID) == "" {
		return nil
	}
	return parentID
}

func (s *Service) CreateFolder(ctx context.Context, ownerID int64, name string, parentID *string) (*models.Node, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.Invalid("folder name cannot be empty")
	}

	parentID = normalizeParent(parentID)
	if _, err := s.resolveParent(ctx, ownerID, parentID); err != nil {
		return nil, err
	}

	id, err := s.newID(ctx)
	if err != nil {
		return nil, err
	}

	folder := &models.Node{
		ID:       id,
		OwnerID:  ownerID,
		ParentID: parentID,
		Name:     name,
		IsFolder: true,
	}
	if err := s.repo.Insert(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	s.publish(ctx, ownerID, EventNodeCreated, folder)
	return folder, nil
}

func (s *Service) ToggleStar(ctx context.Context, id string, ownerID int64) (*models.Node, error) {
	node, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	starred := !node.IsStarred
	updated, err := s.repo.Update(ctx, id, ownerID, models.NodePatch{IsStarred: &starred})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, ownerID, EventNodeUpdated, updated)
	return updated, nil
}

// ToggleTrash moves a node to the trash or restores it. The new state is
// applied to every descendant of a folder as well.
func (s *Service) ToggleTrash(ctx context.Context, id string, ownerID int64) (*models.Node, error) {
	node, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return s.setTrash(ctx, node, !node.IsTrash)
}

func (s *Service) trash(ctx context.Context, id string, ownerID int64, trashed bool) (*models.Node, error) {
	node, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return s.setTrash(ctx, node, trashed)
}

// setTrash applies the flag to the descendants of a folder before the node
// itself, so a failed cascade leaves the node unchanged and can be retried.
func (s *Service) setTrash(ctx context.Context, node *models.Node, trashed bool) (*models.Node, error) {
	if node.IsFolder {
		if err := s.cascadeTrash(ctx, node, trashed); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, node.ID, node.OwnerID, models.NodePatch{IsTrash: &trashed})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, node.OwnerID, EventNodeUpdated, updated)
	return updated, nil
}

func (s *Service) cascadeTrash(ctx context.Context, folder *models.Node, trashed bool) error {
	descendants, err := s.repo.Descendants(ctx, folder.OwnerID, folder.ID)
	if err != nil {
		return fmt.Errorf("failed to list descendants of %s: %w", folder.ID, err)
	}
	for _, d := range descendants {
		if d.IsTrash == trashed {
			continue
		}
		_, err := s.repo.Update(ctx, d.ID, d.OwnerID, models.NodePatch{IsTrash: &trashed})
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("failed to update descendant %s: %w", d.ID, err)
		}
	}
	return nil
}

// PermanentDelete removes a node, and for folders everything below it,
// deepest nodes first. Stored objects are released on a best-effort basis: a
// failed release is logged and the catalog entry is removed anyway.
func (s *Service) PermanentDelete(ctx context.Context, id string, ownerID int64) error {
	node, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		return err
	}

	var doomed []models.Node
	if node.IsFolder {
		doomed, err = s.repo.Descendants(ctx, ownerID, id)
		if err != nil {
			return fmt.Errorf("failed to list descendants of %s: %w", id, err)
		}
		slices.Reverse(doomed)
	}
	doomed = append(doomed, *node)

	deleted := make([]string, 0, len(doomed))
	for i := range doomed {
		n := &doomed[i]
		s.releaseObject(ctx, n)

		err := s.repo.Delete(ctx, n.ID, ownerID)
		if err != nil {
			// A descendant may already be gone through a concurrent delete.
			if n.ID != id && errors.Is(err, models.ErrNotFound) {
				continue
			}
			return fmt.Errorf("failed to delete node %s: %w", n.ID, err)
		}
		deleted = append(deleted, n.ID)
	}

	s.publish(ctx, ownerID, EventNodeDeleted, map[string][]string{"ids": deleted})
	return nil
}

func (s *Service) releaseObject(ctx context.Context, n *models.Node) {
	if n.IsFolder || n.StoragePath == "" {
		return
	}
	if err := s.store.Delete(ctx, n.StoragePath); err != nil {
		s.logger.WarnContext(ctx, "failed to release stored object", "node_id", n.ID, "path", n.StoragePath, "error", err)
	}
}

// NodeUpdate lists the changes Update applies. Nil fields are left alone and
// an empty ParentID moves the node to the root.
type NodeUpdate struct {
	Name     *string
	ParentID *string
}

// Update renames and moves a node in a single write, so either every change
// is applied or none is. A node moved into a trashed folder is trashed
// together with its descendants.
func (s *Service) Update(ctx context.Context, id string, ownerID int64, upd NodeUpdate) (*models.Node, error) {
	if upd.Name == nil && upd.ParentID == nil {
		return nil, models.Invalid("no update operation specified (provide 'name' or 'parent_id')")
	}

	var patch models.NodePatch
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, models.Invalid("name cannot be empty")
		}
		patch.Name = &name
	}

	node, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	inheritTrash := false
	if upd.ParentID != nil {
		parentID := normalizeParent(upd.ParentID)
		parent, err := s.checkMove(ctx, node, parentID)
		if err != nil {
			return nil, err
		}
		patch.ParentID = parentID
		patch.SetParent = true
		if parent != nil && parent.IsTrash && !node.IsTrash {
			trashed := true
			patch.IsTrash = &trashed
			inheritTrash = true
		}
	}

	updated, err := s.repo.Update(ctx, id, ownerID, patch)
	if err != nil {
		return nil, err
	}
	if inheritTrash && node.IsFolder {
		if err := s.cascadeTrash(ctx, node, true); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, ownerID, EventNodeUpdated, updated)
	return updated, nil
}

// checkMove validates the target folder of a move and returns it, or nil for
// the root.
func (s *Service) checkMove(ctx context.Context, node *models.Node, parentID *string) (*models.Node, error) {
	if parentID == nil {
		return nil, nil
	}
	if *parentID == node.ID {
		return nil, models.Invalid("cannot move a node into itself")
	}
	parent, err := s.resolveParent(ctx, node.OwnerID, parentID)
	if err != nil {
		return nil, err
	}
	if node.IsFolder {
		descendants, err := s.repo.Descendants(ctx, node.OwnerID, node.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list descendants of %s: %w", node.ID, err)
		}
		for _, d := range descendants {
			if d.ID == *parentID {
				return nil, models.Invalid("cannot move a folder into one of its subfolders")
			}
		}
	}
	return parent, nil
}

func (s *Service) Rename(ctx context.Context, id string, ownerID int64, name string) (*models.Node, error) {
	return s.Update(ctx, id, ownerID, NodeUpdate{Name: &name})
}

// Move re-parents a node. A nil parentID moves it to the root.
func (s *Service) Move(ctx context.Context, id string, ownerID int64, parentID *string) (*models.Node, error) {
	if parentID == nil {
		root := ""
		parentID = &root
	}
	return s.Update(ctx, id, ownerID, NodeUpdate{ParentID: parentID})
}

// ListNodes returns the children of parentID matching filter, newest first.
func (s *Service) ListNodes(ctx context.Context, ownerID int64, parentID *string, filter string) ([]models.Node, error) {
	f, ok := models.ParseFilter(filter)
	if !ok {
		return nil, models.Invalid("unknown filter %q", filter)
	}

	parentID = normalizeParent(parentID)
	if _, err := s.resolveParent(ctx, ownerID, parentID); err != nil {
		return nil, err
	}

	children, err := s.repo.ListChildren(ctx, ownerID, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	nodes := make([]models.Node, 0, len(children))
	for i := range children {
		if f.Match(&children[i]) {
			nodes = append(nodes, children[i])
		}
	}
	slices.SortStableFunc(nodes, func(a, b models.Node) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return nodes, nil
}

func (s *Service) UploadCredentials(ctx context.Context, ownerID int64) (*storage.Credentials, error) {
	prefix := strings.TrimPrefix(s.destination(ownerID, nil), "/")
	creds, err := s.store.UploadCredentials(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return creds, nil
}
