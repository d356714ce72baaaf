package drive

import (
	"context"
	"fmt"

	"droply/internal/batch"
	"droply/internal/models"
)

type BulkAction string

const (
	BulkStar    BulkAction = "star"
	BulkTrash   BulkAction = "trash"
	BulkRestore BulkAction = "restore"
	BulkDelete  BulkAction = "delete"
)

func ParseBulkAction(s string) (BulkAction, bool) {
	switch a := BulkAction(s); a {
	case BulkStar, BulkTrash, BulkRestore, BulkDelete:
		return a, true
	}
	return "", false
}

// uniqueIDs drops empty and repeated ids, keeping the first occurrence.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Bulk applies action to every id independently. Star toggles, trash and
// restore set the trash flag, delete removes permanently.
func (s *Service) Bulk(ctx context.Context, ownerID int64, action BulkAction, ids []string) (batch.Result, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return batch.Result{}, models.Invalid("no node ids provided")
	}

	var run func(ctx context.Context, id string) error
	switch action {
	case BulkStar:
		run = func(ctx context.Context, id string) error {
			_, err := s.ToggleStar(ctx, id, ownerID)
			return err
		}
	case BulkTrash, BulkRestore:
		trashed := action == BulkTrash
		run = func(ctx context.Context, id string) error {
			_, err := s.trash(ctx, id, ownerID, trashed)
			return err
		}
	case BulkDelete:
		run = func(ctx context.Context, id string) error {
			return s.PermanentDelete(ctx, id, ownerID)
		}
	default:
		return batch.Result{}, models.Invalid("unknown bulk action %q", action)
	}

	items := make([]batch.Item, len(ids))
	for i, id := range ids {
		id := id
		items[i] = batch.Item{
			ID:  id,
			Run: func(ctx context.Context) error { return run(ctx, id) },
		}
	}
	return s.batch.Run(ctx, string(action), items), nil
}

// EmptyTrash permanently deletes every trashed node of the owner. Only the
// topmost trashed nodes are submitted. Live nodes below them are moved to the
// root rather than deleted.
func (s *Service) EmptyTrash(ctx context.Context, ownerID int64) (batch.Result, error) {
	trashed, err := s.repo.ListTrashed(ctx, ownerID)
	if err != nil {
		return batch.Result{}, err
	}

	inTrash := make(map[string]struct{}, len(trashed))
	for _, n := range trashed {
		inTrash[n.ID] = struct{}{}
	}

	var items []batch.Item
	for _, n := range trashed {
		if n.ParentID != nil {
			if _, ok := inTrash[*n.ParentID]; ok {
				continue
			}
		}
		id := n.ID
		items = append(items, batch.Item{
			ID:  id,
			Run: func(ctx context.Context) error { return s.purgeTrashed(ctx, id, ownerID) },
		})
	}

	if len(items) == 0 {
		return batch.Result{Succeeded: []string{}, Failed: []batch.Failure{}}, nil
	}
	return s.batch.Run(ctx, "empty_trash", items), nil
}

// purgeTrashed deletes a trashed node with the trashed part of its subtree.
// A live descendant, such as a file restored on its own, is moved to the root
// first. Trashed nodes below a live one are purge roots of their own.
func (s *Service) purgeTrashed(ctx context.Context, id string, ownerID int64) error {
	node, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if node.IsFolder {
		descendants, err := s.repo.Descendants(ctx, ownerID, id)
		if err != nil {
			return fmt.Errorf("failed to list descendants of %s: %w", id, err)
		}

		doomed := map[string]bool{id: true}
		for _, d := range descendants {
			if d.ParentID == nil || !doomed[*d.ParentID] {
				continue
			}
			if d.IsTrash {
				doomed[d.ID] = true
				continue
			}
			moved, err := s.repo.Update(ctx, d.ID, ownerID, models.NodePatch{SetParent: true})
			if err != nil {
				return fmt.Errorf("failed to move %s out of the trash: %w", d.ID, err)
			}
			s.publish(ctx, ownerID, EventNodeUpdated, moved)
		}
	}

	return s.PermanentDelete(ctx, id, ownerID)
}
