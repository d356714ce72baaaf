// Package kvstore is an embedded node repository backed by BadgerDB.
//
// Key layout:
//
//	node/<id>                         JSON encoded models.Node
//	child/<owner>/<parent|root>/<id>  empty, lists the children of a folder
//	owner/<owner>/<id>                empty, lists every node of an owner
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"droply/internal/models"

	badger "github.com/dgraph-io/badger/v4"
)

const rootMarker = "root"

const maxTxnAttempts = 3

type Store struct {
	db *badger.DB
}

// Open opens (or creates) the database at path. With inMemory set nothing touches the disk and path is ignored.
func Open(path string, inMemory bool) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

func nodeKey(id string) []byte {
	return []byte("node/" + id)
}

func parentSegment(parentID *string) string {
	if parentID == nil {
		return rootMarker
	}
	return *parentID
}

func childPrefix(ownerID int64, parentID *string) []byte {
	return []byte(fmt.Sprintf("child/%d/%s/", ownerID, parentSegment(parentID)))
}

func childKey(ownerID int64, parentID *string, id string) []byte {
	return append(childPrefix(ownerID, parentID), id...)
}

func ownerPrefix(ownerID int64) []byte {
	return []byte(fmt.Sprintf("owner/%d/", ownerID))
}

func ownerKey(ownerID int64, id string) []byte {
	return append(ownerPrefix(ownerID), id...)
}

// update retries transactions that lost a conflict with a concurrent writer.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func getNode(txn *badger.Txn, id string) (*models.Node, error) {
	item, err := txn.Get(nodeKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, models.NotFound("node")
		}
		return nil, err
	}

	var node models.Node
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &node)
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func getOwnedNode(txn *badger.Txn, id string, ownerID int64) (*models.Node, error) {
	node, err := getNode(txn, id)
	if err != nil {
		return nil, err
	}
	if node.OwnerID != ownerID {
		return nil, models.NotFound("node")
	}
	return node, nil
}

func putNode(txn *badger.Txn, node *models.Node) error {
	val, err := json.Marshal(node)
	if err != nil {
		return err
	}
	return txn.Set(nodeKey(node.ID), val)
}

// idsWithPrefix returns the key suffixes found under prefix.
func idsWithPrefix(txn *badger.Txn, prefix []byte) []string {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
		ids = append(ids, string(it.Item().Key()[len(prefix):]))
	}
	return ids
}

func (s *Store) Insert(ctx context.Context, node *models.Node) error {
	if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now()
	}
	if node.UpdatedAt.IsZero() {
		node.UpdatedAt = node.CreatedAt
	}

	return s.update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(nodeKey(node.ID)); err == nil {
			return fmt.Errorf("node %s: %w", node.ID, models.ErrConflict)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if node.ParentID != nil {
			if _, err := txn.Get(nodeKey(*node.ParentID)); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return models.NotFound("parent folder")
				}
				return err
			}
		}

		if err := putNode(txn, node); err != nil {
			return err
		}
		if err := txn.Set(childKey(node.OwnerID, node.ParentID, node.ID), nil); err != nil {
			return err
		}
		return txn.Set(ownerKey(node.OwnerID, node.ID), nil)
	})
}

func (s *Store) FindByID(ctx context.Context, id string, ownerID int64) (*models.Node, error) {
	var node *models.Node
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		node, err = getOwnedNode(txn, id, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (s *Store) ListChildren(ctx context.Context, ownerID int64, parentID *string) ([]models.Node, error) {
	nodes := []models.Node{}
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range idsWithPrefix(txn, childPrefix(ownerID, parentID)) {
			node, err := getNode(txn, id)
			if err != nil {
				return err
			}
			nodes = append(nodes, *node)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// Descendants returns every node below id, parents before their children.
func (s *Store) Descendants(ctx context.Context, ownerID int64, id string) ([]models.Node, error) {
	nodes := []models.Node{}
	err := s.db.View(func(txn *badger.Txn) error {
		queue := []string{id}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			for _, childID := range idsWithPrefix(txn, childPrefix(ownerID, &current)) {
				node, err := getNode(txn, childID)
				if err != nil {
					return err
				}
				nodes = append(nodes, *node)
				if node.IsFolder {
					queue = append(queue, node.ID)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func (s *Store) ListTrashed(ctx context.Context, ownerID int64) ([]models.Node, error) {
	nodes := []models.Node{}
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range idsWithPrefix(txn, ownerPrefix(ownerID)) {
			node, err := getNode(txn, id)
			if err != nil {
				return err
			}
			if node.IsTrash {
				nodes = append(nodes, *node)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func (s *Store) Update(ctx context.Context, id string, ownerID int64, patch models.NodePatch) (*models.Node, error) {
	var updated *models.Node
	err := s.update(ctx, func(txn *badger.Txn) error {
		node, err := getOwnedNode(txn, id, ownerID)
		if err != nil {
			return err
		}

		oldParent := node.ParentID
		patch.Apply(node)
		node.UpdatedAt = time.Now()

		if patch.SetParent && parentSegment(oldParent) != parentSegment(node.ParentID) {
			if node.ParentID != nil {
				if _, err := txn.Get(nodeKey(*node.ParentID)); err != nil {
					if errors.Is(err, badger.ErrKeyNotFound) {
						return models.NotFound("parent folder")
					}
					return err
				}
			}
			if err := txn.Delete(childKey(ownerID, oldParent, id)); err != nil {
				return err
			}
			if err := txn.Set(childKey(ownerID, node.ParentID, id), nil); err != nil {
				return err
			}
		}

		if err := putNode(txn, node); err != nil {
			return err
		}
		updated = node
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, id string, ownerID int64) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		node, err := getOwnedNode(txn, id, ownerID)
		if err != nil {
			return err
		}

		if len(idsWithPrefix(txn, childPrefix(ownerID, &id))) > 0 {
			return fmt.Errorf("node %s still has children: %w", id, models.ErrConflict)
		}

		if err := txn.Delete(nodeKey(id)); err != nil {
			return err
		}
		if err := txn.Delete(childKey(ownerID, node.ParentID, id)); err != nil {
			return err
		}
		return txn.Delete(ownerKey(ownerID, id))
	})
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	exists := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(nodeKey(id))
		if err == nil {
			exists = true
			return nil
		}
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	return exists, err
}
