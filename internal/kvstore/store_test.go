package kvstore

import (
	"context"
	"testing"
	"time"

	"droply/internal/models"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	store, err := Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func insertNode(t *testing.T, store *Store, node models.Node) *models.Node {
	require.NoError(t, store.Insert(context.Background(), &node))
	return &node
}

func TestInsertAndFindByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	folder := insertNode(t, store, models.Node{ID: "folder_1", OwnerID: 1, Name: "Photos", IsFolder: true})
	require.False(t, folder.CreatedAt.IsZero())

	found, err := store.FindByID(ctx, folder.ID, 1)
	require.NoError(t, err)
	require.Equal(t, "Photos", found.Name)
	require.True(t, found.IsFolder)

	_, err = store.FindByID(ctx, folder.ID, 2)
	require.ErrorIs(t, err, models.ErrNotFound, "a foreign owner must not see the node")

	_, err = store.FindByID(ctx, "missing", 1)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestInsert_DuplicateID(t *testing.T) {
	store := newTestStore(t)
	insertNode(t, store, models.Node{ID: "dup", OwnerID: 1, Name: "a"})

	err := store.Insert(context.Background(), &models.Node{ID: "dup", OwnerID: 1, Name: "b"})
	require.ErrorIs(t, err, models.ErrConflict)
}

func TestInsert_MissingParent(t *testing.T) {
	store := newTestStore(t)
	parent := "nope"

	err := store.Insert(context.Background(), &models.Node{ID: "child", OwnerID: 1, Name: "c", ParentID: &parent})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestListChildren(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	folder := insertNode(t, store, models.Node{ID: "folder", OwnerID: 1, Name: "Folder", IsFolder: true})
	insertNode(t, store, models.Node{ID: "root_file", OwnerID: 1, Name: "a.png"})
	insertNode(t, store, models.Node{ID: "nested", OwnerID: 1, Name: "b.png", ParentID: &folder.ID})
	insertNode(t, store, models.Node{ID: "other_owner", OwnerID: 2, Name: "c.png"})

	root, err := store.ListChildren(ctx, 1, nil)
	require.NoError(t, err)
	require.Len(t, root, 2)

	nested, err := store.ListChildren(ctx, 1, &folder.ID)
	require.NoError(t, err)
	require.Len(t, nested, 1)
	require.Equal(t, "nested", nested[0].ID)

	foreign, err := store.ListChildren(ctx, 2, &folder.ID)
	require.NoError(t, err)
	require.Empty(t, foreign)
}

func TestUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := insertNode(t, store, models.Node{ID: "a", OwnerID: 1, Name: "A", IsFolder: true})
	b := insertNode(t, store, models.Node{ID: "b", OwnerID: 1, Name: "B", IsFolder: true})
	file := insertNode(t, store, models.Node{ID: "f", OwnerID: 1, Name: "f.pdf", ParentID: &a.ID, CreatedAt: time.Now().Add(-time.Hour)})

	starred := true
	updated, err := store.Update(ctx, file.ID, 1, models.NodePatch{IsStarred: &starred})
	require.NoError(t, err)
	require.True(t, updated.IsStarred)
	require.False(t, updated.IsTrash)
	require.True(t, updated.UpdatedAt.After(file.CreatedAt))

	moved, err := store.Update(ctx, file.ID, 1, models.NodePatch{ParentID: &b.ID, SetParent: true})
	require.NoError(t, err)
	require.Equal(t, b.ID, *moved.ParentID)

	inA, err := store.ListChildren(ctx, 1, &a.ID)
	require.NoError(t, err)
	require.Empty(t, inA)
	inB, err := store.ListChildren(ctx, 1, &b.ID)
	require.NoError(t, err)
	require.Len(t, inB, 1)

	toRoot, err := store.Update(ctx, file.ID, 1, models.NodePatch{SetParent: true})
	require.NoError(t, err)
	require.Nil(t, toRoot.ParentID)

	_, err = store.Update(ctx, file.ID, 2, models.NodePatch{IsStarred: &starred})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestDescendants(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	top := insertNode(t, store, models.Node{ID: "top", OwnerID: 1, Name: "top", IsFolder: true})
	sub := insertNode(t, store, models.Node{ID: "sub", OwnerID: 1, Name: "sub", IsFolder: true, ParentID: &top.ID})
	insertNode(t, store, models.Node{ID: "leaf1", OwnerID: 1, Name: "leaf1", ParentID: &top.ID})
	insertNode(t, store, models.Node{ID: "leaf2", OwnerID: 1, Name: "leaf2", ParentID: &sub.ID})

	nodes, err := store.Descendants(ctx, 1, top.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	position := map[string]int{}
	for i, n := range nodes {
		position[n.ID] = i
	}
	require.Less(t, position["sub"], position["leaf2"], "parents come before their children")

	foreign, err := store.Descendants(ctx, 2, top.ID)
	require.NoError(t, err)
	require.Empty(t, foreign)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	folder := insertNode(t, store, models.Node{ID: "folder", OwnerID: 1, Name: "Folder", IsFolder: true})
	file := insertNode(t, store, models.Node{ID: "file", OwnerID: 1, Name: "x.png", ParentID: &folder.ID})

	err := store.Delete(ctx, folder.ID, 1)
	require.ErrorIs(t, err, models.ErrConflict, "a folder with children can not be removed")

	require.ErrorIs(t, store.Delete(ctx, file.ID, 2), models.ErrNotFound)
	require.NoError(t, store.Delete(ctx, file.ID, 1))
	require.ErrorIs(t, store.Delete(ctx, file.ID, 1), models.ErrNotFound)

	children, err := store.ListChildren(ctx, 1, &folder.ID)
	require.NoError(t, err)
	require.Empty(t, children)

	require.NoError(t, store.Delete(ctx, folder.ID, 1))
	exists, err := store.Exists(ctx, folder.ID)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestListTrashed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	insertNode(t, store, models.Node{ID: "t1", OwnerID: 1, Name: "t1", IsTrash: true})
	insertNode(t, store, models.Node{ID: "k1", OwnerID: 1, Name: "k1"})
	insertNode(t, store, models.Node{ID: "t2", OwnerID: 2, Name: "t2", IsTrash: true})

	trashed, err := store.ListTrashed(ctx, 1)
	require.NoError(t, err)
	require.Len(t, trashed, 1)
	require.Equal(t, "t1", trashed[0].ID)
}
