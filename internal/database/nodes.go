package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"droply/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const nodeColumns = `id, owner_id, parent_id, name, is_folder, size, content_type,
	content_url, thumbnail_url, storage_path, is_starred, is_trash, created_at, updated_at`

func scanNode(row pgx.Row) (*models.Node, error) {
	var node models.Node
	err := row.Scan(
		&node.ID,
		&node.OwnerID,
		&node.ParentID,
		&node.Name,
		&node.IsFolder,
		&node.Size,
		&node.ContentType,
		&node.ContentURL,
		&node.ThumbnailURL,
		&node.StoragePath,
		&node.IsStarred,
		&node.IsTrash,
		&node.CreatedAt,
		&node.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func collectNodes(rows pgx.Rows) ([]models.Node, error) {
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *node)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if nodes == nil {
		return []models.Node{}, nil
	}

	return nodes, nil
}

func (q *Queries) Insert(ctx context.Context, node *models.Node) error {
	query := `
		INSERT INTO nodes (id, owner_id, parent_id, name, is_folder, size, content_type,
			content_url, thumbnail_url, storage_path, is_starred, is_trash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now()
	}
	if node.UpdatedAt.IsZero() {
		node.UpdatedAt = node.CreatedAt
	}

	_, err := q.db.Exec(ctx, query,
		node.ID,
		node.OwnerID,
		node.ParentID,
		node.Name,
		node.IsFolder,
		node.Size,
		node.ContentType,
		node.ContentURL,
		node.ThumbnailURL,
		node.StoragePath,
		node.IsStarred,
		node.IsTrash,
		node.CreatedAt,
		node.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return fmt.Errorf("node %s: %w", node.ID, models.ErrConflict)
			case "23503":
				return models.NotFound("parent folder")
			}
		}
		return err
	}

	return nil
}

func (q *Queries) FindByID(ctx context.Context, id string, ownerID int64) (*models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = $1 AND owner_id = $2`

	node, err := scanNode(q.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.NotFound("node")
		}
		return nil, err
	}

	return node, nil
}

func (q *Queries) ListChildren(ctx context.Context, ownerID int64, parentID *string) ([]models.Node, error) {
	var rows pgx.Rows
	var err error

	if parentID == nil {
		query := `SELECT ` + nodeColumns + ` FROM nodes
				 WHERE owner_id = $1 AND parent_id IS NULL
				 ORDER BY created_at DESC`
		rows, err = q.db.Query(ctx, query, ownerID)
	} else {
		query := `SELECT ` + nodeColumns + ` FROM nodes
				 WHERE owner_id = $1 AND parent_id = $2
				 ORDER BY created_at DESC`
		rows, err = q.db.Query(ctx, query, ownerID, *parentID)
	}

	if err != nil {
		return nil, err
	}

	return collectNodes(rows)
}

// Descendants returns every node below id, parents before their children.
func (q *Queries) Descendants(ctx context.Context, ownerID int64, id string) ([]models.Node, error) {
	query := `
		WITH RECURSIVE subtree AS (
			SELECT n.id, 1 AS depth
			FROM nodes n
			WHERE n.parent_id = $1 AND n.owner_id = $2

			UNION ALL

			SELECT n.id, s.depth + 1
			FROM nodes n
			INNER JOIN subtree s ON n.parent_id = s.id
			WHERE n.owner_id = $2
		)
		SELECT ` + prefixed("n.", nodeColumns) + `
		FROM nodes n
		JOIN subtree s ON n.id = s.id
		ORDER BY s.depth, n.created_at
	`
	rows, err := q.db.Query(ctx, query, id, ownerID)
	if err != nil {
		return nil, err
	}

	return collectNodes(rows)
}

func (q *Queries) ListTrashed(ctx context.Context, ownerID int64) ([]models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes
		WHERE owner_id = $1 AND is_trash
		ORDER BY updated_at DESC`
	rows, err := q.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}

	return collectNodes(rows)
}

func (q *Queries) Update(ctx context.Context, id string, ownerID int64, patch models.NodePatch) (*models.Node, error) {
	query := `
		UPDATE nodes
		SET
			name = COALESCE($3, name),
			parent_id = CASE WHEN $4 THEN $5 ELSE parent_id END,
			is_starred = COALESCE($6, is_starred),
			is_trash = COALESCE($7, is_trash),
			updated_at = $8
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + nodeColumns

	row := q.db.QueryRow(ctx, query,
		id,
		ownerID,
		patch.Name,
		patch.SetParent,
		patch.ParentID,
		patch.IsStarred,
		patch.IsTrash,
		time.Now(),
	)

	node, err := scanNode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.NotFound("node")
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, models.NotFound("parent folder")
		}
		return nil, err
	}

	return node, nil
}

func (q *Queries) Delete(ctx context.Context, id string, ownerID int64) error {
	query := `DELETE FROM nodes WHERE id = $1 AND owner_id = $2`
	res, err := q.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("node %s still has children: %w", id, models.ErrConflict)
		}
		return err
	}

	if res.RowsAffected() == 0 {
		return models.NotFound("node")
	}
	return nil
}

func (q *Queries) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM nodes WHERE id = $1)"
	err := q.db.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
