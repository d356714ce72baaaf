package database

import (
	"context"
	"errors"

	"droply/internal/models"

	"github.com/jackc/pgx/v5"
)

func (q *Queries) CreateUser(ctx context.Context, username, passwordHash string, displayName *string) (*models.User, error) {
	query := `
		INSERT INTO users (username, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING id, username, password_hash, display_name, created_at
	`
	var user models.User
	err := q.db.QueryRow(ctx, query, username, passwordHash, displayName).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.DisplayName,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT 
			id, 
			username, 
			password_hash, 
			display_name, 
			created_at
		FROM users
		WHERE username = $1
	`
	var user models.User

	err := q.db.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.DisplayName,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// StorageUsed sums the size of every file the user owns. Trashed files still count.
func (q *Queries) StorageUsed(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT COALESCE(SUM(size), 0) FROM nodes WHERE owner_id = $1 AND NOT is_folder`
	var used int64
	err := q.db.QueryRow(ctx, query, userID).Scan(&used)
	return used, err
}
