package database

import (
	"context"
	"fmt"

	"droply/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
	*Queries
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:    pool,
		Queries: New(pool),
	}
}

func (s *Store) ExecTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	q := New(tx)
	err = fn(q)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %v, rb err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// RotateSession replaces the session of refreshToken with next in one
// transaction. It returns a nil user when the token is unknown or expired.
func (s *Store) RotateSession(ctx context.Context, refreshToken string, next CreateSessionParams) (*models.User, error) {
	var user *models.User
	err := s.ExecTx(ctx, func(q *Queries) error {
		u, err := q.GetUserByRefreshToken(ctx, refreshToken)
		if err != nil {
			return err
		}
		if u == nil {
			return nil
		}

		if err := q.DeleteSessionByRefreshToken(ctx, refreshToken); err != nil {
			return err
		}

		next.UserID = u.ID
		if err := q.CreateSession(ctx, next); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
