package api

import (
	"context"
	"log/slog"
	"net/http"

	"droply/internal/auth"
	"droply/internal/config"
	"droply/internal/database"
	"droply/internal/drive"
	"droply/internal/models"
	"droply/internal/websocket"

	"github.com/google/uuid"
)

// Accounts backs login, sessions and the event journal. Only the PostgreSQL
// store provides it; without it those routes are not mounted.
type Accounts interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateSession(ctx context.Context, arg database.CreateSessionParams) error
	RotateSession(ctx context.Context, refreshToken string, next database.CreateSessionParams) (*models.User, error)
	ListSessionsForUser(ctx context.Context, userID int64) ([]models.Session, error)
	DeleteSessionByID(ctx context.Context, sessionID uuid.UUID, userID int64) error
	DeleteAllSessionsForUser(ctx context.Context, userID int64) error
	StorageUsed(ctx context.Context, userID int64) (int64, error)
	GetEventsSince(ctx context.Context, userID int64, sinceID int64) ([]database.Event, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Accounts Accounts
	Health   Pinger
	Hub      *websocket.Hub
	// Objects serves stored files under /objects/ for the local storage driver.
	Objects http.Handler
}

type Server struct {
	config   *config.Config
	drive    *drive.Service
	accounts Accounts
	health   Pinger
	hub      *websocket.Hub
	objects  http.Handler
	verifier *auth.Verifier
	logger   *slog.Logger
}

func NewServer(cfg *config.Config, svc *drive.Service, logger *slog.Logger, opts Options) *Server {
	return &Server{
		config:   cfg,
		drive:    svc,
		accounts: opts.Accounts,
		health:   opts.Health,
		hub:      opts.Hub,
		objects:  opts.Objects,
		verifier: auth.NewVerifier(cfg.JWT.Secret),
		logger:   logger,
	}
}
