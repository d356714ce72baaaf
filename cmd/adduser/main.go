// Command adduser creates an account that can log in through POST /api/v1/auth/login.
//
//	adduser -username alice -password secret [-display-name "Alice"]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"droply/internal/auth"
	"droply/internal/config"
	"droply/internal/database"
	"droply/internal/logging"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	username := flag.String("username", "", "login name")
	password := flag.String("password", "", "password")
	displayName := flag.String("display-name", "", "optional display name")
	flag.Parse()

	if *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	if cfg.DB.Driver != "postgres" {
		logger.Error("accounts need the postgres driver", "driver", cfg.DB.Driver)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DB.Source)
	if err != nil {
		logger.Error("cannot connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Error("cannot migrate database", "error", err)
		os.Exit(1)
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		logger.Error("cannot hash password", "error", err)
		os.Exit(1)
	}

	var display *string
	if *displayName != "" {
		display = displayName
	}

	user, err := database.NewStore(pool).CreateUser(ctx, *username, hash, display)
	if err != nil {
		logger.Error("cannot create user", "username", *username, "error", err)
		os.Exit(1)
	}
	logger.Info("user created", "id", user.ID, "username", user.Username)
}
