package database

import (
	"context"
	"database/sql"
	"log"

	"go-assetlink/internal/config"

	_ "github.com/lib/pq"
	"go.uber.org/fx"
)

// PostgresDB wraps the optional relational handle for the association store.
// DB is nil unless DB_DRIVER=postgres.
type PostgresDB struct {
	DB *sql.DB
}

func NewPostgres(lc fx.Lifecycle, cfg *config.Config) (*PostgresDB, error) {
	if cfg.DBDriver != "postgres" {
		return &PostgresDB{}, nil
	}

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	log.Println("Connected to PostgreSQL!")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Closing PostgreSQL connection...")
			return db.Close()
		},
	})

	return &PostgresDB{DB: db}, nil
}
