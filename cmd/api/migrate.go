package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/flicky/go-shop-api/internal/config"
	"github.com/flicky/go-shop-api/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		pool, err := pgxpool.New(cmd.Context(), cfg.DB.DSN())
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()

		return migrate.Up(cmd.Context(), pool, log)
	},
}
