package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"library-backend/internal/config"
	"library-backend/internal/infrastructure/database"
	"library-backend/migrations"
	pkgdb "library-backend/pkg/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema to PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			all, err := migrations.All()
			if err != nil {
				return fmt.Errorf("read migrations: %w", err)
			}

			for _, m := range all {
				err := pkgdb.WithTransaction(ctx, db.Pool, func(tx pgx.Tx) error {
					_, err := tx.Exec(ctx, m.SQL)
					return err
				})
				if err != nil {
					return fmt.Errorf("apply %s: %w", m.Name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", m.Name)
			}
			return nil
		},
	}
}

func connect(ctx context.Context) (*database.PostgresDB, error) {
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)
	if err := db.Connect(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
