// cmd/assistant/migrate.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shop-assistant/internal/common/database"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the users and customers tables and the users search index",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	pg, err := connectPostgres(ctx, cfg.Database.Postgres, log)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := database.Migrate(ctx, pg.DB); err != nil {
		return err
	}
	log.Info("schema migrated", map[string]interface{}{"statements": len(database.Schema)})

	if cfg.Store.Backend != "elasticsearch" {
		return nil
	}
	es, err := connectElasticsearch(ctx, cfg.Database.Elasticsearch, log)
	if err != nil {
		return err
	}
	users := store.NewElasticsearchStore(es.Client, store.UsersSchema(cfg.Store.UsersIndex), cfg.Store.MaxScan, log)
	if err := users.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure users index: %w", err)
	}
	log.Info("users index ready", map[string]interface{}{"index": cfg.Store.UsersIndex})
	return nil
}
