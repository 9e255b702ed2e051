package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/bazary-backend/pkg/config"
	"github.com/angelmondragon/bazary-backend/pkg/db"
	"github.com/angelmondragon/bazary-backend/pkg/logger"
)

// MaybeRun applies the embedded migrations on boot when the document store lives in the database
// and auto-migration is enabled.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.Store.UsesDB() || !cfg.DB.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	meta := map[string]any{"env": cfg.App.Env, "driver": client.Driver()}
	ctx = logg.WithFields(ctx, meta)
	if err := ValidateFS(Embedded(), EmbeddedDir); err != nil {
		return fmt.Errorf("validating embedded migrations: %w", err)
	}
	logg.Info(ctx, "running Goose migrations (auto-run)")

	if err := Run(ctx, sqlDB, client.Driver(), Embedded(), EmbeddedDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
