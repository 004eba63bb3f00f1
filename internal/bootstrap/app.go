package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/yoke233/sleuth/internal/bootstrap/config"
	"github.com/yoke233/sleuth/internal/bootstrap/logging"
	"github.com/yoke233/sleuth/internal/errs"
	"github.com/yoke233/sleuth/internal/ports"
)

// App bundles the loaded config and the selected state store for the CLI
// commands. The store is file-backed or sqlite-backed depending on
// state.backend; commands never see the difference.
type App struct {
	Config config.Config
	Store  ports.StateStore
}

type schemaMigrator interface {
	Migrate(ctx context.Context) error
}

// InitState prepares the configured backend: the state directory for the
// file store, the schema for the sqlite store. Safe to run repeatedly.
func (a *App) InitState(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))

	if err := os.MkdirAll(a.Config.State.Dir, 0o755); err != nil {
		return errs.Wrapf(err, "create state directory %q", a.Config.State.Dir)
	}

	if migrator, ok := a.Store.(schemaMigrator); ok {
		if err := migrator.Migrate(ctx); err != nil {
			return errs.Wrap(err, "migrate state schema")
		}
		logging.Info(logCtx, "state schema migrated")
	}

	logging.Info(logCtx, "state initialized",
		slog.String("backend", a.Config.State.Backend),
		slog.String("dir", a.Config.State.Dir),
	)
	return nil
}
