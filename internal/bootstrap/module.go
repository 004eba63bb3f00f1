package bootstrap

import (
	"context"
	"log/slog"
	"strings"

	"go.uber.org/fx"

	"github.com/yoke233/sleuth/internal/bootstrap/config"
	"github.com/yoke233/sleuth/internal/bootstrap/database"
	"github.com/yoke233/sleuth/internal/bootstrap/logging"
	"github.com/yoke233/sleuth/internal/domain/investigation"
	"github.com/yoke233/sleuth/internal/errs"
	"github.com/yoke233/sleuth/internal/infrastructure/proc"
	"github.com/yoke233/sleuth/internal/infrastructure/spawn"
	"github.com/yoke233/sleuth/internal/infrastructure/state/filestore"
	"github.com/yoke233/sleuth/internal/infrastructure/state/sqlitestore"
	githubtracker "github.com/yoke233/sleuth/internal/infrastructure/tracker/github"
	"github.com/yoke233/sleuth/internal/ports"
	"github.com/yoke233/sleuth/internal/usecase/investigate"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideStore),
	fx.Provide(provideTracker),
	fx.Provide(provideInvestigator),
	fx.Provide(provideSpawner),
	fx.Provide(
		fx.Annotate(
			proc.New,
			fx.As(new(ports.ProcessProbe)),
		),
	),
	fx.Provide(provideService),
	fx.Provide(provideApp),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

// provideStore selects the backend. The sqlite database is opened and
// migrated here so every command sees a usable schema; its connection is
// closed through the fx lifecycle.
func provideStore(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.StateStore, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	switch strings.ToLower(cfg.State.Backend) {
	case config.BackendSQLite:
		db, err := database.Open(logCtx, cfg.Database)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		})

		store := sqlitestore.New(db)
		if err := store.Migrate(logCtx); err != nil {
			return nil, errs.Wrap(err, "migrate state schema")
		}
		return store, nil
	default:
		return filestore.New(cfg.State.Dir), nil
	}
}

func provideTracker(ctx context.Context, cfg config.Config) (ports.IssueTracker, error) {
	return githubtracker.NewClient(ctx, githubtracker.Config{
		Token:          cfg.GitHub.Token,
		AppID:          cfg.GitHub.AppID,
		InstallationID: cfg.GitHub.InstallationID,
		PrivateKeyFile: cfg.GitHub.PrivateKeyFile,
		BaseURL:        cfg.GitHub.BaseURL,
	})
}

func provideInvestigator(cfg config.Config) ports.Investigator {
	return investigate.NewExecInvestigator(cfg.Investigator.Profile, cfg.State.Dir)
}

type spawnerParams struct {
	fx.In

	Config     config.Config
	ConfigFile string `name:"configFile"`
}

func provideSpawner(p spawnerParams) ports.WorkerSpawner {
	return spawn.NewSelfSpawner(p.ConfigFile, p.Config.State.Dir)
}

func provideService(
	cfg config.Config,
	store ports.StateStore,
	tracker ports.IssueTracker,
	investigator ports.Investigator,
	spawner ports.WorkerSpawner,
	probe ports.ProcessProbe,
) *investigate.Service {
	return investigate.NewService(investigate.ServiceDeps{
		Store:        store,
		Tracker:      tracker,
		Investigator: investigator,
		Spawner:      spawner,
		Probe:        probe,
		Policy: investigation.RetryPolicy{
			BackoffAfter: cfg.Worker.BackoffAfter,
			StopAfter:    cfg.Worker.StopAfter,
			Cooldown:     cfg.Worker.Cooldown,
		},
	})
}

func provideApp(cfg config.Config, store ports.StateStore) *App {
	return &App{
		Config: cfg,
		Store:  store,
	}
}
