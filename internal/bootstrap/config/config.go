package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yoke233/sleuth/internal/bootstrap/logging"
	"github.com/yoke233/sleuth/internal/errs"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	State        StateConfig        `mapstructure:"state"`
	Database     DatabaseConfig     `mapstructure:"database"`
	GitHub       GitHubConfig       `mapstructure:"github"`
	Investigator InvestigatorConfig `mapstructure:"investigator"`
	Worker       WorkerConfig       `mapstructure:"worker"`
	Server       ServerConfig       `mapstructure:"server"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// StateConfig selects the state store. Dir holds the file-backed records and
// the worker/run logs regardless of backend.
type StateConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// GitHubConfig authenticates the tracker client. Token and App installation
// are alternatives; with neither set, only public repositories work.
type GitHubConfig struct {
	Token          string `mapstructure:"token"`
	AppID          int64  `mapstructure:"app_id"`
	InstallationID int64  `mapstructure:"installation_id"`
	PrivateKeyFile string `mapstructure:"private_key_file"`
	BaseURL        string `mapstructure:"base_url"`
}

type InvestigatorConfig struct {
	Profile string `mapstructure:"profile"`
}

type WorkerConfig struct {
	BackoffAfter int           `mapstructure:"backoff_after"`
	StopAfter    int           `mapstructure:"stop_after"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SLEUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("state_backend", cfg.State.Backend),
	)

	return cfg, nil
}

func validate(cfg Config) error {
	switch strings.ToLower(cfg.State.Backend) {
	case BackendFile:
		if strings.TrimSpace(cfg.State.Dir) == "" {
			return errors.New("state.dir is required for the file backend")
		}
	case BackendSQLite:
		if strings.TrimSpace(cfg.Database.DSN) == "" {
			return errors.New("database.dsn is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unsupported state backend %q", cfg.State.Backend)
	}

	if cfg.GitHub.AppID > 0 && strings.TrimSpace(cfg.GitHub.PrivateKeyFile) == "" {
		return errors.New("github.private_key_file is required with github.app_id")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sleuth")
	v.SetDefault("app.env", "local")
	v.SetDefault("state.backend", BackendFile)
	v.SetDefault("state.dir", ".sleuth/state")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".sleuth/state/sleuth.sqlite")
	v.SetDefault("investigator.profile", "investigator.toml")
	v.SetDefault("worker.backoff_after", 3)
	v.SetDefault("worker.stop_after", 6)
	v.SetDefault("worker.cooldown", "30m")
	v.SetDefault("server.addr", ":8085")
}
