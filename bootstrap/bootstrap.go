// Package bootstrap wires configuration, logging, the database connection
// and the migration tool into an App the console commands run against.
package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/galaplate/dbdeploy/config"
	"github.com/galaplate/dbdeploy/database"
	"github.com/galaplate/dbdeploy/deploy"
	"github.com/galaplate/dbdeploy/env"
	"github.com/galaplate/dbdeploy/logger"
	"github.com/galaplate/dbdeploy/migrate"
	"github.com/galaplate/dbdeploy/models"
	"gorm.io/gorm"
)

// AppConfig holds what New needs to build an App
type AppConfig struct {
	EnvFiles   []string
	ConfigPath string
	// Overrides are dot-notation keys set on top of every config source
	Overrides map[string]any
	Stdout    io.Writer
	Stderr    io.Writer
	GormLevel string
}

type Option func(*AppConfig)

// DefaultConfig returns default configuration
func DefaultConfig() *AppConfig {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config"
	}

	return &AppConfig{
		EnvFiles:   []string{env.DefaultFile()},
		ConfigPath: configPath,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		GormLevel:  "warn",
	}
}

func WithEnvFiles(paths ...string) Option {
	return func(cfg *AppConfig) { cfg.EnvFiles = paths }
}

func WithConfigPath(path string) Option {
	return func(cfg *AppConfig) { cfg.ConfigPath = path }
}

func WithOverride(key string, value any) Option {
	return func(cfg *AppConfig) {
		if cfg.Overrides == nil {
			cfg.Overrides = map[string]any{}
		}
		cfg.Overrides[key] = value
	}
}

func WithOutput(stdout, stderr io.Writer) Option {
	return func(cfg *AppConfig) {
		cfg.Stdout = stdout
		cfg.Stderr = stderr
	}
}

func WithGormLogLevel(level string) Option {
	return func(cfg *AppConfig) { cfg.GormLevel = level }
}

// App is a configured deployment: settings, the migration tool and, for
// the goose driver, the open database.
type App struct {
	Settings *config.Settings
	Tool     migrate.Tool
	DB       *gorm.DB
	stdout   io.Writer
}

// New loads env files and configuration, sets up logging and builds the
// migration tool for the configured driver.
func New(opts ...Option) (*App, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := env.Load(cfg.EnvFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	manager, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	for key, value := range cfg.Overrides {
		manager.Set(key, value)
	}

	settings, err := config.Resolve(manager)
	if err != nil {
		return nil, err
	}
	config.InitializeGlobal(manager.GetAll())

	if err := setupLogger(settings); err != nil {
		return nil, err
	}

	app := &App{Settings: settings, stdout: cfg.Stdout}

	switch settings.Driver {
	case config.DriverExec:
		app.Tool, err = newExecTool(settings, cfg)
	default:
		app.DB, app.Tool, err = newGooseTool(settings, cfg)
	}
	if err != nil {
		app.Close()
		return nil, err
	}

	logger.Debug("application bootstrapped", map[string]any{
		"driver":  settings.Driver,
		"factory": settings.AppFactory,
		"dir":     settings.Directory,
	})

	return app, nil
}

func setupLogger(settings *config.Settings) error {
	level, err := logger.ParseLogLevel(settings.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	if settings.LogDir == "" {
		return nil
	}
	return logger.Setup(settings.LogDir, level)
}

func newGooseTool(settings *config.Settings, cfg *AppConfig) (*gorm.DB, migrate.Tool, error) {
	manifest, err := models.Lookup(settings.AppFactory)
	if err != nil {
		return nil, nil, err
	}

	dialect, err := database.DialectOf(settings.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	db, err := database.Open(settings.DatabaseURL, database.WithLogLevel(cfg.GormLevel))
	if err != nil {
		return nil, nil, err
	}

	tool, err := migrate.NewGooseTool(db, dialect, settings.Directory, manifest,
		migrate.WithVersionTable(settings.VersionTable),
		migrate.WithApplication(settings.AppFactory),
		migrate.WithGooseOutput(cfg.Stdout),
	)
	if err != nil {
		return db, nil, err
	}

	return db, tool, nil
}

func newExecTool(settings *config.Settings, cfg *AppConfig) (migrate.Tool, error) {
	spec := migrate.ExecSpec{
		Command:   settings.Exec.Command,
		Init:      settings.Exec.Init,
		Revision:  settings.Exec.Revision,
		Upgrade:   settings.Exec.Upgrade,
		Downgrade: settings.Exec.Downgrade,
		Status:    settings.Exec.Status,
	}

	opts := []migrate.ExecOption{migrate.WithExecOutput(cfg.Stdout, cfg.Stderr)}
	if settings.Exec.FactoryEnv != "" {
		opts = append(opts, migrate.WithEnv(settings.Exec.FactoryEnv, settings.AppFactory))
	}
	if settings.DatabaseURL != "" {
		opts = append(opts,
			migrate.WithEnv("DATABASE_URL", settings.DatabaseURL),
			migrate.WithEnv("SQLALCHEMY_DATABASE_URI", settings.DatabaseURL),
		)
	}

	return migrate.NewExecTool(spec, settings.Directory, opts...)
}

// Runner builds the deployment runner for this app
func (a *App) Runner() *deploy.Runner {
	return deploy.NewRunner(a.Tool,
		deploy.WithDirectory(a.Settings.Directory),
		deploy.WithMessage(a.Settings.Message),
		deploy.WithStrictRevision(a.Settings.StrictRevision),
		deploy.WithOutput(a.stdout),
	)
}

// Close releases the database connection and the log file
func (a *App) Close() error {
	var errs []error
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	errs = append(errs, logger.Close())
	return errors.Join(errs...)
}
