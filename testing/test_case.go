package testing

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/galaplate/dbdeploy/bootstrap"
	"github.com/galaplate/dbdeploy/deploy"
	"github.com/galaplate/dbdeploy/logger"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type TestConfig struct {
	Factory    string
	EnvFile    string
	ConfigPath string
	// Overrides are dot-notation config keys applied last
	Overrides map[string]any
}

// TestCase gives every test its own workspace: a temp directory holding
// the SQLite database, the migrations directory and the logs.
type TestCase struct {
	suite.Suite
	App       *bootstrap.App
	Config    *TestConfig
	Workspace string
	Output    *bytes.Buffer
}

func DefaultTestConfig() *TestConfig {
	return &TestConfig{
		Factory: "payments",
		EnvFile: ".env.testing",
	}
}

func NewTestCase(opts ...func(*TestConfig)) *TestCase {
	cfg := DefaultTestConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	return &TestCase{Config: cfg}
}

func (tc *TestCase) SetupTest() {
	if tc.Config == nil {
		tc.Config = DefaultTestConfig()
	}

	tc.Workspace = tc.T().TempDir()
	tc.Output = &bytes.Buffer{}
	tc.loadEnvironment()
	tc.bootstrapApplication()
}

func (tc *TestCase) loadEnvironment() {
	t := tc.T()
	t.Setenv("APP_ENV", "testing")
	t.Setenv("APP_FACTORY", tc.Config.Factory)
	t.Setenv("DATABASE_URL", "sqlite:"+filepath.Join(tc.Workspace, "testing.db"))
	t.Setenv("SQLALCHEMY_DATABASE_URI", "")
	t.Setenv("MIGRATIONS_DIR", tc.MigrationsDir())
	t.Setenv("MIGRATE_DRIVER", "goose")
	t.Setenv("LOG_DIR", filepath.Join(tc.Workspace, "logs"))
}

func (tc *TestCase) bootstrapApplication() {
	opts := []bootstrap.Option{
		bootstrap.WithEnvFiles(tc.Config.EnvFile),
		bootstrap.WithConfigPath(tc.Config.ConfigPath),
		bootstrap.WithOutput(tc.Output, tc.Output),
		bootstrap.WithGormLogLevel("silent"),
	}
	for key, value := range tc.Config.Overrides {
		opts = append(opts, bootstrap.WithOverride(key, value))
	}

	app, err := bootstrap.New(opts...)
	tc.Require().NoError(err, "Failed to bootstrap application")
	tc.App = app
}

func (tc *TestCase) TearDownTest() {
	if tc.App != nil {
		if err := tc.App.Close(); err != nil {
			tc.T().Logf("Warning: failed to close application: %v", err)
		}
		tc.App = nil
	}
	logger.SetOutput(nil)
}

// Deploy runs the full deployment sequence against the workspace
func (tc *TestCase) Deploy() *deploy.Report {
	report, err := tc.App.Runner().Run(tc.T().Context())
	tc.Require().NoError(err, "Deployment failed")
	return report
}

func (tc *TestCase) GetDB() *gorm.DB {
	return tc.App.DB
}

func (tc *TestCase) MigrationsDir() string {
	return filepath.Join(tc.Workspace, "migrations")
}

// Revisions lists the revision files in the migrations directory
func (tc *TestCase) Revisions() []string {
	files, err := filepath.Glob(filepath.Join(tc.MigrationsDir(), "*.sql"))
	tc.Require().NoError(err)
	return files
}

// RevisionContents reads the newest revision file
func (tc *TestCase) RevisionContents() string {
	files := tc.Revisions()
	tc.Require().NotEmpty(files, "Expected at least one revision")

	content, err := os.ReadFile(files[len(files)-1])
	tc.Require().NoError(err)
	return string(content)
}
