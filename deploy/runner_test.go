package deploy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/galaplate/dbdeploy/database"
	"github.com/galaplate/dbdeploy/migrate"
	"github.com/galaplate/dbdeploy/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type mockTool struct {
	mock.Mock
}

func (m *mockTool) Init(ctx context.Context) error {
	return m.Called().Error(0)
}

func (m *mockTool) Revision(ctx context.Context, message string) error {
	return m.Called(message).Error(0)
}

func (m *mockTool) Upgrade(ctx context.Context) error {
	return m.Called().Error(0)
}

func (m *mockTool) Downgrade(ctx context.Context) error {
	return m.Called().Error(0)
}

func (m *mockTool) Status(ctx context.Context, w io.Writer) error {
	return m.Called(w).Error(0)
}

type RunnerTestSuite struct {
	suite.Suite
	dir  string
	tool *mockTool
	out  *bytes.Buffer
}

func (s *RunnerTestSuite) SetupTest() {
	s.dir = filepath.Join(s.T().TempDir(), "migrations")
	s.tool = new(mockTool)
	s.out = &bytes.Buffer{}
}

func (s *RunnerTestSuite) runner(opts ...Option) *Runner {
	opts = append([]Option{
		WithDirectory(s.dir),
		WithMessage("auto migration"),
		WithOutput(s.out),
	}, opts...)
	return NewRunner(s.tool, opts...)
}

// initCreatesDir makes the mocked Init behave like a real one
func (s *RunnerTestSuite) initCreatesDir() *mock.Call {
	return s.tool.On("Init").Return(nil).Run(func(mock.Arguments) {
		s.Require().NoError(os.MkdirAll(s.dir, 0755))
	})
}

func (s *RunnerTestSuite) TestFirstRunInitializes() {
	s.initCreatesDir().Once()
	s.tool.On("Revision", "auto migration").Return(nil).Once()
	s.tool.On("Upgrade").Return(nil).Once()

	report, err := s.runner().Run(context.Background())

	s.Require().NoError(err)
	s.True(report.Initialized)
	s.NoError(report.RevisionErr)
	s.NotEmpty(report.RunID)
	s.Contains(s.out.String(), "Database migration completed")
	s.tool.AssertExpectations(s.T())
}

func (s *RunnerTestSuite) TestSecondRunSkipsInit() {
	s.initCreatesDir()
	s.tool.On("Revision", "auto migration").Return(nil).Once()
	s.tool.On("Revision", "auto migration").Return(migrate.ErrNoChanges).Once()
	s.tool.On("Upgrade").Return(nil)

	first, err := s.runner().Run(context.Background())
	s.Require().NoError(err)
	s.True(first.Initialized)

	second, err := s.runner().Run(context.Background())
	s.Require().NoError(err)
	s.False(second.Initialized)
	s.ErrorIs(second.RevisionErr, migrate.ErrNoChanges)

	s.tool.AssertNumberOfCalls(s.T(), "Init", 1)
	s.tool.AssertNumberOfCalls(s.T(), "Upgrade", 2)
}

func (s *RunnerTestSuite) TestRevisionFailureStillUpgrades() {
	s.Require().NoError(os.MkdirAll(s.dir, 0755))
	revisionErr := errors.New("model import failed")
	s.tool.On("Revision", "auto migration").Return(revisionErr)
	s.tool.On("Upgrade").Return(nil).Once()

	report, err := s.runner().Run(context.Background())

	s.Require().NoError(err)
	s.ErrorIs(report.RevisionErr, revisionErr)
	s.tool.AssertCalled(s.T(), "Upgrade")
	s.tool.AssertNotCalled(s.T(), "Init")
}

func (s *RunnerTestSuite) TestInitFailureHalts() {
	s.tool.On("Init").Return(errors.New("permission denied"))

	_, err := s.runner().Run(context.Background())

	s.Require().Error(err)
	s.Contains(err.Error(), "init: permission denied")
	s.tool.AssertNotCalled(s.T(), "Revision", mock.Anything)
	s.tool.AssertNotCalled(s.T(), "Upgrade")
	s.NotContains(s.out.String(), "completed")
}

func (s *RunnerTestSuite) TestUpgradeFailureHalts() {
	s.Require().NoError(os.MkdirAll(s.dir, 0755))
	s.tool.On("Revision", "auto migration").Return(nil)
	s.tool.On("Upgrade").Return(errors.New("syntax error"))

	_, err := s.runner().Run(context.Background())

	s.Require().Error(err)
	s.Contains(err.Error(), "upgrade: syntax error")
	s.NotContains(s.out.String(), "completed")
}

func (s *RunnerTestSuite) TestStrictRevisionAbortsOnUnexpectedError() {
	s.Require().NoError(os.MkdirAll(s.dir, 0755))
	s.tool.On("Revision", "auto migration").Return(errors.New("model import failed"))

	_, err := s.runner(WithStrictRevision(true)).Run(context.Background())

	s.Require().Error(err)
	s.Contains(err.Error(), "revision:")
	s.tool.AssertNotCalled(s.T(), "Upgrade")
}

func (s *RunnerTestSuite) TestStrictRevisionToleratesNoChanges() {
	s.Require().NoError(os.MkdirAll(s.dir, 0755))
	s.tool.On("Revision", "auto migration").Return(migrate.ErrNoChanges)
	s.tool.On("Upgrade").Return(nil)

	_, err := s.runner(WithStrictRevision(true)).Run(context.Background())

	s.Require().NoError(err)
	s.tool.AssertCalled(s.T(), "Upgrade")
}

func (s *RunnerTestSuite) TestPathIsAFile() {
	s.Require().NoError(os.WriteFile(s.dir, []byte("not a dir"), 0644))

	_, err := s.runner().Run(context.Background())

	s.Require().Error(err)
	s.Contains(err.Error(), "not a directory")
	s.tool.AssertNotCalled(s.T(), "Init")
}

func TestRunnerTestSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

func TestRunTwiceWithGoose(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "migrations")

	db, err := database.Open("sqlite:"+filepath.Join(root, "deploy.db"), database.WithLogLevel("silent"))
	require.NoError(t, err)

	manifest, err := models.Lookup("payments")
	require.NoError(t, err)

	var out bytes.Buffer
	tool, err := migrate.NewGooseTool(db, "sqlite", dir, manifest, migrate.WithGooseOutput(&out))
	require.NoError(t, err)

	runner := NewRunner(tool, WithDirectory(dir), WithOutput(&out))

	first, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.True(t, first.Initialized)
	require.NoError(t, first.RevisionErr)
	require.True(t, db.Migrator().HasTable("orders"))

	second, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.False(t, second.Initialized)
	require.ErrorIs(t, second.RevisionErr, migrate.ErrNoChanges)

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	require.NoError(t, err)
	require.Len(t, files, 1)
}

// failingMigrateCLI stands in for "flask db": it records every call and
// exits nonzero on "migrate", the way the real CLI does when nothing changed.
const failingMigrateCLI = `#!/bin/sh
echo "$1" >> "$CALLS_LOG"
if [ "$1" = "init" ]; then
  mkdir -p "$3"
fi
if [ "$1" = "migrate" ]; then
  echo "ERROR [flask_migrate] Error: Target database is not up to date." >&2
  exit 1
fi
`

func TestRevisionFailureStillUpgradesWithExecTool(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	root := t.TempDir()
	dir := filepath.Join(root, "migrations")
	script := filepath.Join(root, "flask-db.sh")
	calls := filepath.Join(root, "calls.log")
	require.NoError(t, os.WriteFile(script, []byte(failingMigrateCLI), 0755))

	var out bytes.Buffer
	tool, err := migrate.NewExecTool(migrate.ExecSpec{
		Command:  "sh " + script,
		Init:     "init --directory {dir}",
		Revision: "migrate --directory {dir} --message {message}",
		Upgrade:  "upgrade --directory {dir}",
	}, dir,
		migrate.WithEnv("CALLS_LOG", calls),
		migrate.WithExecOutput(&out, &out),
	)
	require.NoError(t, err)

	runner := NewRunner(tool, WithDirectory(dir), WithOutput(&out))

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.True(t, report.Initialized)
	require.Error(t, report.RevisionErr)
	require.Contains(t, report.RevisionErr.Error(), "revision:")

	content, err := os.ReadFile(calls)
	require.NoError(t, err)
	require.Equal(t, []string{"init", "migrate", "upgrade"}, strings.Fields(string(content)))
	require.Contains(t, out.String(), "Database migration completed")

	// the directory now exists, so the second run goes straight to revision
	_, err = runner.Run(context.Background())
	require.NoError(t, err)

	content, err = os.ReadFile(calls)
	require.NoError(t, err)
	require.Equal(t, []string{"init", "migrate", "upgrade", "migrate", "upgrade"}, strings.Fields(string(content)))
}
