package migrate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"text/template"
	"time"

	"github.com/galaplate/dbdeploy/database"
	"github.com/galaplate/dbdeploy/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type gooseFixture struct {
	tool     *GooseTool
	db       *gorm.DB
	dir      string
	out      *bytes.Buffer
	manifest *database.Manifest
}

func newGooseFixture(t *testing.T) *gooseFixture {
	t.Helper()

	root := t.TempDir()
	db, err := database.Open("sqlite:"+filepath.Join(root, "deploy.db"), database.WithLogLevel("silent"))
	require.NoError(t, err)

	manifest, err := models.Lookup("payments")
	require.NoError(t, err)

	clock := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	out := &bytes.Buffer{}
	dir := filepath.Join(root, "migrations")

	tool, err := NewGooseTool(db, "sqlite", dir, manifest,
		WithGooseOutput(out),
		WithApplication("payments"),
		WithClock(func() time.Time { return clock }),
	)
	require.NoError(t, err)

	return &gooseFixture{tool: tool, db: db, dir: dir, out: out, manifest: manifest}
}

func TestGooseInit(t *testing.T) {
	f := newGooseFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tool.Init(ctx))
	assert.FileExists(t, filepath.Join(f.dir, ".gitkeep"))

	err := f.tool.Init(ctx)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestGooseRequiresInitializedDirectory(t *testing.T) {
	f := newGooseFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.tool.Upgrade(ctx), ErrNotInitialized)
	assert.ErrorIs(t, f.tool.Revision(ctx, "auto migration"), ErrNotInitialized)
}

func TestGooseUpgradeWithoutRevisions(t *testing.T) {
	f := newGooseFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tool.Init(ctx))
	require.NoError(t, f.tool.Upgrade(ctx))
	assert.Contains(t, f.out.String(), "Nothing to migrate")
}

func TestGooseRevisionLifecycle(t *testing.T) {
	f := newGooseFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tool.Init(ctx))

	path, err := f.tool.Generate(ctx, "auto migration")
	require.NoError(t, err)
	assert.Equal(t, "20261015093000_auto_migration.sql", filepath.Base(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	sql := string(content)
	assert.Contains(t, sql, "-- auto migration")
	assert.Contains(t, sql, "-- Application: payments")
	assert.Contains(t, sql, "-- +goose Up")
	assert.Contains(t, sql, "CREATE TABLE orders (")
	assert.Contains(t, sql, "CREATE INDEX idx_download_tokens_order_id ON download_tokens (order_id);")
	assert.Less(t, strings.Index(sql, "DROP TABLE IF EXISTS download_tokens;"), strings.Index(sql, "DROP TABLE IF EXISTS orders;"))

	// the generated revision has not been applied yet
	_, err = f.tool.Generate(ctx, "auto migration")
	assert.ErrorIs(t, err, ErrNotUpToDate)

	require.NoError(t, f.tool.Upgrade(ctx))
	assert.Contains(t, f.out.String(), "Migrating: 20261015093000_auto_migration.sql DONE")
	assert.True(t, f.db.Migrator().HasTable("orders"))
	assert.True(t, f.db.Migrator().HasTable("download_tokens"))

	_, err = f.tool.Generate(ctx, "auto migration")
	assert.ErrorIs(t, err, ErrNoChanges)

	var status bytes.Buffer
	require.NoError(t, f.tool.Status(ctx, &status))
	assert.Contains(t, status.String(), "20261015093000_auto_migration.sql")
	assert.Contains(t, status.String(), "Applied: 1")
	assert.Contains(t, status.String(), "Pending: 0")

	require.NoError(t, f.tool.Downgrade(ctx))
	assert.False(t, f.db.Migrator().HasTable("orders"))

	status.Reset()
	require.NoError(t, f.tool.Status(ctx, &status))
	assert.Contains(t, status.String(), "Pending: 1")
}

func TestGooseFailedRevisionWriteLeavesNoFile(t *testing.T) {
	f := newGooseFixture(t)
	ctx := context.Background()
	require.NoError(t, f.tool.Init(ctx))

	original := revisionTemplate
	t.Cleanup(func() { revisionTemplate = original })
	revisionTemplate = template.Must(template.New("revision").Parse("-- {{ .Message }}\n{{ template \"missing\" }}"))

	_, err := f.tool.Generate(ctx, "auto migration")
	require.ErrorContains(t, err, "failed to write revision file")

	files, err := filepath.Glob(filepath.Join(f.dir, "*.sql"))
	require.NoError(t, err)
	assert.Empty(t, files)

	require.NoError(t, f.tool.Upgrade(ctx))
	assert.Contains(t, f.out.String(), "Nothing to migrate")
}

func TestGooseRevisionVersionsAreMonotonic(t *testing.T) {
	f := newGooseFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tool.Init(ctx))
	first, err := f.tool.Generate(ctx, "initial")
	require.NoError(t, err)
	require.NoError(t, f.tool.Upgrade(ctx))

	f.manifest.Create("audit_logs", func(table *database.Blueprint) {
		table.ID()
		table.Text("entry").NotNullable()
	})

	// same clock reading as the first revision
	second, err := f.tool.Generate(ctx, "add audit logs")
	require.NoError(t, err)
	assert.Equal(t, "20261015093000_initial.sql", filepath.Base(first))
	assert.Equal(t, "20261015093001_add_audit_logs.sql", filepath.Base(second))

	content, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Contains(t, string(content), "CREATE TABLE audit_logs")
	assert.NotContains(t, string(content), "CREATE TABLE orders")

	require.NoError(t, f.tool.Upgrade(ctx))
	assert.True(t, f.db.Migrator().HasTable("audit_logs"))
}

func TestGooseDowngradeWithNothingApplied(t *testing.T) {
	f := newGooseFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tool.Init(ctx))
	require.NoError(t, f.tool.Downgrade(ctx))
	assert.Contains(t, f.out.String(), "Nothing to rollback")
}

func TestNewGooseToolRejectsUnknownDialect(t *testing.T) {
	_, err := NewGooseTool(nil, "oracle", "migrations", database.NewManifest())
	assert.Error(t, err)
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"auto migration":          "auto_migration",
		"  Add Orders & Tokens!!": "add_orders_tokens",
		"***":                     "revision",
		"":                        "revision",
	}
	for in, want := range tests {
		assert.Equal(t, want, slug(in), "slug(%q)", in)
	}

	assert.LessOrEqual(t, len(slug(strings.Repeat("long message ", 20))), 60)
}
