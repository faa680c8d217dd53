package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/galaplate/dbdeploy/database"
	"github.com/galaplate/dbdeploy/logger"
	"github.com/pressly/goose/v3"
	goosedb "github.com/pressly/goose/v3/database"
	"gorm.io/gorm"
)

const (
	versionLayout = "20060102150405"

	DefaultVersionTable = "goose_db_version"
)

var revisionTemplate = template.Must(template.New("revision").Parse(`-- {{ .Message }}
-- Application: {{ .Application }}
-- Created at: {{ .CreatedAt }}

-- +goose Up
{{- range .Up }}
{{ . }}
{{- end }}

-- +goose Down
{{- range .Down }}
{{ . }}
{{- end }}
`))

// GooseTool runs SQL revisions in-process with goose. Revisions are
// generated from the application manifest: every manifest table missing
// from the database is created by the next revision.
type GooseTool struct {
	db          *gorm.DB
	dialect     string
	dir         string
	table       string
	application string
	manifest    *database.Manifest
	out         io.Writer
	now         func() time.Time
}

type GooseOption func(*GooseTool)

// WithVersionTable sets the table goose records applied versions in
func WithVersionTable(name string) GooseOption {
	return func(g *GooseTool) { g.table = name }
}

// WithGooseOutput sets where progress lines are printed
func WithGooseOutput(w io.Writer) GooseOption {
	return func(g *GooseTool) { g.out = w }
}

// WithClock overrides the clock used to version revisions
func WithClock(now func() time.Time) GooseOption {
	return func(g *GooseTool) { g.now = now }
}

// WithApplication names the application in generated revision headers
func WithApplication(name string) GooseOption {
	return func(g *GooseTool) { g.application = name }
}

// NewGooseTool creates a goose-backed tool for the revisions in dir
func NewGooseTool(db *gorm.DB, dialect, dir string, manifest *database.Manifest, opts ...GooseOption) (*GooseTool, error) {
	if _, err := gooseDialect(dialect); err != nil {
		return nil, err
	}

	g := &GooseTool{
		db:       db,
		dialect:  dialect,
		dir:      dir,
		table:    DefaultVersionTable,
		manifest: manifest,
		out:      os.Stdout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func gooseDialect(dialect string) (goosedb.Dialect, error) {
	switch dialect {
	case "sqlite":
		return goosedb.DialectSQLite3, nil
	case "postgres":
		return goosedb.DialectPostgres, nil
	case "mysql":
		return goosedb.DialectMySQL, nil
	default:
		return "", fmt.Errorf("goose does not support dialect %q", dialect)
	}
}

// provider returns nil, nil when the directory holds no revisions yet
func (g *GooseTool) provider() (*goose.Provider, error) {
	if _, err := os.Stat(g.dir); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotInitialized, g.dir)
	}

	dialect, err := gooseDialect(g.dialect)
	if err != nil {
		return nil, err
	}

	store, err := goosedb.NewStore(dialect, g.table)
	if err != nil {
		return nil, err
	}

	sqlDB, err := g.db.DB()
	if err != nil {
		return nil, err
	}

	provider, err := goose.NewProvider("", sqlDB, os.DirFS(g.dir), goose.WithStore(store))
	if errors.Is(err, goose.ErrNoMigrations) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load revisions from %s: %w", g.dir, err)
	}

	return provider, nil
}

// Init creates the revisions directory
func (g *GooseTool) Init(ctx context.Context) error {
	entries, err := os.ReadDir(g.dir)
	if err == nil && len(entries) > 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, g.dir)
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return fmt.Errorf("failed to create migrations directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(g.dir, ".gitkeep"), nil, 0644); err != nil {
		return fmt.Errorf("failed to create migrations directory: %w", err)
	}

	fmt.Fprintf(g.out, "Creating directory %s ... done\n", g.dir)
	logger.Info("migrations directory initialized", map[string]any{"dir": g.dir})
	return nil
}

// Revision generates the next revision; see Generate
func (g *GooseTool) Revision(ctx context.Context, message string) error {
	_, err := g.Generate(ctx, message)
	return err
}

// Generate writes a revision creating every manifest table missing from the
// database and returns its path. It refuses to run while earlier revisions
// are pending, since their tables would be counted as missing.
func (g *GooseTool) Generate(ctx context.Context, message string) (string, error) {
	provider, err := g.provider()
	if err != nil {
		return "", err
	}

	var latest int64
	if provider != nil {
		statuses, err := provider.Status(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to read migration status: %w", err)
		}

		pending := 0
		for _, st := range statuses {
			if st.State == goose.StatePending {
				pending++
			}
			if st.Source.Version > latest {
				latest = st.Source.Version
			}
		}
		if pending > 0 {
			return "", fmt.Errorf("%w: %d revision(s) pending", ErrNotUpToDate, pending)
		}
	}

	missing, err := database.MissingTables(g.db, g.manifest)
	if err != nil {
		return "", err
	}
	if len(missing) == 0 {
		return "", ErrNoChanges
	}

	version := g.nextVersion(latest)
	path := filepath.Join(g.dir, fmt.Sprintf("%d_%s.sql", version, slug(message)))

	var up, down []string
	for _, table := range missing {
		up = append(up, table.CreateStatements(g.dialect)...)
	}
	for i := len(missing) - 1; i >= 0; i-- {
		down = append(down, missing[i].DropStatement(g.dialect))
	}

	err = writeRevision(path, map[string]any{
		"Message":     strings.Join(strings.Fields(message), " "),
		"Application": g.application,
		"CreatedAt":   g.now().UTC().Format(time.RFC3339),
		"Up":          up,
		"Down":        down,
	})
	if err != nil {
		return "", err
	}

	tables := make([]string, len(missing))
	for i, t := range missing {
		tables[i] = t.Name()
	}

	fmt.Fprintf(g.out, "Generating %s ... done\n", path)
	logger.Info("revision generated", map[string]any{"path": path, "tables": tables})
	return path, nil
}

// writeRevision renders the revision template into a new file at path.
// A file that could not be written completely is removed so goose never
// sees a truncated revision.
func writeRevision(path string, data map[string]any) (err error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create revision file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to write revision file: %w", closeErr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	if err := revisionTemplate.Execute(file, data); err != nil {
		return fmt.Errorf("failed to write revision file: %w", err)
	}
	return nil
}

// nextVersion is the current timestamp, bumped past latest if the clock
// has not moved beyond the newest revision on disk
func (g *GooseTool) nextVersion(latest int64) int64 {
	version, _ := strconv.ParseInt(g.now().UTC().Format(versionLayout), 10, 64)
	if version <= latest {
		version = latest + 1
	}
	return version
}

// Upgrade applies every pending revision
func (g *GooseTool) Upgrade(ctx context.Context) error {
	provider, err := g.provider()
	if err != nil {
		return err
	}
	if provider == nil {
		fmt.Fprintln(g.out, "Nothing to migrate")
		return nil
	}

	results, err := provider.Up(ctx)
	for _, r := range results {
		fmt.Fprintf(g.out, "Migrating: %s DONE (%s)\n", filepath.Base(r.Source.Path), r.Duration.Round(time.Millisecond))
	}
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	if len(results) == 0 {
		fmt.Fprintln(g.out, "Nothing to migrate")
	}
	logger.Info("migrations applied", map[string]any{"count": len(results)})
	return nil
}

// Downgrade rolls back the most recently applied revision
func (g *GooseTool) Downgrade(ctx context.Context) error {
	provider, err := g.provider()
	if err != nil {
		return err
	}
	if provider == nil {
		fmt.Fprintln(g.out, "Nothing to rollback")
		return nil
	}

	result, err := provider.Down(ctx)
	if errors.Is(err, goose.ErrNoNextVersion) {
		fmt.Fprintln(g.out, "Nothing to rollback")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}

	fmt.Fprintf(g.out, "Rolling back: %s DONE\n", filepath.Base(result.Source.Path))
	logger.Info("migration rolled back", map[string]any{"version": result.Source.Version})
	return nil
}

// Status prints every revision and whether it has been applied
func (g *GooseTool) Status(ctx context.Context, w io.Writer) error {
	provider, err := g.provider()
	if err != nil {
		return err
	}

	var statuses []*goose.MigrationStatus
	if provider != nil {
		if statuses, err = provider.Status(ctx); err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}
	}

	fmt.Fprintf(w, "%-50s %-10s %s\n", "Migration", "Status", "Applied at")
	fmt.Fprintf(w, "%-50s %-10s %s\n", strings.Repeat("-", 50), strings.Repeat("-", 10), strings.Repeat("-", 20))

	applied := 0
	for _, st := range statuses {
		at := ""
		if st.State == goose.StateApplied {
			applied++
			at = st.AppliedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "%-50s %-10s %s\n", filepath.Base(st.Source.Path), st.State, at)
	}

	fmt.Fprintf(w, "\nTotal migrations: %d\n", len(statuses))
	fmt.Fprintf(w, "Applied: %d\n", applied)
	fmt.Fprintf(w, "Pending: %d\n", len(statuses)-applied)
	return nil
}

// slug turns a revision message into a file name fragment
func slug(message string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(message) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}

	s := strings.TrimSuffix(b.String(), "_")
	if s == "" {
		return "revision"
	}
	if len(s) > 60 {
		s = strings.TrimSuffix(s[:60], "_")
	}
	return s
}
