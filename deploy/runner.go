// Package deploy runs the deployment migration sequence: initialize the
// migrations directory when it is missing, generate a revision, apply
// pending revisions.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/galaplate/dbdeploy/logger"
	"github.com/galaplate/dbdeploy/migrate"
	"github.com/google/uuid"
)

// Report describes one run
type Report struct {
	RunID       string
	Initialized bool
	// RevisionErr is the tolerated revision failure, if any
	RevisionErr error
	Duration    time.Duration
}

// Runner drives a migrate.Tool through the deployment sequence
type Runner struct {
	tool      migrate.Tool
	directory string
	message   string
	strict    bool
	out       io.Writer
}

type Option func(*Runner)

// WithDirectory sets the migrations directory checked before Init
func WithDirectory(dir string) Option {
	return func(r *Runner) { r.directory = dir }
}

// WithMessage sets the revision message
func WithMessage(message string) Option {
	return func(r *Runner) { r.message = message }
}

// WithOutput sets where the completion message is printed
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithStrictRevision makes revision failures fatal unless they mean
// "nothing to generate" (no changes, or earlier revisions still pending)
func WithStrictRevision(strict bool) Option {
	return func(r *Runner) { r.strict = strict }
}

// NewRunner creates a runner with the default directory and message
func NewRunner(tool migrate.Tool, opts ...Option) *Runner {
	r := &Runner{
		tool:      tool,
		directory: "migrations",
		message:   "auto migration",
		out:       os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the sequence. Init and upgrade failures abort the run;
// a revision failure is logged and the upgrade still runs.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	report := &Report{RunID: uuid.NewString()}
	fields := func(extra map[string]any) map[string]any {
		data := map[string]any{"run_id": report.RunID, "dir": r.directory}
		for k, v := range extra {
			data[k] = v
		}
		return data
	}

	logger.Info("deploy started", fields(nil))

	exists, err := dirExists(r.directory)
	if err != nil {
		logger.Error("deploy aborted", fields(map[string]any{"step": "init", "error": err}))
		return report, err
	}

	if !exists {
		if err := r.tool.Init(ctx); err != nil {
			logger.Error("deploy aborted", fields(map[string]any{"step": "init", "error": err}))
			return report, fmt.Errorf("init: %w", err)
		}
		report.Initialized = true
	}

	if err := r.tool.Revision(ctx, r.message); err != nil {
		if r.strict && !benign(err) {
			logger.Error("deploy aborted", fields(map[string]any{"step": "revision", "error": err}))
			return report, fmt.Errorf("revision: %w", err)
		}

		report.RevisionErr = err
		if errors.Is(err, migrate.ErrNoChanges) {
			logger.Info("revision skipped", fields(map[string]any{"reason": err}))
		} else {
			logger.Warn("revision failed, continuing with upgrade", fields(map[string]any{"error": err}))
		}
	}

	if err := r.tool.Upgrade(ctx); err != nil {
		logger.Error("deploy aborted", fields(map[string]any{"step": "upgrade", "error": err}))
		return report, fmt.Errorf("upgrade: %w", err)
	}

	report.Duration = time.Since(started)
	logger.Info("deploy completed", fields(map[string]any{
		"initialized": report.Initialized,
		"duration_ms": report.Duration.Milliseconds(),
	}))

	fmt.Fprintln(r.out, "✅ Database migration completed")
	return report, nil
}

func benign(err error) bool {
	return errors.Is(err, migrate.ErrNoChanges) || errors.Is(err, migrate.ErrNotUpToDate)
}

func dirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check migrations directory: %w", err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("migrations path %s exists but is not a directory", path)
	}
	return true, nil
}
