// Package migrate adapts migration engines to the four steps a deployment
// needs: initialize the revisions directory, generate a revision, apply
// pending revisions, and report status.
package migrate

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrAlreadyInitialized is returned by Init when the directory already holds files.
	ErrAlreadyInitialized = errors.New("migrations directory already exists and is not empty")
	// ErrNotInitialized is returned when the migrations directory does not exist.
	ErrNotInitialized = errors.New("migrations directory does not exist")
	// ErrNoChanges is returned by Revision when the schema already matches.
	ErrNoChanges = errors.New("no changes in schema detected")
	// ErrNotUpToDate is returned by Revision while earlier revisions are still pending.
	ErrNotUpToDate = errors.New("target database is not up to date")
)

// Tool is a migration engine
type Tool interface {
	Init(ctx context.Context) error
	Revision(ctx context.Context, message string) error
	Upgrade(ctx context.Context) error
	Downgrade(ctx context.Context) error
	Status(ctx context.Context, w io.Writer) error
}
