package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/galaplate/dbdeploy/logger"
)

// ExecSpec is the command surface of an external migration CLI.
// Each step is an argument list appended to Command; {dir} and {message}
// are substituted after splitting on whitespace, so a message with spaces
// stays a single argument.
type ExecSpec struct {
	Command   string
	Init      string
	Revision  string
	Upgrade   string
	Downgrade string
	Status    string
}

// ExecTool delegates every step to an external migration CLI such as
// Flask-Migrate ("flask db"), alembic or dbmate.
type ExecTool struct {
	spec   ExecSpec
	dir    string
	env    []string
	stdout io.Writer
	stderr io.Writer
}

type ExecOption func(*ExecTool)

// WithEnv exports KEY=value to every invocation
func WithEnv(key, value string) ExecOption {
	return func(t *ExecTool) {
		if key != "" {
			t.env = append(t.env, key+"="+value)
		}
	}
}

// WithExecOutput sets where the child's stdout and stderr go
func WithExecOutput(stdout, stderr io.Writer) ExecOption {
	return func(t *ExecTool) {
		t.stdout = stdout
		t.stderr = stderr
	}
}

// NewExecTool creates a tool running the given CLI against the revisions in dir
func NewExecTool(spec ExecSpec, dir string, opts ...ExecOption) (*ExecTool, error) {
	if len(strings.Fields(spec.Command)) == 0 {
		return nil, fmt.Errorf("exec driver requires a command")
	}

	t := &ExecTool{
		spec:   spec,
		dir:    dir,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// Args returns the full argument vector for a step, command first
func (t *ExecTool) Args(step, message string) []string {
	args := strings.Fields(t.spec.Command)

	replacer := strings.NewReplacer("{dir}", t.dir, "{message}", message)
	for _, arg := range strings.Fields(step) {
		args = append(args, replacer.Replace(arg))
	}

	return args
}

func (t *ExecTool) run(ctx context.Context, name, step, message string, stdout io.Writer) error {
	if strings.TrimSpace(step) == "" {
		return fmt.Errorf("%s: %w by the configured command", name, errors.ErrUnsupported)
	}

	args := t.Args(step, message)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = append(os.Environ(), t.env...)
	cmd.Stdout = stdout
	cmd.Stderr = t.stderr

	logger.Debug("running migration command", map[string]any{"step": name, "args": args})

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s failed: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

func (t *ExecTool) Init(ctx context.Context) error {
	return t.run(ctx, "init", t.spec.Init, "", t.stdout)
}

func (t *ExecTool) Revision(ctx context.Context, message string) error {
	return t.run(ctx, "revision", t.spec.Revision, message, t.stdout)
}

func (t *ExecTool) Upgrade(ctx context.Context) error {
	return t.run(ctx, "upgrade", t.spec.Upgrade, "", t.stdout)
}

func (t *ExecTool) Downgrade(ctx context.Context) error {
	return t.run(ctx, "downgrade", t.spec.Downgrade, "", t.stdout)
}

func (t *ExecTool) Status(ctx context.Context, w io.Writer) error {
	return t.run(ctx, "status", t.spec.Status, "", w)
}
