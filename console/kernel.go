// Package console hosts the command-line interface on a cobra root command.
package console

import (
	"context"
	"io"
	"os"

	"github.com/galaplate/dbdeploy/bootstrap"
	"github.com/galaplate/dbdeploy/console/commands"
	"github.com/spf13/cobra"
)

// DefaultCommand runs when no command is given
const DefaultCommand = "db:setup"

// Command is a single console command
type Command interface {
	GetSignature() string
	GetDescription() string
	Execute(args []string) error
}

type bindable interface {
	Bind(ctx context.Context, out io.Writer, in io.Reader, boot commands.BootFunc)
}

type Kernel struct {
	root     *cobra.Command
	commands map[string]Command
	out      io.Writer
	in       io.Reader
	bootOpts []bootstrap.Option
	app      *bootstrap.App
}

type KernelOption func(*Kernel)

// WithIO sets the terminal the commands talk to
func WithIO(out io.Writer, in io.Reader) KernelOption {
	return func(k *Kernel) {
		k.out = out
		k.in = in
	}
}

// WithBootstrap passes options to bootstrap.New
func WithBootstrap(opts ...bootstrap.Option) KernelOption {
	return func(k *Kernel) { k.bootOpts = append(k.bootOpts, opts...) }
}

// NewKernel creates a kernel with every built-in command registered
func NewKernel(opts ...KernelOption) *Kernel {
	k := &Kernel{
		commands: map[string]Command{},
		out:      os.Stdout,
		in:       os.Stdin,
	}
	for _, opt := range opts {
		opt(k)
	}

	k.root = &cobra.Command{
		Use:           "dbdeploy",
		Short:         "Database migration bootstrapper",
		Long:          "dbdeploy initializes, revises and upgrades the application database.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return k.run(cmd.Context(), k.commands[DefaultCommand], nil)
		},
	}
	k.root.SetOut(k.out)
	k.root.SetErr(k.out)

	k.RegisterCommands()
	return k
}

// Register adds a command to the kernel
func (k *Kernel) Register(command Command) {
	k.commands[command.GetSignature()] = command
	k.root.AddCommand(&cobra.Command{
		Use:                command.GetSignature(),
		Short:              command.GetDescription(),
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return k.run(cmd.Context(), command, args)
		},
	})
}

// Run executes the command named by args[0] with the remaining args
func (k *Kernel) Run(ctx context.Context, args []string) error {
	defer k.close()

	k.root.SetArgs(args)
	return k.root.ExecuteContext(ctx)
}

func (k *Kernel) run(ctx context.Context, command Command, args []string) error {
	if b, ok := command.(bindable); ok {
		b.Bind(ctx, k.out, k.in, k.boot)
	}
	return command.Execute(args)
}

func (k *Kernel) boot() (*bootstrap.App, error) {
	if k.app != nil {
		return k.app, nil
	}

	opts := append([]bootstrap.Option{bootstrap.WithOutput(k.out, k.out)}, k.bootOpts...)
	app, err := bootstrap.New(opts...)
	if err != nil {
		return nil, err
	}
	k.app = app
	return app, nil
}

func (k *Kernel) close() {
	if k.app != nil {
		k.app.Close()
		k.app = nil
	}
}
