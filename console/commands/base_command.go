package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/galaplate/dbdeploy/bootstrap"
)

// BootFunc returns the application the command runs against
type BootFunc func() (*bootstrap.App, error)

// BaseCommand provides common functionality for all commands
type BaseCommand struct {
	ctx  context.Context
	out  io.Writer
	in   *bufio.Reader
	boot BootFunc
}

// Bind attaches the run context, the terminal and the application loader.
// The kernel calls it before Execute.
func (b *BaseCommand) Bind(ctx context.Context, out io.Writer, in io.Reader, boot BootFunc) {
	b.ctx = ctx
	b.out = out
	b.in = bufio.NewReader(in)
	b.boot = boot
}

func (b *BaseCommand) Context() context.Context {
	if b.ctx == nil {
		return context.Background()
	}
	return b.ctx
}

func (b *BaseCommand) Out() io.Writer {
	if b.out == nil {
		return os.Stdout
	}
	return b.out
}

// App boots the application on first use
func (b *BaseCommand) App() (*bootstrap.App, error) {
	if b.boot == nil {
		return nil, fmt.Errorf("command is not bound to a kernel")
	}
	return b.boot()
}

func (b *BaseCommand) readLine() string {
	if b.in == nil {
		b.in = bufio.NewReader(os.Stdin)
	}
	line, _ := b.in.ReadString('\n')
	return strings.TrimSpace(line)
}

// AskConfirmation prompts for yes/no confirmation
func (b *BaseCommand) AskConfirmation(prompt string, defaultValue bool) bool {
	defaultStr := "y/N"
	if defaultValue {
		defaultStr = "Y/n"
	}

	for attempts := 0; attempts < 3; attempts++ {
		fmt.Fprintf(b.Out(), "%s [%s]: ", prompt, defaultStr)

		switch strings.ToLower(b.readLine()) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		case "":
			return defaultValue
		default:
			fmt.Fprintln(b.Out(), "❌ Please answer yes (y) or no (n)")
		}
	}

	return defaultValue
}

// PrintSuccess prints a success message with checkmark
func (b *BaseCommand) PrintSuccess(message string) {
	fmt.Fprintf(b.Out(), "✅ %s\n", message)
}

// PrintError prints an error message with X mark
func (b *BaseCommand) PrintError(message string) {
	fmt.Fprintf(b.Out(), "❌ %s\n", message)
}

// PrintWarning prints a warning message with warning symbol
func (b *BaseCommand) PrintWarning(message string) {
	fmt.Fprintf(b.Out(), "⚠️  %s\n", message)
}

// PrintInfo prints an info message with info symbol
func (b *BaseCommand) PrintInfo(message string) {
	fmt.Fprintf(b.Out(), "ℹ️  %s\n", message)
}
