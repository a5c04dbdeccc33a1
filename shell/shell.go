// Package shell provides the execution of external commands, either on the
// local host or on a remote host via SSH.
//
// Callers depend on the Executor interface, which allows replacing actual
// command execution with canned output in tests.
package shell

import (
	"context"
	"fmt"
	"strings"
)

// Executor runs a command and returns its stdout.
//
// If the command exits with a non-zero exit status, the returned error is a
// *CLIError.
type Executor interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

var _ Executor = ExecutorFunc(nil)

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func (e ExecutorFunc) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return e(ctx, name, args...)
}

var _ error = &CLIError{}

// CLIError is returned when a command completed with a non-zero exit status.
type CLIError struct {
	// Command is the command line which has been executed.
	Command string
	// ExitStatus it the exit status of the command.
	// If unavailable, ExitStatus is set to 0.
	ExitStatus int
	// Stderr is the stderr output of the command as a string.
	Stderr string

	Err error
}

func (c *CLIError) Error() string {
	if c.ExitStatus > 0 {
		return fmt.Sprintf(
			"command `%s` failed, exit status = %d: %s",
			c.Command,
			c.ExitStatus,
			strings.TrimSpace(c.Stderr),
		)
	}

	return fmt.Sprintf(
		"command `%s` failed: %s",
		c.Command,
		strings.TrimSpace(c.Stderr),
	)
}

func (c *CLIError) Unwrap() error {
	return c.Err
}

// CommandLine returns the command line for name and args as it would be
// typed into a POSIX shell.
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, Quote(name))
	for _, arg := range args {
		parts = append(parts, Quote(arg))
	}

	return strings.Join(parts, " ")
}

const safeChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789@%+=:,./-_"

// Quote returns s quoted for a POSIX shell. Strings consisting only of safe
// characters are returned unchanged.
func Quote(s string) string {
	if s == "" {
		return "''"
	}

	safe := true
	for _, r := range s {
		if !strings.ContainsRune(safeChars, r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
