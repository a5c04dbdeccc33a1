package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

var _ Executor = &LocalExecutor{}

// LocalExecutor runs commands as child processes of the current process.
type LocalExecutor struct {
	// Env is appended to the environment of the process if non-empty. Each
	// entry is of the form "key=value".
	Env []string
}

func (l *LocalExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(l.Env) > 0 {
		cmd.Env = append(cmd.Environ(), l.Env...)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return output, ctxErr
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return output, &CLIError{
				Command:    CommandLine(name, args...),
				ExitStatus: exitErr.ExitCode(),
				Stderr:     stderr.String(),
				Err:        exitErr,
			}
		}

		return output, err
	}

	return output, nil
}
