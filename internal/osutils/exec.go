// Package osutils contains predicates for errors and output of external
// commands.
package osutils

import (
	"errors"
	"os/exec"
	"strings"
)

// IsExecNotFound returns true if err has been caused by a command which could
// not be found in $PATH.
func IsExecNotFound(err error) bool {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return errors.Is(execErr.Err, exec.ErrNotFound)
	}

	return false
}

// Messages printed by coreutils when a path does not exist.
var notExistMessages = []string{
	"No such file or directory",
	"cannot access",
	"cannot stat",
}

// IsNotExistMessage returns true if stderr output of a coreutils command
// reports a missing path.
func IsNotExistMessage(stderr string) bool {
	if !strings.Contains(stderr, notExistMessages[0]) {
		return false
	}
	for _, msg := range notExistMessages[1:] {
		if strings.Contains(stderr, msg) {
			return true
		}
	}

	return strings.HasPrefix(strings.TrimSpace(stderr), "ls:") ||
		strings.HasPrefix(strings.TrimSpace(stderr), "du:")
}
