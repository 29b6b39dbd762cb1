package process

import (
	"errors"
	"os/exec"
	"syscall"
)

// ExitCodeSpawnFailure is reported when the child could not be started.
const ExitCodeSpawnFailure = -1

// ExitCode extracts the exit status from a cmd.Wait() error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				// Signal exit: 128 + signal number
				return 128 + int(status.Signal())
			}
			return status.ExitStatus()
		}
		return exitErr.ExitCode()
	}

	// Unknown error, assume exit code 1
	return 1
}

// ExitCodeLabel returns a human-readable label for common exit codes.
func ExitCodeLabel(code int) string {
	switch code {
	case ExitCodeSpawnFailure:
		return "(not started)"
	case 0:
		return "(clean)"
	case 1:
		return "(error)"
	case 127:
		return "(not found)"
	case 137:
		return "(SIGKILL)"
	case 141:
		return "(SIGPIPE)"
	case 143:
		return "(SIGTERM)"
	default:
		return ""
	}
}
