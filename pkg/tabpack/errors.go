package tabpack

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrUsage marks errors caused by invalid invocations
var ErrUsage = eris.New("invalid usage")

// MissingArtifactError is returned when the build tool succeeded but the ELF is not where it
// should be.
type MissingArtifactError struct {
	Path string
}

var _ error = (*MissingArtifactError)(nil)

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("%s not found, the build did not produce the expected ELF file", e.Path)
}

// ExitError is returned when a command finished with a non-zero exit status
type ExitError struct {
	Command string
	Status  uint8
}

var _ error = (*ExitError)(nil)

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Status)
}

// ExitCode maps an error returned by this package to a process exit code.
// Failed commands keep their own status, every other error results in 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Status != 0 {
		return int(exitErr.Status)
	}

	return 1
}
