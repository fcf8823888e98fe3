package commands

import (
	"errors"
	"fmt"
	"io"

	"followup/internal/exitcode"
	"followup/internal/service"
)

// reportBackendError prints err and returns the matching exit code.
func reportBackendError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.ConfigError
	case errors.Is(err, service.ErrNotFound):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}
