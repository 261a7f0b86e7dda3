package cli

import (
	"errors"
	"fmt"
)

// ExitError carries the exit code of a wizard command that failed after
// explaining why.
//
// Commands such as approve, goto and export print the reason through the
// printer and then return NewExitError(1), so cobra does not print the error a
// second time. [Run] turns it into [ExecuteResult.ExitCode] and only
// [Execute] calls os.Exit.
type ExitError struct {
	// Code is the process exit code. Commands use 1 for a refused or failed
	// operation.
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewExitError returns an [ExitError] for code.
//
//	if err := app.controller.Approve(ctx, id); errors.Is(err, workflow.ErrNoContent) {
//	    app.Printer.Error("%s has no content to approve yet", label)
//	    return NewExitError(1)
//	}
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// IsExitError returns the code of an [ExitError] anywhere in err's chain.
// The boolean is false for nil and for errors cobra raised itself, such as an
// unknown command or a bad flag.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
