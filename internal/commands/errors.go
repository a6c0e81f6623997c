package commands

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to dispatch failures so hosts can match on them
// without parsing messages.
const (
	commandValidationCode   = "COMMAND_VALIDATION_FAILED"
	commandContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	commandContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	commandContextErrorCode = "COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "COMMAND_EXECUTION_FAILED"
)

// classify wraps err with the given category, text code, and message.
// Errors that already carry go-errors metadata pass through untouched so
// handlers keep whatever classification the domain layer assigned.
func classify(err error, category goerrors.Category, code, msg string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, category, msg).WithTextCode(code)
}

func wrapValidationError(err error) error {
	return classify(err, goerrors.CategoryValidation, commandValidationCode, "command validation failed")
}

func wrapContextError(err error) error {
	switch err {
	case context.Canceled:
		return classify(err, goerrors.CategoryCommand, commandContextCanceled, "command execution cancelled")
	case context.DeadlineExceeded:
		return classify(err, goerrors.CategoryCommand, commandContextTimeout, "command execution deadline exceeded")
	default:
		return classify(err, goerrors.CategoryCommand, commandContextErrorCode, "command context error")
	}
}

func wrapExecuteError(err error) error {
	return classify(err, goerrors.CategoryCommand, commandExecuteFailed, "command execution failed")
}
