package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blog/internal/markdown"
)

// Text codes attached to command failures.
const (
	codeInvalidMessage = "COMMAND_VALIDATION_FAILED"
	codeCanceled       = "COMMAND_CONTEXT_CANCELED"
	codeTimeout        = "COMMAND_CONTEXT_TIMEOUT"
	codeContext        = "COMMAND_CONTEXT_ERROR"
	codeFailed         = "COMMAND_EXECUTION_FAILED"
	codeInvalidPost    = "POST_VALIDATION_FAILED"
)

// tagged reports whether err needs no further wrapping: nil, or already
// categorised by an inner layer.
func tagged(err error) bool {
	return err == nil || goerrors.IsWrapped(err)
}

func wrapValidationError(err error) error {
	if tagged(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(codeInvalidMessage)
}

func wrapContextError(err error) error {
	if tagged(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(codeCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(codeTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(codeContext)
	}
}

// wrapExecuteError reports invalid posts as validation failures so callers
// can tell bad content from broken storage.
func wrapExecuteError(err error) error {
	if tagged(err) {
		return err
	}
	var parseErr *markdown.ParseError
	if errors.As(err, &parseErr) {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "post front matter is invalid").
			WithTextCode(codeInvalidPost)
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode(codeFailed)
}
