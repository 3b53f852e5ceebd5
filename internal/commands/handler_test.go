package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

type testMessage struct{}

func (testMessage) Type() string { return "blog.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "blog.test.invalid" }

func (invalidMessage) Validate() error {
	return validationError()
}

func validationError() error {
	return errors.New("invalid")
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected wrapped execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !goerrors.HasCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category to propagate, got %v", err)
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
}

func TestHandlerClassifiesPostErrorsAsValidation(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return fmt.Errorf("generator: load posts: %w", &markdown.ParseError{
			File:  "2024-01-01-bad.md",
			Cause: markdown.ErrFrontMatterInvalid,
		})
	})

	err := h.Execute(context.Background(), testMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	var parseErr *markdown.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError to stay reachable, got %v", err)
	}
}

type fieldMessage struct {
	Name string
}

func (fieldMessage) Type() string { return "blog.test.fields" }

func (fieldMessage) Validate() error { return nil }

type fieldLogger struct {
	fields []map[string]any
}

func (l *fieldLogger) Trace(string, ...any) {}
func (l *fieldLogger) Debug(string, ...any) {}
func (l *fieldLogger) Info(string, ...any)  {}
func (l *fieldLogger) Warn(string, ...any)  {}
func (l *fieldLogger) Error(string, ...any) {}
func (l *fieldLogger) Fatal(string, ...any) {}

func (l *fieldLogger) WithFields(fields map[string]any) interfaces.Logger {
	l.fields = append(l.fields, fields)
	return l
}

func (l *fieldLogger) WithContext(context.Context) interfaces.Logger { return l }

func TestHandlerMessageFieldsAndTelemetry(t *testing.T) {
	logger := &fieldLogger{}
	var reported TelemetryInfo
	h := NewHandler[fieldMessage](func(ctx context.Context, msg fieldMessage) error {
		return nil
	},
		WithLogger[fieldMessage](logger),
		WithOperation[fieldMessage]("feeds.build"),
		WithMessageFields(func(msg fieldMessage) map[string]any {
			return map[string]any{"name": msg.Name}
		}),
		WithTelemetry(func(_ context.Context, _ fieldMessage, info TelemetryInfo) {
			reported = info
		}),
	)

	if err := h.Execute(context.Background(), fieldMessage{Name: "nightly"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(logger.fields) == 0 || logger.fields[0]["name"] != "nightly" || logger.fields[0]["operation"] != "feeds.build" {
		t.Fatalf("expected message fields on logger, got %v", logger.fields)
	}
	if reported.Status != TelemetryStatusSuccess || reported.Command != "blog.test.fields" {
		t.Fatalf("unexpected telemetry %+v", reported)
	}
}

type outcomeLogger struct {
	fieldLogger
	infos    []string
	failures []string
}

func (l *outcomeLogger) Info(msg string, _ ...any)  { l.infos = append(l.infos, msg) }
func (l *outcomeLogger) Error(msg string, _ ...any) { l.failures = append(l.failures, msg) }

func (l *outcomeLogger) WithFields(map[string]any) interfaces.Logger { return l }

func TestHandlerLogsOutcomeWithoutTelemetry(t *testing.T) {
	logger := &outcomeLogger{}
	ok := NewHandler[testMessage](func(context.Context, testMessage) error { return nil },
		WithLogger[testMessage](logger))
	failing := NewHandler[testMessage](func(context.Context, testMessage) error { return errors.New("disk full") },
		WithLogger[testMessage](logger))

	if err := ok.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if err := failing.Execute(context.Background(), testMessage{}); err == nil {
		t.Fatal("expected failure")
	}
	if len(logger.infos) != 1 || logger.infos[0] != "command.execute.success" {
		t.Fatalf("expected success entry, got %v", logger.infos)
	}
	if len(logger.failures) != 1 || logger.failures[0] != "command.execute.failed" {
		t.Fatalf("expected failure entry, got %v", logger.failures)
	}
}
