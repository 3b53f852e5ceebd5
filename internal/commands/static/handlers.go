package staticcmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/feeds"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// BuildFeedsHandler runs generator builds using the shared command handler foundation.
type BuildFeedsHandler struct {
	inner *commands.Handler[BuildFeedsCommand]
}

// NewBuildFeedsHandler constructs a handler wired to the provided generator service.
// observer may be nil.
func NewBuildFeedsHandler(service generator.Service, logger interfaces.Logger, observer BuildObserver, opts ...commands.HandlerOption[BuildFeedsCommand]) *BuildFeedsHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg BuildFeedsCommand) error {
		if service == nil {
			return generator.ErrLoaderRequired
		}
		result, err := service.Build(ctx, generator.BuildOptions{
			DryRun:    msg.DryRun,
			OutputDir: strings.TrimSpace(msg.OutputDir),
		})
		if observer != nil {
			observer.ObserveBuild(result, err)
		}
		if err != nil {
			return err
		}
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Result: result,
			Metadata: map[string]any{
				"operation": "build",
			},
		})
		return nil
	}

	handlerOpts := []commands.HandlerOption[BuildFeedsCommand]{
		commands.WithLogger[BuildFeedsCommand](baseLogger),
		commands.WithOperation[BuildFeedsCommand]("feeds.build"),
		commands.WithMessageFields(func(msg BuildFeedsCommand) map[string]any {
			fields := map[string]any{}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			if msg.OutputDir != "" {
				fields["output_dir"] = msg.OutputDir
			}
			return fields
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildFeedsHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[BuildFeedsCommand].
func (h *BuildFeedsHandler) Execute(ctx context.Context, msg BuildFeedsCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CheckPostsHandler performs a dry-run build so every post is parsed and validated.
type CheckPostsHandler struct {
	inner *commands.Handler[CheckPostsCommand]
}

// NewCheckPostsHandler constructs a handler that validates content without writing.
func NewCheckPostsHandler(service generator.Service, logger interfaces.Logger, opts ...commands.HandlerOption[CheckPostsCommand]) *CheckPostsHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg CheckPostsCommand) error {
		if service == nil {
			return generator.ErrLoaderRequired
		}
		result, err := service.Build(ctx, generator.BuildOptions{DryRun: true})
		if err != nil {
			return err
		}
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Result: result,
			Metadata: map[string]any{
				"operation": "check",
				"posts":     len(result.Posts),
			},
		})
		return nil
	}

	handlerOpts := []commands.HandlerOption[CheckPostsCommand]{
		commands.WithLogger[CheckPostsCommand](baseLogger),
		commands.WithOperation[CheckPostsCommand]("posts.check"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CheckPostsHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CheckPostsCommand].
func (h *CheckPostsHandler) Execute(ctx context.Context, msg CheckPostsCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ListPostsHandler returns per-category listings through the result callback.
type ListPostsHandler struct {
	inner *commands.Handler[ListPostsCommand]
}

// NewListPostsHandler constructs a handler that reports listings without writing.
func NewListPostsHandler(service generator.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ListPostsCommand]) *ListPostsHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg ListPostsCommand) error {
		if service == nil {
			return generator.ErrLoaderRequired
		}
		result, err := service.Build(ctx, generator.BuildOptions{DryRun: true})
		if err != nil {
			return err
		}
		if msg.Category != "" {
			listing, ok := posts.ListingFor(result.Listings, msg.Category)
			if !ok {
				return fmt.Errorf("%w: %q", feeds.ErrUnknownCategory, msg.Category)
			}
			result.Listings = []posts.Listing{listing}
		}
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Result: result,
			Metadata: map[string]any{
				"operation": "list",
				"category":  msg.Category,
			},
		})
		return nil
	}

	handlerOpts := []commands.HandlerOption[ListPostsCommand]{
		commands.WithLogger[ListPostsCommand](baseLogger),
		commands.WithOperation[ListPostsCommand]("posts.list"),
		commands.WithMessageFields(func(msg ListPostsCommand) map[string]any {
			if msg.Category == "" {
				return nil
			}
			return map[string]any{"category": msg.Category}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ListPostsHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ListPostsCommand].
func (h *ListPostsHandler) Execute(ctx context.Context, msg ListPostsCommand) error {
	return h.inner.Execute(ctx, msg)
}

func invokeCallback(cb ResultCallback, env ResultEnvelope) {
	if cb == nil {
		return
	}
	cb(env)
}
