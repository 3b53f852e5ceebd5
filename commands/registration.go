package commands

import (
	"errors"
	"strings"

	command "github.com/goliatone/go-command"

	staticcmd "github.com/goliatone/go-blog/internal/commands/static"
	"github.com/goliatone/go-blog/internal/di"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// CronRegistrar registers command handlers with a cron scheduler.
type CronRegistrar func(command.HandlerConfig, any) error

// RegistrationOptions configures how handlers are registered during construction.
type RegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	CronRegistrar  CronRegistrar
	LoggerProvider interfaces.LoggerProvider
	// RebuildCron overrides generator.rebuild_cron. Scheduled rebuilds are only
	// registered when one of the two is set.
	RebuildCron string
}

// RegistrationResult captures the constructed command handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// RegisterContainerCommands collects the command handlers exposed by the provided container and
// optionally registers them with registry/dispatcher/cron integrations.
func RegisterContainerCommands(container *di.Container, opts RegistrationOptions) (*RegistrationResult, error) {
	if container == nil {
		return &RegistrationResult{}, nil
	}

	cfg := container.Config

	provider := opts.LoggerProvider
	if provider == nil {
		provider = container.LoggerProvider()
	}
	logger := logging.CommandsLogger(provider, "registration")

	if opts.Registry != nil && opts.CronRegistrar != nil {
		if reg, ok := opts.Registry.(interface {
			SetCronRegister(func(command.HandlerConfig, any) error) *command.Registry
		}); ok && reg != nil {
			reg.SetCronRegister(opts.CronRegistrar)
		}
	}

	result := &RegistrationResult{
		Handlers:      make([]any, 0, 4),
		Subscriptions: make([]CommandSubscription, 0),
	}

	var errs error

	register := func(handler any) {
		if handler == nil {
			return
		}
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}
	}

	if handler := container.BuildFeedsHandler(); handler != nil {
		register(handler)
	}
	if handler := container.CheckPostsHandler(); handler != nil {
		register(handler)
	}
	if handler := container.ListPostsHandler(); handler != nil {
		register(handler)
	}

	// Scheduled rebuilds only go to the cron registrar so a dispatched
	// BuildFeedsCommand is still handled exactly once.
	expression := strings.TrimSpace(opts.RebuildCron)
	if expression == "" {
		expression = strings.TrimSpace(cfg.Generator.RebuildCron)
	}
	if expression != "" && container.BuildFeedsHandler() != nil {
		scheduled := staticcmd.NewScheduledBuildHandler(
			container.BuildFeedsHandler(),
			staticcmd.ScheduleWithExpression(expression),
		)
		result.Handlers = append(result.Handlers, scheduled)
		if opts.CronRegistrar != nil {
			if err := opts.CronRegistrar(scheduled.CronOptions(), scheduled.CronHandler()); err != nil {
				errs = errors.Join(errs, err)
			}
		}
	}

	if len(result.Handlers) == 0 {
		return result, errors.New("no command handlers registered; ensure the generator is configured")
	}

	logger.Debug("commands.registered",
		"handlers", len(result.Handlers),
		"subscriptions", len(result.Subscriptions),
		"rebuild_cron", expression,
	)

	return result, errs
}
