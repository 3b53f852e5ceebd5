package staticcmd

import (
	"context"
	"strings"

	command "github.com/goliatone/go-command"
)

// DefaultRebuildExpression is used when a scheduled rebuild is requested without an expression.
const DefaultRebuildExpression = "@hourly"

// ScheduledBuildOption customises the scheduled rebuild handler.
type ScheduledBuildOption func(*ScheduledBuildHandler)

// ScheduleWithExpression overrides the cron expression for scheduled rebuilds.
func ScheduleWithExpression(expression string) ScheduledBuildOption {
	return func(h *ScheduledBuildHandler) {
		if trimmed := strings.TrimSpace(expression); trimmed != "" {
			h.cronConfig.Expression = trimmed
		}
	}
}

// ScheduleWithOutputDir points scheduled rebuilds at an alternate output directory.
func ScheduleWithOutputDir(dir string) ScheduledBuildOption {
	return func(h *ScheduledBuildHandler) {
		h.outputDir = strings.TrimSpace(dir)
	}
}

// ScheduledBuildHandler binds full feed builds to a cron runner.
type ScheduledBuildHandler struct {
	build      *BuildFeedsHandler
	cronConfig command.HandlerConfig
	outputDir  string
}

// NewScheduledBuildHandler wraps build so it can be registered with a scheduler.
func NewScheduledBuildHandler(build *BuildFeedsHandler, opts ...ScheduledBuildOption) *ScheduledBuildHandler {
	h := &ScheduledBuildHandler{
		build: build,
		cronConfig: command.HandlerConfig{
			Expression: DefaultRebuildExpression,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Execute satisfies command.Commander[BuildFeedsCommand].
func (h *ScheduledBuildHandler) Execute(ctx context.Context, msg BuildFeedsCommand) error {
	if msg.OutputDir == "" {
		msg.OutputDir = h.outputDir
	}
	return h.build.Execute(ctx, msg)
}

// CronHandler satisfies command.CronCommand.
func (h *ScheduledBuildHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), BuildFeedsCommand{})
	}
}

// CronOptions satisfies command.CronCommand.
func (h *ScheduledBuildHandler) CronOptions() command.HandlerConfig {
	return h.cronConfig
}
