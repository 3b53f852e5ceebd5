package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

const (
	rootModule      = "blog"
	markdownModule  = "blog.markdown"
	metricsModule   = "blog.metrics"
	generatorModule = "blog.generator"
	watcherModule   = "blog.watcher"
	commandsModule  = "blog.commands"
)

const (
	fieldPostFile  = "post_file"
	fieldCategory  = "category"
	fieldOutput    = "output_path"
	fieldBuildStep = "build_step"
)

// ModuleLogger asks provider for the module's logger and tags it with
// module=<name>. A nil provider yields the no-op logger.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// MarkdownLogger returns the logger namespace reserved for the post loader.
func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

// MetricsLogger returns the logger namespace reserved for build metrics.
func MetricsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, metricsModule)
}

// GeneratorLogger returns the logger namespace reserved for the page builder.
func GeneratorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, generatorModule)
}

// WatcherLogger returns the logger namespace reserved for the rebuild watcher.
func WatcherLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, watcherModule)
}

// CommandsLogger returns the logger for one command group, e.g. "feeds"
// becomes "blog.commands.feeds". Entries carry component=command.
func CommandsLogger(provider interfaces.LoggerProvider, group string) interfaces.Logger {
	module := commandsModule
	if group = strings.TrimSpace(group); group != "" {
		module += "." + group
	}
	return WithFields(ModuleLogger(provider, module), map[string]any{
		"component": "command",
	})
}

// WithPostContext enriches the provided logger with the post file and
// category. Empty values are ignored.
func WithPostContext(logger interfaces.Logger, file, category string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(file); trimmed != "" {
		fields[fieldPostFile] = trimmed
	}
	if trimmed := strings.TrimSpace(category); trimmed != "" {
		fields[fieldCategory] = trimmed
	}
	return WithFields(logger, fields)
}

// WithArtifactContext tags entries with the output path and build step that
// produced it.
func WithArtifactContext(logger interfaces.Logger, output, step string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(output); trimmed != "" {
		fields[fieldOutput] = trimmed
	}
	if trimmed := strings.TrimSpace(step); trimmed != "" {
		fields[fieldBuildStep] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
