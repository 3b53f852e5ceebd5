package staticcmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-blog/internal/generator"
)

const (
	buildFeedsMessageType = "blog.feeds.build"
	checkPostsMessageType = "blog.posts.check"
	listPostsMessageType  = "blog.posts.list"
)

// ResultCallback receives build results produced by generator operations. The callback is optional
// and is invoked synchronously from the handler when a BuildResult is available.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope captures the outcome of a command execution that generated a BuildResult.
type ResultEnvelope struct {
	Result   *generator.BuildResult
	Metadata map[string]any
}

// BuildObserver is notified after every build attempt.
type BuildObserver interface {
	ObserveBuild(result *generator.BuildResult, err error)
}

// BuildFeedsCommand runs a full build and writes every feed.
type BuildFeedsCommand struct {
	DryRun         bool           `json:"dry_run,omitempty"`
	OutputDir      string         `json:"output_dir,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildFeedsCommand) Type() string { return buildFeedsMessageType }

// Validate rejects output directories that are only whitespace or escape upwards.
func (m BuildFeedsCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.OutputDir, validation.By(outputDirRule)),
	)
}

// CheckPostsCommand loads and validates every post without writing.
type CheckPostsCommand struct {
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (CheckPostsCommand) Type() string { return checkPostsMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (CheckPostsCommand) Validate() error { return nil }

// ListPostsCommand reports the listing for a category key, or every listing
// when Category is empty.
type ListPostsCommand struct {
	Category       string         `json:"category,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (ListPostsCommand) Type() string { return listPostsMessageType }

// Validate ensures the category is a URL-safe key.
func (m ListPostsCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Category, validation.By(categoryKeyRule)),
	)
}

func outputDirRule(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return validation.NewError("blog.feeds.build.output_blank", "output_dir must not be blank")
	}
	for _, segment := range strings.Split(strings.ReplaceAll(trimmed, "\\", "/"), "/") {
		if segment == ".." {
			return validation.NewError("blog.feeds.build.output_parent", "output_dir must not contain '..'")
		}
	}
	return nil
}

func categoryKeyRule(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	if !slug.IsValid(raw) {
		return validation.NewError("blog.posts.list.category_invalid", "category must be a valid category key")
	}
	return nil
}
