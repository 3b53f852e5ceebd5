package markdown

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	// ErrFrontMatterMissing is reported when a file has no front matter block.
	ErrFrontMatterMissing = errors.New("markdown: front matter block is required")
	// ErrFrontMatterInvalid is reported when front matter fails validation.
	ErrFrontMatterInvalid = errors.New("markdown: front matter is invalid")
	// ErrDuplicateURL is reported when two files resolve to the same post URL.
	ErrDuplicateURL = errors.New("markdown: post URL is already taken")
)

// Issue is a single front matter problem. Field uses dotted notation for
// nested values (e.g. "links.0.href").
type Issue struct {
	Field   string
	Message string
}

func (i Issue) String() string {
	if i.Field == "" {
		return i.Message
	}
	return i.Field + ": " + i.Message
}

// ParseError reports why a content file could not be turned into a post.
type ParseError struct {
	File   string
	Issues []Issue
	Cause  error
}

func (e *ParseError) Error() string {
	var builder strings.Builder
	builder.WriteString("markdown: parse")
	if e.File != "" {
		builder.WriteString(" ")
		builder.WriteString(e.File)
	}
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			builder.WriteString(": ")
			builder.WriteString(e.Cause.Error())
		}
		return builder.String()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	builder.WriteString(": ")
	builder.WriteString(strings.Join(parts, "; "))
	return builder.String()
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Issues extracts front matter issues from err, including every ParseError
// joined into it.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []Issue
		for _, inner := range joined.Unwrap() {
			out = append(out, Issues(inner)...)
		}
		return out
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) && parseErr != nil {
		if len(parseErr.Issues) == 0 && parseErr.Cause != nil {
			return []Issue{{Message: parseErr.Cause.Error()}}
		}
		return parseErr.Issues
	}
	return []Issue{{Message: err.Error()}}
}

func invalid(issues []Issue) *ParseError {
	return &ParseError{Issues: issues, Cause: ErrFrontMatterInvalid}
}

// flattenValidation converts ozzo validation errors into sorted issues.
func flattenValidation(prefix string, err error) []Issue {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return []Issue{{Field: prefix, Message: err.Error()}}
	}
	keys := make([]string, 0, len(errs))
	for key := range errs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var issues []Issue
	for _, key := range keys {
		field := key
		if prefix != "" {
			field = fmt.Sprintf("%s.%s", prefix, key)
		}
		issues = append(issues, flattenValidation(field, errs[key])...)
	}
	return issues
}
