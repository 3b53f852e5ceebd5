package markdown

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// frontMatterSchema constrains the shape of front matter values. Presence of
// required keys and their semantics are checked by ozzo rules afterwards so
// that issues read naturally ("title: cannot be blank").
const frontMatterSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "title":       {"type": "string"},
    "category":    {"type": "string"},
    "date":        {"type": "string"},
    "description": {"type": "string"},
    "image":       {"type": "string"},
    "imageSrc":    {"type": "string"},
    "author":      {"type": "string"},
    "location":    {"type": "string"},
    "startDate":   {"type": "string"},
    "endDate":     {"type": "string"},
    "draft":       {"type": "boolean"},
    "links": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["label", "href"],
        "properties": {
          "label": {"type": "string"},
          "href":  {"type": "string"}
        }
      }
    }
  }
}`

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

func frontMatterValidator() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("frontmatter.json", strings.NewReader(frontMatterSchema)); err != nil {
			compiledSchemaErr = err
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile("frontmatter.json")
	})
	return compiledSchema, compiledSchemaErr
}

// checkShape validates the raw front matter document and returns the JSON
// encoding used to decode the typed envelope.
func checkShape(raw map[string]any) ([]byte, []Issue, error) {
	encoded, err := json.Marshal(normalizeValue(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("markdown: encode front matter: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("markdown: decode front matter: %w", err)
	}

	schema, err := frontMatterValidator()
	if err != nil {
		return nil, nil, fmt.Errorf("markdown: compile front matter schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return encoded, collectSchemaIssues(validationErr), nil
		}
		return nil, nil, err
	}
	return encoded, nil, nil
}

func collectSchemaIssues(err *jsonschema.ValidationError) []Issue {
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Field:   pointerToField(node.InstanceLocation),
				Message: strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}

// pointerToField turns a JSON pointer ("/links/0/href") into dotted form.
func pointerToField(pointer string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(pointer), "#")
	trimmed = strings.Trim(trimmed, "/")
	return strings.ReplaceAll(trimmed, "/", ".")
}

// normalizeValue converts YAML/TOML decoded values into JSON compatible ones.
// Timestamps become strings so they pass through the same date parsing as
// quoted values.
func normalizeValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, inner := range typed {
			out[key] = normalizeValue(inner)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, inner := range typed {
			out[fmt.Sprint(key)] = normalizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, inner := range typed {
			out[i] = normalizeValue(inner)
		}
		return out
	case []map[string]any:
		out := make([]any, len(typed))
		for i, inner := range typed {
			out[i] = normalizeValue(inner)
		}
		return out
	case time.Time:
		return formatTimestamp(typed)
	default:
		return value
	}
}

func formatTimestamp(ts time.Time) string {
	if ts.Hour() == 0 && ts.Minute() == 0 && ts.Second() == 0 && ts.Nanosecond() == 0 && ts.Location() == time.UTC {
		return ts.Format(time.DateOnly)
	}
	return ts.Format(time.RFC3339)
}
