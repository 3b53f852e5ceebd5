package markdown

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-blog/internal/categories"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// dateLayouts lists the accepted date formats, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseFrontMatter extracts and validates the front matter header of source.
// It returns the typed metadata and the Markdown body without delimiters.
// Failures are reported as *ParseError.
func ParseFrontMatter(source []byte, catalog *categories.Catalog) (interfaces.FrontMatter, []byte, error) {
	var raw map[string]any
	body, err := frontmatter.MustParse(bytes.NewReader(source), &raw)
	if err != nil {
		if errors.Is(err, frontmatter.ErrNotFound) {
			return interfaces.FrontMatter{}, nil, &ParseError{Cause: ErrFrontMatterMissing}
		}
		return interfaces.FrontMatter{}, nil, &ParseError{Cause: fmt.Errorf("%w: %v", ErrFrontMatterInvalid, err)}
	}
	if raw == nil {
		raw = map[string]any{}
	}

	encoded, issues, err := checkShape(raw)
	if err != nil {
		return interfaces.FrontMatter{}, nil, err
	}
	if len(issues) > 0 {
		return interfaces.FrontMatter{}, nil, invalid(issues)
	}

	var env frontMatterEnvelope
	if err := json.Unmarshal(encoded, &env); err != nil {
		return interfaces.FrontMatter{}, nil, &ParseError{Cause: fmt.Errorf("%w: %v", ErrFrontMatterInvalid, err)}
	}
	env.trim()

	if issues := env.validate(catalog); len(issues) > 0 {
		return interfaces.FrontMatter{}, nil, invalid(issues)
	}

	return env.toFrontMatter(), body, nil
}

type frontMatterEnvelope struct {
	Title       string            `json:"title"`
	Category    string            `json:"category"`
	Date        string            `json:"date"`
	Description string            `json:"description"`
	Image       string            `json:"image"`
	ImageSrc    string            `json:"imageSrc"`
	Author      string            `json:"author"`
	Location    string            `json:"location"`
	StartDate   string            `json:"startDate"`
	EndDate     string            `json:"endDate"`
	Links       []interfaces.Link `json:"links"`
	Draft       bool              `json:"draft"`
}

func (env *frontMatterEnvelope) trim() {
	env.Title = strings.TrimSpace(env.Title)
	env.Category = strings.TrimSpace(env.Category)
	env.Date = strings.TrimSpace(env.Date)
	env.Description = strings.TrimSpace(env.Description)
	env.Image = strings.TrimSpace(env.Image)
	env.ImageSrc = strings.TrimSpace(env.ImageSrc)
	if env.Image == "" {
		env.Image = env.ImageSrc
	}
	env.Author = strings.TrimSpace(env.Author)
	env.Location = strings.TrimSpace(env.Location)
	env.StartDate = strings.TrimSpace(env.StartDate)
	env.EndDate = strings.TrimSpace(env.EndDate)
	for i := range env.Links {
		env.Links[i].Label = strings.TrimSpace(env.Links[i].Label)
		env.Links[i].Href = strings.TrimSpace(env.Links[i].Href)
	}
}

func (env *frontMatterEnvelope) validate(catalog *categories.Catalog) []Issue {
	err := validation.ValidateStruct(env,
		validation.Field(&env.Title, validation.Required),
		validation.Field(&env.Category, validation.Required, validation.By(knownCategory(catalog))),
		validation.Field(&env.Date, validation.Required, validation.By(parseableDate)),
		validation.Field(&env.StartDate, validation.By(parseableDate)),
		validation.Field(&env.EndDate, validation.By(parseableDate)),
		validation.Field(&env.Links, validation.Each(validation.By(completeLink))),
	)
	issues := flattenValidation("", err)

	if env.ImageSrc != "" && env.Image != env.ImageSrc {
		issues = append(issues, Issue{Field: "imageSrc", Message: "conflicts with image"})
	}

	if env.StartDate != "" && env.EndDate != "" {
		start, startErr := parseDate(env.StartDate)
		end, endErr := parseDate(env.EndDate)
		if startErr == nil && endErr == nil && end.Before(start) {
			issues = append(issues, Issue{Field: "endDate", Message: "must not be before startDate"})
		}
	}
	return issues
}

func (env *frontMatterEnvelope) toFrontMatter() interfaces.FrontMatter {
	date, _ := parseDate(env.Date)
	start, _ := parseDate(env.StartDate)
	end, _ := parseDate(env.EndDate)

	var links []interfaces.Link
	if len(env.Links) > 0 {
		links = append([]interfaces.Link(nil), env.Links...)
	}

	return interfaces.FrontMatter{
		Title:       env.Title,
		Category:    env.Category,
		Date:        date,
		Description: env.Description,
		Image:       env.Image,
		Author:      env.Author,
		Location:    env.Location,
		StartDate:   start,
		EndDate:     end,
		Links:       links,
		Draft:       env.Draft,
	}
}

func knownCategory(catalog *categories.Catalog) validation.RuleFunc {
	return func(value any) error {
		label, _ := value.(string)
		if label == "" {
			return nil
		}
		if !catalog.HasLabel(label) {
			return validation.NewError("blog.post.category_unknown", fmt.Sprintf("unknown category %q", label))
		}
		return nil
	}
}

func parseableDate(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	if _, err := parseDate(raw); err != nil {
		return validation.NewError("blog.post.date_invalid", fmt.Sprintf("unrecognised date %q", raw))
	}
	return nil
}

func completeLink(value any) error {
	link, ok := value.(interfaces.Link)
	if !ok {
		return nil
	}
	return validation.ValidateStruct(&link,
		validation.Field(&link.Label, validation.Required),
		validation.Field(&link.Href, validation.Required),
	)
}

// parseDate accepts the layouts in dateLayouts. Dates without a zone are UTC.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
