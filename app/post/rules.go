package post

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules is the optional watch-rules file: keyword filters deciding which new
// posts are forwarded.
type Rules struct {
	Filters []Filter `yaml:"filters"`
}

type Filter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

var validFilterFields = map[string]bool{
	"title":   true,
	"author":  true,
	"tags":    true,
	"content": true,
}

// LoadRules reads the rules file. A missing file means no filtering.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return &Rules{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Rules{}, nil
		}
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	for i, filter := range rules.Filters {
		if !validFilterFields[filter.Field] {
			return nil, fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return nil, fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return &rules, nil
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run reports whether the post should be dropped, and why. Content and tag
// filters trigger the post's detail load; title and author filters do not.
func (f *Filterer) Run(ctx context.Context, p *Post, rules *Rules) (bool, string) {
	if rules == nil {
		return false, ""
	}

	for _, filter := range rules.Filters {
		value := f.fieldValue(ctx, p, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matches(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matches(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matches(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) fieldValue(ctx context.Context, p *Post, field string) string {
	switch field {
	case "title":
		return p.Title
	case "author":
		return p.Author
	case "tags":
		return strings.Join(p.Tags(ctx), " ")
	case "content":
		return p.Content(ctx)
	default:
		return ""
	}
}
