// Package metadata normalizes and validates raw header blocks into typed post fields.
package metadata

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cast"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// Recognized header keys.
const (
	KeyTitle       = "title"
	KeyDate        = "date"
	KeyUpdated     = "updated"
	KeyCategory    = "category"
	KeyTags        = "tags"
	KeyPinned      = "pinned"
	KeyAuthor      = "author"
	KeyDescription = "description"
)

var known = map[string]struct{}{
	KeyTitle: {}, KeyDate: {}, KeyUpdated: {}, KeyCategory: {},
	KeyTags: {}, KeyPinned: {}, KeyAuthor: {}, KeyDescription: {},
}

// dateLayouts are tried in order; anything with a time part is truncated to its date.
var dateLayouts = []string{
	models.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Defaults are substituted for absent optional fields.
type Defaults struct {
	Category string
	Author   string
}

// Fields is the validated, typed form of a header block.
type Fields struct {
	Title       string
	Date        time.Time
	Updated     time.Time
	Category    string
	Tags        []string
	Pinned      bool
	Author      string
	Description string
	Extra       map[string]any
}

// Validator turns raw header mappings into Fields. It holds no mutable state
// and is safe for concurrent use.
type Validator struct {
	defaults Defaults
}

// New returns a Validator using the given defaults.
func New(defaults Defaults) *Validator {
	return &Validator{defaults: defaults}
}

// Validate checks raw and returns its typed fields, or an *apperr.FieldError.
func (v *Validator) Validate(raw map[string]any) (*Fields, error) {
	f := &Fields{}

	title, err := validateTitle(raw)
	if err != nil {
		return nil, err
	}
	f.Title = title

	date, ok, err := parseDate(raw, KeyDate)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.MissingField(KeyDate)
	}
	f.Date = date

	if f.Updated, _, err = parseDate(raw, KeyUpdated); err != nil {
		return nil, err
	}

	if f.Category, err = optionalText(raw, KeyCategory, v.defaults.Category); err != nil {
		return nil, err
	}
	if f.Author, err = optionalText(raw, KeyAuthor, v.defaults.Author); err != nil {
		return nil, err
	}
	if f.Description, err = optionalText(raw, KeyDescription, ""); err != nil {
		return nil, err
	}

	if f.Tags, err = parseTags(raw[KeyTags]); err != nil {
		return nil, err
	}

	if f.Pinned, err = parsePinned(raw[KeyPinned]); err != nil {
		return nil, err
	}

	for k, val := range raw {
		if _, ok := known[k]; ok {
			continue
		}
		if f.Extra == nil {
			f.Extra = make(map[string]any)
		}
		f.Extra[k] = val
	}

	return f, nil
}

func validateTitle(raw map[string]any) (string, error) {
	val, ok := raw[KeyTitle]
	if !ok || val == nil {
		return "", apperr.MissingField(KeyTitle)
	}
	if isCollection(val) {
		return "", apperr.InvalidField(KeyTitle, "must be text")
	}
	s, err := cast.ToStringE(val)
	if err != nil {
		return "", apperr.InvalidField(KeyTitle, err.Error())
	}
	s = strings.TrimSpace(s)
	if err := validation.Validate(s, validation.Required); err != nil {
		return "", apperr.MissingField(KeyTitle)
	}
	return s, nil
}

// parseDate reports ok=false when key is absent or null.
func parseDate(raw map[string]any, key string) (time.Time, bool, error) {
	val, ok := raw[key]
	if !ok || val == nil {
		return time.Time{}, false, nil
	}
	switch d := val.(type) {
	case time.Time:
		return civil(d), true, nil
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return civil(t), true, nil
			}
		}
		return time.Time{}, false, apperr.InvalidField(key, fmt.Sprintf("%q is not a YYYY-MM-DD date", s))
	default:
		return time.Time{}, false, apperr.InvalidField(key, fmt.Sprintf("unsupported type %T", val))
	}
}

// civil drops the clock part, keeping the calendar date as written.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// optionalText returns fallback for absent, null, or blank values and fails on non-text.
func optionalText(raw map[string]any, key, fallback string) (string, error) {
	val, ok := raw[key]
	if !ok || val == nil {
		return fallback, nil
	}
	s, ok := val.(string)
	if !ok {
		return "", apperr.InvalidField(key, fmt.Sprintf("must be text, got %T", val))
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	return s, nil
}

// parseTags accepts a sequence, a comma-separated string, or a single scalar.
// Declaration order is kept and duplicates collapse onto their first occurrence.
func parseTags(val any) ([]string, error) {
	var items []any
	switch v := val.(type) {
	case nil:
		return []string{}, nil
	case []any:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			items = append(items, s)
		}
	case map[string]any:
		return nil, apperr.InvalidField(KeyTags, "must be a sequence of text")
	default:
		items = []any{v}
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if isCollection(item) {
			return nil, apperr.InvalidField(KeyTags, "nested values are not allowed")
		}
		s, err := cast.ToStringE(item)
		if err != nil {
			return nil, apperr.InvalidField(KeyTags, err.Error())
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

func parsePinned(val any) (bool, error) {
	if val == nil {
		return false, nil
	}
	if isCollection(val) {
		return false, apperr.InvalidField(KeyPinned, "must be a boolean")
	}
	if s, ok := val.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "on", "y":
			return true, nil
		case "no", "off", "n", "":
			return false, nil
		}
	}
	b, err := cast.ToBoolE(val)
	if err != nil {
		return false, apperr.InvalidField(KeyPinned, fmt.Sprintf("%v is not a boolean", val))
	}
	return b, nil
}

func isCollection(val any) bool {
	switch val.(type) {
	case []any, map[string]any, []string:
		return true
	}
	return false
}
