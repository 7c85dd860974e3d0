package metadata

import (
	"errors"
	"testing"
	"time"

	"github.com/starford/folio/internal/apperr"
)

func newValidator() *Validator {
	return New(Defaults{Category: "uncategorized", Author: "site author"})
}

func fieldErr(t *testing.T, err error) *apperr.FieldError {
	t.Helper()
	var fe *apperr.FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *apperr.FieldError", err)
	}
	return fe
}

func TestValidate_Minimal(t *testing.T) {
	f, err := newValidator().Validate(map[string]any{"title": "Hello", "date": "2026-01-05"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Title != "Hello" {
		t.Errorf("title = %q", f.Title)
	}
	want := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	if !f.Date.Equal(want) {
		t.Errorf("date = %v, want %v", f.Date, want)
	}
	if f.Category != "uncategorized" {
		t.Errorf("category = %q, want default", f.Category)
	}
	if f.Author != "site author" {
		t.Errorf("author = %q, want default", f.Author)
	}
	if f.Tags == nil || len(f.Tags) != 0 {
		t.Errorf("tags = %#v, want empty non-nil", f.Tags)
	}
	if f.Pinned {
		t.Error("pinned should default to false")
	}
}

func TestValidate_MissingTitle(t *testing.T) {
	for _, raw := range []map[string]any{
		{"date": "2026-01-01"},
		{"title": "", "date": "2026-01-01"},
		{"title": "   ", "date": "2026-01-01"},
		{"title": nil, "date": "2026-01-01"},
	} {
		_, err := newValidator().Validate(raw)
		fe := fieldErr(t, err)
		if fe.Field != "title" || !errors.Is(err, apperr.ErrMissingField) {
			t.Errorf("raw %v: err = %v, want MissingField(title)", raw, err)
		}
	}
}

func TestValidate_MissingDate(t *testing.T) {
	_, err := newValidator().Validate(map[string]any{"title": "x"})
	fe := fieldErr(t, err)
	if fe.Field != "date" || !errors.Is(err, apperr.ErrMissingField) {
		t.Errorf("err = %v, want MissingField(date)", err)
	}
}

func TestValidate_InvalidDate(t *testing.T) {
	for _, d := range []any{"yesterday", "2026-13-40", 20260101} {
		_, err := newValidator().Validate(map[string]any{"title": "x", "date": d})
		fe := fieldErr(t, err)
		if fe.Field != "date" || !errors.Is(err, apperr.ErrInvalidField) {
			t.Errorf("date %v: err = %v, want InvalidField(date)", d, err)
		}
	}
}

func TestValidate_DateForms(t *testing.T) {
	want := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	for _, d := range []any{
		"2026-03-04",
		"2026-03-04T10:20:30Z",
		"2026-03-04 10:20",
		time.Date(2026, 3, 4, 23, 0, 0, 0, time.FixedZone("x", 3600)),
	} {
		f, err := newValidator().Validate(map[string]any{"title": "x", "date": d})
		if err != nil {
			t.Fatalf("date %v: %v", d, err)
		}
		if !f.Date.Equal(want) {
			t.Errorf("date %v parsed as %v", d, f.Date)
		}
	}
}

func TestValidate_CategoryNotText(t *testing.T) {
	_, err := newValidator().Validate(map[string]any{"title": "x", "date": "2026-01-01", "category": 42})
	fe := fieldErr(t, err)
	if fe.Field != "category" || !errors.Is(err, apperr.ErrInvalidField) {
		t.Errorf("err = %v, want InvalidField(category)", err)
	}
}

func TestValidate_Tags(t *testing.T) {
	f, err := newValidator().Validate(map[string]any{
		"title": "x", "date": "2026-01-01",
		"tags": []any{"go", 2026, "go", " web ", true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"go", "2026", "web", "true"}
	if len(f.Tags) != len(want) {
		t.Fatalf("tags = %v, want %v", f.Tags, want)
	}
	for i := range want {
		if f.Tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, f.Tags[i], want[i])
		}
	}
}

func TestValidate_TagsCommaString(t *testing.T) {
	f, err := newValidator().Validate(map[string]any{"title": "x", "date": "2026-01-01", "tags": "a, b,a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Tags) != 2 || f.Tags[0] != "a" || f.Tags[1] != "b" {
		t.Errorf("tags = %v, want [a b]", f.Tags)
	}
}

func TestValidate_TagsNested(t *testing.T) {
	_, err := newValidator().Validate(map[string]any{
		"title": "x", "date": "2026-01-01",
		"tags": []any{map[string]any{"k": "v"}},
	})
	if !errors.Is(err, apperr.ErrInvalidField) {
		t.Errorf("err = %v, want InvalidField(tags)", err)
	}
}

func TestValidate_Pinned(t *testing.T) {
	cases := map[any]bool{
		true:    true,
		false:   false,
		"true":  true,
		"false": false,
		"yes":   true,
		"no":    false,
		1:       true,
		0:       false,
	}
	for in, want := range cases {
		f, err := newValidator().Validate(map[string]any{"title": "x", "date": "2026-01-01", "pinned": in})
		if err != nil {
			t.Fatalf("pinned %v: %v", in, err)
		}
		if f.Pinned != want {
			t.Errorf("pinned %v = %v, want %v", in, f.Pinned, want)
		}
	}
}

func TestValidate_PinnedInvalid(t *testing.T) {
	for _, in := range []any{"sometimes", []any{true}} {
		_, err := newValidator().Validate(map[string]any{"title": "x", "date": "2026-01-01", "pinned": in})
		fe := fieldErr(t, err)
		if fe.Field != "pinned" || !errors.Is(err, apperr.ErrInvalidField) {
			t.Errorf("pinned %v: err = %v, want InvalidField(pinned)", in, err)
		}
	}
}

func TestValidate_ExtraKeysPreserved(t *testing.T) {
	f, err := newValidator().Validate(map[string]any{"title": "x", "date": "2026-01-01", "mood": "sunny"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Extra["mood"] != "sunny" {
		t.Errorf("extra = %v", f.Extra)
	}
	if _, ok := f.Extra["title"]; ok {
		t.Error("recognized keys should not appear in Extra")
	}
}

func TestValidate_NumericTitleCoerced(t *testing.T) {
	f, err := newValidator().Validate(map[string]any{"title": 1984, "date": "2026-01-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Title != "1984" {
		t.Errorf("title = %q", f.Title)
	}
}
