package parser

import (
	"errors"
	"testing"

	"github.com/starford/folio/internal/apperr"
)

func TestSplit_HeaderAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ntags:\n  - go\n  - folio\n---\n# Hello\nBody text.\n")
	doc, err := Split(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.HasHeader {
		t.Error("expected HasHeader")
	}
	if doc.Header["title"] != "Hello" {
		t.Errorf("title = %v, want Hello", doc.Header["title"])
	}
	tags, ok := doc.Header["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "go" || tags[1] != "folio" {
		t.Errorf("tags = %#v", doc.Header["tags"])
	}
	if doc.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", doc.Body)
	}
}

func TestSplit_NoHeader(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	doc, err := Split(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.HasHeader {
		t.Error("expected no header")
	}
	if len(doc.Header) != 0 {
		t.Errorf("expected empty header, got %v", doc.Header)
	}
	if doc.Body != string(input) {
		t.Errorf("body = %q", doc.Body)
	}
}

func TestSplit_CRLF(t *testing.T) {
	input := []byte("---\r\ntitle: Windows\r\n---\r\nBody\r\n")
	doc, err := Split(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Header["title"] != "Windows" {
		t.Errorf("title = %v", doc.Header["title"])
	}
	if doc.Body != "Body\r\n" {
		t.Errorf("body = %q", doc.Body)
	}
}

func TestSplit_EmptyHeader(t *testing.T) {
	doc, err := Split([]byte("---\n---\nBody\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.HasHeader || len(doc.Header) != 0 {
		t.Errorf("header = %v, HasHeader = %v", doc.Header, doc.HasHeader)
	}
}

func TestSplit_Unterminated(t *testing.T) {
	_, err := Split([]byte("---\ntitle: Hello\nno closing fence\n"))
	if !errors.Is(err, apperr.ErrMalformedHeader) {
		t.Fatalf("err = %v, want ErrMalformedHeader", err)
	}
}

func TestSplit_InvalidYAML(t *testing.T) {
	_, err := Split([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if !errors.Is(err, apperr.ErrMalformedHeader) {
		t.Fatalf("err = %v, want ErrMalformedHeader", err)
	}
}

func TestSplit_NotAMapping(t *testing.T) {
	_, err := Split([]byte("---\n- one\n- two\n---\nBody\n"))
	if !errors.Is(err, apperr.ErrMalformedHeader) {
		t.Fatalf("err = %v, want ErrMalformedHeader", err)
	}
}

func TestSplit_UnknownKeysPreserved(t *testing.T) {
	doc, err := Split([]byte("---\ntitle: T\nmood: sunny\n---\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Header["mood"] != "sunny" {
		t.Errorf("mood = %v", doc.Header["mood"])
	}
}
