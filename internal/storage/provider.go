// Package storage defines the file-system abstraction for source documents and build output.
package storage

// Entry is one enumerated source document.
type Entry struct {
	// Path is relative to the provider root, slash-separated.
	Path string
	// Name is the base file name including its extension.
	Name string
}

// Source enumerates and reads source documents.
type Source interface {
	// List returns matching documents sorted by path.
	List(opts ListOptions) ([]Entry, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
}

// Sink receives generated output.
type Sink interface {
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
}

// Provider is both a Source and a Sink.
type Provider interface {
	Source
	Sink
}
