// Package parser splits a source document into its YAML header block and body.
package parser

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/starford/folio/internal/apperr"
)

const delim = "---"

// Header is the raw key/value mapping decoded from a header block.
type Header map[string]any

// Document holds the output of splitting a source file.
type Document struct {
	Header Header
	Body   string
	// HasHeader is false when the file does not open with a fence line.
	HasHeader bool
}

// Split separates the header block (between leading --- fence lines) from the
// body. A file that does not start with a fence has an empty header and the
// whole content as body. An opening fence with no closing fence, or a block
// that is not a YAML mapping, yields apperr.ErrMalformedHeader.
func Split(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	trimmed := bytes.TrimLeft(data, "\n\r")

	first, afterOpen := cutLine(trimmed)
	if !isFence(first) {
		return &Document{Header: Header{}, Body: string(data)}, nil
	}

	for pos := afterOpen; len(pos) > 0; {
		line, next := cutLine(pos)
		if isFence(line) {
			block := afterOpen[:len(afterOpen)-len(pos)]
			hdr, err := decode(block)
			if err != nil {
				return nil, err
			}
			body := bytes.TrimLeft(next, "\n\r")
			return &Document{Header: hdr, Body: string(body), HasHeader: true}, nil
		}
		pos = next
	}
	return nil, fmt.Errorf("%w: unterminated %q fence", apperr.ErrMalformedHeader, delim)
}

func isFence(line []byte) bool {
	return string(bytes.TrimRight(line, " \t")) == delim
}

func decode(block []byte) (Header, error) {
	if len(bytes.TrimSpace(block)) == 0 {
		return Header{}, nil
	}
	var node yaml.Node
	if err := yaml.Unmarshal(block, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMalformedHeader, err)
	}
	if len(node.Content) == 0 {
		return Header{}, nil
	}
	if node.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: header is not a key/value mapping", apperr.ErrMalformedHeader)
	}
	hdr := Header{}
	if err := node.Decode(&hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMalformedHeader, err)
	}
	return hdr, nil
}

// cutLine returns the first line of b (without its terminator) and the remainder.
func cutLine(b []byte) (line, rest []byte) {
	line, rest, _ = bytes.Cut(b, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), rest
}
