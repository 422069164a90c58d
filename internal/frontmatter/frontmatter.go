// Package frontmatter splits and parses the YAML metadata block that may
// prefix a content file.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// metadata delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("metadata start delimiter found but closing delimiter is missing")

// Split separates the YAML metadata block (`---` delimited) from the body.
//
// If the document does not start with a delimiter line, had is false and body
// is the full input. A closing delimiter at end of file (no trailing newline)
// is accepted; the body is then empty.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		// Empty metadata block.
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	if idx := bytes.Index(rest, closeSeq); idx >= 0 {
		return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
	}

	closeEOF := []byte(nl + "---")
	if bytes.HasSuffix(rest, closeEOF) {
		return rest[:len(rest)-3], nil, true, nil
	}

	return nil, nil, false, ErrMissingClosingDelimiter
}

// ParseYAML parses a raw metadata block (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(frontmatter) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Parse splits content and parses its metadata block in one step.
//
// Documents without a metadata block yield an empty map and the full input as
// body. Parse fails on an unclosed delimiter or unparseable YAML.
func Parse(content []byte) (map[string]any, []byte, error) {
	fm, body, had, err := Split(content)
	if err != nil {
		return nil, nil, err
	}
	if !had {
		return map[string]any{}, body, nil
	}

	fields, err := ParseYAML(fm)
	if err != nil {
		return nil, nil, err
	}
	return fields, body, nil
}

func detectNewline(content []byte) string {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}
