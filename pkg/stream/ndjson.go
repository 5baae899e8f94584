package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// NDJSONReader decodes newline-delimited JSON, one value per line
type NDJSONReader struct {
	reader *bufio.Reader
}

// NewNDJSONReader wraps r
func NewNDJSONReader(r io.Reader) *NDJSONReader {
	return &NDJSONReader{reader: bufio.NewReader(r)}
}

// Next decodes the next non-blank line into v. It returns io.EOF at the end
// of input and a *SyntaxError for a line that is not valid JSON.
func (n *NDJSONReader) Next(v any) error {
	for {
		line, err := n.reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("error reading stream: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			if uerr := json.Unmarshal(line, v); uerr != nil {
				return &SyntaxError{Line: string(line), Err: uerr}
			}
			return nil
		}
		if err == io.EOF {
			return io.EOF
		}
	}
}

// SyntaxError reports a frame that could not be decoded
type SyntaxError struct {
	Line string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("malformed stream frame %q: %v", truncate(e.Line, 120), e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
