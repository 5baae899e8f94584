package stream

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Event is one dispatched Server-Sent Event
type Event struct {
	Name string
	Data string
	ID   string
}

// SSEReader parses Server-Sent Events.
//
// Lines starting with ':' are comments. A blank line dispatches the pending
// event. Multiple data lines are joined with "\n". Unknown fields are ignored.
type SSEReader struct {
	reader *bufio.Reader
	name   string
	id     string
	data   []string
	seen   bool
}

// NewSSEReader wraps r
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{reader: bufio.NewReader(r)}
}

// Next returns the next event, or io.EOF when the stream ends cleanly
func (s *SSEReader) Next() (Event, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return Event{}, fmt.Errorf("error reading stream: %w", err)
		}
		eof := err == io.EOF

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if s.seen {
				return s.dispatch(), nil
			}
			if eof {
				return Event{}, io.EOF
			}
			continue
		}

		s.field(line)
		if eof {
			if s.seen {
				// Unterminated final event.
				return s.dispatch(), nil
			}
			return Event{}, io.EOF
		}
	}
}

func (s *SSEReader) field(line string) {
	if strings.HasPrefix(line, ":") {
		return
	}
	name, value, found := strings.Cut(line, ":")
	if found {
		value = strings.TrimPrefix(value, " ")
	}
	switch name {
	case "event":
		s.name = value
		s.seen = true
	case "data":
		s.data = append(s.data, value)
		s.seen = true
	case "id":
		s.id = value
	}
}

func (s *SSEReader) dispatch() Event {
	ev := Event{Name: s.name, Data: strings.Join(s.data, "\n"), ID: s.id}
	s.name = ""
	s.data = s.data[:0]
	s.seen = false
	return ev
}
