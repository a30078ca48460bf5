package topic

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Topic is the stable string tag identifying the kind of an event.
// Examples: "session.started", "cache.entry.evicted", "foo"
type Topic string

// Separator is the character used to separate topic segments.
const Separator = "."

// Validation errors.
var (
	// ErrEmpty is returned for an empty topic.
	ErrEmpty = errors.New("topic is empty")

	// ErrMalformed is returned for a topic that is not a valid tag.
	ErrMalformed = errors.New("topic is malformed")
)

// reserved holds characters that other buses use as wildcards. They are
// rejected so that a tag never looks like a pattern.
const reserved = "*#>"

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Segments returns the topic split by the separator.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), Separator)
}

// SegmentCount returns the number of segments in the topic.
func (t Topic) SegmentCount() int {
	if t == "" {
		return 0
	}
	return strings.Count(string(t), Separator) + 1
}

// Base returns the last segment of the topic.
//
// Example: "cache.entry.evicted" -> "evicted"
func (t Topic) Base() string {
	s := string(t)
	idx := strings.LastIndex(s, Separator)
	if idx < 0 {
		return s
	}
	return s[idx+1:]
}

// IsValid returns true if the topic is a valid tag.
func (t Topic) IsValid() bool {
	return t.Validate() == nil
}

// Validate checks that the topic is a valid tag.
// A valid tag:
//   - Is not empty
//   - Does not start or end with a separator
//   - Does not contain empty segments
//   - Does not contain whitespace, control or wildcard characters
func (t Topic) Validate() error {
	s := string(t)
	if s == "" {
		return ErrEmpty
	}
	for _, seg := range t.Segments() {
		if seg == "" {
			return fmt.Errorf("%w: %q has an empty segment", ErrMalformed, s)
		}
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune(reserved, r) {
			return fmt.Errorf("%w: %q contains %q", ErrMalformed, s, r)
		}
	}
	return nil
}

// Join joins multiple segments into a topic.
func Join(segments ...string) Topic {
	return Topic(strings.Join(segments, Separator))
}

// Split splits a topic string into segments.
// This is a convenience function that doesn't require creating a Topic first.
func Split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, Separator)
}
