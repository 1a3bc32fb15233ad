package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidLabel is returned when a forum label is empty or contains whitespace.
// Labels are interpolated verbatim into listing URLs and export file names.
var ErrInvalidLabel = errors.New("invalid forum label: must be non-empty and contain no whitespace")

// ErrInvalidForumID is returned when a forum ID is not positive.
var ErrInvalidForumID = errors.New("invalid forum id: must be positive")

// Forum identifies one forum section of the target site.
// On XenForo boards the pair appears in listing URLs as "/forums/<label>.<id>".
type Forum struct {
	// Label is the URL label of the forum (e.g. "the-lounge").
	Label string `json:"label" yaml:"label"`

	// ID is the numeric forum identifier.
	ID int64 `json:"id" yaml:"id"`
}

// String returns the forum in "<label>.<id>" form.
func (f Forum) String() string {
	return f.Label + "." + strconv.FormatInt(f.ID, 10)
}

// Validate checks the forum label and ID.
func (f Forum) Validate() error {
	if f.Label == "" || strings.IndexFunc(f.Label, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidLabel, f.Label)
	}
	if f.ID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidForumID, f.ID)
	}
	return nil
}

// ParseForum parses a "<label>.<id>" argument such as "must-read-content.23".
// The ID is the component after the last dot, so labels may contain dots.
func ParseForum(s string) (Forum, error) {
	idx := strings.LastIndex(s, ".")
	if idx <= 0 || idx == len(s)-1 {
		return Forum{}, fmt.Errorf("invalid forum %q: expected <label>.<id>", s)
	}

	id, err := strconv.ParseInt(s[idx+1:], 10, 64)
	if err != nil {
		return Forum{}, fmt.Errorf("invalid forum %q: %w", s, err)
	}

	f := Forum{Label: s[:idx], ID: id}
	if err := f.Validate(); err != nil {
		return Forum{}, err
	}
	return f, nil
}
