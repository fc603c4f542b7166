package store

import (
	"errors"
	"fmt"
	"strings"
)

const maxTagNameLen = 255

var (
	// ErrTagNameEmpty is returned when a tag name is empty after trimming.
	ErrTagNameEmpty = errors.New("tag name must not be empty")

	// ErrTagNameTooLong is returned when a tag name exceeds the column width.
	ErrTagNameTooLong = errors.New("tag name exceeds 255 characters")
)

// NormalizeTagNames trims each name and collapses duplicates, preserving the
// first occurrence's position. It rejects the whole list if any name is empty
// after trimming, so callers fail before touching the database.
// Names are case-sensitive: "Go" and "go" are distinct tags.
func NormalizeTagNames(names []string) ([]string, error) {
	normalized := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: %q", ErrTagNameEmpty, name)
		}
		if len(trimmed) > maxTagNameLen {
			return nil, fmt.Errorf("%w: %q", ErrTagNameTooLong, trimmed[:32]+"...")
		}
		if seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		normalized = append(normalized, trimmed)
	}
	return normalized, nil
}

// IsInvalidTagName reports whether err is one of the tag name validation
// errors, letting the HTTP layer map it to a 400 without enumerating sentinels.
func IsInvalidTagName(err error) bool {
	return errors.Is(err, ErrTagNameEmpty) || errors.Is(err, ErrTagNameTooLong)
}
