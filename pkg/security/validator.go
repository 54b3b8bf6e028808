package security

import (
	"errors"
	"unicode/utf8"
)

const (
	// MaxFilterValueLength is the longest filter value accepted, in runes. It is
	// the longest value a stored username or email can hold.
	MaxFilterValueLength = 254
)

var (
	ErrFilterTooLong     = errors.New("filter value too long")
	ErrFilterInvalidChar = errors.New("filter value is not valid UTF-8")
)

// ValidateFilterValue checks a collection filter value (username or email) taken
// from a query string. Filters match stored values exactly, so the value is
// returned unchanged: blanks are significant and any character a stored field
// may hold is accepted. Empty means "no filter".
func ValidateFilterValue(value string) (string, error) {
	if value == "" {
		return "", nil
	}

	if !utf8.ValidString(value) {
		return "", ErrFilterInvalidChar
	}

	if utf8.RuneCountInString(value) > MaxFilterValueLength {
		return "", ErrFilterTooLong
	}

	return value, nil
}
