package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanText trims surrounding whitespace and NFC-normalizes s so that
// visually identical names and symbols compare equal.
func CleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// OptionalText returns nil for blank input, otherwise a pointer to the
// cleaned text.
func OptionalText(s string) *string {
	c := CleanText(s)
	if c == "" {
		return nil
	}
	return &c
}

// ColorOr returns the cleaned color or fallback when blank.
func ColorOr(color, fallback string) string {
	if c := strings.TrimSpace(color); c != "" {
		return c
	}
	return fallback
}
