package middleware

import (
	"errors"
	"unicode/utf8"
)

// ValidateQuery validates chat query content.
func ValidateQuery(content string) error {
	if len(content) > 100000 { // ~100KB limit
		return errors.New("query exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("query must be valid UTF-8")
	}
	return nil
}

// ValidateThreadID validates a thread identifier.
func ValidateThreadID(id string) error {
	if len(id) > 128 {
		return errors.New("thread ID exceeds maximum length")
	}
	if !utf8.ValidString(id) {
		return errors.New("thread ID must be valid UTF-8")
	}
	return nil
}
