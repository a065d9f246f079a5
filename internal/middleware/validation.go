package middleware

import (
	"errors"
	"unicode/utf8"
)

// ValidateMessageContent validates chat message content.
func ValidateMessageContent(content string, maxBytes int) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if maxBytes > 0 && len(content) > maxBytes {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateFileName rejects empty or oversized file names.
func ValidateFileName(name string) error {
	if len(name) == 0 {
		return errors.New("file name cannot be empty")
	}
	if len(name) > 256 {
		return errors.New("file name exceeds maximum length")
	}
	if !utf8.ValidString(name) {
		return errors.New("file name must be valid UTF-8")
	}
	return nil
}
