package util

import (
	"errors"
	"strings"
	"unicode"
)

// SanitizeFileName makes name safe for a Content-Disposition header and
// rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/', r == '\\', r == '"', unicode.IsSpace(r):
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if strings.Trim(s, "_.") == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}
