package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
)

const maxFileNameLen = 200

var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName removes path separators and control characters and rejects
// traversal patterns. Long names are truncated keeping the extension.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if s == "" {
		return "", ErrInvalidFileName
	}
	if len(s) > maxFileNameLen {
		ext := path.Ext(s)
		if len(ext) > 16 {
			ext = ""
		}
		s = s[:maxFileNameLen-len(ext)] + ext
	}
	return s, nil
}

// ContentDispositionName strips characters that would break a quoted
// Content-Disposition filename parameter.
func ContentDispositionName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	if strings.TrimSpace(cleaned) == "" {
		return "certificate"
	}
	return cleaned
}
