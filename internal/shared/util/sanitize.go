package util

import (
	"errors"
	"path"
	"strings"
)

// ErrInvalidKey is returned for keys that are empty or escape their root.
var ErrInvalidKey = errors.New("invalid storage key")

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// CleanKey normalizes a slash-separated relative key such as an archive
// entry path. Backslashes count as separators. Absolute keys and keys with
// ".." segments are rejected.
func CleanKey(key string) (string, error) {
	s := strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if s == "" || strings.HasPrefix(s, "/") {
		return "", ErrInvalidKey
	}
	for _, seg := range strings.Split(s, "/") {
		if seg == ".." {
			return "", ErrInvalidKey
		}
	}
	clean := path.Clean(s)
	if clean == "." {
		return "", ErrInvalidKey
	}
	return clean, nil
}

// ReplaceExt swaps the extension of the last key segment.
func ReplaceExt(key, ext string) string {
	return strings.TrimSuffix(key, path.Ext(key)) + ext
}
