package util

import (
	"errors"
	"path/filepath"
	"strings"
)

var errInvalidFileName = errors.New("invalid file name")

// SanitizeFileName reduces a client-supplied name to a safe base name. Directory parts
// are dropped and remaining separators are replaced.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "\\", "/")
	s = filepath.Base(s)
	if s == "." || s == ".." || s == "/" {
		return "", errInvalidFileName
	}
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if s == "" || s == "." || s == ".." {
		return "", errInvalidFileName
	}
	return s, nil
}
