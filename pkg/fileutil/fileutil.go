package fileutil

import (
	"path/filepath"
	"strings"
)

// GetFileExtension extracts the lowercased file extension from a path,
// without the leading dot, or empty string if none.
func GetFileExtension(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
