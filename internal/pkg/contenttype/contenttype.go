// Package contenttype picks the MIME type stored alongside object content.
package contenttype

import (
	"path/filepath"
	"strings"
)

// For returns the MIME type for key's extension, defaulting to
// application/octet-stream.
func For(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	default:
		return "application/octet-stream"
	}
}
