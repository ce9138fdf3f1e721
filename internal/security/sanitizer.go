package security

import (
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	htmlPolicy       = bluemonday.StrictPolicy()
	unsafeFilenameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// SanitizeText trims input, drops null bytes and strips all markup. The result
// is plain text; escaping is left to whoever renders it.
func SanitizeText(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(html.UnescapeString(htmlPolicy.Sanitize(input)))
}

// SecureFilename reduces an uploaded filename to a safe base name made of
// ASCII letters, digits, dots, dashes and underscores.
func SecureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameRe.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}

// ValidateFileType checks if file extension is allowed
func ValidateFileType(filename string, allowedTypes []string) bool {
	filename = strings.ToLower(filename)
	for _, ext := range allowedTypes {
		if strings.HasSuffix(filename, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// ValidateFileSize checks if file size is within limit
func ValidateFileSize(size int64, maxSize int64) bool {
	return size > 0 && size <= maxSize
}
