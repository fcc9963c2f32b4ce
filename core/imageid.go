package core

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces the image_id of a report from the caller's filename hint.
type IDGenerator func(filename string) string

const maxIDNameLen = 64

// DefaultIDGenerator stamps the current UTC time and a random token.
func DefaultIDGenerator(filename string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return FormatImageID(time.Now().UTC(), token, filename)
}

// FixedIDGenerator always returns id.  It makes reports reproducible.
func FixedIDGenerator(id string) IDGenerator {
	return func(string) string { return id }
}

// FormatImageID renders "<yyyymmdd_HHMMSS>_<token>_<name>".
func FormatImageID(t time.Time, token, filename string) string {
	return t.Format("20060102_150405") + "_" + token + "_" + SanitizeFilename(filename)
}

// SanitizeFilename keeps the base name of filename restricted to
// [A-Za-z0-9._-].  An empty result becomes "upload".
func SanitizeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxIDNameLen {
			break
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "upload"
	}
	return out
}
