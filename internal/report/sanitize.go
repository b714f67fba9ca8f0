// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import "strings"

// maxFilenameLen caps sanitized filenames, keeping paths portable.
const maxFilenameLen = 50

// invalidFilenameChars are characters rejected by common filesystems.
const invalidFilenameChars = `<>:"/\|?*`

// SanitizeFilename converts a query string into a safe filename stem:
// invalid characters are dropped, spaces become underscores, and the
// result is capped at 50 bytes.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(invalidFilenameChars, r) {
			continue
		}
		if r == ' ' {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}

	s := b.String()
	if len(s) > maxFilenameLen {
		s = s[:maxFilenameLen]
	}
	return s
}
