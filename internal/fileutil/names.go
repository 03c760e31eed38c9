package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const maxFileNameBytes = 255

// SafeFileName sanitizes a filename for storage inside the vault. It
// NFC-normalizes the name, replaces characters that are illegal on common
// filesystems with underscores, trims leading/trailing dots and whitespace,
// substitutes "untitled" for an empty result, and truncates to 255 bytes
// while preserving the extension.
func SafeFileName(name string) string {
	name = norm.NFC.String(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r < 0x20, r == 0x7f:
			b.WriteByte('_')
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}

	cleaned := strings.Trim(b.String(), " .")
	if cleaned == "" {
		return "untitled"
	}

	if len(cleaned) > maxFileNameBytes {
		ext := filepath.Ext(cleaned)
		if len(ext) >= maxFileNameBytes {
			ext = ""
		}
		stem := cleaned[:len(cleaned)-len(ext)]
		budget := maxFileNameBytes - len(ext)
		for budget > 0 && !isRuneBoundary(stem, budget) {
			budget--
		}
		cleaned = stem[:budget] + ext
	}

	return cleaned
}

func isRuneBoundary(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	// A continuation byte has the form 10xxxxxx.
	return s[i]&0xc0 != 0x80
}

// UniquePath returns a path under dir for name that does not collide with an
// existing file, appending _1, _2, ... before the extension until free.
func UniquePath(dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for counter := 0; ; counter++ {
		if counter > 0 {
			candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
		}
		_, err := os.Stat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
}
