package watch

import (
	"path/filepath"
	"strings"
)

// shouldIgnore reports whether a change to path is editor noise rather than
// a source edit: backups, swap files and dot-prefixed temp files.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)

	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".bak") || strings.HasSuffix(base, ".orig") {
		return true
	}
	if strings.HasPrefix(base, ".") {
		for _, suffix := range []string{".tmp", ".temp", ".swp", ".swx"} {
			if strings.HasSuffix(base, suffix) {
				return true
			}
		}
	}
	// Emacs lock and autosave files.
	if strings.HasPrefix(base, ".#") || (strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) {
		return true
	}
	return base == ".DS_Store"
}
