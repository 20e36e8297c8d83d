// Package security guards the files the command line tools write.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// canonical resolves symlinks in path. When path does not exist yet, the
// nearest existing ancestor is resolved and the remainder appended, so a
// new file under a symlinked directory is judged by where it will land.
func canonical(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rest, _ := filepath.Rel(dir, path)
			return filepath.Join(resolved, rest)
		}
		if dir == filepath.Dir(dir) {
			return path
		}
	}
}

// ValidatePathWithinDirectory returns an error unless filePath, after
// cleaning and symlink resolution, lies inside safeDir. safeDir must exist.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}
	canonicalSafeDir, err := filepath.EvalSymlinks(absSafeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory symlinks: %w", err)
	}

	rel, err := filepath.Rel(canonicalSafeDir, canonical(absPath))
	if err != nil {
		return fmt.Errorf("path is outside safe directory: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, safeDir)
	}
	return nil
}

// SanitizeFilename reduces s to ASCII letters, digits, dot, underscore and
// dash, collapsing every other run of characters into one underscore and
// trimming leading and trailing dots and underscores. The result is at most
// 128 bytes and is empty when nothing usable remains.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	pending := false
	for _, r := range s {
		safe := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '_' || r == '-'
		if !safe {
			pending = true
			continue
		}
		if pending && b.Len() > 0 {
			b.WriteByte('_')
		}
		pending = false
		if b.Len() >= maxLen {
			break
		}
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), "._")
}
