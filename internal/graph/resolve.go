package graph

import (
	"path"
	"strings"
)

// DefaultExtensions is the probe order used when resolving extension-less
// relative imports.
var DefaultExtensions = []string{".ts", ".tsx", ".js", ".jsx"}

// IsRelative reports whether a module specifier is a relative path.
func IsRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// ResolveImport maps a relative specifier imported from fromPath onto a path
// for which exists returns true. Candidates are tried in a fixed order and
// the first match wins: the exact path, the path plus each extension, the
// path's index file with each extension, and finally a TypeScript source
// behind a .js style specifier. Non-relative specifiers never resolve.
func ResolveImport(fromPath, specifier string, extensions []string, exists func(string) bool) (string, bool) {
	if !IsRelative(specifier) {
		return "", false
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	base := path.Join(path.Dir(fromPath), specifier)
	if strings.HasPrefix(base, "../") || base == ".." {
		return "", false
	}

	if path.Ext(base) != "" && exists(base) {
		return base, true
	}
	for _, ext := range extensions {
		if candidate := base + ext; exists(candidate) {
			return candidate, true
		}
	}
	for _, ext := range extensions {
		if candidate := path.Join(base, "index"+ext); exists(candidate) {
			return candidate, true
		}
	}

	for jsExt, tsExts := range map[string][]string{
		".js":  {".ts", ".tsx"},
		".jsx": {".tsx"},
		".mjs": {".mts"},
		".cjs": {".cts"},
	} {
		if !strings.HasSuffix(base, jsExt) {
			continue
		}
		stem := strings.TrimSuffix(base, jsExt)
		for _, ext := range tsExts {
			if candidate := stem + ext; exists(candidate) {
				return candidate, true
			}
		}
	}

	return "", false
}
