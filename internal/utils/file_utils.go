package utils

import (
	"path/filepath"
	"strings"
)

const (
	DialectTypeScript = "typescript"
	DialectTSX        = "tsx"
	DialectJavaScript = "javascript"
	DialectJSX        = "jsx"
)

var dialectByExt = map[string]string{
	".ts":  DialectTypeScript,
	".mts": DialectTypeScript,
	".cts": DialectTypeScript,
	".tsx": DialectTSX,
	".js":  DialectJavaScript,
	".mjs": DialectJavaScript,
	".cjs": DialectJavaScript,
	".jsx": DialectJSX,
}

// DetectDialect returns the script dialect of a path, or "" when the
// extension is not one of the JS/TS family.
func DetectDialect(filePath string) string {
	return dialectByExt[strings.ToLower(filepath.Ext(filePath))]
}

// DetectLanguageFromFilePath returns a markdown code fence language for a path.
func DetectLanguageFromFilePath(filePath string) string {
	if dialect := DetectDialect(filePath); dialect != "" {
		return dialect
	}

	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), ".")) {
	case "go":
		return "go"
	case "py":
		return "python"
	case "json":
		return "json"
	case "yaml", "yml":
		return "yaml"
	case "md":
		return "markdown"
	case "css", "scss":
		return "css"
	case "html":
		return "html"
	}
	return ""
}
