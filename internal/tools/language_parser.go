package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agusespa/diffscope/internal/types"
)

// LanguageParser is a SyntaxParser backend for one language family.
type LanguageParser interface {
	SyntaxParser

	// SupportedExtensions returns the file extensions this parser can handle
	SupportedExtensions() []string

	// Language returns the human-readable name of the language this parser handles
	Language() string

	// ShouldExcludeFile reports generated, vendored or test paths that usage
	// scanning should not look into.
	ShouldExcludeFile(filePath string) bool
}

// ParserRegistry dispatches to a LanguageParser by file extension. It is
// itself a SyntaxParser, so the backend can be swapped at composition time.
type ParserRegistry struct {
	parsers map[string]LanguageParser
}

func NewParserRegistry() *ParserRegistry {
	registry := &ParserRegistry{
		parsers: make(map[string]LanguageParser),
	}

	tsParser, err := NewTypeScriptParser()
	if err != nil {
		panic(fmt.Errorf("failed to create TypeScript parser: %w", err))
	}
	registry.RegisterParser(tsParser)

	return registry
}

// NewEmptyParserRegistry returns a registry with no backends registered.
func NewEmptyParserRegistry() *ParserRegistry {
	return &ParserRegistry{parsers: make(map[string]LanguageParser)}
}

func (pr *ParserRegistry) RegisterParser(parser LanguageParser) {
	for _, ext := range parser.SupportedExtensions() {
		pr.parsers[strings.ToLower(ext)] = parser
	}
}

func (pr *ParserRegistry) GetParser(filePath string) LanguageParser {
	ext := strings.ToLower(filepath.Ext(filePath))
	return pr.parsers[ext]
}

func (pr *ParserRegistry) Supports(filePath string) bool {
	return pr.GetParser(filePath) != nil
}

func (pr *ParserRegistry) Parse(ctx context.Context, filePath string, content []byte) (*SyntaxTree, error) {
	parser := pr.GetParser(filePath)
	if parser == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedDialect, filePath)
	}
	return parser.Parse(ctx, filePath, content)
}

// ShouldExcludeFile defers to the backend for the path; unsupported paths are
// always excluded.
func (pr *ParserRegistry) ShouldExcludeFile(filePath string) bool {
	parser := pr.GetParser(filePath)
	if parser == nil {
		return true
	}
	return parser.ShouldExcludeFile(filePath)
}

// GetSupportedLanguages returns the registered languages in sorted order.
func (pr *ParserRegistry) GetSupportedLanguages() []string {
	seen := make(map[string]bool)
	var result []string

	for _, parser := range pr.parsers {
		if !seen[parser.Language()] {
			seen[parser.Language()] = true
			result = append(result, parser.Language())
		}
	}

	sort.Strings(result)
	return result
}
