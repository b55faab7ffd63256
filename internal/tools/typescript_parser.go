package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agusespa/diffscope/internal/utils"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// DefaultMaxFileSize bounds the content handed to tree-sitter.
const DefaultMaxFileSize = 2 * 1024 * 1024

// TypeScriptParser parses the JS/TS family with tree-sitter. The TSX grammar
// is used for .tsx and for plain JavaScript, which it accepts including JSX.
// A new tree-sitter parser is created per call, so one instance can be shared
// between goroutines.
type TypeScriptParser struct {
	typescript  *sitter.Language
	tsx         *sitter.Language
	maxFileSize int
}

func NewTypeScriptParser() (*TypeScriptParser, error) {
	ts := sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	tsx := sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())

	probe := sitter.NewParser()
	defer probe.Close()
	if err := probe.SetLanguage(ts); err != nil {
		return nil, fmt.Errorf("failed to set language for parser: %w", err)
	}
	if err := probe.SetLanguage(tsx); err != nil {
		return nil, fmt.Errorf("failed to set language for parser: %w", err)
	}

	return &TypeScriptParser{
		typescript:  ts,
		tsx:         tsx,
		maxFileSize: DefaultMaxFileSize,
	}, nil
}

func (tp *TypeScriptParser) Language() string {
	return "TypeScript"
}

func (tp *TypeScriptParser) SupportedExtensions() []string {
	return []string{".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}
}

func (tp *TypeScriptParser) Supports(filePath string) bool {
	return utils.DetectDialect(filePath) != ""
}

func (tp *TypeScriptParser) ShouldExcludeFile(filePath string) bool {
	lowerPath := strings.ToLower(filePath)

	if strings.Contains(lowerPath, ".test.") || strings.Contains(lowerPath, ".spec.") {
		return true
	}

	for _, dir := range []string{"node_modules/", "dist/", "build/", ".next/", "coverage/", ".git/"} {
		if strings.HasPrefix(lowerPath, dir) || strings.Contains(lowerPath, "/"+dir) {
			return true
		}
	}

	for _, suffix := range []string{".d.ts", ".min.js"} {
		if strings.HasSuffix(lowerPath, suffix) {
			return true
		}
	}

	return false
}

func (tp *TypeScriptParser) Parse(ctx context.Context, filePath string, content []byte) (*SyntaxTree, error) {
	dialect := utils.DetectDialect(filePath)
	if dialect == "" {
		return nil, fmt.Errorf("%s: no grammar for extension", filePath)
	}

	ctx, span := startParseSpan(ctx, dialect, filePath, len(content))
	defer span.End()
	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, dialect, time.Since(start), false)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if len(content) > tp.maxFileSize {
		recordParseMetrics(ctx, dialect, time.Since(start), false)
		return nil, fmt.Errorf("file too large to parse: size %d exceeds limit %d", len(content), tp.maxFileSize)
	}

	lang := tp.tsx
	if dialect == utils.DialectTypeScript {
		lang = tp.typescript
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang); err != nil {
		recordParseMetrics(ctx, dialect, time.Since(start), false)
		return nil, fmt.Errorf("failed to set language for parser: %w", err)
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		recordParseMetrics(ctx, dialect, time.Since(start), false)
		return nil, fmt.Errorf("failed to parse %s file: tree-sitter returned nil", dialect)
	}
	defer tree.Close()

	root := tree.RootNode()
	result := &SyntaxTree{
		Path:      filePath,
		Dialect:   dialect,
		Root:      convertTree(root, content),
		HasErrors: root.HasError(),
	}
	if result.HasErrors {
		slog.Debug("source contains syntax errors", slog.String("file", filePath))
	}

	recordParseMetrics(ctx, dialect, time.Since(start), true)
	return result, nil
}

// convertTree copies a tree-sitter tree into SyntaxNodes. It walks with a
// tree cursor instead of recursion so deeply nested sources cannot exhaust
// the stack.
func convertTree(root *sitter.Node, src []byte) *SyntaxNode {
	cursor := root.Walk()
	defer cursor.Close()

	out := newSyntaxNode(cursor.Node(), "", src, nil)
	current := out
	for {
		if cursor.GotoFirstChild() {
			child := newSyntaxNode(cursor.Node(), cursor.FieldName(), src, current)
			current.Children = append(current.Children, child)
			current = child
			continue
		}

		for {
			finishNode(current)
			if current != out && cursor.GotoNextSibling() {
				sibling := newSyntaxNode(cursor.Node(), cursor.FieldName(), src, current.Parent)
				current.Parent.Children = append(current.Parent.Children, sibling)
				current = sibling
				break
			}
			if current == out || !cursor.GotoParent() {
				return out
			}
			current = current.Parent
		}
	}
}

func newSyntaxNode(n *sitter.Node, field string, src []byte, parent *SyntaxNode) *SyntaxNode {
	pos := n.StartPosition()
	node := &SyntaxNode{
		Type:      n.Kind(),
		Field:     field,
		StartByte: int(n.StartByte()),
		Line:      int(pos.Row) + 1,
		EndLine:   int(n.EndPosition().Row) + 1,
		Column:    int(pos.Column) + 1,
		Parent:    parent,
	}
	if n.ChildCount() == 0 {
		node.Text = n.Utf8Text(src)
	}
	return node
}

func finishNode(n *SyntaxNode) {
	if n.IsIdentifier() && len(n.Children) == 0 {
		n.Name = n.Text
		return
	}
	if name := n.ChildByField("name"); name != nil && name.IsIdentifier() {
		n.Name = name.Text
	}
}
