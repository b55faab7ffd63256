package graph

import (
	"github.com/agusespa/diffscope/internal/symbols"
	"github.com/agusespa/diffscope/internal/tools"
	"github.com/agusespa/diffscope/internal/types"
)

// AnalyzeFile collects the imports, exports and declarations of a parsed
// file. Imports cover static imports, re-exports with a source, CommonJS
// require calls and dynamic import() calls with a literal specifier.
func AnalyzeFile(tree *tools.SyntaxTree) types.FileAnalysis {
	analysis := types.FileAnalysis{Path: tree.Path}
	if tree.Root == nil {
		return analysis
	}

	analysis.Declarations = symbols.ExtractDeclarations(tree)
	for _, d := range analysis.Declarations {
		if d.IsExported && d.OwningClass == "" {
			analysis.Exports = append(analysis.Exports, d.Name)
		}
	}

	tree.Root.Walk(func(n *tools.SyntaxNode) bool {
		switch n.Type {
		case "import_statement":
			if imp, ok := staticImport(n); ok {
				analysis.Imports = append(analysis.Imports, imp)
			}
			return false

		case "export_statement":
			source := n.ChildByField("source")
			if source == nil {
				return true
			}
			analysis.Imports = append(analysis.Imports, types.Import{
				Specifier: tools.StringValue(source),
				Names:     reexportedNames(n),
				Line:      n.Line,
			})
			return false

		case "call_expression":
			if imp, ok := requireCall(n); ok {
				analysis.Imports = append(analysis.Imports, imp)
			}
		}
		return true
	})

	return analysis
}

func staticImport(n *tools.SyntaxNode) (types.Import, bool) {
	source := n.ChildByField("source")
	if source == nil {
		return types.Import{}, false
	}
	imp := types.Import{Specifier: tools.StringValue(source), Line: n.Line}
	for _, clause := range n.ChildrenOfType("import_clause") {
		imp.Names = append(imp.Names, ImportClauseNames(clause)...)
	}
	return imp, imp.Specifier != ""
}

// ImportClauseNames returns the names an import clause brings in: the default
// binding, the imported (not aliased) name of each named import, and "*" for
// namespace imports.
func ImportClauseNames(clause *tools.SyntaxNode) []string {
	var names []string
	for _, c := range clause.Children {
		switch c.Type {
		case "identifier":
			names = append(names, c.Name)
		case "namespace_import":
			names = append(names, "*")
		case "named_imports":
			for _, spec := range c.ChildrenOfType("import_specifier") {
				if name := spec.ChildByField("name"); name != nil && name.Text != "" {
					names = append(names, name.Text)
				}
			}
		}
	}
	return names
}

func reexportedNames(n *tools.SyntaxNode) []string {
	clauses := n.ChildrenOfType("export_clause")
	if len(clauses) == 0 {
		return []string{"*"}
	}
	var names []string
	for _, clause := range clauses {
		for _, spec := range clause.ChildrenOfType("export_specifier") {
			if name := spec.ChildByField("name"); name != nil && name.Text != "" {
				names = append(names, name.Text)
			}
		}
	}
	return names
}

// requireCall matches require("x") and import("x") with a string literal.
func requireCall(n *tools.SyntaxNode) (types.Import, bool) {
	fn := n.ChildByField("function")
	if fn == nil {
		return types.Import{}, false
	}
	if !(fn.Type == "import" || (fn.Type == "identifier" && fn.Name == "require")) {
		return types.Import{}, false
	}
	args := n.ChildByField("arguments")
	if args == nil {
		return types.Import{}, false
	}
	strs := args.ChildrenOfType("string")
	if len(strs) == 0 {
		return types.Import{}, false
	}
	spec := tools.StringValue(strs[0])
	if spec == "" {
		return types.Import{}, false
	}
	return types.Import{Specifier: spec, Names: boundNames(n), Line: n.Line}, true
}

// boundNames reports the names a require() result is bound to, as in
// const x = require(...) or const { a, b } = require(...).
func boundNames(call *tools.SyntaxNode) []string {
	declarator := call.Parent
	if declarator == nil || declarator.Type != "variable_declarator" || call.Field != "value" {
		return nil
	}
	target := declarator.ChildByField("name")
	if target == nil {
		return nil
	}
	switch target.Type {
	case "identifier":
		return []string{target.Name}
	case "object_pattern":
		var names []string
		for _, c := range target.Children {
			switch c.Type {
			case "shorthand_property_identifier_pattern":
				names = append(names, c.Name)
			case "pair_pattern":
				if key := c.ChildByField("key"); key != nil && key.Text != "" {
					names = append(names, key.Text)
				}
			}
		}
		return names
	}
	return nil
}
