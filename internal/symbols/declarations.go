package symbols

import (
	"github.com/agusespa/diffscope/internal/tools"
	"github.com/agusespa/diffscope/internal/types"
)

var functionValueTypes = map[string]bool{
	"arrow_function":                true,
	"function_expression":           true,
	"function":                      true,
	"generator_function":            true,
	"generator_function_expression": true,
}

// ExtractDeclarations walks the top-level statements of a parsed file and
// returns its declarations in source order. Only the tree shape is used, so
// the result depends on nothing but the content that produced the tree.
func ExtractDeclarations(tree *tools.SyntaxTree) []types.SymbolDeclaration {
	if tree == nil || tree.Root == nil {
		return nil
	}

	var decls []types.SymbolDeclaration
	localExports := make(map[string]bool)

	for _, stmt := range tree.Root.Children {
		if stmt.Type != "export_statement" {
			decls = append(decls, declarationsOf(stmt, false)...)
			continue
		}

		if d := stmt.ChildByField("declaration"); d != nil {
			decls = append(decls, declarationsOf(d, true)...)
			continue
		}

		if v := stmt.ChildByField("value"); v != nil && stmt.HasChildOfType("default") {
			decls = append(decls, defaultExport(stmt, v)...)
			continue
		}

		reexport := stmt.ChildByField("source") != nil
		for _, clause := range stmt.ChildrenOfType("export_clause") {
			for _, spec := range clause.ChildrenOfType("export_specifier") {
				name := exportedName(spec)
				if name == "" {
					continue
				}
				if !reexport {
					localExports[local(spec)] = true
					continue
				}
				decls = append(decls, types.SymbolDeclaration{
					Name:           name,
					Kind:           types.SymbolExportedBinding,
					DefinitionLine: spec.Line,
					EndLine:        spec.EndLine,
					IsExported:     true,
				})
			}
		}
		for _, ns := range stmt.ChildrenOfType("namespace_export") {
			if id := firstIdentifier(ns); id != nil {
				decls = append(decls, types.SymbolDeclaration{
					Name:           id.Name,
					Kind:           types.SymbolExportedBinding,
					DefinitionLine: ns.Line,
					EndLine:        ns.EndLine,
					IsExported:     true,
				})
			}
		}
	}

	// export { a, b } marks local declarations as exported. Methods follow
	// their class.
	if len(localExports) > 0 {
		for i := range decls {
			owner := decls[i].Name
			if decls[i].OwningClass != "" {
				owner = decls[i].OwningClass
			}
			if localExports[owner] {
				decls[i].IsExported = true
			}
		}
	}

	return decls
}

func declarationsOf(n *tools.SyntaxNode, exported bool) []types.SymbolDeclaration {
	switch n.Type {
	case "class_declaration", "abstract_class_declaration", "class":
		if n.Name == "" {
			return nil
		}
		return classDeclarations(n, exported)

	case "function_declaration", "generator_function_declaration", "function_signature":
		if n.Name == "" {
			return nil
		}
		return []types.SymbolDeclaration{{
			Name:           n.Name,
			Kind:           types.SymbolFunction,
			DefinitionLine: n.Line,
			EndLine:        n.EndLine,
			IsExported:     exported,
		}}

	case "lexical_declaration", "variable_declaration":
		var out []types.SymbolDeclaration
		for _, declarator := range n.ChildrenOfType("variable_declarator") {
			name := declarator.ChildByField("name")
			if name == nil || name.Type != "identifier" {
				continue
			}
			kind := types.SymbolExportedBinding
			if value := declarator.ChildByField("value"); value != nil && functionValueTypes[value.Type] {
				kind = types.SymbolFunction
			} else if !exported {
				continue
			}
			out = append(out, types.SymbolDeclaration{
				Name:           name.Name,
				Kind:           kind,
				DefinitionLine: declarator.Line,
				EndLine:        declarator.EndLine,
				IsExported:     exported,
			})
		}
		return out

	case "interface_declaration", "type_alias_declaration", "enum_declaration":
		if n.Name == "" {
			return nil
		}
		return []types.SymbolDeclaration{{
			Name:           n.Name,
			Kind:           types.SymbolExportedBinding,
			DefinitionLine: n.Line,
			EndLine:        n.EndLine,
			IsExported:     exported,
		}}
	}
	return nil
}

func classDeclarations(class *tools.SyntaxNode, exported bool) []types.SymbolDeclaration {
	out := []types.SymbolDeclaration{{
		Name:           class.Name,
		Kind:           types.SymbolClass,
		DefinitionLine: class.Line,
		EndLine:        class.EndLine,
		IsExported:     exported,
	}}

	body := class.ChildByField("body")
	if body == nil {
		return out
	}
	for _, member := range body.ChildrenOfType("method_definition") {
		if member.Name == "" || member.Name == "constructor" {
			continue
		}
		out = append(out, types.SymbolDeclaration{
			Name:           member.Name,
			Kind:           types.SymbolFunction,
			DefinitionLine: member.Line,
			EndLine:        member.EndLine,
			IsExported:     exported,
			OwningClass:    class.Name,
		})
	}
	return out
}

func defaultExport(stmt, value *tools.SyntaxNode) []types.SymbolDeclaration {
	if decls := declarationsOf(value, true); len(decls) > 0 {
		return decls
	}
	name := "default"
	if value.Name != "" {
		name = value.Name
	}
	return []types.SymbolDeclaration{{
		Name:           name,
		Kind:           types.SymbolExportedBinding,
		DefinitionLine: stmt.Line,
		EndLine:        stmt.EndLine,
		IsExported:     true,
	}}
}

// exportedName is the name a specifier exposes: the alias when present.
func exportedName(spec *tools.SyntaxNode) string {
	if alias := spec.ChildByField("alias"); alias != nil {
		return alias.Text
	}
	return local(spec)
}

func local(spec *tools.SyntaxNode) string {
	if name := spec.ChildByField("name"); name != nil {
		return name.Text
	}
	return ""
}

func firstIdentifier(n *tools.SyntaxNode) *tools.SyntaxNode {
	for _, c := range n.Children {
		if c.IsIdentifier() {
			return c
		}
	}
	return nil
}
