package usage

import (
	"path"
	"strings"

	"github.com/agusespa/diffscope/internal/graph"
	"github.com/agusespa/diffscope/internal/tools"
	"github.com/agusespa/diffscope/internal/types"
)

// declarationParents are node types whose "name" child introduces a binding
// rather than referring to one.
var declarationParents = map[string]bool{
	"class_declaration":              true,
	"abstract_class_declaration":     true,
	"class":                          true,
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function_signature":             true,
	"function_expression":            true,
	"generator_function":             true,
	"method_definition":              true,
	"method_signature":               true,
	"abstract_method_signature":      true,
	"variable_declarator":            true,
	"interface_declaration":          true,
	"type_alias_declaration":         true,
	"enum_declaration":               true,
	"public_field_definition":        true,
	"property_signature":             true,
	"type_parameter":                 true,
}

var typeContexts = map[string]bool{
	"type_annotation":        true,
	"generic_type":           true,
	"nested_type_identifier": true,
	"type_arguments":         true,
	"union_type":             true,
	"intersection_type":      true,
	"array_type":             true,
	"extends_clause":         true,
	"class_heritage":         true,
	"implements_clause":      true,
	"extends_type_clause":    true,
	"type_query":             true,
}

// isDeclarationSite reports identifiers that bind a name at this position.
func isDeclarationSite(n *tools.SyntaxNode) bool {
	p := n.Parent
	if p == nil {
		return false
	}
	switch {
	case n.Field == "name" && declarationParents[p.Type]:
		return true
	case n.Field == "key" && p.Type == "pair":
		return true
	case n.Field == "pattern" && (p.Type == "required_parameter" || p.Type == "optional_parameter"):
		return true
	case n.Field == "parameter" && p.Type == "arrow_function":
		return true
	case p.Type == "formal_parameters":
		return true
	case n.Field == "alias" && (p.Type == "import_specifier" || p.Type == "export_specifier"):
		return true
	case p.Type == "namespace_import":
		return true
	}
	return false
}

// classify decides how an identifier is used from its immediate parent.
// The boolean is false for identifiers that are not references at all.
func classify(n *tools.SyntaxNode) (types.UsageKind, bool) {
	if isDeclarationSite(n) {
		return "", false
	}

	p := n.Parent
	if p == nil {
		return types.UsageOther, true
	}

	switch p.Type {
	case "call_expression":
		if n.Field == "function" {
			return types.UsageCall, true
		}
	case "member_expression":
		if n.Field == "object" || n.Field == "property" {
			return types.UsagePropertyAccess, true
		}
	case "new_expression":
		if n.Field == "constructor" {
			return types.UsageInstantiation, true
		}
	case "import_specifier", "import_clause", "export_specifier":
		return types.UsageImport, true
	case "jsx_opening_element", "jsx_self_closing_element":
		if n.Field == "name" {
			return types.UsageInstantiation, true
		}
	}

	if n.Type == "type_identifier" || typeContexts[p.Type] {
		return types.UsageTypeReference, true
	}
	return types.UsageOther, true
}

// moduleSpecifier returns the source of the import or re-export statement
// enclosing n, if any.
func moduleSpecifier(n *tools.SyntaxNode) (string, bool) {
	for p := n.Parent; p != nil; p = p.Parent {
		switch p.Type {
		case "import_statement", "export_statement":
			source := p.ChildByField("source")
			if source == nil {
				return "", false
			}
			return tools.StringValue(source), true
		case "program", "statement_block":
			return "", false
		}
	}
	return "", false
}

// importMatches checks that an import of a known name really comes from one
// of the files defining it. Relative specifiers are resolved exactly;
// package or alias specifiers match loosely on the path.
func importMatches(fromPath, specifier string, definedIn []string, extensions []string, exists func(string) bool) bool {
	if graph.IsRelative(specifier) {
		defined := make(map[string]bool, len(definedIn))
		for _, d := range definedIn {
			defined[d] = true
		}
		resolved, ok := graph.ResolveImport(fromPath, specifier, extensions, func(p string) bool {
			return defined[p] || exists(p)
		})
		return ok && defined[resolved]
	}

	spec := specifier
	for _, prefix := range []string{"@/", "~/", "/"} {
		spec = strings.TrimPrefix(spec, prefix)
	}
	if spec == "" {
		return false
	}
	for _, d := range definedIn {
		stem := strings.TrimSuffix(d, path.Ext(d))
		if strings.HasSuffix(stem, "/index") {
			stem = path.Dir(stem)
		}
		if strings.Contains(stem, spec) || path.Base(stem) == path.Base(spec) {
			return true
		}
	}
	return false
}
