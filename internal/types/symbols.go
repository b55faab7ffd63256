package types

// SymbolKind is the kind of a declaration extracted from a source file.
type SymbolKind string

const (
	SymbolClass           SymbolKind = "class"
	SymbolFunction        SymbolKind = "function"
	SymbolExportedBinding SymbolKind = "exportedBinding"
)

// SymbolDeclaration is a declaration found in a file. Names are not unique
// within a file (overloads, redeclarations), so consumers must tolerate
// duplicates.
type SymbolDeclaration struct {
	Name           string     `json:"name"`
	Kind           SymbolKind `json:"kind"`
	DefinitionLine int        `json:"definition_line"`
	EndLine        int        `json:"end_line,omitempty"`
	IsExported     bool       `json:"is_exported"`
	OwningClass    string     `json:"owning_class,omitempty"`
}

// FileSymbols groups the declarations extracted from one file.
type FileSymbols struct {
	Path    string              `json:"path"`
	Symbols []SymbolDeclaration `json:"symbols"`
}

// DefinedSymbol is the input to usage scanning: a declaration name and the
// file that defines it.
type DefinedSymbol struct {
	Name          string     `json:"name"`
	Kind          SymbolKind `json:"kind"`
	DefinedInPath string     `json:"defined_in_path"`
	OwningClass   string     `json:"owning_class,omitempty"`
}

// DefinedSymbolsFrom flattens extraction results into scanner input.
func DefinedSymbolsFrom(files []FileSymbols) []DefinedSymbol {
	var out []DefinedSymbol
	for _, f := range files {
		for _, s := range f.Symbols {
			out = append(out, DefinedSymbol{
				Name:          s.Name,
				Kind:          s.Kind,
				DefinedInPath: f.Path,
				OwningClass:   s.OwningClass,
			})
		}
	}
	return out
}
