package types

// Import is a single import-like statement found in a file.
type Import struct {
	Specifier string   `json:"specifier"`
	Names     []string `json:"names,omitempty"`
	Line      int      `json:"line"`
}

// FileAnalysis holds what a file imports, exports and declares.
type FileAnalysis struct {
	Path         string              `json:"path"`
	Imports      []Import            `json:"imports"`
	Exports      []string            `json:"exports"`
	Declarations []SymbolDeclaration `json:"declarations"`
}

// DependencyEdge links an importing file to the tracked file it imports.
type DependencyEdge struct {
	From          string   `json:"from"`
	To            string   `json:"to"`
	ImportedNames []string `json:"imported_names,omitempty"`
}

// OrderDirection selects between dependents-first and dependencies-first.
type OrderDirection string

const (
	// TopDown places dependents before their dependencies.
	TopDown OrderDirection = "top-down"
	// BottomUp places dependencies before their dependents.
	BottomUp OrderDirection = "bottom-up"
	// Alphabetical is the lexicographic fallback order.
	Alphabetical OrderDirection = "alphabetical"
)

// ParseOrderDirection maps user input onto a direction, defaulting to TopDown.
func ParseOrderDirection(s string) OrderDirection {
	switch OrderDirection(s) {
	case BottomUp, Alphabetical:
		return OrderDirection(s)
	case "bottomup", "bottom_up":
		return BottomUp
	case "alpha":
		return Alphabetical
	default:
		return TopDown
	}
}
