package types

// UsageKind classifies how an identifier is used at a reference site.
type UsageKind string

const (
	UsageImport         UsageKind = "import"
	UsageCall           UsageKind = "call"
	UsagePropertyAccess UsageKind = "propertyAccess"
	UsageInstantiation  UsageKind = "instantiation"
	UsageTypeReference  UsageKind = "typeReference"
	UsageOther          UsageKind = "other"
)

// SymbolReference is a single usage of a known symbol name.
type SymbolReference struct {
	Name      string    `json:"name"`
	File      string    `json:"file"`
	Line      int       `json:"line"`
	Column    int       `json:"column"`
	UsageKind UsageKind `json:"usage_kind"`
}

// ImpactLevel is a coarse rating of how strongly a file depends on changed symbols.
type ImpactLevel string

const (
	ImpactHigh   ImpactLevel = "high"
	ImpactMedium ImpactLevel = "medium"
	ImpactLow    ImpactLevel = "low"
)

// Rank orders impact levels; higher is more severe.
func (l ImpactLevel) Rank() int {
	switch l {
	case ImpactHigh:
		return 3
	case ImpactMedium:
		return 2
	case ImpactLow:
		return 1
	default:
		return 0
	}
}

// AffectedFile is a file that references at least one changed symbol.
type AffectedFile struct {
	Path        string            `json:"path"`
	Usages      []SymbolReference `json:"usages"`
	ImpactLevel ImpactLevel       `json:"impact_level"`
}

// ImpactReport is the result of a usage scan.
type ImpactReport struct {
	AffectedFiles     []AffectedFile `json:"affected_files"`
	TotalFilesScanned int            `json:"total_files_scanned"`
	SkippedFiles      int            `json:"skipped_files"`
	DurationMs        int64          `json:"duration_ms"`
}
