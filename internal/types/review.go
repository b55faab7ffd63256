package types

// ReviewResult is everything produced for one review request.
type ReviewResult struct {
	RunID     string         `json:"run_id"`
	Base      string         `json:"base"`
	Head      string         `json:"head"`
	Files     []FileDiff     `json:"files"`
	Stats     []FileStat     `json:"stats,omitempty"`
	Order     []string       `json:"order"`
	Direction OrderDirection `json:"direction"`
	// Approximate is set when a dependency cycle was broken while ordering.
	Approximate bool          `json:"approximate,omitempty"`
	Symbols     []FileSymbols `json:"symbols,omitempty"`
	Impact      *ImpactReport `json:"impact,omitempty"`
	// Degraded is set when the analysis deadline was hit and the result
	// fell back to lexicographic order without symbols.
	Degraded bool `json:"degraded,omitempty"`
}
