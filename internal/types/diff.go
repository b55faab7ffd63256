package types

// LineKind classifies a line of a unified diff hunk.
type LineKind string

const (
	LineAdded   LineKind = "added"
	LineRemoved LineKind = "removed"
	LineContext LineKind = "context"
)

// DiffLine is a single line of a parsed diff. Line numbers are zero when
// they do not apply to the line's kind (and always zero for hunk headers).
type DiffLine struct {
	Kind          LineKind `json:"kind"`
	Content       string   `json:"content"`
	NewLineNumber int      `json:"new_line_number,omitempty"`
	OldLineNumber int      `json:"old_line_number,omitempty"`
	IsHunkHeader  bool     `json:"is_hunk_header,omitempty"`
}

// FileDiff holds the parsed lines of one file section of a unified diff.
// OldPath is only set when the file was renamed.
type FileDiff struct {
	Path      string     `json:"path"`
	OldPath   string     `json:"old_path,omitempty"`
	Lines     []DiffLine `json:"lines"`
	IsNew     bool       `json:"is_new"`
	IsDeleted bool       `json:"is_deleted"`
}

// ChangedLines returns the new-side line numbers of added lines and the
// old-side line numbers of removed lines.
func (f FileDiff) ChangedLines() (added, removed []int) {
	for _, l := range f.Lines {
		switch l.Kind {
		case LineAdded:
			added = append(added, l.NewLineNumber)
		case LineRemoved:
			removed = append(removed, l.OldLineNumber)
		}
	}
	return added, removed
}

// FileStat summarizes line counts for one file of a diff.
type FileStat struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Changed int    `json:"changed"`
	Deleted int    `json:"deleted"`
}
