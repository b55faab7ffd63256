package utils

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/agusespa/diffscope/internal/types"
)

const fileHeaderPrefix = "diff --git "

var (
	fileHeaderPattern = regexp.MustCompile(`^a/(.+?) b/(.+)$`)
	hunkHeaderPattern = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)
)

// HunkHeader is the decoded form of "@@ -oldStart,oldLines +newStart,newLines @@".
type HunkHeader struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
}

// ParseHunkHeader decodes a hunk header. Omitted lengths default to 1.
func ParseHunkHeader(header string) (HunkHeader, bool) {
	m := hunkHeaderPattern.FindStringSubmatch(header)
	if m == nil {
		return HunkHeader{}, false
	}

	h := HunkHeader{OldLines: 1, NewLines: 1}
	var err error
	if h.OldStart, err = strconv.Atoi(m[1]); err != nil {
		return HunkHeader{}, false
	}
	if h.NewStart, err = strconv.Atoi(m[3]); err != nil {
		return HunkHeader{}, false
	}
	if m[2] != "" {
		if h.OldLines, err = strconv.Atoi(m[2]); err != nil {
			return HunkHeader{}, false
		}
	}
	if m[4] != "" {
		if h.NewLines, err = strconv.Atoi(m[4]); err != nil {
			return HunkHeader{}, false
		}
	}
	return h, true
}

// ParseFileHeader extracts the old and new paths from a "diff --git a/<old> b/<new>" line.
func ParseFileHeader(line string) (oldPath, newPath string, ok bool) {
	rest, found := strings.CutPrefix(line, fileHeaderPrefix)
	if !found {
		return "", "", false
	}

	// "a/X b/X" is split in the middle so that paths containing " b/" survive.
	if n := len(rest); n%2 == 1 && n > 5 {
		half := (n - 1) / 2
		left, right := rest[:half], rest[half+1:]
		if rest[half] == ' ' && strings.HasPrefix(left, "a/") && strings.HasPrefix(right, "b/") && left[2:] == right[2:] {
			return left[2:], right[2:], true
		}
	}

	m := fileHeaderPattern.FindStringSubmatch(rest)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

type diffParser struct {
	files   []types.FileDiff
	current *types.FileDiff
	oldLine int
	newLine int
}

// ParseDiff turns raw unified diff text into per-file line records. It never
// fails: malformed file headers and hunk headers are skipped and parsing
// carries on with whatever state it had.
func ParseDiff(raw string) []types.FileDiff {
	p := &diffParser{}
	for _, line := range strings.Split(raw, "\n") {
		p.consume(strings.TrimSuffix(line, "\r"))
	}
	p.flush()

	if p.files == nil {
		return []types.FileDiff{}
	}
	return p.files
}

func (p *diffParser) flush() {
	if p.current != nil {
		p.files = append(p.files, *p.current)
		p.current = nil
	}
}

func (p *diffParser) consume(line string) {
	if strings.HasPrefix(line, fileHeaderPrefix) {
		p.flush()
		oldPath, newPath, ok := ParseFileHeader(line)
		if !ok {
			// lines up to the next valid header belong to no file
			return
		}
		p.current = &types.FileDiff{Path: newPath, Lines: []types.DiffLine{}}
		if oldPath != newPath {
			p.current.OldPath = oldPath
		}
		p.oldLine, p.newLine = 0, 0
		return
	}

	if p.current == nil {
		return
	}

	switch {
	case strings.HasPrefix(line, "new file"):
		p.current.IsNew = true
	case strings.HasPrefix(line, "deleted file"):
		p.current.IsDeleted = true
	case strings.HasPrefix(line, "@@"):
		h, ok := ParseHunkHeader(line)
		if !ok {
			return
		}
		p.oldLine, p.newLine = h.OldStart, h.NewStart
		p.current.Lines = append(p.current.Lines, types.DiffLine{
			Kind:         types.LineContext,
			Content:      line,
			IsHunkHeader: true,
		})
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		// file markers
	case strings.HasPrefix(line, "+"):
		p.current.Lines = append(p.current.Lines, types.DiffLine{
			Kind:          types.LineAdded,
			Content:       line[1:],
			NewLineNumber: p.newLine,
		})
		p.newLine++
	case strings.HasPrefix(line, "-"):
		p.current.Lines = append(p.current.Lines, types.DiffLine{
			Kind:          types.LineRemoved,
			Content:       line[1:],
			OldLineNumber: p.oldLine,
		})
		p.oldLine++
	case strings.HasPrefix(line, " "):
		p.current.Lines = append(p.current.Lines, types.DiffLine{
			Kind:          types.LineContext,
			Content:       line[1:],
			NewLineNumber: p.newLine,
			OldLineNumber: p.oldLine,
		})
		p.oldLine++
		p.newLine++
	}
}

// ChangedFiles lists the paths touched by a parsed diff. Deleted files are
// included under their own path.
func ChangedFiles(files []types.FileDiff) []string {
	paths := make([]string, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if f.Path == "" || seen[f.Path] {
			continue
		}
		seen[f.Path] = true
		paths = append(paths, f.Path)
	}
	return paths
}
