package symbols

import (
	"github.com/agusespa/diffscope/internal/types"
	"github.com/agusespa/diffscope/internal/utils"
)

// TouchedLines returns the new-side lines a file diff touches. Added lines
// count as themselves; a run of removed lines counts as the new-side line it
// was removed in front of.
func TouchedLines(fd types.FileDiff) map[int]bool {
	touched := make(map[int]bool)
	lastNew := 0
	for _, l := range fd.Lines {
		switch {
		case l.IsHunkHeader:
			if h, ok := utils.ParseHunkHeader(l.Content); ok {
				lastNew = h.NewStart - 1
			}
		case l.Kind == types.LineAdded:
			touched[l.NewLineNumber] = true
			lastNew = l.NewLineNumber
		case l.Kind == types.LineRemoved:
			touched[lastNew+1] = true
		default:
			lastNew = l.NewLineNumber
		}
	}
	return touched
}

// FilterTouched keeps the declarations whose line span intersects the lines
// changed by fd. Every declaration of a new file is touched; nothing in a
// deleted file is.
func FilterTouched(decls []types.SymbolDeclaration, fd types.FileDiff) []types.SymbolDeclaration {
	if fd.IsDeleted {
		return nil
	}
	if fd.IsNew {
		return decls
	}

	touched := TouchedLines(fd)
	if len(touched) == 0 {
		return nil
	}

	var out []types.SymbolDeclaration
	for _, d := range decls {
		end := d.EndLine
		if end < d.DefinitionLine {
			end = d.DefinitionLine
		}
		for line := d.DefinitionLine; line <= end; line++ {
			if touched[line] {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// FilterTouchedFiles applies FilterTouched per file, matching results to
// diffs by path. Files left with no touched declarations are dropped.
func FilterTouchedFiles(files []types.FileSymbols, diffs []types.FileDiff) []types.FileSymbols {
	byPath := make(map[string]types.FileDiff, len(diffs))
	for _, d := range diffs {
		byPath[d.Path] = d
	}

	var out []types.FileSymbols
	for _, f := range files {
		fd, ok := byPath[f.Path]
		if !ok {
			continue
		}
		if kept := FilterTouched(f.Symbols, fd); len(kept) > 0 {
			out = append(out, types.FileSymbols{Path: f.Path, Symbols: kept})
		}
	}
	return out
}
