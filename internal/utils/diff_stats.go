package utils

import (
	"fmt"
	"strings"

	"github.com/agusespa/diffscope/internal/types"
	godiff "github.com/sourcegraph/go-diff/diff"
)

// SummarizeDiff returns per-file line statistics for a multi-file unified diff.
func SummarizeDiff(raw string) ([]types.FileStat, error) {
	if strings.TrimSpace(raw) == "" {
		return []types.FileStat{}, nil
	}

	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff for stats: %w", err)
	}

	stats := make([]types.FileStat, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		path := statPath(fd)
		if path == "" {
			continue
		}
		s := fd.Stat()
		stats = append(stats, types.FileStat{
			Path:    path,
			Added:   int(s.Added),
			Changed: int(s.Changed),
			Deleted: int(s.Deleted),
		})
	}
	return stats, nil
}

func statPath(fd *godiff.FileDiff) string {
	name := fd.NewName
	if name == "" || name == "/dev/null" {
		name = strings.TrimPrefix(fd.OrigName, "a/")
		if name == "/dev/null" {
			return ""
		}
		return name
	}
	return strings.TrimPrefix(name, "b/")
}
