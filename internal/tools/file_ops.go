package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/agusespa/diffscope/internal/types"
)

// MemorySource is a SourceProvider over in-memory snapshots, for callers that
// already hold the file contents of each revision.
type MemorySource struct {
	mu        sync.RWMutex
	revisions map[string]map[string]string
	diffs     map[[2]string]string
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		revisions: make(map[string]map[string]string),
		diffs:     make(map[[2]string]string),
	}
}

// SetFile stores the content of path at revision.
func (m *MemorySource) SetFile(revision, path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	files, ok := m.revisions[revision]
	if !ok {
		files = make(map[string]string)
		m.revisions[revision] = files
	}
	files[path] = content
}

// SetDiff stores the unified diff returned for the revision pair.
func (m *MemorySource) SetDiff(revisionA, revisionB, diff string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.diffs[[2]string{revisionA, revisionB}] = diff
}

func (m *MemorySource) Content(_ context.Context, revision, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	content, ok := m.revisions[revision][path]
	if !ok {
		return nil, fmt.Errorf("%w: %s not found at %q", types.ErrSourceAccess, path, revision)
	}
	return []byte(content), nil
}

func (m *MemorySource) ListTrackedFiles(_ context.Context, revision string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files, ok := m.revisions[revision]
	if !ok {
		return nil, fmt.Errorf("%w: unknown revision %q", types.ErrSourceAccess, revision)
	}
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (m *MemorySource) UnifiedDiff(_ context.Context, revisionA, revisionB string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	diff, ok := m.diffs[[2]string{revisionA, revisionB}]
	if !ok {
		return "", fmt.Errorf("%w: no diff for %q..%q", types.ErrDiffUnavailable, revisionA, revisionB)
	}
	return diff, nil
}
