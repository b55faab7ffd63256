package tools

import "context"

const (
	// RevisionWorktree addresses the files on disk.
	RevisionWorktree = ""
	// RevisionStaged addresses the git index.
	RevisionStaged = ":staged"
)

// SourceProvider gives read access to revisions of a tracked file tree.
// Implementations must be safe for concurrent use.
type SourceProvider interface {
	Content(ctx context.Context, revision, path string) ([]byte, error)
	ListTrackedFiles(ctx context.Context, revision string) ([]string, error)
	UnifiedDiff(ctx context.Context, revisionA, revisionB string) (string, error)
}
