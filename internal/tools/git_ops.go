package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/agusespa/diffscope/internal/types"
	"github.com/agusespa/diffscope/internal/utils"
)

// GitSource reads revisions from a git repository by shelling out to git.
type GitSource struct {
	root string
}

func NewGitSource(root string) *GitSource {
	return &GitSource{root: root}
}

func (g *GitSource) Root() string {
	return g.root
}

func (g *GitSource) git(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-c", "core.quotepath=off"}, args...)...)
	cmd.Dir = g.root

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	return output, nil
}

func (g *GitSource) Content(ctx context.Context, revision, path string) ([]byte, error) {
	switch revision {
	case RevisionWorktree:
		content, err := os.ReadFile(filepath.Join(g.root, filepath.FromSlash(path)))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", types.ErrSourceAccess, path, err)
		}
		return content, nil
	case RevisionStaged:
		revision = ""
	}

	content, err := g.git(ctx, "show", revision+":"+path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s@%s: %w", types.ErrSourceAccess, path, revision, err)
	}
	return content, nil
}

func (g *GitSource) ListTrackedFiles(ctx context.Context, revision string) ([]string, error) {
	var (
		output []byte
		err    error
	)
	switch revision {
	case RevisionWorktree, RevisionStaged:
		output, err = g.git(ctx, "ls-files")
	default:
		output, err = g.git(ctx, "ls-tree", "-r", "--name-only", "--full-tree", revision)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: listing files at %q: %w", types.ErrSourceAccess, revision, err)
	}
	return utils.ParseFileList(string(output)), nil
}

// UnifiedDiff returns the diff from revisionA to revisionB. RevisionStaged as
// revisionB compares against the index, RevisionWorktree against the files on disk.
func (g *GitSource) UnifiedDiff(ctx context.Context, revisionA, revisionB string) (string, error) {
	args := []string{"diff", "--no-color", "--no-ext-diff", "-M"}
	switch revisionB {
	case RevisionStaged:
		args = append(args, "--staged")
		if revisionA != "" {
			args = append(args, revisionA)
		}
	case RevisionWorktree:
		if revisionA != "" {
			args = append(args, revisionA)
		}
	default:
		args = append(args, revisionA, revisionB)
	}
	args = append(args, "--")

	output, err := g.git(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrDiffUnavailable, err)
	}
	return string(output), nil
}
