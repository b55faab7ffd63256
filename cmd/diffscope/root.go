package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/agusespa/diffscope/internal/agent"
	"github.com/agusespa/diffscope/internal/tools"
	"github.com/agusespa/diffscope/pkg/config"
	"github.com/spf13/cobra"
)

var (
	configFlag    string
	repoFlag      string
	baseFlag      string
	headFlag      string
	directionFlag string
	formatFlag    string
	outputFlag    string
	verboseFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "diffscope",
	Short: "Order, summarize and scope the impact of a change set",
	Long: `diffscope reads a git diff of a JS/TS repository and tells a reviewer where to
start: the changed files in dependency order, the declarations each change
touches, and the files elsewhere in the tree that use them.

Revisions:
  --head :staged   the git index (default)
  --head worktree  the files on disk
  --head <rev>     any git revision`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("diffscope version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to configuration file (default: <repo>/"+config.DefaultConfigFile+")")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", ".", "Repository root")
	rootCmd.PersistentFlags().StringVar(&baseFlag, "base", "HEAD", "Base revision of the diff")
	rootCmd.PersistentFlags().StringVar(&headFlag, "head", tools.RevisionStaged, "Head revision of the diff (:staged, worktree or a git revision)")
	rootCmd.PersistentFlags().StringVar(&directionFlag, "direction", "top-down", "Review order: top-down, bottom-up or alphabetical")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "markdown", "Output format (markdown, json)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "Write output to this file instead of stdout")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
}

// environment is what every subcommand needs to run a review.
type environment struct {
	config *config.Config
	logger *slog.Logger
	source *tools.GitSource
	agent  *agent.ReviewAgent
}

func setup() (*environment, error) {
	if formatFlag != "markdown" && formatFlag != "json" {
		return nil, fmt.Errorf("unsupported format %q", formatFlag)
	}

	root, err := filepath.Abs(repoFlag)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository root: %w", err)
	}

	configFile := configFlag
	if configFile == "" {
		configFile = filepath.Join(root, config.DefaultConfigFile)
	}
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configFile, err)
	}

	logger, err := newLogger(os.Stderr, cfg.Log)
	if err != nil {
		return nil, err
	}

	source := tools.NewGitSource(root)
	return &environment{
		config: cfg,
		logger: logger,
		source: source,
		agent:  agent.NewReviewAgent(source, tools.NewParserRegistry(), cfg, nil, logger),
	}, nil
}

func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verboseFlag {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// revision maps the CLI spelling of a revision onto a source revision.
func revision(s string) string {
	switch s {
	case "worktree", "working-tree":
		return tools.RevisionWorktree
	case "staged", "cached":
		return tools.RevisionStaged
	default:
		return s
	}
}
