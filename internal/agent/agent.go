package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/agusespa/diffscope/internal/graph"
	"github.com/agusespa/diffscope/internal/symbols"
	"github.com/agusespa/diffscope/internal/tools"
	"github.com/agusespa/diffscope/internal/types"
	"github.com/agusespa/diffscope/internal/usage"
	"github.com/agusespa/diffscope/internal/utils"
	"github.com/agusespa/diffscope/pkg/config"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ReviewOptions selects what a review computes.
type ReviewOptions struct {
	Base      string
	Head      string
	Direction types.OrderDirection
	// Symbols enables declaration extraction for the changed files.
	Symbols bool
	// AllSymbols keeps every declaration of a changed file instead of only
	// those overlapping the diff.
	AllSymbols bool
	// Impact enables the usage scan. It implies Symbols.
	Impact bool
}

// ReviewAgent runs the review pipeline over one source: diff, ordering,
// symbol extraction and usage scanning. Only a missing diff fails a review;
// every other problem degrades the result.
type ReviewAgent struct {
	source         tools.SourceProvider
	parserRegistry *tools.ParserRegistry
	cache          symbols.Cache
	config         *config.Config
	logger         *slog.Logger
}

func NewReviewAgent(source tools.SourceProvider, parserRegistry *tools.ParserRegistry, cfg *config.Config, cache symbols.Cache, logger *slog.Logger) *ReviewAgent {
	if cfg == nil {
		cfg = config.Default()
	}
	if cache == nil {
		cache = symbols.NewMemoryCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewAgent{
		source:         source,
		parserRegistry: parserRegistry,
		cache:          cache,
		config:         cfg,
		logger:         logger,
	}
}

// run holds the per-request components, all sharing one run-scoped logger.
type run struct {
	id        string
	logger    *slog.Logger
	builder   *graph.Builder
	extractor *symbols.Extractor
	scanner   *usage.Scanner
}

func (a *ReviewAgent) newRun() *run {
	id := uuid.NewString()
	logger := a.logger.With(slog.String("run_id", id))
	return &run{
		id:     id,
		logger: logger,
		builder: graph.NewBuilder(a.parserRegistry,
			graph.WithExtensions(a.config.Graph.Extensions),
			graph.WithLogger(logger)),
		extractor: symbols.NewExtractor(a.source, a.parserRegistry, a.cache,
			symbols.WithBatchSize(a.config.Extraction.BatchSize),
			symbols.WithLogger(logger)),
		scanner: usage.NewScanner(a.source, a.parserRegistry,
			usage.WithWorkers(a.config.Usage.Workers),
			usage.WithThresholds(a.config.Usage.HighUsageThreshold, a.config.Usage.MediumUsageThreshold),
			usage.WithExcludePatterns(a.config.Usage.Exclude),
			usage.WithExtensions(a.config.Graph.Extensions),
			usage.WithLogger(logger)),
	}
}

// Review runs the pipeline. The analysis stages share the configured
// timeout; when it expires the result is degraded to lexicographic order with
// no symbols or impact. Cancellation of ctx itself is returned as an error.
func (a *ReviewAgent) Review(ctx context.Context, opts ReviewOptions) (*types.ReviewResult, error) {
	r := a.newRun()
	if opts.Direction == "" {
		opts.Direction = types.TopDown
	}
	r.logger.Info("starting review", slog.String("base", opts.Base), slog.String("head", opts.Head))

	files, raw, err := a.diff(ctx, r, opts.Base, opts.Head)
	if err != nil {
		return nil, err
	}

	result := &types.ReviewResult{
		RunID:     r.id,
		Base:      opts.Base,
		Head:      opts.Head,
		Files:     files,
		Direction: opts.Direction,
	}

	stats, err := utils.SummarizeDiff(raw)
	if err != nil {
		r.logger.Warn("could not summarize diff", slog.Any("error", err))
	}
	result.Stats = stats

	changed := utils.ChangedFiles(files)
	if len(changed) == 0 {
		r.logger.Info("no changes to review")
		result.Order = []string{}
		return result, nil
	}

	actx, cancel := a.analysisContext(ctx)
	defer cancel()

	ordering := a.order(actx, r, opts.Head, files, opts.Direction)
	result.Order = ordering.Paths
	result.Direction = ordering.Direction
	result.Approximate = ordering.Approximate

	if opts.Symbols || opts.Impact {
		result.Symbols = a.extract(actx, r, opts.Head, files, !opts.AllSymbols)
	}

	if opts.Impact && len(result.Symbols) > 0 {
		result.Impact = a.impact(actx, r, opts.Head, result.Symbols)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if errors.Is(actx.Err(), context.DeadlineExceeded) {
		r.logger.Warn("review timed out, degrading result", slog.Duration("timeout", a.config.Review.Timeout))
		result.Order = graph.Lexicographic(changed)
		result.Direction = types.Alphabetical
		result.Approximate = false
		result.Symbols = nil
		result.Impact = nil
		result.Degraded = true
	}

	r.logger.Info("review finished",
		slog.Int("files", len(result.Order)),
		slog.Int("files_with_symbols", len(result.Symbols)),
		slog.Bool("degraded", result.Degraded))
	return result, nil
}

// Order retrieves the diff and returns only the review order.
func (a *ReviewAgent) Order(ctx context.Context, base, head string, direction types.OrderDirection) (graph.Ordering, error) {
	r := a.newRun()
	files, _, err := a.diff(ctx, r, base, head)
	if err != nil {
		return graph.Ordering{}, err
	}
	if len(files) == 0 {
		return graph.Ordering{Paths: []string{}, Direction: direction}, nil
	}

	actx, cancel := a.analysisContext(ctx)
	defer cancel()
	return a.order(actx, r, head, files, direction), nil
}

// analysisContext bounds the stages after diff retrieval. A non-positive
// timeout means no bound.
func (a *ReviewAgent) analysisContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.Review.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.Review.Timeout)
}

func (a *ReviewAgent) diff(ctx context.Context, r *run, base, head string) ([]types.FileDiff, string, error) {
	raw, err := a.source.UnifiedDiff(ctx, base, head)
	if err != nil {
		if !errors.Is(err, types.ErrDiffUnavailable) {
			err = fmt.Errorf("%w: %w", types.ErrDiffUnavailable, err)
		}
		return nil, "", err
	}

	files := utils.ParseDiff(raw)
	if headers := countFileHeaders(raw); headers > len(files) {
		r.logger.Warn("dropped unparsable file sections",
			slog.Any("error", fmt.Errorf("%w: %d of %d headers", types.ErrMalformedDiffFragment, headers-len(files), headers)))
	}
	r.logger.Debug("diff parsed", slog.Int("files", len(files)))
	return files, raw, nil
}

func countFileHeaders(raw string) int {
	n := 0
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(line, "diff --git ") {
			n++
		}
	}
	return n
}

func (a *ReviewAgent) order(ctx context.Context, r *run, head string, files []types.FileDiff, direction types.OrderDirection) graph.Ordering {
	changed := utils.ChangedFiles(files)
	if direction == types.Alphabetical {
		return graph.Ordering{Paths: graph.Lexicographic(changed), Direction: direction}
	}
	contents := a.collectContents(ctx, r, head, files)
	return graph.OrderFiles(ctx, r.builder, contents, changed, direction)
}

// collectContents fetches the files the graph is built from: every tracked
// source file when the tree is small enough, otherwise the changed files and
// their directory neighbours. Deleted and unreadable files are left out.
func (a *ReviewAgent) collectContents(ctx context.Context, r *run, head string, files []types.FileDiff) map[string][]byte {
	wanted := make(map[string]bool)
	var changedDirs []string
	for _, f := range files {
		if f.IsDeleted || !a.parserRegistry.Supports(f.Path) {
			continue
		}
		wanted[f.Path] = true
		dir := path.Dir(f.Path)
		changedDirs = append(changedDirs, dir, path.Dir(dir))
	}

	tracked, err := a.source.ListTrackedFiles(ctx, head)
	if err != nil {
		r.logger.Warn("could not list tracked files, ordering changed files only", slog.Any("error", err))
	} else {
		var supported []string
		for _, p := range tracked {
			if a.parserRegistry.Supports(p) {
				supported = append(supported, p)
			}
		}
		if len(supported) <= a.config.Graph.MaxFiles {
			for _, p := range supported {
				wanted[p] = true
			}
		} else {
			dirs := make(map[string]bool, len(changedDirs))
			for _, d := range changedDirs {
				dirs[d] = true
			}
			for _, p := range supported {
				if dirs[path.Dir(p)] {
					wanted[p] = true
				}
			}
			r.logger.Debug("tree too large for a full graph, using neighbourhood",
				slog.Int("tracked", len(supported)), slog.Int("selected", len(wanted)))
		}
	}

	paths := make([]string, 0, len(wanted))
	for p := range wanted {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var mu sync.Mutex
	contents := make(map[string][]byte, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(a.config.Graph.FetchWorkers, 1))
	for _, p := range paths {
		g.Go(func() error {
			content, err := a.source.Content(gctx, head, p)
			if err != nil {
				r.logger.Warn("leaving file out of the graph", slog.String("file", p), slog.String("revision", head), slog.Any("error", err))
				return nil
			}
			mu.Lock()
			contents[p] = content
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return contents
}

func (a *ReviewAgent) extract(ctx context.Context, r *run, head string, files []types.FileDiff, touchedOnly bool) []types.FileSymbols {
	var paths []string
	for _, f := range files {
		if !f.IsDeleted {
			paths = append(paths, f.Path)
		}
	}

	extracted := r.extractor.Extract(ctx, head, paths)
	if touchedOnly {
		extracted = symbols.FilterTouchedFiles(extracted, files)
	}
	return extracted
}

func (a *ReviewAgent) impact(ctx context.Context, r *run, head string, fileSymbols []types.FileSymbols) *types.ImpactReport {
	report, err := r.scanner.Scan(ctx, types.DefinedSymbolsFrom(fileSymbols), head)
	if err != nil {
		r.logger.Warn("usage scan unavailable", slog.Any("error", err))
		return nil
	}
	return report
}
