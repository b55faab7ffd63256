package usage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"sync/atomic"
	"time"

	"github.com/agusespa/diffscope/internal/graph"
	"github.com/agusespa/diffscope/internal/tools"
	"github.com/agusespa/diffscope/internal/types"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers         = 8
	DefaultHighThreshold   = 10
	DefaultMediumThreshold = 3
)

// Excluder reports paths that should not be scanned for usages.
type Excluder interface {
	ShouldExcludeFile(filePath string) bool
}

// Scanner looks for references to changed symbols across the tracked tree.
type Scanner struct {
	source          tools.SourceProvider
	parser          tools.SyntaxParser
	excluder        Excluder
	patterns        []string
	extensions      []string
	workers         int
	highThreshold   int
	mediumThreshold int
	logger          *slog.Logger
}

type Option func(*Scanner)

func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithThresholds sets the usage counts above which a file is rated high or
// medium impact regardless of usage kinds.
func WithThresholds(high, medium int) Option {
	return func(s *Scanner) {
		if high > 0 {
			s.highThreshold = high
		}
		if medium > 0 {
			s.mediumThreshold = medium
		}
	}
}

// WithExcludePatterns adds path.Match patterns, tried against both the full
// path and its base name.
func WithExcludePatterns(patterns []string) Option {
	return func(s *Scanner) {
		s.patterns = append(s.patterns, patterns...)
	}
}

func WithExtensions(exts []string) Option {
	return func(s *Scanner) {
		if len(exts) > 0 {
			s.extensions = exts
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScanner wires a scanner. When parser also implements Excluder it is
// used to skip generated, vendored and test files.
func NewScanner(source tools.SourceProvider, parser tools.SyntaxParser, opts ...Option) *Scanner {
	s := &Scanner{
		source:          source,
		parser:          parser,
		extensions:      graph.DefaultExtensions,
		workers:         DefaultWorkers,
		highThreshold:   DefaultHighThreshold,
		mediumThreshold: DefaultMediumThreshold,
		logger:          slog.Default(),
	}
	if ex, ok := parser.(Excluder); ok {
		s.excluder = ex
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lookup indexes defined symbols by name.
type lookup struct {
	definedIn map[string][]string
	needles   [][]byte
}

func newLookup(defined []types.DefinedSymbol) lookup {
	l := lookup{definedIn: make(map[string][]string)}
	for _, d := range defined {
		if d.Name == "" || d.Name == "default" {
			continue
		}
		paths := l.definedIn[d.Name]
		if len(paths) == 0 {
			l.needles = append(l.needles, []byte(d.Name))
		}
		dup := false
		for _, p := range paths {
			if p == d.DefinedInPath {
				dup = true
				break
			}
		}
		if !dup {
			l.definedIn[d.Name] = append(paths, d.DefinedInPath)
		}
	}
	return l
}

// mentions is a cheap textual prefilter before parsing.
func (l lookup) mentions(content []byte) bool {
	for _, n := range l.needles {
		if bytes.Contains(content, n) {
			return true
		}
	}
	return false
}

// Scan enumerates the tracked files of revision, skipping the files that
// define the symbols, and reports every file referencing one of them.
// Unreadable or unparsable files are logged and counted as skipped. The
// only error is a failure to list tracked files.
func (s *Scanner) Scan(ctx context.Context, defined []types.DefinedSymbol, revision string) (*types.ImpactReport, error) {
	start := time.Now()
	ctx, span := startScanSpan(ctx, len(defined))
	defer span.End()

	report := &types.ImpactReport{AffectedFiles: []types.AffectedFile{}}
	l := newLookup(defined)
	if len(l.definedIn) == 0 {
		return report, nil
	}

	tracked, err := s.source.ListTrackedFiles(ctx, revision)
	if err != nil {
		return nil, fmt.Errorf("listing tracked files: %w", err)
	}

	trackedSet := make(map[string]bool, len(tracked))
	for _, p := range tracked {
		trackedSet[p] = true
	}
	exists := func(p string) bool { return trackedSet[p] }

	definingFiles := make(map[string]bool)
	for _, d := range defined {
		definingFiles[d.DefinedInPath] = true
	}

	var candidates []string
	for _, p := range tracked {
		if definingFiles[p] || !s.parser.Supports(p) || s.excluded(p) {
			continue
		}
		candidates = append(candidates, p)
	}

	results := make([][]types.SymbolReference, len(candidates))
	var scanned, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range candidates {
		g.Go(func() error {
			content, err := s.source.Content(gctx, revision, p)
			if err != nil {
				skipped.Add(1)
				s.logger.Warn("skipping unreadable file", slog.String("file", p), slog.Any("error", err))
				return nil
			}
			if !l.mentions(content) {
				scanned.Add(1)
				return nil
			}
			tree, err := s.parser.Parse(gctx, p, content)
			if err != nil {
				skipped.Add(1)
				s.logger.Warn("skipping unparsable file", slog.String("file", p), slog.Any("error", err))
				return nil
			}
			scanned.Add(1)
			results[i] = s.references(tree, l, exists)
			return nil
		})
	}
	_ = g.Wait()

	for i, refs := range results {
		if len(refs) == 0 {
			continue
		}
		report.AffectedFiles = append(report.AffectedFiles, types.AffectedFile{
			Path:        candidates[i],
			Usages:      refs,
			ImpactLevel: s.impactLevel(refs),
		})
	}
	SortAffected(report.AffectedFiles)

	report.TotalFilesScanned = int(scanned.Load())
	report.SkippedFiles = int(skipped.Load())
	report.DurationMs = time.Since(start).Milliseconds()

	recordScanMetrics(ctx, time.Since(start), report.TotalFilesScanned, report.SkippedFiles, len(report.AffectedFiles))
	s.logger.Debug("usage scan finished",
		slog.Int("candidates", len(candidates)),
		slog.Int("scanned", report.TotalFilesScanned),
		slog.Int("skipped", report.SkippedFiles),
		slog.Int("affected", len(report.AffectedFiles)),
		slog.Int64("duration_ms", report.DurationMs))
	return report, nil
}

func (s *Scanner) excluded(p string) bool {
	if s.excluder != nil && s.excluder.ShouldExcludeFile(p) {
		return true
	}
	for _, pattern := range s.patterns {
		if ok, _ := path.Match(pattern, p); ok {
			return true
		}
		if ok, _ := path.Match(pattern, path.Base(p)); ok {
			return true
		}
	}
	return false
}

// references walks the identifiers of one file. String and template
// contents are never identifiers, so mentions inside literals are ignored.
func (s *Scanner) references(tree *tools.SyntaxTree, l lookup, exists func(string) bool) []types.SymbolReference {
	var refs []types.SymbolReference
	tree.Root.Walk(func(n *tools.SyntaxNode) bool {
		if !n.IsIdentifier() {
			return true
		}
		definedIn, ok := l.definedIn[n.Name]
		if !ok {
			return true
		}
		kind, ok := classify(n)
		if !ok {
			return true
		}
		if kind == types.UsageImport {
			spec, found := moduleSpecifier(n)
			if !found || !importMatches(tree.Path, spec, definedIn, s.extensions, exists) {
				return true
			}
		}
		refs = append(refs, types.SymbolReference{
			Name:      n.Name,
			File:      tree.Path,
			Line:      n.Line,
			Column:    n.Column,
			UsageKind: kind,
		})
		return true
	})
	return refs
}

// impactLevel rates a file from its usages: imports, instantiations and
// type references are high, calls are medium, and many usages of any kind
// raise the level.
func (s *Scanner) impactLevel(refs []types.SymbolReference) types.ImpactLevel {
	hasCall := false
	for _, r := range refs {
		switch r.UsageKind {
		case types.UsageImport, types.UsageInstantiation, types.UsageTypeReference:
			return types.ImpactHigh
		case types.UsageCall:
			hasCall = true
		}
	}
	switch {
	case len(refs) > s.highThreshold:
		return types.ImpactHigh
	case hasCall || len(refs) > s.mediumThreshold:
		return types.ImpactMedium
	default:
		return types.ImpactLow
	}
}

// SortAffected orders files by impact level, then usage count, both
// descending, then by path.
func SortAffected(files []types.AffectedFile) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.ImpactLevel.Rank() != b.ImpactLevel.Rank() {
			return a.ImpactLevel.Rank() > b.ImpactLevel.Rank()
		}
		if len(a.Usages) != len(b.Usages) {
			return len(a.Usages) > len(b.Usages)
		}
		return a.Path < b.Path
	})
}
