package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/agusespa/diffscope/internal/tools"
	"github.com/agusespa/diffscope/internal/types"
)

// DependencyGraph is a directed graph of files, with an edge from each file
// to every tracked file it imports. Node iteration order is insertion order.
type DependencyGraph struct {
	nodes    map[string]*types.FileAnalysis
	order    []string
	edges    []types.DependencyEdge
	adjacent map[string][]string
}

func newDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes:    make(map[string]*types.FileAnalysis),
		adjacent: make(map[string][]string),
	}
}

func (g *DependencyGraph) addNode(analysis types.FileAnalysis) {
	if _, ok := g.nodes[analysis.Path]; ok {
		return
	}
	a := analysis
	g.nodes[a.Path] = &a
	g.order = append(g.order, a.Path)
}

func (g *DependencyGraph) addEdge(edge types.DependencyEdge) {
	g.edges = append(g.edges, edge)
	for _, existing := range g.adjacent[edge.From] {
		if existing == edge.To {
			return
		}
	}
	g.adjacent[edge.From] = append(g.adjacent[edge.From], edge.To)
}

// Paths returns the node paths in insertion order.
func (g *DependencyGraph) Paths() []string {
	return append([]string(nil), g.order...)
}

// Len is the number of nodes.
func (g *DependencyGraph) Len() int {
	return len(g.order)
}

// Has reports whether path is a node of the graph.
func (g *DependencyGraph) Has(path string) bool {
	_, ok := g.nodes[path]
	return ok
}

// Analysis returns the per-file analysis recorded for path.
func (g *DependencyGraph) Analysis(path string) (types.FileAnalysis, bool) {
	a, ok := g.nodes[path]
	if !ok {
		return types.FileAnalysis{}, false
	}
	return *a, true
}

// Edges returns every resolved import edge, one per import statement.
func (g *DependencyGraph) Edges() []types.DependencyEdge {
	return append([]types.DependencyEdge(nil), g.edges...)
}

// Dependencies returns the distinct files path imports, in import order.
func (g *DependencyGraph) Dependencies(path string) []string {
	return append([]string(nil), g.adjacent[path]...)
}

// Dependents returns the files importing path, sorted.
func (g *DependencyGraph) Dependents(path string) []string {
	var out []string
	for _, from := range g.order {
		for _, to := range g.adjacent[from] {
			if to == path {
				out = append(out, from)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// Builder builds dependency graphs over a snapshot of file contents.
type Builder struct {
	parser     tools.SyntaxParser
	extensions []string
	logger     *slog.Logger
}

type BuilderOption func(*Builder)

// WithExtensions sets the extension probe order used for import resolution.
func WithExtensions(exts []string) BuilderOption {
	return func(b *Builder) {
		if len(exts) > 0 {
			b.extensions = append([]string(nil), exts...)
		}
	}
}

func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func NewBuilder(parser tools.SyntaxParser, opts ...BuilderOption) *Builder {
	b := &Builder{
		parser:     parser,
		extensions: DefaultExtensions,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build parses every file and links relative imports that resolve to another
// file of the snapshot. Every input file becomes a node, including files that
// fail to parse. Unresolvable imports are dropped.
func (b *Builder) Build(ctx context.Context, contents map[string][]byte) (*DependencyGraph, error) {
	if b.parser == nil {
		return nil, fmt.Errorf("%w: no syntax parser configured", types.ErrOrderingFailure)
	}

	start := time.Now()
	ctx, span := startBuildSpan(ctx, len(contents))
	defer span.End()

	paths := make([]string, 0, len(contents))
	for p := range contents {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	g := newDependencyGraph()
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			recordBuildMetrics(ctx, time.Since(start), g.Len(), len(g.edges), false)
			return nil, fmt.Errorf("%w: %w", types.ErrOrderingFailure, err)
		}
		g.addNode(b.analyze(ctx, p, contents[p]))
	}

	exists := func(p string) bool { return g.Has(p) }
	for _, from := range g.order {
		for _, imp := range g.nodes[from].Imports {
			if !IsRelative(imp.Specifier) {
				continue
			}
			to, ok := ResolveImport(from, imp.Specifier, b.extensions, exists)
			if !ok {
				b.logger.Debug("dropping import",
					slog.String("file", from),
					slog.Any("error", fmt.Errorf("%w: %q", types.ErrUnresolvedImport, imp.Specifier)))
				continue
			}
			g.addEdge(types.DependencyEdge{From: from, To: to, ImportedNames: imp.Names})
		}
	}

	recordBuildMetrics(ctx, time.Since(start), g.Len(), len(g.edges), true)
	b.logger.Debug("dependency graph built",
		slog.Int("nodes", g.Len()),
		slog.Int("edges", len(g.edges)),
		slog.Duration("duration", time.Since(start)))
	return g, nil
}

func (b *Builder) analyze(ctx context.Context, path string, content []byte) types.FileAnalysis {
	if !b.parser.Supports(path) {
		return types.FileAnalysis{Path: path}
	}
	tree, err := b.parser.Parse(ctx, path, content)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, types.ErrUnsupportedDialect) {
			level = slog.LevelDebug
		}
		b.logger.Log(ctx, level, "file left without edges", slog.String("file", path), slog.Any("error", err))
		return types.FileAnalysis{Path: path}
	}
	return AnalyzeFile(tree)
}
