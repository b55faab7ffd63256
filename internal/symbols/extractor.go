package symbols

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agusespa/diffscope/internal/tools"
	"github.com/agusespa/diffscope/internal/types"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is how many files are fetched or parsed at once.
const DefaultBatchSize = 10

// Extractor finds the declarations of changed files at a revision, reusing
// cached results for content it has seen before.
type Extractor struct {
	source    tools.SourceProvider
	parser    tools.SyntaxParser
	cache     Cache
	batchSize int
	logger    *slog.Logger
}

type Option func(*Extractor)

func WithBatchSize(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor wires an extractor. A nil cache gets a fresh MemoryCache.
func NewExtractor(source tools.SourceProvider, parser tools.SyntaxParser, cache Cache, opts ...Option) *Extractor {
	if cache == nil {
		cache = NewMemoryCache()
	}
	e := &Extractor{
		source:    source,
		parser:    parser,
		cache:     cache,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type pending struct {
	path    string
	content []byte
	key     CacheKey
	decls   []types.SymbolDeclaration
	ok      bool
}

// Extract returns the declarations of each file at revision, in the order of
// files. Files that cannot be read or parsed, unsupported files and files
// with no declarations are left out; failures are logged, never returned.
func (e *Extractor) Extract(ctx context.Context, revision string, files []string) []types.FileSymbols {
	start := time.Now()
	ctx, span := startExtractSpan(ctx, len(files))
	defer span.End()

	var work []*pending
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if seen[f] {
			continue
		}
		seen[f] = true
		if !e.parser.Supports(f) {
			e.logger.Debug("skipping unsupported file", slog.String("file", f))
			continue
		}
		work = append(work, &pending{path: f})
	}

	err := runBatches(ctx, len(work), e.batchSize, func(ctx context.Context, i int) {
		p := work[i]
		content, err := e.source.Content(ctx, revision, p.path)
		if err != nil {
			e.logger.Warn("could not read file for extraction", slog.String("file", p.path), slog.Any("error", err))
			return
		}
		p.content = content
		p.key = NewCacheKey(p.path, content)
		p.ok = true
	})

	var misses []*pending
	hits := 0
	for _, p := range work {
		if !p.ok {
			continue
		}
		if decls, found := e.cache.Get(p.key); found {
			p.decls = decls
			hits++
			continue
		}
		p.ok = false
		misses = append(misses, p)
	}

	if err == nil {
		err = runBatches(ctx, len(misses), e.batchSize, func(ctx context.Context, i int) {
			p := misses[i]
			decls, err := e.ExtractContent(ctx, p.path, p.content)
			if err != nil {
				e.logger.Warn("symbol extraction failed", slog.String("file", p.path), slog.Any("error", err))
				return
			}
			e.cache.Put(p.key, decls)
			p.decls = decls
			p.ok = true
		})
	}
	if err != nil {
		e.logger.Warn("extraction stopped early", slog.Any("error", err))
	}

	var out []types.FileSymbols
	for _, p := range work {
		if p.ok && len(p.decls) > 0 {
			out = append(out, types.FileSymbols{Path: p.path, Symbols: p.decls})
		}
	}

	recordExtractMetrics(ctx, time.Since(start), len(work), hits, len(misses))
	e.logger.Debug("symbols extracted",
		slog.Int("files", len(work)),
		slog.Int("cache_hits", hits),
		slog.Int("parsed", len(misses)),
		slog.Duration("duration", time.Since(start)))
	return out
}

// ExtractContent parses one file's content and returns its declarations,
// bypassing the cache.
func (e *Extractor) ExtractContent(ctx context.Context, path string, content []byte) ([]types.SymbolDeclaration, error) {
	tree, err := e.parser.Parse(ctx, path, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrExtractionFailure, path, err)
	}
	return ExtractDeclarations(tree), nil
}

// runBatches runs fn over [0, n) in consecutive batches of size. Members of
// a batch run concurrently and every batch is joined before the next starts.
func runBatches(ctx context.Context, n, size int, fn func(ctx context.Context, i int)) error {
	if size <= 0 {
		size = DefaultBatchSize
	}
	for start := 0; start < n; start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+size, n)

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				fn(gctx, i)
				return nil
			})
		}
		_ = g.Wait()
	}
	return nil
}
