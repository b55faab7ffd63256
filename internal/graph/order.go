package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/agusespa/diffscope/internal/types"
)

// Ordering is a review order together with what had to be given up to
// produce it.
type Ordering struct {
	Paths     []string             `json:"paths"`
	Direction types.OrderDirection `json:"direction"`
	// Approximate is set when at least one import cycle was broken.
	Approximate bool `json:"approximate,omitempty"`
	// BrokenEdges are the back edges ignored to break cycles.
	BrokenEdges []types.DependencyEdge `json:"broken_edges,omitempty"`
	// Fallback is set when the graph could not be built and the order is
	// plain lexicographic.
	Fallback bool `json:"fallback,omitempty"`
}

type visitState uint8

const (
	unvisited visitState = iota
	inProgress
	done
)

type frame struct {
	path string
	next int
}

// Order returns every node of g exactly once. BottomUp places each file after
// the files it imports; TopDown is the reverse. When cycles exist the order
// is still total and deterministic, and the edge that closed each cycle is
// ignored.
func Order(g *DependencyGraph, direction types.OrderDirection) []string {
	return OrderWithReport(g, direction).Paths
}

// OrderWithReport is Order with cycle information. The traversal is an
// iterative depth-first search, so deep import chains cannot exhaust the
// goroutine stack.
func OrderWithReport(g *DependencyGraph, direction types.OrderDirection) Ordering {
	if direction == types.Alphabetical {
		return Ordering{Paths: Lexicographic(g.order), Direction: direction}
	}

	state := make(map[string]visitState, len(g.order))
	post := make([]string, 0, len(g.order))
	var broken []types.DependencyEdge

	for _, root := range g.order {
		if state[root] != unvisited {
			continue
		}
		state[root] = inProgress
		stack := []frame{{path: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.adjacent[top.path]
			if top.next < len(deps) {
				dep := deps[top.next]
				top.next++
				switch state[dep] {
				case unvisited:
					state[dep] = inProgress
					stack = append(stack, frame{path: dep})
				case inProgress:
					if dep != top.path {
						broken = append(broken, types.DependencyEdge{From: top.path, To: dep})
					}
				}
				continue
			}
			state[top.path] = done
			post = append(post, top.path)
			stack = stack[:len(stack)-1]
		}
	}

	if direction != types.BottomUp {
		direction = types.TopDown
		for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
			post[i], post[j] = post[j], post[i]
		}
	}

	return Ordering{
		Paths:       post,
		Direction:   direction,
		Approximate: len(broken) > 0,
		BrokenEdges: broken,
	}
}

// Lexicographic returns a sorted copy of paths.
func Lexicographic(paths []string) []string {
	out := append([]string(nil), paths...)
	sort.Strings(out)
	return out
}

// Restrict keeps the files of interest in the relative order of ordered.
// Files of interest missing from ordered are appended in lexicographic order.
func Restrict(ordered, interest []string) []string {
	wanted := make(map[string]bool, len(interest))
	for _, p := range interest {
		wanted[p] = true
	}

	out := make([]string, 0, len(wanted))
	for _, p := range ordered {
		if wanted[p] {
			out = append(out, p)
			delete(wanted, p)
		}
	}

	rest := make([]string, 0, len(wanted))
	for p := range wanted {
		rest = append(rest, p)
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// OrderFiles builds a graph over contents and orders the files of interest
// by it. Contents may cover more files than interest so that transitive
// relationships through unchanged files are honored. Any failure to build
// the graph yields lexicographic order with Fallback set.
func OrderFiles(ctx context.Context, b *Builder, contents map[string][]byte, interest []string, direction types.OrderDirection) Ordering {
	if direction == types.Alphabetical {
		return Ordering{Paths: Lexicographic(dedupe(interest)), Direction: direction}
	}

	g, err := b.Build(ctx, contents)
	if err != nil {
		b.logger.Warn("falling back to lexicographic order", slog.Any("error", err))
		recordFallback(ctx, "build")
		return Ordering{Paths: Lexicographic(dedupe(interest)), Direction: types.Alphabetical, Fallback: true}
	}

	ordering := OrderWithReport(g, direction)
	recordCycles(ctx, len(ordering.BrokenEdges))
	for _, e := range ordering.BrokenEdges {
		b.logger.Debug("ignoring back edge",
			slog.Any("error", fmt.Errorf("%w: %s -> %s", types.ErrCycleDetected, e.From, e.To)))
	}

	ordering.Paths = Restrict(ordering.Paths, interest)
	return ordering
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
