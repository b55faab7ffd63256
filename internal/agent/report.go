package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agusespa/diffscope/internal/tools"
	"github.com/agusespa/diffscope/internal/types"
	"github.com/agusespa/diffscope/internal/utils"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
)

// DefaultSnippetLimit caps the usage lines quoted per affected file.
const DefaultSnippetLimit = 5

type ReportGenerator struct {
	source       tools.SourceProvider
	snippetLimit int
}

// NewReportGenerator returns a generator that quotes usage lines read from
// source. A nil source renders usages without code.
func NewReportGenerator(source tools.SourceProvider) *ReportGenerator {
	return &ReportGenerator{
		source:       source,
		snippetLimit: DefaultSnippetLimit,
	}
}

func (r *ReportGenerator) GenerateMarkdownReport(ctx context.Context, result *types.ReviewResult) string {
	var reportBuilder strings.Builder
	reportBuilder.WriteString("# Change Review Report\n\n")
	reportBuilder.WriteString(fmt.Sprintf("**Run:** `%s`\n", result.RunID))
	reportBuilder.WriteString(fmt.Sprintf("**Range:** `%s` .. `%s`\n\n", revisionLabel(result.Base), revisionLabel(result.Head)))

	if result.Degraded {
		reportBuilder.WriteString("> ⚠️ Analysis timed out. Files are listed alphabetically, without symbol or impact analysis.\n\n")
	}
	if result.Approximate {
		reportBuilder.WriteString("> ⚠️ Import cycles were broken while ordering, so the order is only approximately dependency-correct.\n\n")
	}

	r.writeOrder(&reportBuilder, result)
	r.writeSymbols(&reportBuilder, result)
	r.writeImpact(ctx, &reportBuilder, result)

	high, medium, low := impactCounts(result.Impact)
	reportBuilder.WriteString(fmt.Sprintf("\n**Summary:** %s to review, %s, %s (%d high, %d medium, %d low)\n",
		english.Plural(len(result.Order), "file", "files"),
		english.Plural(symbolCount(result.Symbols), "changed symbol", "changed symbols"),
		english.Plural(high+medium+low, "affected file", "affected files"),
		high, medium, low))

	return reportBuilder.String()
}

func (r *ReportGenerator) writeOrder(b *strings.Builder, result *types.ReviewResult) {
	b.WriteString(fmt.Sprintf("## Review Order (%s)\n\n", result.Direction))
	if len(result.Order) == 0 {
		b.WriteString("No changed files.\n\n")
		return
	}

	stats := make(map[string]types.FileStat, len(result.Stats))
	for _, s := range result.Stats {
		stats[s.Path] = s
	}
	diffs := make(map[string]types.FileDiff, len(result.Files))
	for _, f := range result.Files {
		diffs[f.Path] = f
	}

	for i, p := range result.Order {
		line := fmt.Sprintf("%d. `%s`", i+1, p)
		if s, ok := stats[p]; ok {
			line += fmt.Sprintf(" (+%d -%d)", s.Added+s.Changed, s.Deleted+s.Changed)
		}
		if fd, ok := diffs[p]; ok {
			switch {
			case fd.IsNew:
				line += " 🆕 new"
			case fd.IsDeleted:
				line += " 🗑️ deleted"
			case fd.OldPath != "":
				line += fmt.Sprintf(" renamed from `%s`", fd.OldPath)
			}
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
}

func (r *ReportGenerator) writeSymbols(b *strings.Builder, result *types.ReviewResult) {
	if len(result.Symbols) == 0 {
		return
	}
	b.WriteString("## Changed Symbols\n\n")
	for _, f := range result.Symbols {
		b.WriteString(fmt.Sprintf("### `%s`\n", f.Path))
		for _, s := range f.Symbols {
			name := s.Name
			if s.OwningClass != "" {
				name = s.OwningClass + "." + s.Name
			}
			exported := ""
			if s.IsExported {
				exported = ", exported"
			}
			b.WriteString(fmt.Sprintf("- %s `%s` (line %d%s)\n", s.Kind, name, s.DefinitionLine, exported))
		}
		b.WriteString("\n")
	}
}

func (r *ReportGenerator) writeImpact(ctx context.Context, b *strings.Builder, result *types.ReviewResult) {
	if result.Impact == nil {
		return
	}
	report := result.Impact
	b.WriteString("## Impact\n\n")
	b.WriteString(fmt.Sprintf("Scanned %s files (%s skipped) in %dms.\n\n",
		humanize.Comma(int64(report.TotalFilesScanned)), humanize.Comma(int64(report.SkippedFiles)), report.DurationMs))

	if len(report.AffectedFiles) == 0 {
		b.WriteString("No usages of the changed symbols were found.\n")
		return
	}

	for _, f := range report.AffectedFiles {
		b.WriteString(fmt.Sprintf("### %s %s `%s` (%s)\n",
			impactIcon(f.ImpactLevel), strings.ToUpper(string(f.ImpactLevel)), f.Path,
			english.Plural(len(f.Usages), "usage", "usages")))
		b.WriteString("| Symbol | Usage | Location |\n|---|---|---|\n")
		for _, u := range f.Usages {
			b.WriteString(fmt.Sprintf("| `%s` | %s | %d:%d |\n", u.Name, u.UsageKind, u.Line, u.Column))
		}
		b.WriteString("\n")
		r.writeSnippet(ctx, b, result.Head, f)
		b.WriteString("---\n\n")
	}
}

// writeSnippet quotes the first usage lines of a file from the head revision.
func (r *ReportGenerator) writeSnippet(ctx context.Context, b *strings.Builder, head string, f types.AffectedFile) {
	if r.source == nil || len(f.Usages) == 0 {
		return
	}
	content, err := r.source.Content(ctx, head, f.Path)
	if err != nil {
		b.WriteString(fmt.Sprintf("⚪️ Could not retrieve code: %v\n\n", err))
		return
	}

	lines := strings.Split(string(content), "\n")
	language := utils.DetectLanguageFromFilePath(f.Path)
	b.WriteString(fmt.Sprintf("```%s\n", language))
	seen := make(map[int]bool)
	for _, u := range f.Usages {
		if len(seen) == r.snippetLimit {
			break
		}
		if seen[u.Line] || u.Line <= 0 || u.Line > len(lines) {
			continue
		}
		seen[u.Line] = true
		b.WriteString(fmt.Sprintf("%4d | %s\n", u.Line, lines[u.Line-1]))
	}
	b.WriteString("```\n\n")
}

func impactIcon(level types.ImpactLevel) string {
	switch level {
	case types.ImpactHigh:
		return "🔴"
	case types.ImpactMedium:
		return "🟡"
	case types.ImpactLow:
		return "🔵"
	default:
		return "⚪️"
	}
}

func impactCounts(report *types.ImpactReport) (high, medium, low int) {
	if report == nil {
		return 0, 0, 0
	}
	for _, f := range report.AffectedFiles {
		switch f.ImpactLevel {
		case types.ImpactHigh:
			high++
		case types.ImpactMedium:
			medium++
		case types.ImpactLow:
			low++
		}
	}
	return high, medium, low
}

func symbolCount(files []types.FileSymbols) int {
	n := 0
	for _, f := range files {
		n += len(f.Symbols)
	}
	return n
}

func revisionLabel(revision string) string {
	switch revision {
	case tools.RevisionWorktree:
		return "working tree"
	case tools.RevisionStaged:
		return "staged"
	default:
		return revision
	}
}

// WriteReport writes a rendered report, creating parent directories.
func WriteReport(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write markdown report: %w", err)
	}
	return nil
}

func PrintReviewSummary(w io.Writer, result *types.ReviewResult, reportPath string) {
	fmt.Fprintln(w, "---")
	if result.Degraded {
		fmt.Fprintln(w, "⚠️ Analysis timed out - showing files alphabetically")
	}

	fmt.Fprint(w, "Review order:")
	if len(result.Order) == 0 {
		fmt.Fprintln(w, "\n   ✕ no changes found")
	}
	for i, p := range result.Order {
		fmt.Fprintf(w, "\n   %d. %s", i+1, p)
	}
	if len(result.Order) > 0 {
		fmt.Fprintln(w)
	}

	if n := symbolCount(result.Symbols); n > 0 {
		fmt.Fprintf(w, "🔎 %s in %s\n",
			english.Plural(n, "changed symbol", "changed symbols"),
			english.Plural(len(result.Symbols), "file", "files"))
	}
	if result.Impact != nil {
		high, medium, low := impactCounts(result.Impact)
		if high+medium+low == 0 {
			fmt.Fprintln(w, "✅ No usages of the changed symbols outside the diff")
		} else {
			fmt.Fprintf(w, "⚠️ %s affected - %d high, %d medium and %d low impact\n",
				english.Plural(high+medium+low, "file", "files"), high, medium, low)
		}
	}
	if reportPath != "" {
		fmt.Fprintf(w, "💾 Detailed report saved to %s\n", reportPath)
	}
}
