package usage

import (
	"context"
	"errors"
	"testing"

	"github.com/agusespa/diffscope/internal/tools"
	"github.com/agusespa/diffscope/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rev = "HEAD"

var authSymbols = []types.DefinedSymbol{
	{Name: "AuthService", Kind: types.SymbolClass, DefinedInPath: "src/auth.ts"},
	{Name: "login", Kind: types.SymbolFunction, DefinedInPath: "src/auth.ts", OwningClass: "AuthService"},
}

const authSource = `export class AuthService {
  login(user: string) { return user; }
}
`

func newScanner(t *testing.T, source tools.SourceProvider, opts ...Option) *Scanner {
	t.Helper()
	parser, err := tools.NewTypeScriptParser()
	require.NoError(t, err)
	return NewScanner(source, parser, opts...)
}

func affected(t *testing.T, report *types.ImpactReport, path string) types.AffectedFile {
	t.Helper()
	for _, f := range report.AffectedFiles {
		if f.Path == path {
			return f
		}
	}
	require.Failf(t, "file not affected", "%s not in report", path)
	return types.AffectedFile{}
}

func usagesOf(f types.AffectedFile, name string) []types.SymbolReference {
	var out []types.SymbolReference
	for _, u := range f.Usages {
		if u.Name == name {
			out = append(out, u)
		}
	}
	return out
}

func TestScan_InstantiationAndPropertyAccess(t *testing.T) {
	source := tools.NewMemorySource()
	source.SetFile(rev, "src/auth.ts", authSource)
	source.SetFile(rev, "src/app.ts", "const svc = new AuthService();\nauthService.login(x);\n")

	report, err := newScanner(t, source).Scan(context.Background(), authSymbols, rev)
	require.NoError(t, err)

	require.Len(t, report.AffectedFiles, 1)
	app := affected(t, report, "src/app.ts")

	auth := usagesOf(app, "AuthService")
	require.Len(t, auth, 1)
	assert.Equal(t, types.UsageInstantiation, auth[0].UsageKind)
	assert.Equal(t, 1, auth[0].Line)
	assert.Equal(t, 17, auth[0].Column)

	login := usagesOf(app, "login")
	require.Len(t, login, 1)
	assert.Equal(t, types.UsagePropertyAccess, login[0].UsageKind)
	assert.Equal(t, 2, login[0].Line)

	assert.Equal(t, types.ImpactHigh, app.ImpactLevel)
	assert.Equal(t, 1, report.TotalFilesScanned)
}

func TestScan_IgnoresStringLiterals(t *testing.T) {
	source := tools.NewMemorySource()
	source.SetFile(rev, "src/auth.ts", "export function register() {}\n")
	source.SetFile(rev, "src/api.ts", "fetch(\"/auth/register\");\nconst url = `/auth/register`;\n// register later\n")

	defined := []types.DefinedSymbol{{Name: "register", Kind: types.SymbolFunction, DefinedInPath: "src/auth.ts"}}
	report, err := newScanner(t, source).Scan(context.Background(), defined, rev)
	require.NoError(t, err)

	assert.Empty(t, report.AffectedFiles)
	assert.Equal(t, 1, report.TotalFilesScanned)
}

func TestScan_ImportsAreCheckedAgainstTheSpecifier(t *testing.T) {
	source := tools.NewMemorySource()
	source.SetFile(rev, "src/auth.ts", authSource)
	source.SetFile(rev, "src/legacy/auth.ts", "export class AuthService {}\n")
	source.SetFile(rev, "src/pages/login.ts", `import { AuthService } from "../auth";`+"\nlet s: AuthService;\n")
	source.SetFile(rev, "src/legacy/page.ts", `import { AuthService } from "./auth";`+"\n")
	source.SetFile(rev, "src/aliased.ts", `import { AuthService as Auth } from "@/auth";`+"\n")
	source.SetFile(rev, "src/vendor.ts", `import { AuthService } from "some-auth-lib";`+"\n")

	report, err := newScanner(t, source).Scan(context.Background(), authSymbols, rev)
	require.NoError(t, err)

	page := affected(t, report, "src/pages/login.ts")
	kinds := []types.UsageKind{}
	for _, u := range page.Usages {
		kinds = append(kinds, u.UsageKind)
	}
	assert.Equal(t, []types.UsageKind{types.UsageImport, types.UsageTypeReference}, kinds)
	assert.Equal(t, types.ImpactHigh, page.ImpactLevel)

	aliased := affected(t, report, "src/aliased.ts")
	require.Len(t, aliased.Usages, 1)
	assert.Equal(t, types.UsageImport, aliased.Usages[0].UsageKind)

	for _, f := range report.AffectedFiles {
		assert.NotEqual(t, "src/legacy/page.ts", f.Path)
		assert.NotEqual(t, "src/vendor.ts", f.Path)
		assert.NotEqual(t, "src/auth.ts", f.Path)
	}
}

func TestScan_ImpactLevels(t *testing.T) {
	source := tools.NewMemorySource()
	source.SetFile(rev, "src/util.ts", "export function slugify(s: string) { return s; }\n")
	source.SetFile(rev, "src/call.ts", "slugify(a);\n")
	source.SetFile(rev, "src/ref.ts", "const f = slugify;\n")
	source.SetFile(rev, "src/many.ts", "const a = [slugify, slugify, slugify, slugify];\n")
	source.SetFile(rev, "src/lots.ts", "const a = [slugify, slugify, slugify, slugify, slugify, slugify, slugify, slugify, slugify, slugify, slugify];\n")

	defined := []types.DefinedSymbol{{Name: "slugify", Kind: types.SymbolFunction, DefinedInPath: "src/util.ts"}}
	report, err := newScanner(t, source).Scan(context.Background(), defined, rev)
	require.NoError(t, err)

	assert.Equal(t, types.ImpactMedium, affected(t, report, "src/call.ts").ImpactLevel)
	assert.Equal(t, types.ImpactLow, affected(t, report, "src/ref.ts").ImpactLevel)
	assert.Equal(t, types.ImpactMedium, affected(t, report, "src/many.ts").ImpactLevel)
	assert.Equal(t, types.ImpactHigh, affected(t, report, "src/lots.ts").ImpactLevel)

	var order []string
	for _, f := range report.AffectedFiles {
		order = append(order, f.Path)
	}
	assert.Equal(t, []string{"src/lots.ts", "src/many.ts", "src/call.ts", "src/ref.ts"}, order)
}

func TestScan_Exclusions(t *testing.T) {
	source := tools.NewMemorySource()
	source.SetFile(rev, "src/util.ts", "export function slugify(s: string) { return s; }\n")
	source.SetFile(rev, "node_modules/pkg/index.js", "slugify(a);\n")
	source.SetFile(rev, "src/util.test.ts", "slugify(a);\n")
	source.SetFile(rev, "src/types.d.ts", "declare function slugify(s: string): string;\n")
	source.SetFile(rev, "src/Button.stories.tsx", "slugify(a);\n")
	source.SetFile(rev, "src/notes.md", "slugify\n")
	source.SetFile(rev, "src/page.tsx", "slugify(a);\n")

	defined := []types.DefinedSymbol{{Name: "slugify", Kind: types.SymbolFunction, DefinedInPath: "src/util.ts"}}
	report, err := newScanner(t, source, WithExcludePatterns([]string{"*.stories.tsx"})).Scan(context.Background(), defined, rev)
	require.NoError(t, err)

	require.Len(t, report.AffectedFiles, 1)
	assert.Equal(t, "src/page.tsx", report.AffectedFiles[0].Path)
	assert.Equal(t, 1, report.TotalFilesScanned)
}

func TestScan_DeclarationsAreNotUsages(t *testing.T) {
	source := tools.NewMemorySource()
	source.SetFile(rev, "src/auth.ts", authSource)
	source.SetFile(rev, "src/other.ts", `class Session {
  login(name: string) {}
}
function AuthService(login) {}
const obj = { login: 1 };
`)

	report, err := newScanner(t, source).Scan(context.Background(), authSymbols, rev)
	require.NoError(t, err)
	assert.Empty(t, report.AffectedFiles)
}

type failingParser struct {
	tools.SyntaxParser
	fail string
}

func (p failingParser) Parse(ctx context.Context, path string, content []byte) (*tools.SyntaxTree, error) {
	if path == p.fail {
		return nil, errors.New("boom")
	}
	return p.SyntaxParser.Parse(ctx, path, content)
}

func TestScan_SkipsUnparsableFiles(t *testing.T) {
	source := tools.NewMemorySource()
	source.SetFile(rev, "src/util.ts", "export function slugify(s: string) { return s; }\n")
	source.SetFile(rev, "src/a.ts", "slugify(a);\n")
	source.SetFile(rev, "src/b.ts", "slugify(b);\n")

	inner, err := tools.NewTypeScriptParser()
	require.NoError(t, err)
	s := NewScanner(source, failingParser{SyntaxParser: inner, fail: "src/a.ts"}, WithWorkers(1))

	defined := []types.DefinedSymbol{{Name: "slugify", Kind: types.SymbolFunction, DefinedInPath: "src/util.ts"}}
	report, err := s.Scan(context.Background(), defined, rev)
	require.NoError(t, err)

	require.Len(t, report.AffectedFiles, 1)
	assert.Equal(t, "src/b.ts", report.AffectedFiles[0].Path)
	assert.Equal(t, 1, report.TotalFilesScanned)
	assert.Equal(t, 1, report.SkippedFiles)
}

func TestScan_UnknownRevision(t *testing.T) {
	source := tools.NewMemorySource()
	_, err := newScanner(t, source).Scan(context.Background(), authSymbols, "nope")
	assert.ErrorIs(t, err, types.ErrSourceAccess)
}

func TestScan_NoSymbols(t *testing.T) {
	report, err := newScanner(t, tools.NewMemorySource()).Scan(context.Background(), nil, rev)
	require.NoError(t, err)
	assert.Empty(t, report.AffectedFiles)
	assert.Zero(t, report.TotalFilesScanned)
}

func TestSortAffected(t *testing.T) {
	ref := types.SymbolReference{}
	files := []types.AffectedFile{
		{Path: "b", ImpactLevel: types.ImpactLow, Usages: []types.SymbolReference{ref, ref}},
		{Path: "a", ImpactLevel: types.ImpactLow, Usages: []types.SymbolReference{ref, ref}},
		{Path: "c", ImpactLevel: types.ImpactHigh, Usages: []types.SymbolReference{ref}},
		{Path: "d", ImpactLevel: types.ImpactLow, Usages: []types.SymbolReference{ref, ref, ref}},
	}
	SortAffected(files)

	var got []string
	for _, f := range files {
		got = append(got, f.Path)
	}
	assert.Equal(t, []string{"c", "d", "a", "b"}, got)
}
