package symbols

import (
	"context"
	"testing"

	"github.com/agusespa/diffscope/internal/tools"
	"github.com/agusespa/diffscope/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, path, src string) *tools.SyntaxTree {
	t.Helper()
	parser, err := tools.NewTypeScriptParser()
	require.NoError(t, err)
	tree, err := parser.Parse(context.Background(), path, []byte(src))
	require.NoError(t, err)
	return tree
}

func names(decls []types.SymbolDeclaration) []string {
	out := make([]string, 0, len(decls))
	for _, d := range decls {
		out = append(out, d.Name)
	}
	return out
}

func TestExtractDeclarations_Class(t *testing.T) {
	src := `export class AuthService {
  constructor(private api: Api) {}

  login(user: string) {
    return this.api.post(user);
  }

  logout() {}
}
`
	decls := ExtractDeclarations(parse(t, "src/auth.ts", src))

	require.Len(t, decls, 3)
	assert.Equal(t, types.SymbolDeclaration{
		Name: "AuthService", Kind: types.SymbolClass, DefinitionLine: 1, EndLine: 9, IsExported: true,
	}, decls[0])
	assert.Equal(t, types.SymbolDeclaration{
		Name: "login", Kind: types.SymbolFunction, DefinitionLine: 4, EndLine: 6, IsExported: true, OwningClass: "AuthService",
	}, decls[1])
	assert.Equal(t, "logout", decls[2].Name)
	assert.Equal(t, "AuthService", decls[2].OwningClass)
}

func TestExtractDeclarations_TopLevel(t *testing.T) {
	src := `function helper() {}
export function register(name: string): void {}
export const handler = async () => {};
const local = function () {};
const config = { debug: true };
export const VERSION = "1.0";
export interface User { id: string }
type Id = string;
export enum Role { Admin, Member }
export function overloaded(a: string): string;
export function overloaded(a: number): number;
export function overloaded(a: any) { return a; }
`
	decls := ExtractDeclarations(parse(t, "src/mod.ts", src))

	assert.Equal(t, []string{
		"helper", "register", "handler", "local", "VERSION", "User", "Id", "Role",
		"overloaded", "overloaded", "overloaded",
	}, names(decls))

	byName := make(map[string]types.SymbolDeclaration)
	for _, d := range decls {
		byName[d.Name] = d
	}
	assert.Equal(t, types.SymbolFunction, byName["helper"].Kind)
	assert.False(t, byName["helper"].IsExported)
	assert.True(t, byName["register"].IsExported)
	assert.Equal(t, types.SymbolFunction, byName["handler"].Kind)
	assert.Equal(t, types.SymbolFunction, byName["local"].Kind)
	assert.Equal(t, types.SymbolExportedBinding, byName["VERSION"].Kind)
	assert.Equal(t, types.SymbolExportedBinding, byName["User"].Kind)
	assert.True(t, byName["User"].IsExported)
	assert.Equal(t, types.SymbolExportedBinding, byName["Id"].Kind)
	assert.False(t, byName["Id"].IsExported)
	assert.Equal(t, 3, byName["handler"].DefinitionLine)
}

func TestExtractDeclarations_Exports(t *testing.T) {
	src := `function a() {}
const b = () => 1;
export { a, b as renamed };
export { Client, Server as Host } from "./net";
export default class Widget {}
`
	decls := ExtractDeclarations(parse(t, "src/index.ts", src))

	assert.Equal(t, []string{"a", "b", "Client", "Host", "Widget"}, names(decls))
	assert.True(t, decls[0].IsExported)
	assert.True(t, decls[1].IsExported)
	assert.Equal(t, types.SymbolExportedBinding, decls[2].Kind)
	assert.Equal(t, types.SymbolClass, decls[4].Kind)
	assert.True(t, decls[4].IsExported)
}

func TestExtractDeclarations_MethodsFollowClassExport(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		exported map[string]bool
	}{
		{
			name:     "export clause after class",
			src:      "class AuthService {\n  login(x: string) {}\n  logout() {}\n}\nexport { AuthService };\n",
			exported: map[string]bool{"AuthService": true, "login": true, "logout": true},
		},
		{
			name:     "aliased export clause",
			src:      "class AuthService {\n  login(x: string) {}\n}\nexport { AuthService as Auth };\n",
			exported: map[string]bool{"AuthService": true, "login": true},
		},
		{
			name:     "export default class",
			src:      "export default class AuthService {\n  login(x: string) {}\n}\n",
			exported: map[string]bool{"AuthService": true, "login": true},
		},
		{
			name:     "clause exports another name",
			src:      "class AuthService {\n  login(x: string) {}\n}\nfunction login() {}\nexport { login };\n",
			exported: map[string]bool{"AuthService": false, "login": false},
		},
		{
			name:     "class not exported",
			src:      "class AuthService {\n  login(x: string) {}\n}\n",
			exported: map[string]bool{"AuthService": false, "login": false},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decls := ExtractDeclarations(parse(t, "src/auth.ts", tc.src))

			seen := make(map[string]bool)
			for _, d := range decls {
				if d.OwningClass == "" && d.Kind != types.SymbolClass {
					continue
				}
				want, ok := tc.exported[d.Name]
				require.True(t, ok, "unexpected declaration %q", d.Name)
				assert.Equal(t, want, d.IsExported, d.Name)
				seen[d.Name] = true
			}
			assert.Len(t, seen, len(tc.exported))
		})
	}
}

func TestExtractDeclarations_DefaultExpression(t *testing.T) {
	decls := ExtractDeclarations(parse(t, "src/a.ts", "const app = 1;\nexport default app;\n"))
	require.Len(t, decls, 1)
	assert.Equal(t, "app", decls[0].Name)
	assert.Equal(t, types.SymbolExportedBinding, decls[0].Kind)
	assert.Equal(t, 2, decls[0].DefinitionLine)

	decls = ExtractDeclarations(parse(t, "src/b.ts", "export default { a: 1 };\n"))
	require.Len(t, decls, 1)
	assert.Equal(t, "default", decls[0].Name)
}

func TestExtractDeclarations_JSX(t *testing.T) {
	src := `export function Button({ label }) {
  return <button>{label}</button>;
}
export const Card = ({ children }) => <div>{children}</div>;
`
	decls := ExtractDeclarations(parse(t, "src/Button.jsx", src))
	assert.Equal(t, []string{"Button", "Card"}, names(decls))
}

func TestExtractDeclarations_IgnoresNested(t *testing.T) {
	src := `export function outer() {
  function inner() {}
  const nested = () => {};
}
`
	decls := ExtractDeclarations(parse(t, "src/a.ts", src))
	assert.Equal(t, []string{"outer"}, names(decls))
}

func TestExtractDeclarations_Empty(t *testing.T) {
	assert.Empty(t, ExtractDeclarations(parse(t, "src/empty.ts", "")))
	assert.Empty(t, ExtractDeclarations(nil))
}
