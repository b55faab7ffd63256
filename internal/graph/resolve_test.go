package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveImport(t *testing.T) {
	files := map[string]bool{
		"src/app.ts":             true,
		"src/utils.ts":           true,
		"src/view.tsx":           true,
		"src/models/index.ts":    true,
		"src/legacy/helper.js":   true,
		"src/styles.css":         true,
		"lib/shared.ts":          true,
		"src/both.ts":            true,
		"src/both.js":            true,
		"src/esm/module.ts":      true,
		"src/components/Btn.tsx": true,
	}
	exists := func(p string) bool { return files[p] }

	tests := []struct {
		name      string
		from      string
		specifier string
		want      string
		ok        bool
	}{
		{"extension probe", "src/app.ts", "./utils", "src/utils.ts", true},
		{"tsx probe", "src/app.ts", "./view", "src/view.tsx", true},
		{"index file", "src/app.ts", "./models", "src/models/index.ts", true},
		{"parent directory", "src/models/index.ts", "../utils", "src/utils.ts", true},
		{"sibling root", "src/app.ts", "../lib/shared", "lib/shared.ts", true},
		{"js file", "src/app.ts", "./legacy/helper", "src/legacy/helper.js", true},
		{"exact path", "src/app.ts", "./styles.css", "src/styles.css", true},
		{"priority prefers ts", "src/app.ts", "./both", "src/both.ts", true},
		{"js specifier for ts source", "src/app.ts", "./esm/module.js", "src/esm/module.ts", true},
		{"jsx specifier for tsx source", "src/app.ts", "./components/Btn.jsx", "src/components/Btn.tsx", true},
		{"redundant segments", "src/app.ts", "./models/../utils", "src/utils.ts", true},
		{"package specifier", "src/app.ts", "react", "", false},
		{"alias specifier", "src/app.ts", "@/utils", "", false},
		{"missing file", "src/app.ts", "./missing", "", false},
		{"outside root", "app.ts", "../outside", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveImport(tt.from, tt.specifier, nil, exists)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveImport_CustomExtensionOrder(t *testing.T) {
	files := map[string]bool{"src/both.ts": true, "src/both.js": true}
	exists := func(p string) bool { return files[p] }

	got, ok := ResolveImport("src/app.ts", "./both", []string{".js", ".ts"}, exists)
	assert.True(t, ok)
	assert.Equal(t, "src/both.js", got)
}

func TestIsRelative(t *testing.T) {
	assert.True(t, IsRelative("./a"))
	assert.True(t, IsRelative("../a"))
	assert.False(t, IsRelative("a"))
	assert.False(t, IsRelative("/abs/a"))
	assert.False(t, IsRelative(".hidden"))
}
