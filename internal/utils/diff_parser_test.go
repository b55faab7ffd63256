package utils

import (
	"reflect"
	"testing"

	"github.com/agusespa/diffscope/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHunkHeader(t *testing.T) {
	tests := []struct {
		input  string
		expect HunkHeader
		ok     bool
	}{
		{"@@ -1,4 +10,6 @@", HunkHeader{OldStart: 1, OldLines: 4, NewStart: 10, NewLines: 6}, true},
		{"@@ -5 +20 @@", HunkHeader{OldStart: 5, OldLines: 1, NewStart: 20, NewLines: 1}, true},
		{"@@ -1,3 +4,0 @@ func main() {", HunkHeader{OldStart: 1, OldLines: 3, NewStart: 4, NewLines: 0}, true},
		{"@@ -1,3 +a,b @@", HunkHeader{}, false},
		{"invalid header", HunkHeader{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseHunkHeader(tt.input)
		if ok != tt.ok || !reflect.DeepEqual(got, tt.expect) {
			t.Errorf("ParseHunkHeader(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.expect, tt.ok)
		}
	}
}

func TestParseFileHeader(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		oldPath string
		newPath string
		ok      bool
	}{
		{"same path", "diff --git a/src/app.ts b/src/app.ts", "src/app.ts", "src/app.ts", true},
		{"rename", "diff --git a/src/old.ts b/src/new.ts", "src/old.ts", "src/new.ts", true},
		{"path containing b/", "diff --git a/x b/y.ts b/x b/y.ts", "x b/y.ts", "x b/y.ts", true},
		{"missing prefixes", "diff --git src/app.ts src/app.ts", "", "", false},
		{"not a header", "index 83db48f..f735c20 100644", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldPath, newPath, ok := ParseFileHeader(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.oldPath, oldPath)
			assert.Equal(t, tt.newPath, newPath)
		})
	}
}

func TestParseDiff_LineNumbers(t *testing.T) {
	diff := `diff --git a/src/auth.ts b/src/auth.ts
index 83db48f..f735c20 100644
--- a/src/auth.ts
+++ b/src/auth.ts
@@ -10,3 +12,4 @@ export class AuthService {
 const a = 1;
-const b = 2;
+const b = 3;
+const c = 4;
 const d = 5;
`

	files := ParseDiff(diff)
	require.Len(t, files, 1)
	f := files[0]
	assert.Equal(t, "src/auth.ts", f.Path)
	assert.Empty(t, f.OldPath)
	assert.False(t, f.IsNew)
	assert.False(t, f.IsDeleted)

	expected := []types.DiffLine{
		{Kind: types.LineContext, Content: "@@ -10,3 +12,4 @@ export class AuthService {", IsHunkHeader: true},
		{Kind: types.LineContext, Content: "const a = 1;", OldLineNumber: 10, NewLineNumber: 12},
		{Kind: types.LineRemoved, Content: "const b = 2;", OldLineNumber: 11},
		{Kind: types.LineAdded, Content: "const b = 3;", NewLineNumber: 13},
		{Kind: types.LineAdded, Content: "const c = 4;", NewLineNumber: 14},
		{Kind: types.LineContext, Content: "const d = 5;", OldLineNumber: 12, NewLineNumber: 15},
	}
	assert.Equal(t, expected, f.Lines)
}

func TestParseDiff_MultipleHunksResetCounters(t *testing.T) {
	diff := `diff --git a/a.ts b/a.ts
--- a/a.ts
+++ b/a.ts
@@ -1,2 +1,3 @@
+line1
 keep
@@ -40,1 +41,2 @@
+line2
 tail
`

	files := ParseDiff(diff)
	require.Len(t, files, 1)
	lines := files[0].Lines
	require.Len(t, lines, 6)
	assert.Equal(t, 1, lines[1].NewLineNumber)
	assert.True(t, lines[3].IsHunkHeader)
	assert.Equal(t, 41, lines[4].NewLineNumber)
	assert.Equal(t, 40, lines[5].OldLineNumber)
	assert.Equal(t, 42, lines[5].NewLineNumber)
}

func TestParseDiff_NewDeletedAndRenamed(t *testing.T) {
	diff := `diff --git a/newfile.ts b/newfile.ts
new file mode 100644
index 0000000..1234567
--- /dev/null
+++ b/newfile.ts
@@ -0,0 +1,2 @@
+line1
+line2
diff --git a/gone.ts b/gone.ts
deleted file mode 100644
--- a/gone.ts
+++ /dev/null
@@ -1 +0,0 @@
-bye
diff --git a/old/name.ts b/new/name.ts
similarity index 100%
rename from old/name.ts
rename to new/name.ts
`

	files := ParseDiff(diff)
	require.Len(t, files, 3)

	assert.True(t, files[0].IsNew)
	assert.Len(t, files[0].Lines, 3)

	assert.True(t, files[1].IsDeleted)
	assert.Equal(t, types.LineRemoved, files[1].Lines[1].Kind)
	assert.Equal(t, 1, files[1].Lines[1].OldLineNumber)

	assert.Equal(t, "new/name.ts", files[2].Path)
	assert.Equal(t, "old/name.ts", files[2].OldPath)
	assert.Empty(t, files[2].Lines)

	assert.Equal(t, []string{"newfile.ts", "gone.ts", "new/name.ts"}, ChangedFiles(files))
}

func TestParseDiff_MalformedInput(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, ParseDiff(""))
	})

	t.Run("malformed hunk keeps stale counters", func(t *testing.T) {
		diff := `diff --git a/a.ts b/a.ts
@@ -5,2 +7,2 @@
 one
@@ -x,y +z @@
 two
`
		files := ParseDiff(diff)
		require.Len(t, files, 1)
		lines := files[0].Lines
		require.Len(t, lines, 3)
		assert.Equal(t, 7, lines[1].NewLineNumber)
		assert.False(t, lines[2].IsHunkHeader)
		assert.Equal(t, 6, lines[2].OldLineNumber)
		assert.Equal(t, 8, lines[2].NewLineNumber)
	})

	t.Run("bad file header orphans lines until next header", func(t *testing.T) {
		diff := `diff --git something weird
@@ -1 +1 @@
+orphan
diff --git a/ok.ts b/ok.ts
@@ -1 +1 @@
+kept
`
		files := ParseDiff(diff)
		require.Len(t, files, 1)
		assert.Equal(t, "ok.ts", files[0].Path)
		require.Len(t, files[0].Lines, 2)
		assert.Equal(t, "kept", files[0].Lines[1].Content)
	})

	t.Run("lines before any header are ignored", func(t *testing.T) {
		files := ParseDiff("+stray\n-stray\n stray\n")
		assert.Empty(t, files)
	})

	t.Run("file markers are not content", func(t *testing.T) {
		diff := "diff --git a/a.ts b/a.ts\n--- a/a.ts\n+++ b/a.ts\n\\ No newline at end of file\n"
		files := ParseDiff(diff)
		require.Len(t, files, 1)
		assert.Empty(t, files[0].Lines)
	})
}

func TestParseDiff_FileCountMatchesValidHeaders(t *testing.T) {
	diff := `diff --git a/one.ts b/one.ts
@@ -1 +1 @@
-a
+b
diff --git broken
diff --git a/two.ts b/two.ts
diff --git a/three.ts b/three.ts
@@ -1 +1 @@
+c
`
	assert.Len(t, ParseDiff(diff), 3)
}

func TestFileDiff_ChangedLines(t *testing.T) {
	files := ParseDiff("diff --git a/a.ts b/a.ts\n@@ -3,2 +3,2 @@\n-old\n+new\n ctx\n")
	require.Len(t, files, 1)
	added, removed := files[0].ChangedLines()
	assert.Equal(t, []int{3}, added)
	assert.Equal(t, []int{3}, removed)
}
