package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeDiff(t *testing.T) {
	diff := `diff --git a/src/a.ts b/src/a.ts
index 83db48f..f735c20 100644
--- a/src/a.ts
+++ b/src/a.ts
@@ -1,3 +1,4 @@
 one
+two
 three
 four
diff --git a/src/b.ts b/src/b.ts
index 83db48f..f735c20 100644
--- a/src/b.ts
+++ b/src/b.ts
@@ -1,2 +1,1 @@
-gone
 stays
`

	stats, err := SummarizeDiff(diff)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "src/a.ts", stats[0].Path)
	assert.Equal(t, 1, stats[0].Added)
	assert.Equal(t, "src/b.ts", stats[1].Path)
	assert.Equal(t, 1, stats[1].Deleted)
}

func TestSummarizeDiff_Empty(t *testing.T) {
	stats, err := SummarizeDiff("  \n")
	require.NoError(t, err)
	assert.Empty(t, stats)
}
