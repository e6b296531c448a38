package diff

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedLines(n int, replace map[int]string) string {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		if r, ok := replace[i]; ok {
			sb.WriteString(r + "\n")
			continue
		}
		sb.WriteString(fmt.Sprintf("line %d\n", i))
	}
	return sb.String()
}

func TestUnifiedSingleLineReplace(t *testing.T) {
	got := Unified("wordpress.org/main.php", "local/main.php", "remote", "local", 3)

	want := "--- wordpress.org/main.php\n" +
		"+++ local/main.php\n" +
		"@@ -1 +1 @@\n" +
		"-remote\n" +
		"\\ No newline at end of file\n" +
		"+local\n" +
		"\\ No newline at end of file\n"
	assert.Equal(t, want, got)
}

func TestIdenticalTextHasNoHunks(t *testing.T) {
	res := Compute("a\nb\n", "a\nb\n", 3)
	assert.False(t, res.HasChanges())
	assert.Empty(t, res.Unified("a", "b"))
	assert.Equal(t, DiffStats{}, res.Stats)
}

func TestInsertIntoEmpty(t *testing.T) {
	got := Unified("old", "new", "", "a\nb\n", 3)
	assert.Equal(t, "--- old\n+++ new\n@@ -0,0 +1,2 @@\n+a\n+b\n", got)
}

func TestDeleteEverything(t *testing.T) {
	res := Compute("a\nb\n", "", 3)
	require.Len(t, res.Hunks, 1)
	assert.Equal(t, 1, res.Hunks[0].OldStart)
	assert.Equal(t, 2, res.Hunks[0].OldLines)
	assert.Equal(t, 0, res.Hunks[0].NewStart)
	assert.Equal(t, 0, res.Hunks[0].NewLines)
	assert.Equal(t, DiffStats{Added: 0, Deleted: 2}, res.Stats)
}

func TestContextAroundChange(t *testing.T) {
	before := numberedLines(10, nil)
	after := numberedLines(10, map[int]string{5: "changed"})

	res := Compute(before, after, 3)
	require.Len(t, res.Hunks, 1)

	hunk := res.Hunks[0]
	assert.Equal(t, 2, hunk.OldStart)
	assert.Equal(t, 7, hunk.OldLines)
	assert.Equal(t, 2, hunk.NewStart)
	assert.Equal(t, 7, hunk.NewLines)

	out := res.Unified("a", "b")
	assert.Contains(t, out, "@@ -2,7 +2,7 @@\n")
	assert.Contains(t, out, "-line 5\n+changed\n")
	assert.NotContains(t, out, "line 1\n")
	assert.NotContains(t, out, "line 9\n")
}

func TestDistantChangesSplitIntoHunks(t *testing.T) {
	before := numberedLines(30, nil)
	after := numberedLines(30, map[int]string{3: "first", 25: "second"})

	res := Compute(before, after, 3)
	require.Len(t, res.Hunks, 2)
	assert.Equal(t, 1, res.Hunks[0].OldStart)
	assert.Equal(t, 22, res.Hunks[1].OldStart)
	assert.Equal(t, DiffStats{Added: 2, Deleted: 2}, res.Stats)
}

func TestNearbyChangesShareHunk(t *testing.T) {
	before := numberedLines(20, nil)
	after := numberedLines(20, map[int]string{5: "x", 10: "y"})

	res := Compute(before, after, 3)
	assert.Len(t, res.Hunks, 1)
}

func TestMissingFinalNewlineIsAChange(t *testing.T) {
	res := Compute("a", "a\n", 3)
	require.True(t, res.HasChanges())

	out := res.Unified("x", "y")
	assert.Contains(t, out, "-a\n\\ No newline at end of file\n+a\n")
	assert.Equal(t, DiffStats{Added: 1, Deleted: 1}, res.Stats)
}

func TestLineNumbersOnDiffLines(t *testing.T) {
	res := Compute("keep\nold\n", "keep\nnew\n", 1)
	require.Len(t, res.Hunks, 1)

	lines := res.Hunks[0].Lines
	require.Len(t, lines, 3)

	assert.Equal(t, "context", lines[0].Type)
	assert.Equal(t, 1, *lines[0].OldLine)
	assert.Equal(t, 1, *lines[0].NewLine)

	assert.Equal(t, "delete", lines[1].Type)
	assert.Equal(t, 2, *lines[1].OldLine)
	assert.Nil(t, lines[1].NewLine)

	assert.Equal(t, "add", lines[2].Type)
	assert.Nil(t, lines[2].OldLine)
	assert.Equal(t, 2, *lines[2].NewLine)
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"a\n", "b"}, splitLines("a\nb"))
	assert.Equal(t, []string{"a\n", "\n"}, splitLines("a\n\n"))
}
