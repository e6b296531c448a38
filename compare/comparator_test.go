package compare

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (relative slash path -> content) below a fresh temp dir
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return root
}

func testComparator() *Comparator {
	return New(Options{Workers: 4, ContextLines: 3})
}

func assertSummaryConsistent(t *testing.T, pc *PluginComparison) {
	t.Helper()
	s := pc.Summary
	assert.Equal(t, s.Total, s.Identical+s.Different+s.LocalOnly+s.RemoteOnly)
	assert.Equal(t, s.Total, len(pc.Files))

	seen := make(map[string]bool)
	for _, fc := range pc.Files {
		assert.False(t, seen[fc.File], "duplicate entry %s", fc.File)
		seen[fc.File] = true
	}
}

func TestIdenticalFile(t *testing.T) {
	local := writeTree(t, map[string]string{"main.php": "A"})
	remote := writeTree(t, map[string]string{"main.php": "A"})

	pc := testComparator().Compare(context.Background(), local, remote)

	assert.Equal(t, Summary{Identical: 1, Total: 1}, pc.Summary)
	require.Len(t, pc.Files, 1)
	fc := pc.Files[0]
	assert.Equal(t, StatusIdentical, fc.Status)
	assert.Empty(t, fc.Diff)
	require.NotNil(t, fc.LocalSize)
	require.NotNil(t, fc.RemoteSize)
	assert.Equal(t, int64(1), *fc.LocalSize)
	assert.Equal(t, int64(1), *fc.RemoteSize)
	assertSummaryConsistent(t, pc)
}

func TestDifferentFileProducesDiff(t *testing.T) {
	local := writeTree(t, map[string]string{"main.php": "local"})
	remote := writeTree(t, map[string]string{"main.php": "remote"})

	pc := testComparator().Compare(context.Background(), local, remote)

	assert.Equal(t, Summary{Different: 1, Total: 1}, pc.Summary)
	fc := pc.Files[0]
	assert.Equal(t, StatusDifferent, fc.Status)
	assert.Contains(t, fc.Diff, "--- wordpress.org/main.php\n")
	assert.Contains(t, fc.Diff, "+++ local/main.php\n")
	assert.Contains(t, fc.Diff, "\n-remote\n")
	assert.Contains(t, fc.Diff, "\n+local\n")
	require.NotNil(t, fc.LocalSize)
	require.NotNil(t, fc.RemoteSize)
	assert.Equal(t, int64(5), *fc.LocalSize)
	assert.Equal(t, int64(6), *fc.RemoteSize)
}

func TestLocalOnlyFile(t *testing.T) {
	local := writeTree(t, map[string]string{"a.php": "x"})
	remote := writeTree(t, nil)

	pc := testComparator().Compare(context.Background(), local, remote)

	assert.Equal(t, Summary{LocalOnly: 1, Total: 1}, pc.Summary)
	fc := pc.Files[0]
	assert.Equal(t, StatusLocalOnly, fc.Status)
	assert.NotNil(t, fc.LocalSize)
	assert.Nil(t, fc.RemoteSize)
	assert.Empty(t, fc.Diff)
}

func TestRemoteOnlyFile(t *testing.T) {
	local := writeTree(t, nil)
	remote := writeTree(t, map[string]string{"b.php": "y"})

	pc := testComparator().Compare(context.Background(), local, remote)

	assert.Equal(t, Summary{RemoteOnly: 1, Total: 1}, pc.Summary)
	fc := pc.Files[0]
	assert.Equal(t, StatusRemoteOnly, fc.Status)
	assert.Nil(t, fc.LocalSize)
	assert.NotNil(t, fc.RemoteSize)
	assert.Empty(t, fc.Diff)
}

func TestMixedTree(t *testing.T) {
	local := writeTree(t, map[string]string{
		"main.php":  "same",
		"inc/h.php": "L",
	})
	remote := writeTree(t, map[string]string{
		"main.php":  "same",
		"inc/h.php": "R",
		"lib/x.php": "Z",
	})

	pc := testComparator().Compare(context.Background(), local, remote)

	assert.Equal(t, Summary{Identical: 1, Different: 1, RemoteOnly: 1, Total: 3}, pc.Summary)
	assertSummaryConsistent(t, pc)

	files := make([]string, 0, len(pc.Files))
	for _, fc := range pc.Files {
		files = append(files, fc.File)
	}
	assert.Equal(t, []string{"inc/h.php", "lib/x.php", "main.php"}, files)

	fc, ok := pc.Find("inc/h.php")
	require.True(t, ok)
	assert.Equal(t, StatusDifferent, fc.Status)
	assert.Equal(t, local, pc.LocalPath)
	assert.Equal(t, remote, pc.RemotePath)
}

func TestBinaryFilesComparedBySize(t *testing.T) {
	local := writeTree(t, map[string]string{
		"same.bin":  "\x00\xff\x01",
		"other.bin": "\x00\xff\x01\x02",
	})
	remote := writeTree(t, map[string]string{
		"same.bin":  "\x00\xfe\x02",
		"other.bin": "\x00\xff",
	})

	pc := testComparator().Compare(context.Background(), local, remote)

	same, ok := pc.Find("same.bin")
	require.True(t, ok)
	assert.Equal(t, StatusIdentical, same.Status, "equal sizes count as identical")
	assert.Empty(t, same.Diff)

	other, ok := pc.Find("other.bin")
	require.True(t, ok)
	assert.Equal(t, StatusDifferent, other.Status)
	assert.Empty(t, other.Diff)
	require.NotNil(t, other.LocalSize)
	require.NotNil(t, other.RemoteSize)
	assert.Equal(t, int64(4), *other.LocalSize)
	assert.Equal(t, int64(2), *other.RemoteSize)
}

func TestOneSideBinaryFallsBack(t *testing.T) {
	local := writeTree(t, map[string]string{"logo.png": "\x89PNG\x00"})
	remote := writeTree(t, map[string]string{"logo.png": "plain"})

	pc := testComparator().Compare(context.Background(), local, remote)
	fc := pc.Files[0]
	assert.Equal(t, StatusIdentical, fc.Status)
	assert.Empty(t, fc.Diff)
}

func TestSizeOnlyFallbackWithUnknownSizes(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.bin")
	require.NoError(t, os.WriteFile(present, []byte("\x00\x01"), 0644))
	gone := filepath.Join(dir, "gone.bin")

	c := testComparator()

	both := c.compareFile("gone.bin", gone, filepath.Join(dir, "also-gone.bin"))
	assert.Equal(t, StatusIdentical, both.Status)
	assert.Nil(t, both.LocalSize)
	assert.Nil(t, both.RemoteSize)
	assert.Empty(t, both.Diff)

	one := c.compareFile("x.bin", present, gone)
	assert.Equal(t, StatusDifferent, one.Status)
	require.NotNil(t, one.LocalSize)
	assert.Equal(t, int64(2), *one.LocalSize)
	assert.Nil(t, one.RemoteSize)
}

func TestBothRootsMissing(t *testing.T) {
	base := t.TempDir()
	pc := testComparator().Compare(context.Background(),
		filepath.Join(base, "nope-local"), filepath.Join(base, "nope-remote"))

	require.NotNil(t, pc)
	assert.Equal(t, Summary{}, pc.Summary)
	assert.Empty(t, pc.Files)
}

func TestMissingLocalRootIsAllRemoteOnly(t *testing.T) {
	remote := writeTree(t, map[string]string{"a.php": "1", "b/c.php": "2"})
	pc := testComparator().Compare(context.Background(), filepath.Join(t.TempDir(), "missing"), remote)

	assert.Equal(t, Summary{RemoteOnly: 2, Total: 2}, pc.Summary)
}

func TestUnreadableSubdirectoryIsSkipped(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	local := writeTree(t, map[string]string{"a.php": "1", "secret/b.php": "2"})
	secret := filepath.Join(local, "secret")
	require.NoError(t, os.Chmod(secret, 0o000))
	t.Cleanup(func() { _ = os.Chmod(secret, 0o755) })

	files := ListFiles(local)
	assert.Equal(t, []string{"a.php"}, files)
}

func TestFilesAreSortedAcrossManyPaths(t *testing.T) {
	tree := map[string]string{}
	for _, name := range []string{"z.php", "a/b/c.php", "m.txt", "a/a.php", "readme.txt", "assets/x.css", "b.php"} {
		tree[name] = name
	}
	local := writeTree(t, tree)
	remote := writeTree(t, map[string]string{"b.php": "changed", "zz/new.php": "n"})

	pc := testComparator().Compare(context.Background(), local, remote)
	assertSummaryConsistent(t, pc)

	for i := 1; i < len(pc.Files); i++ {
		assert.NotEqual(t, pc.Files[i-1].File, pc.Files[i].File)
	}

	again := New(Options{Workers: 1}).Compare(context.Background(), local, remote)
	assert.Equal(t, pc.Files, again.Files, "worker count must not change the result")
}

func TestListFilesUsesSlashPaths(t *testing.T) {
	root := writeTree(t, map[string]string{
		"plugin.php":           "",
		"includes/class-a.php": "",
		"includes/deep/b.php":  "",
	})

	files := ListFiles(root)
	sort.Strings(files)
	assert.Equal(t, []string{"includes/class-a.php", "includes/deep/b.php", "plugin.php"}, files)
	for _, f := range files {
		assert.False(t, strings.Contains(f, "\\"))
	}
}

func TestJSONShape(t *testing.T) {
	local := writeTree(t, map[string]string{"a.php": "x", "same.php": "s"})
	remote := writeTree(t, map[string]string{"b.php": "y", "same.php": "s"})

	pc := testComparator().Compare(context.Background(), local, remote)
	data, err := pc.JSON()
	require.NoError(t, err)

	var decoded struct {
		Files   []map[string]any `json:"files"`
		Summary map[string]int   `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, 3, decoded.Summary["total"])
	assert.Equal(t, 1, decoded.Summary["localOnly"])
	assert.Equal(t, 1, decoded.Summary["remoteOnly"])

	byFile := map[string]map[string]any{}
	for _, f := range decoded.Files {
		byFile[f["file"].(string)] = f
	}
	assert.Equal(t, "local_only", byFile["a.php"]["status"])
	assert.Contains(t, byFile["a.php"], "localSize")
	assert.NotContains(t, byFile["a.php"], "remoteSize")
	assert.NotContains(t, byFile["a.php"], "diff")
	assert.Equal(t, "remote_only", byFile["b.php"]["status"])
	assert.NotContains(t, byFile["b.php"], "localSize")
}

func TestEmptyFilesAreIdenticalWithZeroSize(t *testing.T) {
	local := writeTree(t, map[string]string{"index.php": ""})
	remote := writeTree(t, map[string]string{"index.php": ""})

	pc := testComparator().Compare(context.Background(), local, remote)
	fc := pc.Files[0]
	assert.Equal(t, StatusIdentical, fc.Status)
	require.NotNil(t, fc.LocalSize, "zero size is present, not absent")
	assert.Equal(t, int64(0), *fc.LocalSize)
}

func TestCompareFile(t *testing.T) {
	local := writeTree(t, map[string]string{"inc/a.php": "new\n", "only-local.php": "x"})
	remote := writeTree(t, map[string]string{"inc/a.php": "old\n"})
	c := testComparator()

	fc, ok := c.CompareFile(local, remote, "inc/a.php")
	require.True(t, ok)
	assert.Equal(t, StatusDifferent, fc.Status)
	assert.Contains(t, fc.Diff, "-old\n+new\n")

	fc, ok = c.CompareFile(local, remote, "/only-local.php")
	require.True(t, ok)
	assert.Equal(t, "only-local.php", fc.File)
	assert.Equal(t, StatusLocalOnly, fc.Status)

	_, ok = c.CompareFile(local, remote, "missing.php")
	assert.False(t, ok)

	_, ok = c.CompareFile(local, remote, "inc")
	assert.False(t, ok, "directories are not files")

	_, ok = c.CompareFile(local, remote, "../escape.php")
	assert.False(t, ok)
}
