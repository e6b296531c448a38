package compare

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rohanthewiz/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"wpcompare/config"
	"wpcompare/diff"
)

const (
	// DefaultFromLabel prefixes the published side in diff headers
	DefaultFromLabel = "wordpress.org"
	// DefaultToLabel prefixes the local side in diff headers
	DefaultToLabel = "local"
)

// Options tunes a Comparator
type Options struct {
	// Workers bounds how many paths are compared at once
	Workers int
	// ContextLines is the number of unchanged lines kept around each change
	ContextLines int
	// FromLabel and ToLabel prefix the file name in the diff headers
	FromLabel string
	ToLabel   string
}

// DefaultOptions derives options from the global configuration
func DefaultOptions() Options {
	cfg := config.Get()
	return Options{
		Workers:      cfg.Workers,
		ContextLines: cfg.DiffContext,
		FromLabel:    DefaultFromLabel,
		ToLabel:      DefaultToLabel,
	}
}

// Comparator compares a local plugin tree against a reference tree
type Comparator struct {
	opts Options
}

// New creates a Comparator, filling unset options with sane values
func New(opts Options) *Comparator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ContextLines < 0 {
		opts.ContextLines = 0
	}
	if opts.FromLabel == "" {
		opts.FromLabel = DefaultFromLabel
	}
	if opts.ToLabel == "" {
		opts.ToLabel = DefaultToLabel
	}
	return &Comparator{opts: opts}
}

// ComparePlugins compares localRoot against remoteRoot with DefaultOptions
func ComparePlugins(ctx context.Context, localRoot, remoteRoot string) *PluginComparison {
	return New(DefaultOptions()).Compare(ctx, localRoot, remoteRoot)
}

// side marks which trees a path was found in
type side uint8

const (
	inLocal side = 1 << iota
	inRemote
)

// Compare classifies every path in the union of both trees.
// It never fails: unreadable directories and files degrade to a classification.
// A started comparison always runs to completion; ctx is not consulted.
func (c *Comparator) Compare(ctx context.Context, localRoot, remoteRoot string) *PluginComparison {
	var localFiles, remoteFiles []string
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		localFiles = ListFiles(localRoot)
	}()
	go func() {
		defer wg.Done()
		remoteFiles = ListFiles(remoteRoot)
	}()
	wg.Wait()

	union := make(map[string]side, len(localFiles)+len(remoteFiles))
	for _, f := range localFiles {
		union[f] |= inLocal
	}
	for _, f := range remoteFiles {
		union[f] |= inRemote
	}

	paths := make([]string, 0, len(union))
	for p := range union {
		paths = append(paths, p)
	}
	sortPaths(paths)

	// Each worker writes only its own slot, so order is fixed before any I/O
	files := make([]FileComparison, len(paths))
	g := new(errgroup.Group)
	g.SetLimit(c.opts.Workers)
	for i, rel := range paths {
		g.Go(func() error {
			files[i] = c.compareEntry(rel, union[rel], localRoot, remoteRoot)
			return nil
		})
	}
	_ = g.Wait()

	result := &PluginComparison{
		LocalPath:  localRoot,
		RemotePath: remoteRoot,
		Files:      files,
	}
	for _, fc := range files {
		result.Summary.add(fc.Status)
	}

	logger.Debug("Compared plugin trees",
		"local", localRoot,
		"remote", remoteRoot,
		"total", strconv.Itoa(result.Summary.Total),
		"different", strconv.Itoa(result.Summary.Different),
	)

	return result
}

// CompareFile classifies one relative path without enumerating either tree.
// ok is false when the path is a file on neither side or points outside the roots.
func (c *Comparator) CompareFile(localRoot, remoteRoot, rel string) (fc FileComparison, ok bool) {
	rel = path.Clean(strings.TrimLeft(filepath.ToSlash(rel), "/"))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return FileComparison{File: rel}, false
	}

	var where side
	if isFile(filepath.Join(localRoot, filepath.FromSlash(rel))) {
		where |= inLocal
	}
	if isFile(filepath.Join(remoteRoot, filepath.FromSlash(rel))) {
		where |= inRemote
	}
	if where == 0 {
		return FileComparison{File: rel}, false
	}
	return c.compareEntry(rel, where, localRoot, remoteRoot), true
}

// compareEntry classifies a single relative path
func (c *Comparator) compareEntry(rel string, where side, localRoot, remoteRoot string) FileComparison {
	localPath := filepath.Join(localRoot, filepath.FromSlash(rel))
	remotePath := filepath.Join(remoteRoot, filepath.FromSlash(rel))

	switch where {
	case inLocal:
		return FileComparison{
			File:      rel,
			Status:    StatusLocalOnly,
			LocalSize: statSize(localPath).ptr(),
		}
	case inRemote:
		return FileComparison{
			File:       rel,
			Status:     StatusRemoteOnly,
			RemoteSize: statSize(remotePath).ptr(),
		}
	default:
		return c.compareFile(rel, localPath, remotePath)
	}
}

// compareFile compares a path present in both trees.
// Sizes and contents of both sides are fetched concurrently.
func (c *Comparator) compareFile(rel, localPath, remotePath string) FileComparison {
	var localSize, remoteSize sizeResult
	var localText, remoteText textResult

	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); localSize = statSize(localPath) }()
	go func() { defer wg.Done(); remoteSize = statSize(remotePath) }()
	go func() { defer wg.Done(); localText = readText(localPath) }()
	go func() { defer wg.Done(); remoteText = readText(remotePath) }()
	wg.Wait()

	fc := FileComparison{
		File:       rel,
		LocalSize:  localSize.ptr(),
		RemoteSize: remoteSize.ptr(),
	}

	if !localText.ok || !remoteText.ok {
		// Size-only fallback: equal sizes, including two unknown sizes, count as identical
		if localSize == remoteSize {
			fc.Status = StatusIdentical
		} else {
			fc.Status = StatusDifferent
		}
		return fc
	}

	if localText.text == remoteText.text {
		fc.Status = StatusIdentical
		return fc
	}

	fc.Status = StatusDifferent
	fc.Diff = diff.Unified(
		c.opts.FromLabel+"/"+rel,
		c.opts.ToLabel+"/"+rel,
		remoteText.text,
		localText.text,
		c.opts.ContextLines,
	)
	return fc
}

// sizeResult is the outcome of a best-effort stat
type sizeResult struct {
	size int64
	ok   bool
}

func (r sizeResult) ptr() *int64 {
	if !r.ok {
		return nil
	}
	size := r.size
	return &size
}

func statSize(path string) sizeResult {
	info, err := os.Stat(path)
	if err != nil {
		return sizeResult{}
	}
	return sizeResult{size: info.Size(), ok: true}
}

// isFile mirrors ListFiles: anything that is not a directory counts
func isFile(p string) bool {
	info, err := os.Lstat(p)
	return err == nil && !info.IsDir()
}

// textResult is the outcome of reading a file as UTF-8 text
type textResult struct {
	text string
	ok   bool
}

// readText reads path and accepts it only if it decodes as text
func readText(path string) textResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return textResult{}
	}
	if !isText(data) {
		return textResult{}
	}
	return textResult{text: string(data), ok: true}
}

// isText reports whether data is valid UTF-8 without NUL bytes
func isText(data []byte) bool {
	return utf8.Valid(data) && bytes.IndexByte(data, 0) < 0
}

// sortPaths orders paths with root-locale collation, falling back to byte
// order for paths the collator considers equal.
func sortPaths(paths []string) {
	col := collate.New(language.Und)
	sort.SliceStable(paths, func(i, j int) bool {
		if cmp := col.CompareString(paths[i], paths[j]); cmp != 0 {
			return cmp < 0
		}
		return paths[i] < paths[j]
	})
}
