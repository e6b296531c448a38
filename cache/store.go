// Package cache keeps downloaded plugin ZIPs and their extractions on disk,
// laid out as <root>/<slug>/<version>/<slug>.zip and .../extracted/.
package cache

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"

	"wpcompare/archive"
	"wpcompare/wporg"
)

const extractedDir = "extracted"

var versionPattern = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z._-]*$`)

// Source is what the store needs from the plugin directory
type Source interface {
	Info(ctx context.Context, slug string) (*wporg.PluginInfo, error)
	Download(ctx context.Context, slug, version string, w io.Writer, progress wporg.ProgressFunc) (int64, error)
}

// Entry describes one cached plugin version
type Entry struct {
	Slug       string `json:"slug" yaml:"slug"`
	Version    string `json:"version" yaml:"version"`
	ZipPath    string `json:"zipPath" yaml:"zipPath"`
	ZipBytes   int64  `json:"zipBytes" yaml:"zipBytes"`
	ExtractDir string `json:"extractDir,omitempty" yaml:"extractDir,omitempty"`
	PluginRoot string `json:"pluginRoot,omitempty" yaml:"pluginRoot,omitempty"`
	Fresh      bool   `json:"fresh" yaml:"fresh"` // downloaded by this call
}

// Store is a plugin cache rooted at a directory
type Store struct {
	root   string
	source Source

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a store under root
func NewStore(root string, source Source) *Store {
	return &Store{root: root, source: source, locks: make(map[string]*sync.Mutex)}
}

// Root is the cache directory
func (s *Store) Root() string {
	return s.root
}

// ResolveVersion turns "" or "latest" into the current wordpress.org version
func (s *Store) ResolveVersion(ctx context.Context, slug, version string) (string, error) {
	if version != "" && version != "latest" {
		if !versionPattern.MatchString(version) {
			return "", serr.New("invalid plugin version", "version", version)
		}
		return version, nil
	}

	info, err := s.source.Info(ctx, slug)
	if err != nil {
		return "", err
	}
	if info.Version == "" {
		return "", serr.New("wordpress.org reports no version for plugin", "slug", slug)
	}
	if !versionPattern.MatchString(info.Version) {
		return "", serr.F("wordpress.org reports an invalid version for %s: %q", slug, info.Version)
	}
	return info.Version, nil
}

// FetchZip makes sure the ZIP for slug@version is cached and returns its entry
func (s *Store) FetchZip(ctx context.Context, slug, version string, progress wporg.ProgressFunc) (*Entry, error) {
	if err := wporg.ValidateSlug(slug); err != nil {
		return nil, err
	}
	version, err := s.ResolveVersion(ctx, slug, version)
	if err != nil {
		return nil, err
	}

	unlock := s.lock(slug + "@" + version)
	defer unlock()

	return s.fetchZip(ctx, slug, version, progress)
}

// Fetch makes sure slug@version is downloaded and extracted.
// The returned entry's PluginRoot is the directory to compare against.
func (s *Store) Fetch(ctx context.Context, slug, version string, progress wporg.ProgressFunc) (*Entry, error) {
	if err := wporg.ValidateSlug(slug); err != nil {
		return nil, err
	}
	version, err := s.ResolveVersion(ctx, slug, version)
	if err != nil {
		return nil, err
	}

	unlock := s.lock(slug + "@" + version)
	defer unlock()

	entry, err := s.fetchZip(ctx, slug, version, progress)
	if err != nil {
		return nil, err
	}

	extracted := filepath.Join(s.versionDir(slug, version), extractedDir)
	if _, err := os.Stat(extracted); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, serr.Wrap(err, "failed to stat extraction", "path", extracted)
		}
		if err := s.extract(entry.ZipPath, extracted); err != nil {
			return nil, err
		}
	}

	entry.ExtractDir = extracted
	entry.PluginRoot = archive.PluginRoot(extracted)
	return entry, nil
}

func (s *Store) fetchZip(ctx context.Context, slug, version string, progress wporg.ProgressFunc) (*Entry, error) {
	dir := s.versionDir(slug, version)
	entry := &Entry{Slug: slug, Version: version, ZipPath: filepath.Join(dir, slug+".zip")}

	if fi, err := os.Stat(entry.ZipPath); err == nil {
		entry.ZipBytes = fi.Size()
		logger.Debug("Plugin zip cache hit", "slug", slug, "version", version)
		return entry, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, serr.Wrap(err, "failed to create cache dir", "dir", dir)
	}

	tmp := entry.ZipPath + ".tmp-" + uuid.NewString()
	f, err := os.Create(tmp)
	if err != nil {
		return nil, serr.Wrap(err, "failed to create temp file", "path", tmp)
	}

	n, err := s.source.Download(ctx, slug, version, f, progress)
	closeErr := f.Close()
	if err == nil && closeErr != nil {
		err = serr.Wrap(closeErr, "failed to close download", "path", tmp)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return nil, err
	}
	if err := os.Rename(tmp, entry.ZipPath); err != nil {
		_ = os.Remove(tmp)
		return nil, serr.Wrap(err, "failed to move download into cache", "path", entry.ZipPath)
	}

	entry.ZipBytes = n
	entry.Fresh = true
	logger.Info("Cached plugin zip", "slug", slug, "version", version, "path", entry.ZipPath)
	return entry, nil
}

// extract unpacks into a sibling temp dir and renames it into place so a
// half-finished extraction is never mistaken for a complete one
func (s *Store) extract(zipPath, dest string) error {
	tmp := dest + ".tmp-" + uuid.NewString()
	if _, err := archive.ExtractZip(zipPath, tmp); err != nil {
		_ = os.RemoveAll(tmp)
		return serr.Wrap(err, "failed to extract plugin", "zip", zipPath)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.RemoveAll(tmp)
		return serr.Wrap(err, "failed to move extraction into cache", "dest", dest)
	}
	return nil
}

// List returns every cached version, sorted by slug then newest version first
func (s *Store) List() ([]Entry, error) {
	slugs, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, serr.Wrap(err, "failed to read cache dir", "dir", s.root)
	}

	var entries []Entry
	for _, sd := range slugs {
		if !sd.IsDir() {
			continue
		}
		slug := sd.Name()
		versions, err := os.ReadDir(filepath.Join(s.root, slug))
		if err != nil {
			continue
		}

		var names []string
		for _, vd := range versions {
			if vd.IsDir() {
				names = append(names, vd.Name())
			}
		}
		for _, version := range wporg.SortVersions(names) {
			dir := s.versionDir(slug, version)
			e := Entry{Slug: slug, Version: version, ZipPath: filepath.Join(dir, slug+".zip")}
			fi, err := os.Stat(e.ZipPath)
			if err != nil {
				continue
			}
			e.ZipBytes = fi.Size()
			if extracted := filepath.Join(dir, extractedDir); isDir(extracted) {
				e.ExtractDir = extracted
				e.PluginRoot = archive.PluginRoot(extracted)
			}
			entries = append(entries, e)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Slug < entries[j].Slug })
	return entries, nil
}

// Clear removes the cache for slug, or everything when slug is empty
func (s *Store) Clear(slug string) error {
	target := s.root
	if slug != "" {
		if err := wporg.ValidateSlug(slug); err != nil {
			return err
		}
		target = filepath.Join(s.root, slug)
	}

	if err := os.RemoveAll(target); err != nil {
		return serr.Wrap(err, "failed to clear cache", "path", target)
	}
	logger.Info("Cleared plugin cache", "path", target)
	return nil
}

func (s *Store) versionDir(slug, version string) string {
	return filepath.Join(s.root, slug, version)
}

// lock serialises work on one slug@version
func (s *Store) lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
