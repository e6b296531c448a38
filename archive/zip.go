// Package archive extracts plugin ZIPs and packs selected files back into one.
package archive

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// ExtractZip unpacks zipPath below dest and returns the number of files written.
// Entries that would land outside dest are rejected, which aborts the extraction.
func ExtractZip(zipPath, dest string) (int, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, serr.Wrap(err, "failed to open zip", "path", zipPath)
	}
	defer zr.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return 0, serr.Wrap(err, "failed to create extraction dir", "dest", dest)
	}

	files := 0
	for _, f := range zr.File {
		target, err := entryPath(dest, f.Name)
		if err != nil {
			return files, err
		}

		mode := f.Mode()
		switch {
		case mode.IsDir() || strings.HasSuffix(f.Name, "/"):
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, serr.Wrap(err, "failed to create dir", "entry", f.Name)
			}
		case mode&os.ModeSymlink != 0:
			logger.Debug("Skipping symlink in plugin zip", "entry", f.Name)
		case mode.IsRegular():
			if err := extractFile(f, target); err != nil {
				return files, err
			}
			files++
		default:
			logger.Debug("Skipping special zip entry", "entry", f.Name, "mode", mode.String())
		}
	}

	logger.Debug("Extracted zip", "path", zipPath, "dest", dest, "files", strconv.Itoa(files))
	return files, nil
}

// entryPath resolves a zip entry name below dest
func entryPath(dest, name string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") || filepath.VolumeName(clean) != "" {
		return "", serr.New("zip entry escapes extraction dir", "entry", name)
	}
	if clean == "." {
		return dest, nil
	}
	return filepath.Join(dest, filepath.FromSlash(clean)), nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return serr.Wrap(err, "failed to create dir", "entry", f.Name)
	}

	rc, err := f.Open()
	if err != nil {
		return serr.Wrap(err, "failed to open zip entry", "entry", f.Name)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return serr.Wrap(err, "failed to create file", "entry", f.Name)
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return serr.Wrap(err, "failed to write file", "entry", f.Name)
	}
	if err := out.Close(); err != nil {
		return serr.Wrap(err, "failed to close file", "entry", f.Name)
	}
	if !f.Modified.IsZero() {
		_ = os.Chtimes(target, f.Modified, f.Modified)
	}
	return nil
}

// PluginRoot returns the single top-level directory of an extraction, which is
// how wordpress.org packages plugins, or dir itself when there is none.
func PluginRoot(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return dir
	}

	var only string
	for _, e := range entries {
		if e.Name() == "__MACOSX" {
			continue
		}
		if !e.IsDir() || only != "" {
			return dir
		}
		only = e.Name()
	}
	if only == "" {
		return dir
	}
	return filepath.Join(dir, only)
}

// WriteZip packs the given slash-relative files under root into w.
// Files that cannot be read are skipped and logged; the count written is returned.
func WriteZip(w io.Writer, root string, files []string) (int, error) {
	zw := zip.NewWriter(w)
	added := 0
	for _, rel := range files {
		if err := addFileToZip(zw, root, rel); err != nil {
			logger.LogErr(err, "Failed to add file to zip", "file", rel)
			continue
		}
		added++
	}
	if err := zw.Close(); err != nil {
		return added, serr.Wrap(err, "failed to finalize zip")
	}
	return added, nil
}

func addFileToZip(zw *zip.Writer, root, rel string) error {
	file, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return serr.Wrap(err, "failed to open file")
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return serr.Wrap(err, "failed to stat file")
	}
	if !info.Mode().IsRegular() {
		return serr.New("not a regular file", "file", rel)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return serr.Wrap(err, "failed to create zip header")
	}
	header.Name = rel
	header.Method = zip.Deflate

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return serr.Wrap(err, "failed to create zip entry")
	}
	if _, err = io.Copy(writer, file); err != nil {
		return serr.Wrap(err, "failed to write file to zip")
	}
	return nil
}
