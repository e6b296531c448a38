package compare

import (
	"os"
	"path"
	"path/filepath"

	"github.com/rohanthewiz/logger"
)

// ListFiles returns the relative, forward-slash paths of every non-directory
// entry under root. A root or subdirectory that cannot be read contributes
// no files. The order of the result is not significant.
func ListFiles(root string) []string {
	var files []string
	walkDir(root, "", &files)
	return files
}

// walkDir appends the files below root/rel to files.
// A read failure is logged and treated as an empty directory.
func walkDir(root, rel string, files *[]string) {
	dir := root
	if rel != "" {
		dir = filepath.Join(root, filepath.FromSlash(rel))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Debug("Skipping unreadable directory", "dir", dir, "error", err.Error())
		return
	}

	for _, entry := range entries {
		relPath := path.Join(rel, entry.Name())
		if entry.IsDir() {
			walkDir(root, relPath, files)
			continue
		}
		*files = append(*files, relPath)
	}
}
