package tools

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rohanthewiz/serr"
)

// ExpandPath expands a file path, replacing ~ with the user's home directory
// This ensures that paths like ~/Sites/wp-content/plugins work correctly
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}

	// Handle home directory expansion for Unix-like systems
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", serr.Wrap(err, "failed to get home directory")
		}

		if path == "~" {
			return homeDir, nil
		}

		// "~/" and "~/." are the home directory itself; "~user" forms are not supported
		if len(path) == 2 {
			if path == "~/" || path == "~/." {
				return homeDir, nil
			}
			return "", serr.F("file path: %q is malformed", path)
		}
		if path[1] != '/' && path[1] != filepath.Separator {
			return "", serr.F("file path: %q is malformed", path)
		}

		path = filepath.Join(homeDir, path[2:])
	}

	// Clean the path to handle . and .. properly
	return filepath.Clean(path), nil
}

// ResolveDir expands path and makes it absolute, requiring an existing directory
func ResolveDir(path string) (string, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return "", err
	}
	if expanded == "" {
		return "", serr.New("directory path is required")
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", serr.Wrap(err, "failed to resolve path", "path", path)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", serr.Wrap(err, "directory does not exist", "path", abs)
	}
	if !info.IsDir() {
		return "", serr.New("not a directory", "path", abs)
	}
	return abs, nil
}
