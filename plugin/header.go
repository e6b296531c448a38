// Package plugin reads the metadata a WordPress plugin declares about itself.
package plugin

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rohanthewiz/serr"
)

// headerScanBytes is how much of each file WordPress itself inspects for headers
const headerScanBytes = 8 << 10

// Header is the plugin header comment of the main plugin file
type Header struct {
	File        string `json:"file" yaml:"file"` // main file, relative to the plugin dir
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Author      string `json:"author,omitempty" yaml:"author,omitempty"`
	PluginURI   string `json:"pluginUri,omitempty" yaml:"pluginUri,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	TextDomain  string `json:"textDomain,omitempty" yaml:"textDomain,omitempty"`
	RequiresWP  string `json:"requiresWp,omitempty" yaml:"requiresWp,omitempty"`
	RequiresPHP string `json:"requiresPhp,omitempty" yaml:"requiresPhp,omitempty"`
	License     string `json:"license,omitempty" yaml:"license,omitempty"`
}

var headerFields = map[string]func(*Header, string){
	"Plugin Name":       func(h *Header, v string) { h.Name = v },
	"Version":           func(h *Header, v string) { h.Version = v },
	"Author":            func(h *Header, v string) { h.Author = v },
	"Plugin URI":        func(h *Header, v string) { h.PluginURI = v },
	"Description":       func(h *Header, v string) { h.Description = v },
	"Text Domain":       func(h *Header, v string) { h.TextDomain = v },
	"Requires at least": func(h *Header, v string) { h.RequiresWP = v },
	"Requires PHP":      func(h *Header, v string) { h.RequiresPHP = v },
	"License":           func(h *Header, v string) { h.License = v },
}

// headerLine matches "Field Name: value" inside a comment, tolerating the
// leading "*", "#" or "//" decorations plugin authors use.
var headerLine = regexp.MustCompile(`(?m)^[ \t/*#@]*([A-Za-z][A-Za-z ]*?)[ \t]*:[ \t]*(.+?)[ \t]*(?:\*/)?[ \t]*\r?$`)

// ReadHeader finds the main plugin file among the top-level *.php files of
// dir and parses its header. Files are tried in name order.
func ReadHeader(dir string) (*Header, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.php"))
	if err != nil {
		return nil, serr.Wrap(err, "failed to list plugin files", "dir", dir)
	}
	sort.Strings(matches)

	for _, file := range matches {
		head, err := readHead(file)
		if err != nil {
			continue
		}
		if h := ParseHeader(head); h != nil {
			h.File = filepath.Base(file)
			return h, nil
		}
	}
	return nil, serr.New("no plugin header found", "dir", dir)
}

// ParseHeader extracts the header fields from the start of a PHP file.
// It returns nil when there is no "Plugin Name" field.
func ParseHeader(src string) *Header {
	h := &Header{}
	for _, m := range headerLine.FindAllStringSubmatch(src, -1) {
		set, ok := headerFields[strings.TrimSpace(m[1])]
		if !ok {
			continue
		}
		set(h, strings.TrimSpace(m[2]))
	}
	if h.Name == "" {
		return nil
	}
	return h
}

func readHead(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, headerScanBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	return strings.ReplaceAll(string(buf[:n]), "\r", "\n"), nil
}

// GuessSlug derives the likely wordpress.org slug of a local plugin: the
// text domain when it looks like a slug, otherwise the directory name.
func GuessSlug(dir string, h *Header) string {
	if h != nil && slugLike.MatchString(h.TextDomain) {
		return h.TextDomain
	}
	base := strings.ToLower(filepath.Base(filepath.Clean(dir)))
	if slugLike.MatchString(base) {
		return base
	}
	return ""
}

var slugLike = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
