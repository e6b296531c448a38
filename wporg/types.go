package wporg

import (
	"regexp"

	"github.com/rohanthewiz/serr"
)

// PluginSummary is one plugin as listed by the search endpoint
type PluginSummary struct {
	Slug             string `json:"slug" yaml:"slug"`
	Name             string `json:"name" yaml:"name"`
	Version          string `json:"version" yaml:"version"`
	Author           string `json:"author,omitempty" yaml:"author,omitempty"`
	Requires         string `json:"requires,omitempty" yaml:"requires,omitempty"`
	Tested           string `json:"tested,omitempty" yaml:"tested,omitempty"`
	RequiresPHP      string `json:"requiresPhp,omitempty" yaml:"requiresPhp,omitempty"`
	Rating           int    `json:"rating" yaml:"rating"`
	NumRatings       int    `json:"numRatings" yaml:"numRatings"`
	ActiveInstalls   int64  `json:"activeInstalls" yaml:"activeInstalls"`
	Downloaded       int64  `json:"downloaded" yaml:"downloaded"`
	LastUpdated      string `json:"lastUpdated,omitempty" yaml:"lastUpdated,omitempty"`
	ShortDescription string `json:"shortDescription,omitempty" yaml:"shortDescription,omitempty"`
	Homepage         string `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	DownloadLink     string `json:"downloadLink,omitempty" yaml:"downloadLink,omitempty"`
}

// SearchResult is one page of search results
type SearchResult struct {
	Query   string          `json:"query" yaml:"query"`
	Page    int             `json:"page" yaml:"page"`
	Pages   int             `json:"pages" yaml:"pages"`
	Results int             `json:"results" yaml:"results"`
	Plugins []PluginSummary `json:"plugins" yaml:"plugins"`
}

// PluginInfo is the full plugin_information record.
// Sections hold plain text converted from the HTML the API returns.
type PluginInfo struct {
	PluginSummary `yaml:",inline"`
	Added         string            `json:"added,omitempty" yaml:"added,omitempty"`
	Sections      map[string]string `json:"sections,omitempty" yaml:"sections,omitempty"`
	Tags          []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	Versions      []string          `json:"versions,omitempty" yaml:"versions,omitempty"` // newest first, trunk excluded
}

// NotFoundError is returned by Info when wordpress.org has no plugin with the slug
type NotFoundError struct {
	Slug string
}

func (e *NotFoundError) Error() string {
	return "plugin not found on wordpress.org: " + e.Slug
}

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidateSlug rejects anything that is not a wordpress.org plugin slug
func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return serr.New("invalid plugin slug", "slug", slug)
	}
	return nil
}
