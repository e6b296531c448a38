package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"

	"wpcompare/cache"
	"wpcompare/compare"
	"wpcompare/plugin"
	"wpcompare/wporg"
)

const (
	defaultPerPage  = 10
	maxListVersions = 10
)

// Directory is the part of the wordpress.org client the tools use
type Directory interface {
	Search(ctx context.Context, query string, page, perPage int) (*wporg.SearchResult, error)
	Info(ctx context.Context, slug string) (*wporg.PluginInfo, error)
}

// PluginCache fetches published plugin versions onto local disk
type PluginCache interface {
	Fetch(ctx context.Context, slug, version string, progress wporg.ProgressFunc) (*cache.Entry, error)
	FetchZip(ctx context.Context, slug, version string, progress wporg.ProgressFunc) (*cache.Entry, error)
}

// Deps are the services the plugin tools run against
type Deps struct {
	Directory  Directory
	Cache      PluginCache
	Comparator *compare.Comparator
	// AllowedRoots confines local_path and remote_path when non-empty
	AllowedRoots []string
}

// PluginSearchTool searches the wordpress.org plugin directory
type PluginSearchTool struct {
	Directory Directory
}

// GetDefinition returns the tool definition
func (t *PluginSearchTool) GetDefinition() Tool {
	return Tool{
		Name:        "wp_plugin_search",
		Description: "Search the wordpress.org plugin directory. Returns matching plugins with slug, version and install counts.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search terms",
				},
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Result page, starting at 1",
				},
				"per_page": map[string]interface{}{
					"type":        "integer",
					"description": "Results per page (default 10, max 100)",
				},
			},
			"required": []string{"query"},
		},
	}
}

// Execute runs the search
func (t *PluginSearchTool) Execute(ctx context.Context, input map[string]interface{}) (string, error) {
	query, ok := GetString(input, "query")
	if !ok || strings.TrimSpace(query) == "" {
		return "", serr.New("query is required")
	}
	page, ok := GetInt(input, "page")
	if !ok || page < 1 {
		page = 1
	}
	perPage, ok := GetInt(input, "per_page")
	if !ok || perPage < 1 {
		perPage = defaultPerPage
	}

	res, err := t.Directory.Search(ctx, query, page, perPage)
	if err != nil {
		return "", serr.Wrap(err, "plugin search failed", "query", query)
	}

	if len(res.Plugins) == 0 {
		return fmt.Sprintf("No plugins found for %q", query), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d plugins for %q (page %d of %d)\n", res.Results, query, res.Page, res.Pages))
	if best, ok := wporg.BestMatch(query, res.Plugins); ok {
		sb.WriteString(fmt.Sprintf("Best match: %s\n", best.Slug))
	}
	sb.WriteString("\n")
	for _, p := range res.Plugins {
		sb.WriteString(fmt.Sprintf("- %s (%s) v%s, %d+ active installs\n", p.Slug, p.Name, p.Version, p.ActiveInstalls))
		if p.ShortDescription != "" {
			sb.WriteString("  " + p.ShortDescription + "\n")
		}
	}
	return sb.String(), nil
}

// PluginInfoTool reports the published details of one plugin
type PluginInfoTool struct {
	Directory Directory
}

// GetDefinition returns the tool definition
func (t *PluginInfoTool) GetDefinition() Tool {
	return Tool{
		Name:        "wp_plugin_info",
		Description: "Get details of a wordpress.org plugin: latest version, requirements, available versions and optionally the readme sections.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"slug": map[string]interface{}{
					"type":        "string",
					"description": "Plugin slug, e.g. akismet",
				},
				"full": map[string]interface{}{
					"type":        "boolean",
					"description": "Include the description, installation and changelog sections",
				},
			},
			"required": []string{"slug"},
		},
	}
}

// Execute fetches and renders the plugin information
func (t *PluginInfoTool) Execute(ctx context.Context, input map[string]interface{}) (string, error) {
	slug, ok := GetString(input, "slug")
	if !ok || slug == "" {
		return "", serr.New("slug is required")
	}
	full, _ := GetBool(input, "full")

	info, err := t.Directory.Info(ctx, slug)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (%s)\n", info.Name, info.Slug))
	writeField(&sb, "Version", info.Version)
	writeField(&sb, "Author", info.Author)
	writeField(&sb, "Requires WordPress", info.Requires)
	writeField(&sb, "Tested up to", info.Tested)
	writeField(&sb, "Requires PHP", info.RequiresPHP)
	writeField(&sb, "Active installs", strconv.FormatInt(info.ActiveInstalls, 10))
	writeField(&sb, "Rating", fmt.Sprintf("%d/100 (%d ratings)", info.Rating, info.NumRatings))
	writeField(&sb, "Last updated", info.LastUpdated)
	writeField(&sb, "Homepage", info.Homepage)
	writeField(&sb, "Download", info.DownloadLink)
	if len(info.Tags) > 0 {
		writeField(&sb, "Tags", strings.Join(info.Tags, ", "))
	}
	if len(info.Versions) > 0 {
		versions := info.Versions
		if len(versions) > maxListVersions {
			versions = versions[:maxListVersions]
		}
		writeField(&sb, "Versions", strings.Join(versions, ", "))
	}

	if full {
		for _, name := range []string{"description", "installation", "changelog"} {
			text := strings.TrimSpace(info.Sections[name])
			if text == "" {
				continue
			}
			sb.WriteString("\n## " + strings.ToUpper(name[:1]) + name[1:] + "\n\n")
			sb.WriteString(text + "\n")
		}
	}
	return sb.String(), nil
}

// PluginDownloadTool downloads a published version into the cache
type PluginDownloadTool struct {
	Cache PluginCache
}

// GetDefinition returns the tool definition
func (t *PluginDownloadTool) GetDefinition() Tool {
	return Tool{
		Name:        "wp_plugin_download",
		Description: "Download a plugin version from wordpress.org into the local cache and optionally extract it.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"slug": map[string]interface{}{
					"type":        "string",
					"description": "Plugin slug",
				},
				"version": map[string]interface{}{
					"type":        "string",
					"description": "Version to download (default: latest)",
				},
				"extract": map[string]interface{}{
					"type":        "boolean",
					"description": "Extract the archive (default true)",
				},
			},
			"required": []string{"slug"},
		},
	}
}

// Execute downloads the plugin
func (t *PluginDownloadTool) Execute(ctx context.Context, input map[string]interface{}) (string, error) {
	slug, ok := GetString(input, "slug")
	if !ok || slug == "" {
		return "", serr.New("slug is required")
	}
	version, _ := GetString(input, "version")
	extract, ok := GetBool(input, "extract")
	if !ok {
		extract = true
	}

	var entry *cache.Entry
	var err error
	if extract {
		entry, err = t.Cache.Fetch(ctx, slug, version, nil)
	} else {
		entry, err = t.Cache.FetchZip(ctx, slug, version, nil)
	}
	if err != nil {
		return "", err
	}

	state := "cached"
	if entry.Fresh {
		state = "downloaded"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s %s (%d bytes)\n", slug, entry.Version, state, entry.ZipBytes))
	writeField(&sb, "Archive", entry.ZipPath)
	if entry.PluginRoot != "" {
		writeField(&sb, "Extracted", entry.PluginRoot)
	}
	return sb.String(), nil
}

// PluginCompareTool compares a local plugin directory with a published version
type PluginCompareTool struct {
	Cache      PluginCache
	Comparator *compare.Comparator
}

// GetDefinition returns the tool definition
func (t *PluginCompareTool) GetDefinition() Tool {
	return Tool{
		Name: "wp_plugin_compare",
		Description: "Compare a local WordPress plugin directory against the published wordpress.org version " +
			"(or another directory). Reports identical, different, local-only and remote-only files with unified diffs.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"local_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the local plugin directory",
				},
				"slug": map[string]interface{}{
					"type":        "string",
					"description": "wordpress.org slug (default: guessed from the plugin header or directory name)",
				},
				"version": map[string]interface{}{
					"type":        "string",
					"description": "Published version to compare against (default: the local header version, else latest)",
				},
				"remote_path": map[string]interface{}{
					"type":        "string",
					"description": "Compare against this directory instead of downloading",
				},
				"format": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"text", "json", "both"},
					"description": "Output format (default text)",
				},
				"include_diffs": map[string]interface{}{
					"type":        "boolean",
					"description": "Include unified diffs of different files (default true)",
				},
			},
			"required": []string{"local_path"},
		},
	}
}

// Execute runs the comparison
func (t *PluginCompareTool) Execute(ctx context.Context, input map[string]interface{}) (string, error) {
	localRoot, remoteRoot, err := ResolveTrees(ctx, t.Cache, input)
	if err != nil {
		return "", err
	}
	format, ok := GetString(input, "format")
	if !ok || format == "" {
		format = "text"
	}
	includeDiffs, ok := GetBool(input, "include_diffs")
	if !ok {
		includeDiffs = true
	}

	pc := t.Comparator.Compare(ctx, localRoot, remoteRoot)
	if err := ctx.Err(); err != nil {
		return "", serr.Wrap(err, "comparison cancelled")
	}
	logger.Info("Compared plugin trees", "local", localRoot, "remote", remoteRoot,
		"different", strconv.Itoa(pc.Summary.Different), "total", strconv.Itoa(pc.Summary.Total))

	if !includeDiffs {
		stripped := *pc
		stripped.Files = make([]compare.FileComparison, len(pc.Files))
		for i, fc := range pc.Files {
			fc.Diff = ""
			stripped.Files[i] = fc
		}
		pc = &stripped
	}

	var sb strings.Builder
	if format == "text" || format == "both" {
		sb.WriteString(compare.FormatComparisonSummary(pc))
		if includeDiffs && pc.Summary.Different > 0 {
			sb.WriteString("\nDiffs:\n")
			sb.WriteString(compare.FormatDiffs(pc))
		}
	}
	if format == "json" || format == "both" {
		data, err := pc.JSON()
		if err != nil {
			return "", serr.Wrap(err, "failed to encode comparison")
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.Write(data)
	}
	return sb.String(), nil
}

// PluginFileDiffTool diffs a single file between the local and published trees
type PluginFileDiffTool struct {
	Cache      PluginCache
	Comparator *compare.Comparator
}

// GetDefinition returns the tool definition
func (t *PluginFileDiffTool) GetDefinition() Tool {
	return Tool{
		Name:        "wp_plugin_file_diff",
		Description: "Show the unified diff of one file between a local plugin directory and the published version.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"local_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the local plugin directory",
				},
				"file": map[string]interface{}{
					"type":        "string",
					"description": "Path of the file relative to the plugin root, e.g. includes/admin.php",
				},
				"slug": map[string]interface{}{
					"type":        "string",
					"description": "wordpress.org slug (default: guessed)",
				},
				"version": map[string]interface{}{
					"type":        "string",
					"description": "Published version (default: the local header version, else latest)",
				},
				"remote_path": map[string]interface{}{
					"type":        "string",
					"description": "Compare against this directory instead of downloading",
				},
			},
			"required": []string{"local_path", "file"},
		},
	}
}

// Execute diffs the file
func (t *PluginFileDiffTool) Execute(ctx context.Context, input map[string]interface{}) (string, error) {
	file, ok := GetString(input, "file")
	if !ok || strings.TrimSpace(file) == "" {
		return "", serr.New("file is required")
	}
	localRoot, remoteRoot, err := ResolveTrees(ctx, t.Cache, input)
	if err != nil {
		return "", err
	}

	fc, found := t.Comparator.CompareFile(localRoot, remoteRoot, file)
	if !found {
		return "", serr.New("file not found in either tree", "file", file)
	}

	switch fc.Status {
	case compare.StatusIdentical:
		return fmt.Sprintf("%s is identical", fc.File), nil
	case compare.StatusLocalOnly:
		return fmt.Sprintf("%s exists only in the local plugin", fc.File), nil
	case compare.StatusRemoteOnly:
		return fmt.Sprintf("%s exists only in the published plugin", fc.File), nil
	}
	if fc.Diff == "" {
		return fmt.Sprintf("%s differs (binary or unreadable, %s -> %s bytes)",
			fc.File, sizeText(fc.RemoteSize), sizeText(fc.LocalSize)), nil
	}
	return fc.Diff, nil
}

// PluginCheckUpdateTool compares a local plugin's version with the latest release
type PluginCheckUpdateTool struct {
	Directory Directory
}

// GetDefinition returns the tool definition
func (t *PluginCheckUpdateTool) GetDefinition() Tool {
	return Tool{
		Name:        "wp_plugin_check_update",
		Description: "Check whether a local plugin is behind the latest version published on wordpress.org.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"local_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the local plugin directory",
				},
				"slug": map[string]interface{}{
					"type":        "string",
					"description": "wordpress.org slug (default: guessed)",
				},
			},
			"required": []string{"local_path"},
		},
	}
}

// Execute checks for an update
func (t *PluginCheckUpdateTool) Execute(ctx context.Context, input map[string]interface{}) (string, error) {
	raw, _ := GetString(input, "local_path")
	dir, err := ResolveDir(raw)
	if err != nil {
		return "", err
	}

	header, err := plugin.ReadHeader(dir)
	if err != nil {
		return "", serr.Wrap(err, "no plugin header found", "dir", dir)
	}

	slug, _ := GetString(input, "slug")
	if slug == "" {
		slug = plugin.GuessSlug(dir, header)
	}
	if slug == "" {
		return "", serr.New("cannot determine the plugin slug; pass slug explicitly", "dir", dir)
	}

	info, err := t.Directory.Info(ctx, slug)
	if err != nil {
		return "", err
	}

	local := header.Version
	if local == "" {
		local = "unknown"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (%s)\n", header.Name, slug))
	writeField(&sb, "Local version", local)
	writeField(&sb, "Latest version", info.Version)
	switch {
	case header.IsOutdated(info.Version):
		sb.WriteString("Update available\n")
	case plugin.CompareVersions(header.Version, info.Version) > 0:
		sb.WriteString("Local version is newer than the published release\n")
	default:
		sb.WriteString("Up to date\n")
	}
	return sb.String(), nil
}

// ResolveTrees resolves local_path and the reference tree: remote_path when
// given, otherwise the cached extraction of slug@version.
func ResolveTrees(ctx context.Context, pc PluginCache, input map[string]interface{}) (string, string, error) {
	raw, _ := GetString(input, "local_path")
	localRoot, err := ResolveDir(raw)
	if err != nil {
		return "", "", err
	}

	if remote, ok := GetString(input, "remote_path"); ok && remote != "" {
		remoteRoot, err := ResolveDir(remote)
		if err != nil {
			return "", "", err
		}
		return localRoot, remoteRoot, nil
	}

	slug, _ := GetString(input, "slug")
	version, _ := GetString(input, "version")

	header, herr := plugin.ReadHeader(localRoot)
	if herr != nil {
		header = nil
	}
	if slug == "" {
		slug = plugin.GuessSlug(localRoot, header)
		if slug == "" {
			return "", "", serr.New("cannot determine the plugin slug; pass slug or remote_path", "dir", localRoot)
		}
	}
	if version == "" && header != nil {
		version = header.Version
	}

	entry, err := pc.Fetch(ctx, slug, version, nil)
	if err != nil && header != nil && version != "" && version == header.Version {
		// The local header may carry an unreleased version
		logger.Warn("Local version not available, comparing against latest", "slug", slug, "version", version)
		entry, err = pc.Fetch(ctx, slug, "", nil)
	}
	if err != nil {
		return "", "", err
	}
	if entry.PluginRoot == "" {
		return "", "", serr.New("published archive has no plugin files", "slug", slug, "version", entry.Version)
	}
	return localRoot, entry.PluginRoot, nil
}

func writeField(sb *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	sb.WriteString(fmt.Sprintf("%-20s%s\n", label+":", value))
}

func sizeText(size *int64) string {
	if size == nil {
		return "?"
	}
	return strconv.FormatInt(*size, 10)
}
