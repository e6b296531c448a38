// Package wporg talks to the wordpress.org plugin directory: search, plugin
// information and ZIP downloads.
package wporg

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"

	"wpcompare/config"
	"wpcompare/retry"
)

const (
	DefaultAPIBaseURL      = "https://api.wordpress.org"
	DefaultDownloadBaseURL = "https://downloads.wordpress.org"
	UserAgent              = "wpcompare/1.0 (+https://wordpress.org/plugins/)"

	infoPath = "/plugins/info/1.2/"

	// sniffLen is how much of a download is inspected before it is accepted as a ZIP
	sniffLen = 3072
	// maxJSONBytes bounds API responses; plugin_information with all sections is well under this
	maxJSONBytes = 16 << 20
)

// ProgressFunc is called as download bytes arrive. total is -1 when unknown.
type ProgressFunc func(done, total int64)

// Client is a wordpress.org plugin directory client
type Client struct {
	apiBase      string
	downloadBase string
	httpClient   *http.Client
	policy       retry.Policy
	maxDownload  int64
}

// Option configures a Client
type Option func(*Client)

// WithBaseURLs points the client at other API and download hosts
func WithBaseURLs(api, download string) Option {
	return func(c *Client) {
		if api != "" {
			c.apiBase = strings.TrimRight(api, "/")
		}
		if download != "" {
			c.downloadBase = strings.TrimRight(download, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy replaces the retry policy used for every request
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithMaxDownloadBytes caps the size of a downloaded ZIP
func WithMaxDownloadBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxDownload = n
		}
	}
}

// NewClient creates a client for the public wordpress.org endpoints
func NewClient(opts ...Option) *Client {
	c := &Client{
		apiBase:      DefaultAPIBaseURL,
		downloadBase: DefaultDownloadBaseURL,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		policy:       retry.NetworkPolicy,
		maxDownload:  100 << 20,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a client from the application configuration
func NewFromConfig(cfg *config.Config) *Client {
	return NewClient(
		WithBaseURLs(cfg.APIBaseURL, cfg.DownloadBaseURL),
		WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		WithMaxDownloadBytes(cfg.MaxDownloadBytes),
	)
}

// Search runs a plugin directory search. page is 1-based.
func (c *Client) Search(ctx context.Context, query string, page, perPage int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, serr.New("search query is required")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	params := url.Values{}
	params.Set("action", "query_plugins")
	params.Set("request[search]", query)
	params.Set("request[page]", strconv.Itoa(page))
	params.Set("request[per_page]", strconv.Itoa(perPage))

	body, err := c.getJSON(ctx, c.apiBase+infoPath+"?"+params.Encode())
	if err != nil {
		return nil, serr.Wrap(err, "plugin search failed", "query", query)
	}

	doc := gjson.ParseBytes(body)
	if msg := doc.Get("error"); msg.Exists() {
		return nil, serr.New("plugin search rejected", "query", query, "error", msg.String())
	}

	result := &SearchResult{
		Query:   query,
		Page:    int(doc.Get("info.page").Int()),
		Pages:   int(doc.Get("info.pages").Int()),
		Results: int(doc.Get("info.results").Int()),
		Plugins: []PluginSummary{},
	}
	for _, p := range doc.Get("plugins").Array() {
		result.Plugins = append(result.Plugins, parseSummary(p))
	}

	logger.Debug("Plugin search", "query", query, "page", strconv.Itoa(result.Page),
		"returned", strconv.Itoa(len(result.Plugins)), "total", strconv.Itoa(result.Results))
	return result, nil
}

// Info fetches the plugin_information record for slug.
// An unknown slug yields *NotFoundError.
func (c *Client) Info(ctx context.Context, slug string) (*PluginInfo, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("action", "plugin_information")
	params.Set("request[slug]", slug)

	body, err := c.getJSON(ctx, c.apiBase+infoPath+"?"+params.Encode())
	if err != nil {
		if retry.StatusCode(err) == http.StatusNotFound {
			return nil, &NotFoundError{Slug: slug}
		}
		return nil, serr.Wrap(err, "plugin info request failed", "slug", slug)
	}

	doc := gjson.ParseBytes(body)
	if doc.Get("error").Exists() || !doc.Get("slug").Exists() {
		return nil, &NotFoundError{Slug: slug}
	}

	info := &PluginInfo{
		PluginSummary: parseSummary(doc),
		Added:         str(doc.Get("added")),
		Sections:      map[string]string{},
	}
	doc.Get("sections").ForEach(func(key, value gjson.Result) bool {
		if text := HTMLToText(value.String()); text != "" {
			info.Sections[key.String()] = text
		}
		return true
	})
	doc.Get("tags").ForEach(func(_, value gjson.Result) bool {
		info.Tags = append(info.Tags, value.String())
		return true
	})
	sort.Strings(info.Tags)

	var versions []string
	doc.Get("versions").ForEach(func(key, _ gjson.Result) bool {
		if v := key.String(); v != "trunk" {
			versions = append(versions, v)
		}
		return true
	})
	info.Versions = SortVersions(versions)

	return info, nil
}

// DownloadURL is the ZIP location for slug at version; an empty version or
// "latest" means the current stable release.
func (c *Client) DownloadURL(slug, version string) string {
	if version == "" || version == "latest" {
		return c.downloadBase + "/plugin/" + slug + ".zip"
	}
	return c.downloadBase + "/plugin/" + slug + "." + version + ".zip"
}

// Download streams the plugin ZIP into w and returns the byte count.
// Obtaining the response is retried; the body is streamed once, so callers
// writing to a file should discard it on error.
func (c *Client) Download(ctx context.Context, slug, version string, w io.Writer, progress ProgressFunc) (int64, error) {
	if err := ValidateSlug(slug); err != nil {
		return 0, err
	}
	dlURL := c.DownloadURL(slug, version)

	resp, err := c.get(ctx, dlURL, "application/zip, application/octet-stream")
	if err != nil {
		if retry.StatusCode(err) == http.StatusNotFound {
			return 0, &NotFoundError{Slug: slug}
		}
		return 0, serr.Wrap(err, "plugin download failed", "slug", slug, "url", dlURL)
	}
	defer resp.Body.Close()

	if resp.ContentLength > c.maxDownload {
		return 0, serr.New("plugin archive exceeds size limit", "slug", slug,
			"size", strconv.FormatInt(resp.ContentLength, 10), "limit", strconv.FormatInt(c.maxDownload, 10))
	}

	body := io.LimitReader(resp.Body, c.maxDownload+1)
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, serr.Wrap(retry.WrapNetworkError(ctx, err), "failed to read plugin archive", "slug", slug)
	}
	head = head[:n]
	if !isZip(head) {
		return 0, serr.New("download is not a zip archive", "slug", slug, "url", dlURL,
			"detected", mimetype.Detect(head).String())
	}

	cw := &countingWriter{w: w, total: resp.ContentLength, progress: progress}
	if _, err := cw.Write(head); err != nil {
		return cw.done, serr.Wrap(err, "failed to write plugin archive", "slug", slug)
	}
	if _, err := io.Copy(cw, body); err != nil {
		return cw.done, serr.Wrap(err, "failed to stream plugin archive", "slug", slug)
	}
	if cw.done > c.maxDownload {
		return cw.done, serr.New("plugin archive exceeds size limit", "slug", slug,
			"limit", strconv.FormatInt(c.maxDownload, 10))
	}

	logger.Info("Downloaded plugin archive", "slug", slug, "version", version,
		"bytes", strconv.FormatInt(cw.done, 10))
	return cw.done, nil
}

// getJSON fetches a JSON document, retrying transient failures
func (c *Client) getJSON(ctx context.Context, u string) ([]byte, error) {
	var body []byte
	res := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		resp, err := c.do(ctx, u, "application/json")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONBytes))
		if err != nil {
			return retry.WrapNetworkError(ctx, err)
		}
		if !gjson.ValidBytes(data) {
			return retry.NewPermanentError(serr.New("response is not valid JSON", "url", u), "decode")
		}
		body = data
		return nil
	})
	if !res.Success {
		return nil, res.LastError
	}
	return body, nil
}

// get retries do until a 2xx response arrives
func (c *Client) get(ctx context.Context, u, accept string) (*http.Response, error) {
	var out *http.Response
	res := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		resp, err := c.do(ctx, u, accept)
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	if !res.Success {
		return nil, res.LastError
	}
	return out, nil
}

// do issues a single GET and returns the response only for a 2xx status.
// Other statuses are classified by retry.FromResponse.
func (c *Client) do(ctx context.Context, u, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, retry.NewPermanentError(err, "bad request")
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.WrapNetworkError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		return nil, retry.FromResponse(resp)
	}
	return resp, nil
}

func isZip(head []byte) bool {
	for mt := mimetype.Detect(head); mt != nil; mt = mt.Parent() {
		if mt.Is("application/zip") {
			return true
		}
	}
	return false
}

// SortVersions orders version strings newest first.
// Strings that are not semver sort after all semver ones, in reverse lexical order.
func SortVersions(versions []string) []string {
	out := append([]string(nil), versions...)
	sort.SliceStable(out, func(i, j int) bool {
		vi, ei := semver.NewVersion(out[i])
		vj, ej := semver.NewVersion(out[j])
		switch {
		case ei == nil && ej == nil:
			return vi.GreaterThan(vj)
		case ei == nil:
			return true
		case ej == nil:
			return false
		default:
			return out[i] > out[j]
		}
	})
	return out
}

func parseSummary(p gjson.Result) PluginSummary {
	return PluginSummary{
		Slug:             p.Get("slug").String(),
		Name:             html.UnescapeString(p.Get("name").String()),
		Version:          str(p.Get("version")),
		Author:           stripTags(p.Get("author").String()),
		Requires:         str(p.Get("requires")),
		Tested:           str(p.Get("tested")),
		RequiresPHP:      str(p.Get("requires_php")),
		Rating:           int(p.Get("rating").Int()),
		NumRatings:       int(p.Get("num_ratings").Int()),
		ActiveInstalls:   p.Get("active_installs").Int(),
		Downloaded:       p.Get("downloaded").Int(),
		LastUpdated:      str(p.Get("last_updated")),
		ShortDescription: html.UnescapeString(p.Get("short_description").String()),
		Homepage:         str(p.Get("homepage")),
		DownloadLink:     str(p.Get("download_link")),
	}
}

// str reads a string field; the API sends false for unset ones
func str(r gjson.Result) string {
	if r.Type != gjson.String {
		return ""
	}
	return r.String()
}

type countingWriter struct {
	w        io.Writer
	done     int64
	total    int64
	progress ProgressFunc
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.done += int64(n)
	if cw.progress != nil {
		cw.progress(cw.done, cw.total)
	}
	return n, err
}
