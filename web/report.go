package web

import (
	"html"
	"strconv"
	"strings"

	"github.com/rohanthewiz/element"

	"wpcompare/compare"
	"wpcompare/tools"
)

// ReportComponent renders one plugin comparison
type ReportComponent struct {
	Comparison *compare.PluginComparison
}

// Render implements the element.Component interface
func (r ReportComponent) Render(b *element.Builder) (x any) {
	pc := r.Comparison
	sum := pc.Summary

	b.Div("class", "report").R(
		b.H1().T("Plugin Comparison"),
		b.Table("class", "paths").R(
			b.Tr().R(b.Th().T("Local"), b.Td().T(esc(pc.LocalPath))),
			b.Tr().R(b.Th().T("Remote"), b.Td().T(esc(pc.RemotePath))),
		),
		b.Div("class", "stats").R(
			stat(b, "identical", "Identical", sum.Identical),
			stat(b, "different", "Different", sum.Different),
			stat(b, "local_only", "Local only", sum.LocalOnly),
			stat(b, "remote_only", "Remote only", sum.RemoteOnly),
			stat(b, "total", "Total", sum.Total),
		),
		b.Table("class", "files").R(
			b.Tr().R(b.Th().T("File"), b.Th().T("Status"), b.Th().T("Remote size"), b.Th().T("Local size")),
			element.ForEach(pc.Files, func(fc compare.FileComparison) {
				b.Tr("class", "status-"+string(fc.Status)).R(
					b.Td().R(b.A("href", "#"+anchor(fc.File)).T(esc(fc.File))),
					b.Td().T(string(fc.Status)),
					b.Td("class", "num").T(sizeCell(fc.RemoteSize)),
					b.Td("class", "num").T(sizeCell(fc.LocalSize)),
				)
			}),
		),
		element.ForEach(pc.WithStatus(compare.StatusDifferent), func(fc compare.FileComparison) {
			b.Div("class", "diff", "id", anchor(fc.File)).R(
				b.H2().T(esc(fc.File)),
				func() (x any) {
					if fc.Diff == "" {
						b.P("class", "note").T("Binary or unreadable file, sizes differ or could not be compared.")
						return
					}
					b.Pre().T(esc(fc.Diff))
					return
				}(),
			)
		}),
	)
	return
}

func stat(b *element.Builder, class, label string, n int) any {
	return b.Div("class", "stat "+class).R(
		b.Span("class", "count").T(strconv.Itoa(n)),
		b.Span("class", "label").T(label),
	)
}

// renderReport renders a full HTML page for a comparison
func renderReport(pc *compare.PluginComparison) string {
	b := element.NewBuilder()
	b.Html().R(
		pageHead(b, "Plugin Comparison - wpcompare"),
		b.Body().R(
			b.Div("class", "nav").R(b.A("href", "/").T("wpcompare")),
			func() (x any) {
				element.RenderComponents(b, ReportComponent{Comparison: pc})
				return
			}(),
		),
	)
	return b.String()
}

// renderIndex renders the landing page: a report form and the tool list
func renderIndex(defs []tools.Tool, mcpAddr string) string {
	b := element.NewBuilder()
	b.Html().R(
		pageHead(b, "wpcompare"),
		b.Body().R(
			b.H1().T("wpcompare"),
			b.P().T("Compare a local WordPress plugin with the version published on wordpress.org."),
			b.Form("method", "get", "action", "/report").R(
				b.Label("for", "local").T("Local plugin directory"),
				b.Input("type", "text", "id", "local", "name", "local", "required", "required", "placeholder", "~/sites/wp-content/plugins/akismet"),
				b.Label("for", "slug").T("Slug (optional)"),
				b.Input("type", "text", "id", "slug", "name", "slug"),
				b.Label("for", "version").T("Version (optional)"),
				b.Input("type", "text", "id", "version", "name", "version", "placeholder", "latest"),
				b.Button("type", "submit").T("Compare"),
			),
			b.H2().T("Tools"),
			b.Ul("class", "tools").R(
				element.ForEach(defs, func(def tools.Tool) {
					b.Li().R(
						b.Code().T(def.Name),
						b.Span().T(" "+esc(def.Description)),
					)
				}),
			),
			func() (x any) {
				if mcpAddr != "" {
					b.P("class", "note").T("MCP endpoint: " + esc(mcpAddr) + "/mcp")
				}
				return
			}(),
		),
	)
	return b.String()
}

// renderError renders a failed report request
func renderError(err error) string {
	b := element.NewBuilder()
	b.Html().R(
		pageHead(b, "Error - wpcompare"),
		b.Body().R(
			b.Div("class", "nav").R(b.A("href", "/").T("wpcompare")),
			b.H1().T("Comparison failed"),
			b.Pre("class", "error").T(esc(err.Error())),
		),
	)
	return b.String()
}

func pageHead(b *element.Builder, title string) any {
	return b.Head().R(
		b.Title().T(title),
		b.Meta("charset", "UTF-8"),
		b.Meta("name", "viewport", "content", "width=device-width, initial-scale=1.0"),
		b.Style().T(reportCSS),
	)
}

func esc(s string) string {
	return html.EscapeString(s)
}

// anchor turns a relative path into an element id
func anchor(file string) string {
	return "f-" + strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '-'
	}, file)
}

func sizeCell(size *int64) string {
	if size == nil {
		return "-"
	}
	return strconv.FormatInt(*size, 10)
}

const reportCSS = `
	body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 2rem; color: #222; }
	.nav { margin-bottom: 1rem; }
	table { border-collapse: collapse; margin: 1rem 0; }
	th, td { text-align: left; padding: 0.25rem 0.75rem; border-bottom: 1px solid #ddd; }
	td.num { text-align: right; font-variant-numeric: tabular-nums; }
	.stats { display: flex; gap: 1rem; }
	.stat { padding: 0.5rem 1rem; border-radius: 4px; background: #f3f3f3; }
	.stat .count { font-size: 1.5rem; font-weight: bold; margin-right: 0.5rem; }
	.different, .status-different { background: #fff4e0; }
	.local_only, .status-local_only { background: #e6f4ea; }
	.remote_only, .status-remote_only { background: #fdecea; }
	pre { background: #f8f8f8; padding: 1rem; overflow-x: auto; }
	form { display: grid; grid-template-columns: 12rem 24rem; gap: 0.5rem; max-width: 40rem; }
	form button { grid-column: 2; justify-self: start; }
	.note { color: #666; }
	.error { color: #b00020; }
`
