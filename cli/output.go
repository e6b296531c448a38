package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/rohanthewiz/serr"
	"gopkg.in/yaml.v3"

	"wpcompare/cache"
	"wpcompare/compare"
	"wpcompare/wporg"
)

// Output formats accepted by --output
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return nil
	}
	return serr.New("unsupported output format, use text, json or yaml", "format", format)
}

// writeStructured writes v as indented JSON or as YAML
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return serr.Wrap(err, "failed to encode yaml")
		}
		return enc.Close()
	}
	return serr.New("not a structured format", "format", format)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// writeSearchTable renders one page of search results
func writeSearchTable(w io.Writer, res *wporg.SearchResult) {
	if len(res.Plugins) == 0 {
		fmt.Fprintf(w, "No plugins found for %q\n", res.Query)
		return
	}

	table := newTable(w, "Slug", "Name", "Version", "Active installs", "Rating")
	for _, p := range res.Plugins {
		table.Append([]string{
			p.Slug,
			p.Name,
			p.Version,
			strconv.FormatInt(p.ActiveInstalls, 10) + "+",
			strconv.Itoa(p.Rating) + "%",
		})
	}
	table.Render()
	fmt.Fprintf(w, "\nPage %d of %d, %d results\n", res.Page, res.Pages, res.Results)
}

// writeCacheTable renders the cached plugin versions
func writeCacheTable(w io.Writer, root string, entries []cache.Entry) {
	if len(entries) == 0 {
		fmt.Fprintf(w, "Cache is empty (%s)\n", root)
		return
	}

	var total int64
	table := newTable(w, "Slug", "Version", "Zip bytes", "Extracted")
	for _, e := range entries {
		extracted := "no"
		if e.ExtractDir != "" {
			extracted = "yes"
		}
		table.Append([]string{e.Slug, e.Version, strconv.FormatInt(e.ZipBytes, 10), extracted})
		total += e.ZipBytes
	}
	table.Render()
	fmt.Fprintf(w, "\n%d versions, %d bytes in %s\n", len(entries), total, root)
}

// writeComparison renders a comparison in the requested format
func writeComparison(w io.Writer, format string, pc *compare.PluginComparison, withDiffs bool) error {
	if !withDiffs {
		stripped := *pc
		stripped.Files = make([]compare.FileComparison, len(pc.Files))
		for i, fc := range pc.Files {
			fc.Diff = ""
			stripped.Files[i] = fc
		}
		pc = &stripped
	}

	if format != FormatText {
		return writeStructured(w, format, pc)
	}

	if _, err := io.WriteString(w, compare.FormatComparisonSummary(pc)); err != nil {
		return err
	}
	if withDiffs && pc.Summary.Different > 0 {
		_, err := io.WriteString(w, "\nDiffs:\n"+compare.FormatDiffs(pc))
		return err
	}
	return nil
}
