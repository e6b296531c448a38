package wporg

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// HTMLToText converts the HTML of a plugin section into markdown-flavoured text
func HTMLToText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}

	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	var buf bytes.Buffer
	convertNode(&buf, doc)
	lines := strings.Split(buf.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.TrimSpace(blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

// stripTags keeps only the text of an inline fragment such as the author link
func stripTags(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	var buf bytes.Buffer
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(buf.String())
}

func convertNode(buf *bytes.Buffer, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		text := strings.Join(strings.Fields(n.Data), " ")
		if text != "" {
			if buf.Len() > 0 && startsWithSpace(n.Data) && !endsWithBreak(buf) {
				buf.WriteByte(' ')
			}
			buf.WriteString(text)
			if endsWithSpace(n.Data) {
				buf.WriteByte(' ')
			}
		}
	case html.ElementNode:
		openElement(buf, n)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		convertNode(buf, c)
	}

	if n.Type == html.ElementNode {
		closeElement(buf, n)
	}
}

func openElement(buf *bytes.Buffer, n *html.Node) {
	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		buf.WriteString("\n\n" + strings.Repeat("#", int(n.Data[1]-'0')) + " ")
	case "p", "div":
		buf.WriteString("\n\n")
	case "br":
		buf.WriteString("\n")
	case "strong", "b":
		buf.WriteString("**")
	case "em", "i":
		buf.WriteString("*")
	case "code":
		buf.WriteString("`")
	case "pre":
		buf.WriteString("\n```\n")
	case "ul", "ol", "dl":
		buf.WriteString("\n")
	case "li":
		buf.WriteString("\n- ")
	case "dt":
		buf.WriteString("\n\n### ")
	case "dd":
		buf.WriteString("\n")
	case "blockquote":
		buf.WriteString("\n> ")
	case "hr":
		buf.WriteString("\n---\n")
	}
}

func closeElement(buf *bytes.Buffer, n *html.Node) {
	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		buf.WriteString("\n")
	case "strong", "b":
		buf.WriteString("**")
	case "em", "i":
		buf.WriteString("*")
	case "code":
		buf.WriteString("`")
	case "pre":
		buf.WriteString("\n```\n")
	case "a":
		for _, attr := range n.Attr {
			if attr.Key == "href" && attr.Val != "" {
				buf.WriteString(" (" + attr.Val + ")")
				break
			}
		}
	case "ul", "ol":
		buf.WriteString("\n")
	}
}

func startsWithSpace(s string) bool {
	return s != "" && strings.ContainsRune(" \t\n\r", rune(s[0]))
}

func endsWithSpace(s string) bool {
	return s != "" && strings.ContainsRune(" \t\n\r", rune(s[len(s)-1]))
}

func endsWithBreak(buf *bytes.Buffer) bool {
	b := buf.Bytes()
	if len(b) == 0 {
		return true
	}
	last := b[len(b)-1]
	return last == '\n' || last == ' '
}
