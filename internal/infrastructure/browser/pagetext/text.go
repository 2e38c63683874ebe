package pagetext

import (
	"strings"

	"golang.org/x/net/html"
)

var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "header": true,
	"footer": true, "li": true, "tr": true, "table": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"br": true, "label": true, "fieldset": true, "legend": true, "ul": true, "ol": true,
}

var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "svg": true, "template": true, "head": true,
}

// Text returns the visible text of rawHTML, one block element per line with
// runs of whitespace collapsed. The result is cut at maxLen bytes when
// maxLen is positive.
func Text(rawHTML string, maxLen int) (string, error) {
	body, err := parseBody(rawHTML)
	if err != nil {
		return "", err
	}

	var lines []string
	var cur strings.Builder

	flush := func() {
		line := strings.Join(strings.Fields(cur.String()), " ")
		if line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			cur.WriteByte(' ')
			return
		case html.ElementNode:
			if skipTags[n.Data] {
				return
			}
			if n.Data == "input" || n.Data == "textarea" {
				if v := attr(n, "value"); v != "" {
					cur.WriteString(v)
					cur.WriteByte(' ')
				}
			}
		}

		block := n.Type == html.ElementNode && blockTags[n.Data]
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}
	walk(body)
	flush()

	return truncate(strings.Join(lines, "\n"), maxLen, "\n[truncated]"), nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
