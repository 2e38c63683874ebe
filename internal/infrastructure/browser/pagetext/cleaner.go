// Package pagetext turns raw page HTML into something a model can read:
// cleaned markup for structure questions and flattened text for content ones.
package pagetext

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

var ErrNoBody = errors.New("no <body> element")

type CleanConfig struct {
	TagsToRemove     []string
	AttrsToRemove    []string
	MaxOutputSize    int
	CustomAttrFilter func(attr html.Attribute) bool
}

var DefaultCleanConfig = CleanConfig{
	TagsToRemove: []string{
		"script", "style", "noscript", "svg", "iframe",
		"link", "meta", "head", "title",
	},
	AttrsToRemove: []string{
		"style", "srcset", "sizes", "loading", "decoding", "fetchpriority", "tabindex",
	},
	MaxOutputSize: 130_000,
}

const truncatedMarker = "\n<!-- truncated -->"

// Clean strips noise tags, comments and presentation attributes from the
// body of rawHTML. A document without a body is an error.
func Clean(rawHTML string, cfg *CleanConfig) (string, error) {
	if cfg == nil {
		cfg = &DefaultCleanConfig
	}

	body, err := parseBody(rawHTML)
	if err != nil {
		return "", err
	}

	cleanNode(body, cfg)

	var sb strings.Builder
	if err := html.Render(&sb, body); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return truncate(sb.String(), cfg.MaxOutputSize, truncatedMarker), nil
}

func parseBody(rawHTML string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	body := findElement(doc, "body")
	if body == nil {
		return nil, ErrNoBody
	}
	return body, nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findElement(c, tag); b != nil {
			return b
		}
	}
	return nil
}

func cleanNode(n *html.Node, cfg *CleanConfig) {
	if n.Type == html.CommentNode {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}
	if n.Type != html.ElementNode {
		return
	}

	if isOneOf(n.Data, cfg.TagsToRemove...) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}

	n.Attr = filterAttributes(n.Attr, cfg)

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		cleanNode(c, cfg)
		c = next
	}
}

func filterAttributes(attrs []html.Attribute, cfg *CleanConfig) []html.Attribute {
	kept := attrs[:0]
	for _, attr := range attrs {
		if shouldRemoveAttr(attr, cfg) {
			continue
		}
		kept = append(kept, attr)
	}
	return kept
}

// Labels matter for form filling, so aria-label and aria-labelledby survive.
func shouldRemoveAttr(attr html.Attribute, cfg *CleanConfig) bool {
	key := attr.Key
	if isOneOf(key, cfg.AttrsToRemove...) {
		return true
	}
	if key == "aria-label" || key == "aria-labelledby" {
		return false
	}
	if strings.HasPrefix(key, "data-") || strings.HasPrefix(key, "aria-") || strings.HasPrefix(key, "on") {
		return true
	}
	if cfg.CustomAttrFilter != nil && cfg.CustomAttrFilter(attr) {
		return true
	}
	return false
}

func truncate(s string, maxSize int, marker string) string {
	if maxSize > 0 && len(s) > maxSize {
		return s[:maxSize] + marker
	}
	return s
}

func isOneOf(s string, candidates ...string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}
