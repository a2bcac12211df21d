package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// VisibleText returns the human-readable text of an HTML document or fragment,
// skipping scripts and styles. Whitespace runs collapse to single spaces.
func VisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(extractVisibleText(doc)), " "), nil
}

// StripTags is VisibleText for short snippets; unparsable input is returned as-is
func StripTags(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}
	text, err := VisibleText(fragment)
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return text
}

// extractVisibleText extracts text nodes from HTML, skipping scripts/styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}
