package extract

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/claimcheck/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MarkerClass is the CSS class of claim markers
const MarkerClass = "marker"

type span struct {
	start, end int
	n          int // 1-based claim number
}

// Markup renders text as escaped HTML with every claim found in it wrapped in
// <span class="marker">claim [n]</span>, n being the claim's position in claims.
// Claims that cannot be located verbatim (case-insensitive) get no marker.
func Markup(text string, claims []model.Claim) (string, error) {
	spans := locate(text, claims)

	var nodes []*html.Node
	pos := 0
	for _, s := range spans {
		if s.start > pos {
			nodes = append(nodes, textNode(text[pos:s.start]))
		}
		marker := &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Span,
			Data:     "span",
			Attr:     []html.Attribute{{Key: "class", Val: MarkerClass}},
		}
		marker.AppendChild(textNode(fmt.Sprintf("%s [%d]", text[s.start:s.end], s.n)))
		nodes = append(nodes, marker)
		pos = s.end
	}
	if pos < len(text) {
		nodes = append(nodes, textNode(text[pos:]))
	}

	var buf strings.Builder
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render markup: %w", err)
		}
	}
	return buf.String(), nil
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// locate finds non-overlapping occurrences of claims in text, sorted by position
func locate(text string, claims []model.Claim) []span {
	// Lowercasing can change byte lengths outside ASCII; fall back to exact matching then
	foldable := foldKeepsOffsets(text)
	lower := text
	if foldable {
		lower = strings.ToLower(text)
	}

	var spans []span
	for i, c := range claims {
		needle := strings.TrimRight(strings.TrimSpace(c.Text), ".!?")
		if needle == "" {
			continue
		}

		haystack := text
		if foldable && foldKeepsOffsets(needle) {
			haystack = lower
			needle = strings.ToLower(needle)
		}

		from := 0
		for from < len(haystack) {
			idx := strings.Index(haystack[from:], needle)
			if idx < 0 {
				break
			}
			s := span{start: from + idx, end: from + idx + len(needle), n: i + 1}
			if !overlaps(spans, s) {
				spans = append(spans, s)
				break
			}
			from = s.start + 1
		}
	}

	sort.Slice(spans, func(a, b int) bool { return spans[a].start < spans[b].start })
	return spans
}

// foldKeepsOffsets reports whether lowercasing s keeps every rune at its byte offset
func foldKeepsOffsets(s string) bool {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return false
		}
		if utf8.RuneLen(unicode.ToLower(r)) != size {
			return false
		}
		i += size
	}
	return true
}

func overlaps(spans []span, s span) bool {
	for _, o := range spans {
		if s.start < o.end && o.start < s.end {
			return true
		}
	}
	return false
}
