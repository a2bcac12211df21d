package transcript

import (
	"strings"
	"unicode"

	"github.com/ppiankov/claimcheck/internal/model"
)

// MinSharedWords is the overlap a segment needs to be tied to a claim
const MinSharedWords = 2

// Common words that say nothing about which segment a claim came from
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {},
	"its": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "this": {}, "to": {},
	"was": {}, "were": {}, "with": {},
}

// Annotate returns a copy of segments where each claim is attached to the
// segment sharing the most words with it. Ties go to the earlier segment.
// A segment keeps at most one claim, the first one in claim order.
func Annotate(segments []model.Segment, claims []model.Claim) []model.Segment {
	out := make([]model.Segment, len(segments))
	copy(out, segments)
	for i := range out {
		out[i].Claim = ""
		out[i].ClaimIndex = nil
	}

	segWords := make([]map[string]struct{}, len(out))
	for i, s := range out {
		segWords[i] = wordSet(s.Text)
	}

	for ci, c := range claims {
		words := wordSet(c.Text)

		best, bestScore := -1, MinSharedWords-1
		for si := range out {
			if out[si].ClaimIndex != nil {
				continue
			}
			score := 0
			for w := range words {
				if _, ok := segWords[si][w]; ok {
					score++
				}
			}
			if score > bestScore {
				best, bestScore = si, score
			}
		}

		if best >= 0 {
			idx := ci
			out[best].Claim = c.Text
			out[best].ClaimIndex = &idx
		}
	}
	return out
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	}) {
		if _, stop := stopWords[w]; stop {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}
