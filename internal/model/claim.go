package model

import "strings"

// Claim is a checkable factual assertion identified by the provider
type Claim struct {
	Text        string   `json:"text"`                 // The claim as quoted or paraphrased from the input
	Verdict     Verdict  `json:"verdict"`              // true, false or unverifiable
	Explanation string   `json:"explanation"`          // Supporting explanation for the verdict
	Confidence  *int     `json:"confidence,omitempty"` // Provider confidence in the verdict (0-100)
	Sources     []Source `json:"sources,omitempty"`    // Web sources attached by enrichment
}

// Verdict is the outcome of checking a claim
type Verdict string

const (
	VerdictTrue         Verdict = "true"
	VerdictFalse        Verdict = "false"
	VerdictUnverifiable Verdict = "unverifiable"
)

// Verdicts lists the accepted verdict values in schema order
func Verdicts() []Verdict {
	return []Verdict{VerdictTrue, VerdictFalse, VerdictUnverifiable}
}

// ParseVerdict matches s case-insensitively against the accepted verdicts
func ParseVerdict(s string) (Verdict, bool) {
	v := Verdict(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Verdicts() {
		if v == known {
			return v, true
		}
	}
	return "", false
}
