package score

import (
	"fmt"

	"github.com/ppiankov/claimcheck/internal/model"
)

// Scorer tallies verdicts and generates signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate builds the verdict breakdown of claims.
// AccuracyIndex is true / (true + false) * 100 and stays nil when nothing was decided.
func (s *Scorer) Calculate(claims []model.Claim) model.Breakdown {
	b := model.Breakdown{Total: len(claims)}
	for _, c := range claims {
		switch c.Verdict {
		case model.VerdictTrue:
			b.True++
		case model.VerdictFalse:
			b.False++
		case model.VerdictUnverifiable:
			b.Unverifiable++
		}
	}

	if decided := b.True + b.False; decided > 0 {
		index := b.True * 100 / decided
		b.AccuracyIndex = &index
	}

	if b.Total == 0 {
		return b
	}

	b.Signals = append(b.Signals, s.verdictBalance(b), s.undecided(b))

	// Source signals only make sense once enrichment attached something
	var sources []model.Source
	unsourced := 0
	for _, c := range claims {
		if len(c.Sources) == 0 {
			unsourced++
		}
		sources = append(sources, c.Sources...)
	}
	if len(sources) == 0 {
		return b
	}

	b.Signals = append(b.Signals, s.authority(sources))
	if signal, ok := s.accessibility(sources); ok {
		b.Signals = append(b.Signals, signal)
	}
	if unsourced > 0 {
		b.Signals = append(b.Signals, model.Signal{
			Type:        model.SignalUnsourced,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d/%d claims have no supporting source", unsourced, b.Total),
			Data: map[string]interface{}{
				"unsourced": unsourced,
				"total":     b.Total,
			},
		})
	}

	return b
}

// verdictBalance reports how many claims were judged false
func (s *Scorer) verdictBalance(b model.Breakdown) model.Signal {
	ratio := float64(b.False) / float64(b.Total)

	severity := model.SeverityInfo
	if ratio >= 0.5 {
		severity = model.SeverityCritical
	} else if ratio > 0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalVerdictBalance,
		Severity:    severity,
		Description: fmt.Sprintf("False claims: %d/%d (%.0f%%)", b.False, b.Total, ratio*100),
		Data: map[string]interface{}{
			"true":    b.True,
			"false":   b.False,
			"total":   b.Total,
			"ratio":   ratio,
			"formula": "false_count / total",
		},
	}
}

// undecided reports the share of claims that could not be checked
func (s *Scorer) undecided(b model.Breakdown) model.Signal {
	ratio := float64(b.Unverifiable) / float64(b.Total)

	severity := model.SeverityInfo
	if ratio > 0.5 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalUndecided,
		Severity:    severity,
		Description: fmt.Sprintf("Unverifiable claims: %d/%d", b.Unverifiable, b.Total),
		Data: map[string]interface{}{
			"unverifiable": b.Unverifiable,
			"total":        b.Total,
			"ratio":        ratio,
		},
	}
}

// authority scores the tier distribution of attached sources (0-100)
func (s *Scorer) authority(sources []model.Source) model.Signal {
	primaryCount := 0
	secondaryCount := 0
	tertiaryCount := 0

	for _, src := range sources {
		switch src.Authority {
		case model.TierPrimary:
			primaryCount++
		case model.TierSecondary:
			secondaryCount++
		case model.TierTertiary:
			tertiaryCount++
		}
	}

	total := len(sources)
	weightedSum := float64(primaryCount*3 + secondaryCount*2 + tertiaryCount*1)
	maxPossible := float64(total * 3)
	score := int((weightedSum / maxPossible) * 100)

	severity := model.SeverityInfo
	if primaryCount == 0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalAuthorityDistribution,
		Severity:    severity,
		Description: fmt.Sprintf("Authority distribution: %d primary, %d secondary, %d tertiary", primaryCount, secondaryCount, tertiaryCount),
		Data: map[string]interface{}{
			"primary":   primaryCount,
			"secondary": secondaryCount,
			"tertiary":  tertiaryCount,
			"total":     total,
			"score":     score,
			"formula":   "(primary*3 + secondary*2 + tertiary*1) / (total*3) * 100",
		},
	}
}

// accessibility reports dead sources; false when no source was validated
func (s *Scorer) accessibility(sources []model.Source) (model.Signal, bool) {
	checked := 0
	accessibleCount := 0
	for _, src := range sources {
		if src.Accessible == nil {
			continue
		}
		checked++
		if *src.Accessible {
			accessibleCount++
		}
	}
	if checked == 0 {
		return model.Signal{}, false
	}

	ratio := float64(accessibleCount) / float64(checked)

	severity := model.SeverityInfo
	if ratio < 0.5 {
		severity = model.SeverityCritical
	} else if ratio < 0.8 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalAccessibility,
		Severity:    severity,
		Description: fmt.Sprintf("Accessibility: %d/%d (%.0f%%)", accessibleCount, checked, ratio*100),
		Data: map[string]interface{}{
			"accessible": accessibleCount,
			"total":      checked,
			"ratio":      ratio,
		},
	}, true
}
