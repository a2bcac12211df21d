package model

import "time"

// Source labels for analysis requests
const (
	SourceText  = "text"
	SourceVideo = "video"
)

// AnalysisRequest is the input of a single analysis
type AnalysisRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"` // "text" (default) or "video"
}

// SourceLabel returns the request source, defaulting to text
func (r AnalysisRequest) SourceLabel() string {
	if r.Source == "" {
		return SourceText
	}
	return r.Source
}

// AnalysisResult is the outcome of one analysis
// Claims keep the order returned by the provider
type AnalysisResult struct {
	ID         string    `json:"id"`
	Claims     []Claim   `json:"claims"`
	Model      string    `json:"model"`
	Provider   string    `json:"provider"`
	Source     string    `json:"source"`
	AnalyzedAt time.Time `json:"analyzed_at"`
	Reasoning  string    `json:"reasoning,omitempty"`
	Breakdown  Breakdown `json:"breakdown"`
	HTML       string    `json:"html,omitempty"` // Input text with numbered claim markers
	TokensUsed int       `json:"tokens_used,omitempty"`
}

// Breakdown summarizes verdicts across the claims of a result
type Breakdown struct {
	Total        int `json:"total"`
	True         int `json:"true"`
	False        int `json:"false"`
	Unverifiable int `json:"unverifiable"`

	// AccuracyIndex is the share of decided claims judged true (0-100),
	// nil when no claim could be decided
	AccuracyIndex *int `json:"accuracy_index,omitempty"`

	// Signals explain the breakdown; source signals appear only after enrichment
	Signals []Signal `json:"signals,omitempty"`
}
