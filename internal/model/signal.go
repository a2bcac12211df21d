package model

// Signal is a diagnostic note about a result, with the numbers behind it
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalVerdictBalance        SignalType = "verdict_balance"        // Share of false claims
	SignalUndecided             SignalType = "undecided"              // Share of unverifiable claims
	SignalAuthorityDistribution SignalType = "authority_distribution" // Authority tier balance of sources
	SignalAccessibility         SignalType = "accessibility"          // Dead source ratio
	SignalUnsourced             SignalType = "unsourced"              // Claims without any source
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
