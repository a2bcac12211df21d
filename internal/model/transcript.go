package model

// Segment is a group of consecutive caption lines from a transcript
type Segment struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	StartTime  float64 `json:"startTime"`
	EndTime    float64 `json:"endTime"`
	Claim      string  `json:"claim,omitempty"`
	ClaimIndex *int    `json:"claimIndex,omitempty"`
}
