package llm

import (
	"testing"

	"github.com/ppiankov/claimcheck/internal/apperr"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/prompt"
)

const validClaimsJSON = `{"claims":[{"text":"The Earth is flat.","verdict":"false","explanation":"Satellite imagery shows a sphere.","confidence":98}],"reasoning":"One checkable claim."}`

func testPrompt(t *testing.T) prompt.Prompt {
	t.Helper()
	p, err := prompt.NewBuilder(0, true).Build(model.AnalysisRequest{Text: "The Earth is flat."})
	if err != nil {
		t.Fatalf("Failed to build prompt: %v", err)
	}
	return p
}

func assertKind(t *testing.T, err error, want apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %s error, got nil", want)
	}
	got, ok := apperr.KindOf(err)
	if !ok {
		t.Fatalf("Expected classified error, got %v", err)
	}
	if got != want {
		t.Errorf("Expected kind %s, got %s (%v)", want, got, err)
	}
}
