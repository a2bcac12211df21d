// Package prompt builds the provider prompt and the schema its reply must follow.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/claimcheck/internal/apperr"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// SchemaName identifies the reply schema to providers that accept a name
const SchemaName = "claim_analysis"

// Prompt is a system/user prompt pair plus the schema descriptor of the expected reply
type Prompt struct {
	System     string
	User       string
	SchemaName string
	Schema     jsonschema.Definition
}

// Builder constructs prompts for claim analysis
type Builder struct {
	maxChars int
	strict   bool
}

// NewBuilder creates a builder. maxChars <= 0 disables the input length limit.
// In strict mode every schema field is required, as OpenAI strict structured outputs demand.
func NewBuilder(maxChars int, strict bool) *Builder {
	return &Builder{maxChars: maxChars, strict: strict}
}

// Build validates the request and returns the prompt for it
func (b *Builder) Build(req model.AnalysisRequest) (Prompt, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Prompt{}, apperr.InvalidInput("text must not be empty")
	}
	if b.maxChars > 0 && utf8.RuneCountInString(text) > b.maxChars {
		return Prompt{}, apperr.InvalidInput(fmt.Sprintf("text exceeds %d characters", b.maxChars))
	}

	source := req.SourceLabel()
	if source != model.SourceText && source != model.SourceVideo {
		return Prompt{}, apperr.InvalidInput(fmt.Sprintf("unknown source %q (supported: text, video)", source))
	}

	schema := Schema(b.strict)
	schemaJSON, err := json.MarshalIndent(&schema, "", "  ")
	if err != nil {
		return Prompt{}, fmt.Errorf("marshal schema: %w", err)
	}

	user, err := json.Marshal(struct {
		Text   string `json:"text"`
		Source string `json:"source"`
	}{Text: text, Source: source})
	if err != nil {
		return Prompt{}, fmt.Errorf("marshal user payload: %w", err)
	}

	return Prompt{
		System:     fmt.Sprintf(systemTemplate, sourceHint(source), schemaJSON),
		User:       string(user),
		SchemaName: SchemaName,
		Schema:     schema,
	}, nil
}

// Schema returns the descriptor of the reply: an ordered list of claims with verdicts
func Schema(strict bool) jsonschema.Definition {
	verdicts := make([]string, 0, 3)
	for _, v := range model.Verdicts() {
		verdicts = append(verdicts, string(v))
	}

	claimRequired := []string{"text", "verdict", "explanation"}
	rootRequired := []string{"claims"}
	if strict {
		claimRequired = append(claimRequired, "confidence")
		rootRequired = append(rootRequired, "reasoning")
	}

	claim := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"text": {
				Type:        jsonschema.String,
				Description: "The checkable factual assertion, quoted or closely paraphrased from the input",
			},
			"verdict": {
				Type:        jsonschema.String,
				Enum:        verdicts,
				Description: "true if the claim is accurate, false if it is inaccurate, unverifiable if it cannot be checked",
			},
			"explanation": {
				Type:        jsonschema.String,
				Description: "One or two sentences supporting the verdict",
			},
			"confidence": {
				Type:        jsonschema.Integer,
				Description: "Confidence in the verdict from 0 to 100",
			},
		},
		Required:             claimRequired,
		AdditionalProperties: false,
	}

	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"claims": {
				Type:        jsonschema.Array,
				Items:       &claim,
				Description: "Claims in the order they appear in the input",
			},
			"reasoning": {
				Type:        jsonschema.String,
				Description: "Overall approach and findings",
			},
		},
		Required:             rootRequired,
		AdditionalProperties: false,
	}
}

func sourceHint(source string) string {
	if source == model.SourceVideo {
		return "The text is an automatic transcript of a video. Ignore filler words and caption artifacts."
	}
	return "The text was submitted directly by a user."
}

const systemTemplate = `You are a fact-checking assistant.

The user message is a JSON object with a "text" field. %s

Identify every checkable factual assertion in the text and judge it:
- "true" when it is accurate according to well-established knowledge
- "false" when it is inaccurate
- "unverifiable" when it cannot be checked (opinions, predictions, private facts)

List claims in the order they appear in the text. Do not merge or reorder them.
Skip sentences that contain no factual assertion. If there are none, return an empty list.
If you are uncertain, lower the confidence and say why in the explanation.

Return ONLY a single JSON object matching this JSON Schema, with no surrounding text:
%s`
