// Package parse decodes provider payloads into claims.
package parse

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimcheck/internal/apperr"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Result is the decoded provider reply
type Result struct {
	Claims    []model.Claim
	Reasoning string
}

type rawClaim struct {
	Text        string `json:"text"`
	Verdict     string `json:"verdict"`
	Explanation string `json:"explanation"`
	Confidence  *int   `json:"confidence"`
}

type rawReply struct {
	Claims    []rawClaim `json:"claims"`
	Reasoning string     `json:"reasoning"`
}

// Parser strictly decodes payloads against a reply schema
type Parser struct{}

// NewParser creates a parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse validates content against schema and returns the claims in payload order.
// Any structural mismatch is a MalformedResponse; nothing is partially returned.
func (p *Parser) Parse(content string, schema jsonschema.Definition) (*Result, error) {
	body := stripCodeFence(content)
	if body == "" {
		return nil, apperr.MalformedResponse("empty provider payload", nil)
	}

	var reply rawReply
	// Enums are checked below, where verdicts match case-insensitively
	if err := jsonschema.VerifySchemaAndUnmarshal(withoutEnums(schema), []byte(body), &reply); err != nil {
		return nil, apperr.MalformedResponse("provider payload does not match the claim schema", err)
	}

	// The schema validator does not check ranges
	claims := make([]model.Claim, 0, len(reply.Claims))
	for i, rc := range reply.Claims {
		text := strings.TrimSpace(rc.Text)
		if text == "" {
			return nil, apperr.MalformedResponse(fmt.Sprintf("claim %d has empty text", i), nil)
		}

		verdict, ok := model.ParseVerdict(rc.Verdict)
		if !ok {
			return nil, apperr.MalformedResponse(fmt.Sprintf("claim %d has unknown verdict %q", i, rc.Verdict), nil)
		}

		if rc.Confidence != nil && (*rc.Confidence < 0 || *rc.Confidence > 100) {
			return nil, apperr.MalformedResponse(fmt.Sprintf("claim %d confidence %d out of range 0-100", i, *rc.Confidence), nil)
		}

		claims = append(claims, model.Claim{
			Text:        text,
			Verdict:     verdict,
			Explanation: strings.TrimSpace(rc.Explanation),
			Confidence:  rc.Confidence,
		})
	}

	return &Result{
		Claims:    claims,
		Reasoning: strings.TrimSpace(reply.Reasoning),
	}, nil
}

// withoutEnums returns a deep copy of schema with every Enum cleared
func withoutEnums(schema jsonschema.Definition) jsonschema.Definition {
	out := schema
	out.Enum = nil
	if schema.Properties != nil {
		out.Properties = make(map[string]jsonschema.Definition, len(schema.Properties))
		for name, prop := range schema.Properties {
			out.Properties[name] = withoutEnums(prop)
		}
	}
	if schema.Items != nil {
		items := withoutEnums(*schema.Items)
		out.Items = &items
	}
	return out
}

// stripCodeFence removes a markdown fence some models wrap around JSON
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

