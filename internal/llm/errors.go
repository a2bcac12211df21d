package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ppiankov/claimcheck/internal/apperr"
)

// classifyTransportError classifies a failure that carried no HTTP status
func classifyTransportError(provider string, err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return apperr.MalformedResponse(fmt.Sprintf("%s returned an undecodable response", provider), err)
	}
	// Timeouts, cancellation, DNS and connection failures all land here
	return apperr.UpstreamUnavailable(fmt.Sprintf("%s request failed", provider), err)
}

// classifyStatus classifies a non-200 response, keeping the provider's message as the cause
func classifyStatus(provider string, status int, detail string) error {
	var cause error
	if detail != "" {
		cause = fmt.Errorf("API error (%d): %s", status, detail)
	} else {
		cause = fmt.Errorf("API error (%d): %s", status, http.StatusText(status))
	}
	return apperr.FromHTTPStatus(provider, status, cause)
}
