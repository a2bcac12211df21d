package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/ppiankov/claimcheck/internal/apperr"
)

const (
	codeInternal        = "internal_error"
	codeRateLimited     = "rate_limited"
	codePayloadTooLarge = "payload_too_large"
	codeNotFound        = "not_found"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// abortWithError writes the error envelope for err and stops the handler chain.
// Classified errors keep their own message; causes stay in the log.
func abortWithError(c *gin.Context, err error) {
	status, body := describeError(err)
	if status >= http.StatusInternalServerError || status == http.StatusBadGateway {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: body, RequestID: requestID(c)})
}

func abortWithCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		Error:     errorBody{Code: code, Message: message},
		RequestID: requestID(c),
	})
}

func describeError(err error) (int, errorBody) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return apperr.HTTPStatus(appErr.Kind), errorBody{Code: string(appErr.Kind), Message: appErr.Message}
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, errorBody{
			Code:    codePayloadTooLarge,
			Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
		}
	}

	return http.StatusInternalServerError, errorBody{Code: codeInternal, Message: "internal server error"}
}

// bindError turns a request binding failure into an InvalidInput error
func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return apperr.InvalidInput(strings.Join(msgs, "; "))
	}

	return apperr.InvalidInput("request body must be valid JSON")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_without":
		return fmt.Sprintf("%s is required when %s is not set", field, jsonName(fe.Param()))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// jsonName lowercases the first letter of a Go field name used as a validator param
func jsonName(goName string) string {
	switch goName {
	case "CaptionsURL":
		return "captionsUrl"
	case "VTT":
		return "vtt"
	}
	if goName == "" {
		return goName
	}
	return strings.ToLower(goName[:1]) + goName[1:]
}
