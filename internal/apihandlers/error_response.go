package apihandlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ticketclassifier/pkg/categorizer"
)

// APIError defines standard error response
// Example: { "error": { "code": "bad_request", "message": "Invalid ticket" } }
type APIError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Mismatches []categorizer.Mismatch `json:"mismatches,omitempty"`
}

type errorResponse struct {
	Error APIError `json:"error"`
}

// JSONError sends a structured error response
func JSONError(ctx *gin.Context, status int, code, msg string) {
	ctx.JSON(status, errorResponse{Error: APIError{Code: code, Message: msg}})
}

// Convenience wrappers
func BadRequest(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusBadRequest, "bad_request", msg)
}

func NotFound(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusNotFound, "not_found", msg)
}

func Internal(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusInternalServerError, "internal_error", msg)
}

func BadGateway(ctx *gin.Context, code, msg string) {
	JSONError(ctx, http.StatusBadGateway, code, msg)
}

func GatewayTimeout(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusGatewayTimeout, "upstream_timeout", msg)
}

// UnprocessableEntity reports a model answer that names categories outside
// the taxonomy.
func UnprocessableEntity(ctx *gin.Context, ve *categorizer.ValidationError) {
	ctx.JSON(http.StatusUnprocessableEntity, errorResponse{Error: APIError{
		Code:       "validation_failed",
		Message:    ve.Error(),
		Mismatches: ve.Mismatches,
	}})
}

// ClassificationError maps a classification failure onto a status code and
// error envelope.
func ClassificationError(ctx *gin.Context, err error) {
	var ve *categorizer.ValidationError
	switch {
	case errors.As(err, &ve):
		UnprocessableEntity(ctx, ve)
	case errors.Is(err, categorizer.ErrDataLoad):
		BadRequest(ctx, err.Error())
	case errors.Is(err, categorizer.ErrTimeout):
		GatewayTimeout(ctx, err.Error())
	case errors.Is(err, categorizer.ErrAuthentication):
		BadGateway(ctx, "upstream_auth", err.Error())
	case errors.Is(err, categorizer.ErrParse):
		BadGateway(ctx, "upstream_parse", err.Error())
	case errors.Is(err, categorizer.ErrClient):
		BadGateway(ctx, "upstream_error", err.Error())
	default:
		Internal(ctx, err.Error())
	}
}
