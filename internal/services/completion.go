package services

import (
	"context"
	"errors"
	"net"
	"net/http"

	"ticketclassifier/pkg/categorizer"
)

// ProviderStatus indicates whether a provider can serve requests.
type ProviderStatus string

const (
	ProviderStatusActive   ProviderStatus = "active"
	ProviderStatusDisabled ProviderStatus = "disabled"
)

// CompletionService is a hosted model endpoint: prompt messages in, raw text
// out. Errors are always *categorizer.ClientError.
type CompletionService interface {
	categorizer.Completer
	Status() ProviderStatus // Disabled when no API key is configured
	Name() string           // Provider name (e.g., "openai", "gemini")
	ModelName() string      // Specific model used
}

// classifyTransportError maps a failed call onto the client error kinds.
// callCtx is the context that carried the timeout.
func classifyTransportError(provider string, callCtx context.Context, statusCode int, err error) error {
	switch {
	case errors.Is(callCtx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded), isNetTimeout(err):
		return categorizer.NewClientError(categorizer.ErrTimeout, provider, err)
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return categorizer.NewClientError(categorizer.ErrAuthentication, provider, err)
	default:
		return categorizer.NewClientError(categorizer.ErrUpstream, provider, err)
	}
}

func isNetTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
