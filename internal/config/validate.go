package config

import (
	"errors"
	"fmt"

	"ticketclassifier/pkg/categorizer"
)

// Validate checks the settings needed to talk to the model endpoint. A
// missing API key is reported as an authentication error.
func (c *Config) Validate() error {
	switch c.Provider {
	case "openai":
		if c.OpenaiApiKey == "" {
			return categorizer.NewClientError(categorizer.ErrAuthentication, c.Provider,
				errors.New("OPENAI_API_KEY is required"))
		}
	case "gemini":
		if c.GeminiApiKey == "" {
			return categorizer.NewClientError(categorizer.ErrAuthentication, c.Provider,
				errors.New("GEMINI_API_KEY is required when PROVIDER is gemini"))
		}
	default:
		return fmt.Errorf("unknown provider %q: must be openai or gemini", c.Provider)
	}

	if c.Model == "" {
		return errors.New("MODEL must not be empty")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("TIMEOUT_SECONDS must be a positive integer, got %d", c.TimeoutSeconds)
	}

	for model, price := range c.Pricing {
		if price.InputPerToken < 0 || price.OutputPerToken < 0 {
			return fmt.Errorf("pricing for model '%s' has negative token cost", model)
		}
	}
	return nil
}
