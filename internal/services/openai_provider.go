package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"

	"ticketclassifier/internal/config"
	"ticketclassifier/internal/costtracker"
	"ticketclassifier/pkg/categorizer"
)

type chatCompletionCreator interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider implements CompletionService using the OpenAI chat API or
// any OpenAI-compatible endpoint.
type OpenAIProvider struct {
	client      chatCompletionCreator
	model       string
	timeout     time.Duration
	costTracker costtracker.CostTracker
	pricing     map[string]config.PricingInfo
}

// NewOpenAIProvider creates a provider. An empty API key leaves the provider
// disabled; every call then fails with an authentication error.
func NewOpenAIProvider(apiKey, baseURL, model string, timeout time.Duration, costTracker costtracker.CostTracker, pricing map[string]config.PricingInfo) *OpenAIProvider {
	p := &OpenAIProvider{
		model:       model,
		timeout:     timeout,
		costTracker: costTracker,
		pricing:     pricing,
	}
	if apiKey == "" {
		log.Warn("OpenAI API key not provided. OpenAI provider will be disabled.")
		return p
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(baseURL, "/")
	}
	p.client = openai.NewClientWithConfig(clientConfig)
	log.Debugf("OpenAI provider initialized with model %s (timeout %s)", model, timeout)
	return p
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string { return "openai" }

// ModelName returns the specific model identifier.
func (p *OpenAIProvider) ModelName() string { return p.model }

// Status returns the operational status of the provider.
func (p *OpenAIProvider) Status() ProviderStatus {
	if p.client == nil {
		return ProviderStatusDisabled
	}
	return ProviderStatusActive
}

// GenerateChatCompletion sends one chat completion request bounded by the
// configured timeout and returns the first choice's content.
func (p *OpenAIProvider) GenerateChatCompletion(ctx context.Context, messages []categorizer.ChatMessage) (string, error) {
	if p.client == nil {
		return "", categorizer.NewClientError(categorizer.ErrAuthentication, p.Name(), errors.New("OpenAI provider is not initialized (missing API key)"))
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    toOpenAIMessages(messages),
		// Temperature is omitempty in the client, so a literal 0 would fall back to the API default.
		Temperature: math.SmallestNonzeroFloat32,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := p.client.CreateChatCompletion(callCtx, req)
	if err != nil {
		return "", classifyTransportError(p.Name(), callCtx, openAIStatusCode(err), fmt.Errorf("openai chat completion failed: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", categorizer.NewClientError(categorizer.ErrUpstream, p.Name(), errors.New("no choices returned from OpenAI"))
	}

	p.recordCost(ctx, resp.Usage)
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) recordCost(ctx context.Context, usage openai.Usage) {
	if p.costTracker == nil || usage.TotalTokens == 0 {
		return
	}
	priceInfo, ok := p.pricing[p.model]
	if !ok {
		log.Debugf("Pricing info not found for model '%s'. Cannot record cost for classification.", p.model)
		return
	}
	cost := float64(usage.PromptTokens)*priceInfo.InputPerToken +
		float64(usage.CompletionTokens)*priceInfo.OutputPerToken
	event := costtracker.CostEvent{
		Operation: "classification",
		AmountUSD: cost,
		Details: map[string]interface{}{
			"provider_name": p.Name(),
			"model_name":    p.model,
			"input_tokens":  usage.PromptTokens,
			"output_tokens": usage.CompletionTokens,
		},
	}
	if err := p.costTracker.RecordCost(ctx, event); err != nil {
		log.Warnf("Failed to record AI usage for classification: %v", err)
	}
}

func toOpenAIMessages(messages []categorizer.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == categorizer.RoleSystem {
			role = openai.ChatMessageRoleSystem
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}

func openAIStatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

var _ CompletionService = (*OpenAIProvider)(nil)
