package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"ticketclassifier/internal/config"
	"ticketclassifier/internal/costtracker"
	"ticketclassifier/pkg/categorizer"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiProvider implements CompletionService using the Google Gemini API.
type GeminiProvider struct {
	client      *genai.Client
	newModel    func(systemPrompt string) contentGenerator
	model       string
	timeout     time.Duration
	costTracker costtracker.CostTracker
	pricing     map[string]config.PricingInfo
}

// NewGeminiProvider creates a Gemini provider. An empty API key leaves the
// provider disabled.
func NewGeminiProvider(ctx context.Context, apiKey, model string, timeout time.Duration, costTracker costtracker.CostTracker, pricing map[string]config.PricingInfo) (*GeminiProvider, error) {
	p := &GeminiProvider{
		model:       model,
		timeout:     timeout,
		costTracker: costTracker,
		pricing:     pricing,
	}
	if apiKey == "" {
		log.Warn("Gemini API key not provided. Gemini provider will be disabled.")
		return p, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	p.client = client
	p.newModel = func(systemPrompt string) contentGenerator {
		m := client.GenerativeModel(model)
		m.SetTemperature(0)
		m.ResponseMIMEType = "application/json"
		if systemPrompt != "" {
			m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
		}
		return m
	}
	log.Debugf("Gemini provider initialized with model %s (timeout %s)", model, timeout)
	return p, nil
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string { return "gemini" }

// ModelName returns the specific model identifier.
func (p *GeminiProvider) ModelName() string { return p.model }

// Status returns the operational status of the provider.
func (p *GeminiProvider) Status() ProviderStatus {
	if p.newModel == nil {
		return ProviderStatusDisabled
	}
	return ProviderStatusActive
}

// GenerateChatCompletion folds system messages into the model's system
// instruction and sends the remaining messages as one user turn.
func (p *GeminiProvider) GenerateChatCompletion(ctx context.Context, messages []categorizer.ChatMessage) (string, error) {
	if p.newModel == nil {
		return "", categorizer.NewClientError(categorizer.ErrAuthentication, p.Name(), errors.New("Gemini provider is not initialized (missing API key)"))
	}

	var system, user []string
	for _, m := range messages {
		if m.Role == categorizer.RoleSystem {
			system = append(system, m.Content)
		} else {
			user = append(user, m.Content)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	model := p.newModel(strings.Join(system, "\n\n"))
	resp, err := model.GenerateContent(callCtx, genai.Text(strings.Join(user, "\n\n")))
	if err != nil {
		return "", classifyTransportError(p.Name(), callCtx, geminiStatusCode(err), fmt.Errorf("gemini generate content failed: %w", err))
	}

	text := geminiText(resp)
	if text == "" {
		return "", categorizer.NewClientError(categorizer.ErrUpstream, p.Name(), errors.New("Gemini returned no candidates"))
	}
	p.recordCost(ctx, resp.UsageMetadata)
	return text, nil
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

func (p *GeminiProvider) recordCost(ctx context.Context, usage *genai.UsageMetadata) {
	if p.costTracker == nil || usage == nil || usage.TotalTokenCount == 0 {
		return
	}
	priceInfo, ok := p.pricing[p.model]
	if !ok {
		log.Debugf("Pricing info not found for model '%s'. Cannot record cost for classification.", p.model)
		return
	}
	cost := float64(usage.PromptTokenCount)*priceInfo.InputPerToken +
		float64(usage.CandidatesTokenCount)*priceInfo.OutputPerToken
	event := costtracker.CostEvent{
		Operation: "classification",
		AmountUSD: cost,
		Details: map[string]interface{}{
			"provider_name": p.Name(),
			"model_name":    p.model,
			"input_tokens":  usage.PromptTokenCount,
			"output_tokens": usage.CandidatesTokenCount,
		},
	}
	if err := p.costTracker.RecordCost(ctx, event); err != nil {
		log.Warnf("Failed to record AI usage for classification: %v", err)
	}
}

// apiKeyInvalidReason is the error reason Gemini attaches to a 400 response
// when the API key is rejected.
const apiKeyInvalidReason = "API_KEY_INVALID"

// geminiStatusCode returns the HTTP status of a failed call. A rejected API
// key is reported as 401 so it maps to an authentication error.
func geminiStatusCode(err error) int {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Reason() == apiKeyInvalidReason {
			return http.StatusUnauthorized
		}
		if code := apiErr.HTTPCode(); code > 0 {
			return code
		}
		if st := apiErr.GRPCStatus(); st != nil {
			switch st.Code() {
			case codes.Unauthenticated:
				return http.StatusUnauthorized
			case codes.PermissionDenied:
				return http.StatusForbidden
			}
		}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		if gErr.Code == http.StatusBadRequest && strings.Contains(gErr.Message+gErr.Body, apiKeyInvalidReason) {
			return http.StatusUnauthorized
		}
		return gErr.Code
	}
	return 0
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

var _ CompletionService = (*GeminiProvider)(nil)
