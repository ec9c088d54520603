package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ticketclassifier/internal/config"
	"ticketclassifier/internal/costtracker"
	"ticketclassifier/pkg/categorizer"
)

type fakeGenerator struct {
	system string
	parts  []genai.Part
	resp   *genai.GenerateContentResponse
	err    error
	block  bool
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.resp, f.err
}

func newTestGemini(gen *fakeGenerator, timeout time.Duration, tracker costtracker.CostTracker) *GeminiProvider {
	return &GeminiProvider{
		model:   "gemini-test",
		timeout: timeout,
		newModel: func(systemPrompt string) contentGenerator {
			gen.system = systemPrompt
			return gen
		},
		costTracker: tracker,
		pricing:     map[string]config.PricingInfo{"gemini-test": {InputPerToken: 0.01, OutputPerToken: 0.1}},
	}
}

func TestGeminiProvider_GenerateChatCompletion(t *testing.T) {
	gen := &fakeGenerator{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"category":`), genai.Text(`"Priority","subcategory":"Low"}`)}},
		}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 2, TotalTokenCount: 12},
	}}
	tracker := costtracker.New()
	provider := newTestGemini(gen, time.Second, tracker)

	text, err := provider.GenerateChatCompletion(context.Background(), testMessages)
	require.NoError(t, err)
	assert.Equal(t, `{"category":"Priority","subcategory":"Low"}`, text)
	assert.Equal(t, "system", gen.system)
	assert.Equal(t, []genai.Part{genai.Text("classify this")}, gen.parts)

	total, _ := tracker.TotalCost(context.Background())
	assert.InDelta(t, 0.3, total, 1e-9)
}

func TestGeminiProvider_ErrorKinds(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		wantKind error
	}{
		{"Unauthorized", &googleapi.Error{Code: http.StatusUnauthorized, Message: "API key not valid"}, categorizer.ErrAuthentication},
		{"Forbidden", &googleapi.Error{Code: http.StatusForbidden}, categorizer.ErrAuthentication},
		{"Rejected key over REST", &googleapi.Error{
			Code:    http.StatusBadRequest,
			Message: "API key not valid. Please pass a valid API key.",
			Body:    `{"error": {"code": 400, "status": "INVALID_ARGUMENT", "details": [{"reason": "API_KEY_INVALID"}]}}`,
		}, categorizer.ErrAuthentication},
		{"Rejected key over gRPC", rejectedKeyGRPCError(t), categorizer.ErrAuthentication},
		{"Other bad request", &googleapi.Error{Code: http.StatusBadRequest, Message: "Request contains an invalid argument."}, categorizer.ErrUpstream},
		{"Server error", &googleapi.Error{Code: http.StatusServiceUnavailable}, categorizer.ErrUpstream},
		{"Unknown", errors.New("dns lookup failed"), categorizer.ErrUpstream},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			provider := newTestGemini(&fakeGenerator{err: tc.err}, time.Second, nil)
			_, err := provider.GenerateChatCompletion(context.Background(), testMessages)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantKind)
			assert.ErrorIs(t, err, categorizer.ErrClient)
		})
	}
}

func rejectedKeyGRPCError(t *testing.T) error {
	t.Helper()
	st, err := status.New(codes.InvalidArgument, "API key not valid. Please pass a valid API key.").
		WithDetails(&errdetails.ErrorInfo{Reason: "API_KEY_INVALID", Domain: "googleapis.com"})
	require.NoError(t, err)
	apiErr, ok := apierror.FromError(st.Err())
	require.True(t, ok)
	return apiErr
}

func TestGeminiProvider_Timeout(t *testing.T) {
	provider := newTestGemini(&fakeGenerator{block: true}, 50*time.Millisecond, nil)

	start := time.Now()
	_, err := provider.GenerateChatCompletion(context.Background(), testMessages)
	require.Error(t, err)
	assert.ErrorIs(t, err, categorizer.ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGeminiProvider_EmptyResponse(t *testing.T) {
	provider := newTestGemini(&fakeGenerator{resp: &genai.GenerateContentResponse{}}, time.Second, nil)
	_, err := provider.GenerateChatCompletion(context.Background(), testMessages)
	require.Error(t, err)
	assert.ErrorIs(t, err, categorizer.ErrUpstream)
}

func TestGeminiProvider_Disabled(t *testing.T) {
	provider, err := NewGeminiProvider(context.Background(), "", "gemini-test", time.Second, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderStatusDisabled, provider.Status())

	_, err = provider.GenerateChatCompletion(context.Background(), testMessages)
	assert.ErrorIs(t, err, categorizer.ErrAuthentication)
	assert.NoError(t, provider.Close())
}
