package categorizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mock completion client ---
type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) GenerateChatCompletion(ctx context.Context, messages []ChatMessage) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

// --- End mock completion client ---

func TestLLMCategorizer_Classify_EndToEnd(t *testing.T) {
	taxonomy := testTaxonomy(t)
	ticket := Ticket("Dashboard crashes on load.")

	client := new(mockCompleter)
	client.On("GenerateChatCompletion", mock.Anything, mock.MatchedBy(func(msgs []ChatMessage) bool {
		return len(msgs) == 2 &&
			msgs[0].Role == RoleSystem && msgs[0].Content == DefaultSystemPrompt &&
			msgs[1].Role == RoleUser
	})).Return(`{"category":"Issue Type","subcategory":"Bug"}`, nil).Once()

	categorizer := NewLLMCategorizer(client, "")
	result, err := categorizer.Classify(context.Background(), ticket, taxonomy, CaseSingle)

	require.NoError(t, err)
	assert.Equal(t, CaseSingle, result.Case)
	require.NotNil(t, result.Single)
	assert.Equal(t, SingleClassification{Category: "Issue Type", Subcategory: "Bug"}, *result.Single)
	client.AssertExpectations(t)
	client.AssertNumberOfCalls(t, "GenerateChatCompletion", 1)
}

func TestLLMCategorizer_Classify_SendsRenderedPrompt(t *testing.T) {
	taxonomy := testTaxonomy(t)
	ticket := Ticket("Please add dark mode.")
	expectedPrompt, err := BuildPrompt(ticket, taxonomy, CaseMultiIssue)
	require.NoError(t, err)

	client := new(mockCompleter)
	client.On("GenerateChatCompletion", mock.Anything, []ChatMessage{
		{Role: RoleSystem, Content: "custom system"},
		{Role: RoleUser, Content: expectedPrompt},
	}).Return(`{"case_2": []}`, nil).Once()

	result, err := NewLLMCategorizer(client, "custom system").Classify(context.Background(), ticket, taxonomy, CaseMultiIssue)
	require.NoError(t, err)
	assert.Empty(t, result.Issues)
	client.AssertExpectations(t)
}

func TestLLMCategorizer_Classify_ClientErrorPassesThrough(t *testing.T) {
	clientErr := NewClientError(ErrTimeout, "openai", context.DeadlineExceeded)
	client := new(mockCompleter)
	client.On("GenerateChatCompletion", mock.Anything, mock.Anything).Return("", clientErr).Once()

	_, err := NewLLMCategorizer(client, "").Classify(context.Background(), "ticket", testTaxonomy(t), CaseSingle)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, ErrClient)
	assert.Same(t, clientErr, err)
}

func TestLLMCategorizer_Classify_UntypedErrorBecomesUpstream(t *testing.T) {
	apiErr := errors.New("connection refused")
	client := new(mockCompleter)
	client.On("GenerateChatCompletion", mock.Anything, mock.Anything).Return("", apiErr).Once()

	_, err := NewLLMCategorizer(client, "").Classify(context.Background(), "ticket", testTaxonomy(t), CaseSingle)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, ErrClient)
	assert.ErrorIs(t, err, apiErr)
}

func TestLLMCategorizer_Classify_ParseAndValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		answer  string
		wantErr error
	}{
		{name: "Plain text", answer: "I think it's a bug.", wantErr: ErrParse},
		{name: "Unknown category", answer: `{"category":"Billing","subcategory":"Refund"}`, wantErr: ErrValidation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := new(mockCompleter)
			client.On("GenerateChatCompletion", mock.Anything, mock.Anything).Return(tc.answer, nil).Once()

			_, err := NewLLMCategorizer(client, "").Classify(context.Background(), "ticket", testTaxonomy(t), CaseSingle)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.NotErrorIs(t, err, ErrClient)
		})
	}
}

func TestLLMCategorizer_Classify_NilClient(t *testing.T) {
	_, err := NewLLMCategorizer(nil, "").Classify(context.Background(), "ticket", testTaxonomy(t), CaseSingle)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClient)
}

func TestLLMCategorizer_Classify_InvalidCase(t *testing.T) {
	client := new(mockCompleter)
	_, err := NewLLMCategorizer(client, "").Classify(context.Background(), "ticket", testTaxonomy(t), Case(7))
	require.Error(t, err)
	client.AssertNotCalled(t, "GenerateChatCompletion", mock.Anything, mock.Anything)
}
