package categorizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Chat roles used when talking to a completion endpoint.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatMessage is a single message sent to the model.
type ChatMessage struct {
	Role    string
	Content string
}

// Completer sends messages to a hosted model and returns its raw text.
// Implementations enforce their own timeout and report failures as
// *ClientError.
type Completer interface {
	GenerateChatCompletion(ctx context.Context, messages []ChatMessage) (string, error)
}

// LLMCategorizer implements TicketCategorizer on top of a Completer.
// It holds no mutable state and is safe for concurrent use.
type LLMCategorizer struct {
	client       Completer
	systemPrompt string
}

// NewLLMCategorizer creates a categorizer. An empty systemPrompt selects
// DefaultSystemPrompt.
func NewLLMCategorizer(client Completer, systemPrompt string) *LLMCategorizer {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &LLMCategorizer{client: client, systemPrompt: systemPrompt}
}

// Classify builds the prompt, performs exactly one model call and parses the
// answer for case c.
func (l *LLMCategorizer) Classify(ctx context.Context, ticket Ticket, taxonomy *Taxonomy, c Case) (Result, error) {
	if l.client == nil {
		return Result{}, NewClientError(ErrUpstream, "none", errors.New("LLM categorizer is not initialized with a completion client"))
	}
	if taxonomy == nil {
		return Result{}, errors.New("classify: taxonomy is nil")
	}

	prompt, err := BuildPrompt(ticket, taxonomy, c)
	if err != nil {
		return Result{}, err
	}
	log.Debugf("Classifying ticket (%d chars) as %s against %d categories", len(ticket), c.Key(), taxonomy.Len())
	log.Debugf("Rendered prompt:\n%s", prompt)

	start := time.Now()
	raw, err := l.client.GenerateChatCompletion(ctx, []ChatMessage{
		{Role: RoleSystem, Content: l.systemPrompt},
		{Role: RoleUser, Content: prompt},
	})
	if err != nil {
		if errors.Is(err, ErrClient) {
			return Result{}, err
		}
		return Result{}, NewClientError(ErrUpstream, "completion", err)
	}
	log.Debugf("Model answered in %s (%d chars)", time.Since(start).Round(time.Millisecond), len(raw))

	result, err := ParseResponse(raw, c, taxonomy)
	if err != nil {
		return result, fmt.Errorf("classify %s: %w", c.Key(), err)
	}
	return result, nil
}

var _ TicketCategorizer = (*LLMCategorizer)(nil)
