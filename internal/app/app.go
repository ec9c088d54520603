package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"ticketclassifier/internal/config"
	"ticketclassifier/internal/costtracker"
	"ticketclassifier/internal/services"
	"ticketclassifier/pkg/categorizer"
)

type App struct {
	Config            *config.Config
	CompletionService services.CompletionService
	CostTracker       costtracker.CostTracker

	Categorizer           categorizer.TicketCategorizer
	CategorizationService *services.CategorizationService
}

// NewApp validates cfg and wires the provider, categorizer and service
// layers. Nothing here touches the network.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app := &App{Config: cfg, CostTracker: costtracker.New()}

	if err := app.initCompletionService(ctx); err != nil {
		return nil, err
	}
	if err := app.initCategorizationService(); err != nil {
		app.Close()
		return nil, err
	}

	log.Debugf("Application initialized (provider=%s, model=%s, timeout=%s)",
		cfg.Provider, cfg.Model, cfg.Timeout())
	return app, nil
}

// --- Private Helper Methods ---

func (a *App) initCompletionService(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Provider {
	case "openai":
		a.CompletionService = services.NewOpenAIProvider(
			cfg.OpenaiApiKey,
			cfg.OpenaiBaseURL,
			cfg.Model,
			cfg.Timeout(),
			a.CostTracker,
			cfg.Pricing,
		)
	case "gemini":
		provider, err := services.NewGeminiProvider(ctx, cfg.GeminiApiKey, cfg.Model, cfg.Timeout(), a.CostTracker, cfg.Pricing)
		if err != nil {
			return fmt.Errorf("failed to initialize Gemini completion provider: %w", err)
		}
		a.CompletionService = provider
	default:
		return fmt.Errorf("unknown or unsupported provider configured: %s", cfg.Provider)
	}

	if a.CompletionService.Status() != services.ProviderStatusActive {
		return fmt.Errorf("completion provider %s is %s", a.CompletionService.Name(), a.CompletionService.Status())
	}
	return nil
}

func (a *App) initCategorizationService() error {
	systemPrompt, err := config.LoadSystemPrompt(a.Config.SystemPromptFile)
	if err != nil {
		return fmt.Errorf("load system prompt: %w", err)
	}
	if systemPrompt != "" {
		log.Debugf("Using system prompt from %s", a.Config.SystemPromptFile)
	}

	a.Categorizer = categorizer.NewLLMCategorizer(a.CompletionService, systemPrompt)
	a.CategorizationService = services.NewCategorizationService(a.Categorizer)
	return nil
}

// Close releases provider resources.
func (a *App) Close() {
	if cs, ok := a.CompletionService.(interface{ Close() error }); ok && cs != nil {
		if err := cs.Close(); err != nil {
			log.Printf("Error closing CompletionService: %v", err)
		}
	}
}
