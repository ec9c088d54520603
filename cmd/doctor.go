package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ticketclassifier/internal/app"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and print the model settings in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Provider:      %s\n", cfg.Provider)
			fmt.Fprintf(out, "Model:         %s\n", cfg.Model)
			fmt.Fprintf(out, "Timeout:       %s\n", cfg.Timeout())
			fmt.Fprintf(out, "API key:       %s\n", maskKey(cfg.APIKey()))
			if cfg.OpenaiBaseURL != "" {
				fmt.Fprintf(out, "Base URL:      %s\n", cfg.OpenaiBaseURL)
			}
			if cfg.SystemPromptFile != "" {
				fmt.Fprintf(out, "System prompt: %s\n", cfg.SystemPromptFile)
			}
			if _, ok := cfg.Pricing[cfg.Model]; ok {
				fmt.Fprintln(out, "Pricing:       configured")
			}

			appInstance, err := app.NewApp(ctx, cfg)
			if err != nil {
				fmt.Fprintf(out, "\n%s %v\n", color.RedString("FAIL"), err)
				return err
			}
			defer appInstance.Close()

			fmt.Fprintf(out, "\n%s %s provider is %s\n", color.GreenString("OK"),
				appInstance.CompletionService.Name(), appInstance.CompletionService.Status())
			return nil
		},
	}
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
