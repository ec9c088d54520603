package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ticketclassifier/internal/app"
	"ticketclassifier/internal/clix"
	"ticketclassifier/internal/config"
	"ticketclassifier/internal/fileingest"
	"ticketclassifier/internal/report"
	"ticketclassifier/pkg/categorizer"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticketclassifier",
		Short: "Classify support tickets against a category taxonomy",
		Long: `ticketclassifier reads a support ticket and a JSON category taxonomy, asks a
hosted language model to classify the ticket, and prints the result.

Three result shapes are available via --case:
  1  one category and subcategory for the whole ticket
  2  one entry per distinct issue, with reasons
  3  every matching category, with a short comment`,
		Example: `  ticketclassifier -t ticket.txt -c categories.json
  ticketclassifier -t ticket.txt -c categories.json --case 2 -o result.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		// PersistentPreRunE runs before any subcommand's RunE. Configuration
		// is loaded only by the commands that talk to a model (see loadConfig).
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			setupLogging(defaultLogLevel, verbose)
			return nil
		},
		RunE: runClassify,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().String("env-file", "", "Env file with API settings (default \".env\" if present)")

	cmd.Flags().StringP("ticket", "t", "", "Path to the support ticket (text, markdown or HTML)")
	cmd.Flags().StringP("categories", "c", "", "Path to the categories JSON file")
	cmd.Flags().StringP("output", "o", "", "Write the result as JSON to this path")
	cmd.Flags().String("case", "1", "Result shape: 1 (single), 2 (multi-issue) or 3 (dynamic)")
	cmd.Flags().Bool("lenient", false, "Accept results naming categories outside the taxonomy (logs a warning)")
	cmd.Flags().Bool("print-prompt", false, "Print the prompt that would be sent and exit without calling the model")

	cmd.AddCommand(newCategoriesCmd(), newServeCmd(), newDoctorCmd())
	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	caseSel, err := clix.ParseCase(flags)
	if err != nil {
		return err
	}
	ticketPath, err := clix.RequiredPath(flags, "ticket")
	if err != nil {
		return err
	}
	categoriesPath, err := clix.RequiredPath(flags, "categories")
	if err != nil {
		return err
	}
	outputPath, _ := flags.GetString("output")
	lenient, _ := flags.GetBool("lenient")
	printPrompt, _ := flags.GetBool("print-prompt")

	// Configuration problems such as a missing API key are reported before
	// any input file is read.
	var appInstance *app.App
	if !printPrompt {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		appInstance, err = app.NewApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer appInstance.Close()
	}

	log.Infof("Loading ticket from %s", ticketPath)
	log.Infof("Loading categories from %s", categoriesPath)
	ticket, taxonomy, err := fileingest.LoadData(ticketPath, categoriesPath)
	if err != nil {
		return err
	}
	log.Debugf("Loaded ticket (%d chars) and %d top-level categories", len(ticket), taxonomy.Len())

	if printPrompt {
		prompt, err := categorizer.BuildPrompt(ticket, taxonomy, caseSel)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), prompt)
		return nil
	}

	log.Info("Classifying ticket...")
	out, err := appInstance.CategorizationService.Classify(ctx, ticket, taxonomy, caseSel)
	result := out.Result
	if err != nil {
		var ve *categorizer.ValidationError
		if !lenient || !errors.As(err, &ve) {
			return err
		}
		log.WithField("request_id", out.ID).Warnf("Result accepted with %d taxonomy mismatches: %v", len(ve.Mismatches), err)
		result = ve.Result
	}

	fmt.Fprintln(cmd.OutOrStdout())
	if err := report.PrintResult(cmd.OutOrStdout(), ticket, result); err != nil {
		return err
	}

	if outputPath != "" {
		if err := report.WriteJSONFile(outputPath, result); err != nil {
			return err
		}
		log.Infof("Results saved to %s", outputPath)
		fmt.Fprintf(cmd.OutOrStdout(), "\nResults saved to %s\n", outputPath)
	}

	if total, err := appInstance.CostTracker.TotalCost(ctx); err == nil && total > 0 {
		log.Debugf("Estimated model cost for this run: $%.6f", total)
	}
	return nil
}

const defaultLogLevel = "info"

func setupLogging(level string, verbose bool) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	lvl := log.WarnLevel
	if parsed, err := log.ParseLevel(strings.TrimSpace(level)); err == nil && level != "" {
		lvl = parsed
	}
	if verbose {
		lvl = log.DebugLevel
	}
	log.SetLevel(lvl)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(ExitCode(err))
	}
}

// loadConfig reads the configuration for commands that need a model
// endpoint and applies its log level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogging(cfg.LogLevel, verbose)
	return cfg, nil
}
