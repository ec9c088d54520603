package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ticketclassifier/internal/apihandlers"
	"ticketclassifier/internal/app"
	"ticketclassifier/internal/fileingest"
	"ticketclassifier/pkg/categorizer"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the classifier as an HTTP API server",
		Long: `Starts an HTTP server exposing ticket classification via a JSON API:

  GET  /health
  GET  /api/v1/categories   default taxonomy (requires --categories)
  POST /api/v1/classify     {"ticket": "...", "categories": {...}, "case": 1}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			addr, _ := cmd.Flags().GetString("addr")
			port, _ := cmd.Flags().GetString("port")
			categoriesPath, _ := cmd.Flags().GetString("categories")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			appInstance, err := app.NewApp(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			defer appInstance.Close()

			var taxonomy *categorizer.Taxonomy
			if categoriesPath != "" {
				taxonomy, err = fileingest.LoadCategories(categoriesPath)
				if err != nil {
					return err
				}
				log.Infof("Default taxonomy loaded from %s (%d categories)", categoriesPath, taxonomy.Len())
			}

			router := gin.Default() // Includes logger and recovery middleware
			apihandlers.NewAPIHandler(appInstance, taxonomy).RegisterRoutes(router)

			listenAddr := net.JoinHostPort(addr, port)
			return runServer(ctx, &http.Server{Addr: listenAddr, Handler: router})
		},
	}

	cmd.Flags().String("addr", "localhost", "Address to listen on (e.g., '0.0.0.0' for all interfaces)")
	cmd.Flags().String("port", "8080", "Port to listen on")
	cmd.Flags().StringP("categories", "c", "", "Default categories JSON used when a request carries none")
	return cmd
}

// runServer serves until ctx is cancelled, then drains in-flight requests.
func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting API server on http://%s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to run API server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown API server: %w", err)
	}
	log.Info("API server stopped.")
	return nil
}
