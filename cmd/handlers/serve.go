package handlers

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/config"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/logger"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generated index and post JSON over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			srv := server.New(cfg.App.ContentDir, cfg.Server)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logger.Info("Shutting down content server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "listen port")
	return cmd
}
