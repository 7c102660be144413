package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mverhage/bothive/internal/api"
	"github.com/mverhage/bothive/internal/core/service"
	"github.com/mverhage/bothive/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bot hosting API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.New(cfg.StorageDir)
		if err != nil {
			return err
		}

		supervisor := service.NewSupervisor(cfg, store)
		supervisor.StartReconciler()

		server := api.NewServer(cfg, supervisor)

		serverErr := make(chan error, 1)
		go func() {
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				serverErr <- err
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErr:
			return fmt.Errorf("server error: %w", err)
		case <-sigChan:
			logrus.Info("shutting down gracefully")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		supervisor.Shutdown(shutdownCtx)

		logrus.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
