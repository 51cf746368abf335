package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/kyc-verify/internal/auth"
	"github.com/example/kyc-verify/internal/handlers"
	"github.com/example/kyc-verify/internal/logging"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the verification HTTP API",
		Long: `Starts an HTTP API with a JWT-protected upload endpoint. All requests
served by one process share the duplicate-upload fingerprint set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewLogger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			pipe, cfg, cleanup, err := buildPipeline(logger)
			if err != nil {
				return err
			}
			defer cleanup()

			router := gin.Default()
			router.MaxMultipartMemory = handlers.MaxUploadSize
			handlers.RegisterRoutes(router, pipe, auth.JWTMiddleware(cfg.JWTSecret, cfg.JWTAudience))

			server := &http.Server{
				Addr:    addr,
				Handler: router,
			}

			serverErr := make(chan error, 1)
			go func() {
				logger.Info("verification API listening", zap.String("addr", addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-cmd.Context().Done():
				logger.Info("shutting down server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logging.WithRequest(logger, "serve.shutdown", "").Error("server shutdown failed", zap.Error(err))
					return err
				}
				logger.Info("server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")

	return cmd
}
