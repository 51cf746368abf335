// Package cmd wires the CLI entry points for the verification pipeline.
package cmd

import (
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/kyc-verify/internal/config"
	"github.com/example/kyc-verify/internal/extractor"
	"github.com/example/kyc-verify/internal/imageproc"
	"github.com/example/kyc-verify/internal/pipeline"
	"github.com/example/kyc-verify/internal/store"
	"github.com/example/kyc-verify/internal/validator"
)

// NewRootCmd builds the kyc-verify command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kyc-verify",
		Short: "Identity document verification pipeline",
		Long: `kyc-verify checks passport and driver's license images: it gates out
blurry or duplicate uploads, extracts structured fields through a
vision-capable model, cross-validates them, and reduces everything to a
single confidence score and decision.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newBatchCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// buildPipeline assembles the pipeline and its collaborators from the
// environment. The returned cleanup closes any external connections.
func buildPipeline(logger *zap.Logger) (*pipeline.Pipeline, *config.Settings, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	processor := imageproc.NewProcessor(cfg.QualityThreshold, cfg.MaxSide)
	client := extractor.NewClient(extractor.Options{
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		Model:         cfg.Model,
		FallbackModel: cfg.FallbackModel,
		Timeout:       cfg.RequestTimeout,
		Policy: extractor.RetryPolicy{
			MaxAttempts: cfg.MaxRetries,
			BackoffBase: cfg.BackoffBase,
		},
	}, logger)

	var fingerprints store.FingerprintStore = store.NewMemoryStore()
	cleanup := func() {}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		fingerprints = store.NewRedisStore(redisClient)
		cleanup = func() { redisClient.Close() } //nolint:errcheck
		logger.Info("using redis fingerprint store", zap.String("addr", cfg.RedisAddr))
	}

	pipe := pipeline.New(processor, client, validator.New(), fingerprints, logger)
	return pipe, cfg, cleanup, nil
}
