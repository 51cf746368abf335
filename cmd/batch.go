package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/kyc-verify/internal/batch"
	"github.com/example/kyc-verify/internal/logging"
)

func newBatchCmd() *cobra.Command {
	var inputDir, outputDir, mimeType string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Verify every image in a directory",
		Long: `Processes all supported images in the input directory one at a time,
writing a result JSON per image and a summary.json with per-status
counts. A failing file is recorded and the run continues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewLogger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			pipe, _, cleanup, err := buildPipeline(logger)
			if err != nil {
				return err
			}
			defer cleanup()

			runner := batch.NewRunner(pipe, logger)
			summary, err := runner.Run(cmd.Context(), inputDir, outputDir, mimeType)
			if err != nil {
				return err
			}

			logger.Info("batch complete",
				zap.Int("total", summary.Total),
				zap.Int("success", summary.Success),
				zap.Int("manual_review", summary.ManualReview),
				zap.Int("retry", summary.Retry),
				zap.Int("error", summary.Error))
			return nil
		},
	}

	cmd.Flags().StringVar(&inputDir, "input", "", "Directory of document images")
	cmd.Flags().StringVar(&outputDir, "output", "outputs", "Directory for result files")
	cmd.Flags().StringVar(&mimeType, "mime", "", "MIME type override for every file")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
