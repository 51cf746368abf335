package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/kyc-verify/internal/imageproc"
	"github.com/example/kyc-verify/internal/logging"
)

func newVerifyCmd() *cobra.Command {
	var imagePath, mimeType, outputPath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a single document image",
		Example: `  # Verify a passport scan
  kyc-verify verify --image passport.jpg

  # Override the MIME type and persist the result
  kyc-verify verify --image scan.bin --mime image/png --output result.json`,
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

			data, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			if mimeType == "" {
				mimeType = imageproc.MIMEFromPath(imagePath)
			}

			result, err := pipe.Process(cmd.Context(), data, mimeType)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))

			if outputPath != "" {
				if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
					return err
				}
				if err := os.WriteFile(outputPath, encoded, 0o644); err != nil {
					return fmt.Errorf("failed to write result: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "Path to the document image")
	cmd.Flags().StringVar(&mimeType, "mime", "", "MIME type override (guessed from the extension by default)")
	cmd.Flags().StringVar(&outputPath, "output", "", "Optional path for the result JSON")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}
