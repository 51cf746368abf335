// Package logging builds the structured loggers and error decoration
// shared by the verification pipeline stages.
package logging

import "go.uber.org/zap"

// NewLogger builds the production logger every entry point shares.
// Stage-specific children hang off it via Component.
func NewLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", "kyc-verify")), nil
}

// Component returns a named child logger tagged with the pipeline
// component it belongs to, so a grep for one stage finds all its lines.
func Component(logger *zap.Logger, name string) *zap.Logger {
	return logger.Named(name).With(zap.String("component", name))
}

// WithRequest scopes a logger to one operation within one document run.
func WithRequest(logger *zap.Logger, operation, requestID string) *zap.Logger {
	fields := []zap.Field{zap.String("operation", operation)}
	if requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	return logger.With(fields...)
}
