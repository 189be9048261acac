package logging

import (
	"fmt"
	"log/slog"

	smithylogging "github.com/aws/smithy-go/logging"
)

// SlogAdapter adapts an slog.Logger to the AWS SDK logger interface so
// SDK diagnostics are written as structured records.
type SlogAdapter struct {
	logger *slog.Logger
}

var _ smithylogging.Logger = (*SlogAdapter)(nil)

// NewSlogAdapter creates a new SlogAdapter wrapping the given slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger.With(slog.String("component", "aws-sdk"))}
}

// Logf implements smithylogging.Logger. Warnings map to slog warn and
// everything else to debug.
func (a *SlogAdapter) Logf(classification smithylogging.Classification, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	switch classification {
	case smithylogging.Warn:
		a.logger.Warn(msg)
	default:
		a.logger.Debug(msg)
	}
}
