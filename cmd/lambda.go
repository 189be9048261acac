package cmd

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxcook/internal/config"
	"github.com/teemow/inboxcook/internal/instrumentation"
	"github.com/teemow/inboxcook/internal/logging"
)

func newLambdaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Run as an AWS Lambda function",
		Long: `Start the AWS Lambda runtime loop and serve API Gateway HTTP API (payload
version 2.0) events.

Instrumentation is off unless INSTRUMENTATION_ENABLED=true. Use the otlp
exporter there; telemetry is flushed at the end of every invocation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cmd)
			ctx := cmd.Context()

			instrConfig := instrumentation.DefaultConfig(false)
			instrConfig.ServiceVersion = version
			provider, err := instrumentation.NewProvider(ctx, instrConfig)
			if err != nil {
				return fmt.Errorf("failed to create instrumentation provider: %w", err)
			}

			h, err := newHandler(ctx, cfg, provider.Metrics(), logger)
			if err != nil {
				return err
			}

			lambda.StartWithOptions(
				func(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
					resp, err := h.HandleAPIGateway(ctx, event)
					if flushErr := provider.ForceFlush(ctx); flushErr != nil {
						logger.Warn("failed to flush telemetry", logging.Err(flushErr))
					}
					return resp, err
				},
				lambda.WithEnableSIGTERM(func() {
					if err := provider.Shutdown(context.Background()); err != nil {
						logger.Warn("error during instrumentation shutdown", logging.Err(err))
					}
				}),
			)
			return nil
		},
	}
}
