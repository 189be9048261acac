package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/inboxcook/internal/actions"
	"github.com/teemow/inboxcook/internal/config"
	"github.com/teemow/inboxcook/internal/credentials"
	"github.com/teemow/inboxcook/internal/google"
	"github.com/teemow/inboxcook/internal/handler"
	"github.com/teemow/inboxcook/internal/instrumentation"
	"github.com/teemow/inboxcook/internal/llm"
)

// newHandler wires the invocation handler from configuration. It is called
// once per process; the result serves every invocation.
func newHandler(ctx context.Context, cfg *config.Config, metrics *instrumentation.Metrics, logger *slog.Logger) (*handler.Handler, error) {
	oauthConf, err := google.LoadAppConfig(cfg.ClientSecretFile)
	if err != nil {
		return nil, err
	}

	completer, err := llm.NewCompleter(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s completer: %w", cfg.LLMProvider, err)
	}

	logger.Info("handler configured",
		"llm_provider", completer.Name(),
		"max_messages", cfg.MaxMessages,
		"label", cfg.CookedLabel)

	return handler.New(handler.Config{
		Credentials: credentials.NewManager(credentials.ManagerConfig{
			OAuth:                 oauthConf,
			CookieMaxAge:          cfg.CookieMaxAge,
			CookieMaxAgeFromToken: cfg.CookieMaxAgeFromToken,
			Metrics:               metrics,
			Logger:                logger,
		}),
		NewMailbox:  handler.GmailMailbox(metrics),
		Extractor:   actions.NewExtractor(completer, metrics, logger),
		MaxMessages: cfg.MaxMessages,
		CookedLabel: cfg.CookedLabel,
		Metrics:     metrics,
		Logger:      logger,
	}), nil
}
