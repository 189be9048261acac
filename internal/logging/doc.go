// Package logging provides structured logging utilities for inboxcook.
//
// All logging goes through the standard library's slog package. This
// package keeps attribute names consistent and makes sure credentials
// never reach a log line.
//
// # Usage Patterns
//
//	logger := logging.WithOperation(slog.Default(), "gmail.list")
//	logger.Info("listed messages", logging.Count(len(ids)))
//
// Tokens are masked before logging:
//
//	logger.Debug("token refreshed", "access_token", logging.SanitizeToken(tok.AccessToken))
//
// The SlogAdapter bridges the AWS SDK logger into slog so SDK retries and
// request diagnostics show up in the same structured stream.
package logging
