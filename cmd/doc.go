// Package cmd implements the command-line interface for inboxcook.
//
// This package provides the following commands:
//   - lambda: Run as an AWS Lambda function behind an API Gateway HTTP API
//   - serve: Serve the same handler over plain HTTP with health and metrics endpoints
//   - auth-url: Print the Google consent URL for the configured OAuth app
//   - version: Display version information
//
// Without a subcommand, lambda is used inside AWS Lambda and serve
// everywhere else.
package cmd
