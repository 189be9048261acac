package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxcook/internal/logging"
)

// rootCmd represents the base command for the inboxcook application
var rootCmd = &cobra.Command{
	Use:   "inboxcook",
	Short: "Adds AI-extracted action items to recent Gmail messages",
	Long: `inboxcook signs a user in to Gmail with OAuth2, fetches their most recent
messages and asks a language model for the action items in each one.
Processed messages are tagged with a label so they are only sent to the
model once.

It can run as:
  - An AWS Lambda function (default inside Lambda)
  - A local HTTP server (default elsewhere)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

var logLevel string

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxcook version %s\n" .Version}}`)

	if len(os.Args) == 1 {
		os.Args = append(os.Args, defaultCommand())
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// defaultCommand picks lambda when the Lambda runtime is detected.
func defaultCommand() string {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return "lambda"
	}
	return "serve"
}

// newLogger returns the process logger. The level comes from --log-level,
// then LOG_LEVEL, then info.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := logLevel
	if !cmd.Flags().Changed("log-level") {
		if env := os.Getenv("LOG_LEVEL"); env != "" {
			level = env
		}
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logging.ParseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error. Can also use LOG_LEVEL env var.")

	rootCmd.AddCommand(newLambdaCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthURLCmd())
	rootCmd.AddCommand(newVersionCmd())
}
