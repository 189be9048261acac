package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxcook/internal/config"
	"github.com/teemow/inboxcook/internal/google"
)

func newAuthURLCmd() *cobra.Command {
	var clientSecretFile string

	cmd := &cobra.Command{
		Use:   "auth-url",
		Short: "Print the Google consent URL",
		Long: `Print the URL users are redirected to when they have no usable credentials.
Opening it and granting access redirects back to the configured redirect URI
with the authorization code.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientSecretFile == "" {
				clientSecretFile = config.ClientSecretFile()
			}

			conf, err := google.LoadAppConfig(clientSecretFile)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), google.AuthURL(conf))
			return nil
		},
	}

	cmd.Flags().StringVar(&clientSecretFile, "client-secret-file", "", "Path to the Google OAuth client secret JSON. Defaults to GOOGLE_CLIENT_SECRET_FILE or gcp.json.")
	return cmd
}
