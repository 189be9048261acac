// Package config loads runtime configuration for inboxcook from the
// environment. A .env file in the working directory is read first when
// present, so local development and the Lambda runtime share one set of
// variable names.
package config
