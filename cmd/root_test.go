package cmd

import (
	"bytes"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCommand(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	assert.Equal(t, "serve", defaultCommand())

	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "inboxcook")
	assert.Equal(t, "lambda", defaultCommand())
}

func TestVersionCmd(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "inboxcook version 1.2.3\n", out.String())
}

func writeClientSecret(t *testing.T) string {
	t.Helper()
	secret := filepath.Join(t.TempDir(), "gcp.json")
	require.NoError(t, os.WriteFile(secret, []byte(`{"web":{
		"client_id":"client-id",
		"client_secret":"client-secret",
		"auth_uri":"https://accounts.google.com/o/oauth2/auth",
		"token_uri":"https://oauth2.googleapis.com/token",
		"redirect_uris":["https://example.com/callback"]}}`), 0o600))
	return secret
}

func TestAuthURLCmd(t *testing.T) {
	secret := writeClientSecret(t)

	var out bytes.Buffer
	cmd := newAuthURLCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--client-secret-file", secret})
	require.NoError(t, cmd.Execute())

	u, err := url.Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "https://example.com/callback", q.Get("redirect_uri"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Contains(t, q.Get("scope"), "gmail.modify")
}

func TestAuthURLCmd_IgnoresLLMSettings(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_SECRET_FILE", writeClientSecret(t))
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	var out bytes.Buffer
	cmd := newAuthURLCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	u, err := url.Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "client-id", u.Query().Get("client_id"))
}

func TestAuthURLCmd_MissingFile(t *testing.T) {
	cmd := newAuthURLCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--client-secret-file", filepath.Join(t.TempDir(), "missing.json")})

	assert.Error(t, cmd.Execute())
}
