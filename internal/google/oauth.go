package google

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// LoadAppConfig reads a client-secret file (either the "web" or the
// "installed" flavor) and returns an OAuth2 config for the Gmail scopes.
// The redirect URL is the first redirect URI listed in the file.
func LoadAppConfig(path string) (*oauth2.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret file %s: %w", path, err)
	}
	return AppConfigFromJSON(b)
}

// AppConfigFromJSON parses client-secret JSON into an OAuth2 config.
func AppConfigFromJSON(b []byte) (*oauth2.Config, error) {
	conf, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret: %w", err)
	}
	if conf.RedirectURL == "" {
		return nil, fmt.Errorf("client secret has no redirect_uris")
	}
	return conf, nil
}

// AuthURL returns the consent URL. Offline access and a forced consent
// prompt make Google return a refresh token on every exchange.
//
// The state parameter is random but not verified on the callback: nothing
// is stored server-side between the redirect and the code exchange, so any
// valid code presented to the handler is exchanged.
func AuthURL(conf *oauth2.Config) string {
	return conf.AuthCodeURL(uuid.NewString(),
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for a token.
func Exchange(ctx context.Context, conf *oauth2.Config, code string) (*oauth2.Token, error) {
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return tok, nil
}

// Refresh obtains a new access token using the refresh token in tok.
// The returned token keeps the old refresh token when Google omits one.
func Refresh(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (*oauth2.Token, error) {
	if tok == nil || tok.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token available")
	}

	// Force the token source to hit the token endpoint.
	stale := &oauth2.Token{
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	newTok, err := conf.TokenSource(ctx, stale).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if newTok.RefreshToken == "" {
		newTok.RefreshToken = tok.RefreshToken
	}
	return newTok, nil
}
