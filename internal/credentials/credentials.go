package credentials

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// CookieName is the cookie carrying the encoded credentials.
const CookieName = "credentials"

// expiryDelta treats a token as expired slightly early so it does not
// lapse mid-request.
const expiryDelta = 10 * time.Second

// ErrNoCredentials is returned by Decode for an empty cookie value.
var ErrNoCredentials = errors.New("no credentials")

// now is replaced in tests.
var now = time.Now

// Credentials is the token bundle stored client-side. It never holds the
// client secret; that is reloaded from the app descriptor on each
// invocation.
type Credentials struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenURI     string    `json:"token_uri,omitempty"`
	ClientID     string    `json:"client_id,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

// FromToken builds Credentials from an OAuth2 token and the app config
// that issued it.
func FromToken(tok *oauth2.Token, conf *oauth2.Config) *Credentials {
	c := &Credentials{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry.UTC(),
	}
	if conf != nil {
		c.TokenURI = conf.Endpoint.TokenURL
		c.ClientID = conf.ClientID
		c.Scopes = append([]string(nil), conf.Scopes...)
	}
	return c
}

// OAuthToken converts the credentials back into an oauth2.Token.
func (c *Credentials) OAuthToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.Token,
		TokenType:    "Bearer",
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
}

// Expired reports whether the access token has a known expiry that has
// passed. Tokens without an expiry never expire.
func (c *Credentials) Expired() bool {
	if c.Expiry.IsZero() {
		return false
	}
	return !now().Add(expiryDelta).Before(c.Expiry)
}

// Valid reports whether the access token can be used as-is.
func (c *Credentials) Valid() bool {
	return c != nil && c.Token != "" && !c.Expired()
}

// Encode serializes credentials to the cookie value format.
func Encode(c *Credentials) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal credentials: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Decode parses a cookie value produced by Encode.
func Decode(value string) (*Credentials, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrNoCredentials
	}
	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode credentials cookie: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("failed to parse credentials cookie: %w", err)
	}
	return &c, nil
}

// CookieValue returns the raw credentials cookie value from a list of
// cookies. Each entry may be a single "name=value" pair or a full Cookie
// header with several pairs separated by semicolons.
func CookieValue(cookies []string) (string, bool) {
	for _, entry := range cookies {
		for _, pair := range strings.Split(entry, ";") {
			name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if ok && name == CookieName {
				return value, true
			}
		}
	}
	return "", false
}

// SetCookie formats the Set-Cookie header value for an encoded bundle.
func SetCookie(value string, maxAge int) string {
	return fmt.Sprintf("%s=%s; HttpOnly; Secure; SameSite=Strict; Max-Age=%d", CookieName, value, maxAge)
}
