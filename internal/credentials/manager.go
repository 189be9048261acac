package credentials

import (
	"context"
	"log/slog"
	"math"

	"golang.org/x/oauth2"

	"github.com/teemow/inboxcook/internal/google"
	"github.com/teemow/inboxcook/internal/instrumentation"
	"github.com/teemow/inboxcook/internal/logging"
)

// Resolution is the outcome of Resolve. Exactly one of Credentials and
// RedirectURL is set.
type Resolution struct {
	Credentials *Credentials

	// FromExchange is true when the credentials were obtained from an
	// authorization code in this request.
	FromExchange bool

	// RedirectURL is the consent URL the caller must be sent to.
	RedirectURL string
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// OAuth is the app config loaded from the client-secret file.
	OAuth *oauth2.Config

	// CookieMaxAge is the fixed cookie lifetime in seconds.
	CookieMaxAge int

	// CookieMaxAgeFromToken derives the lifetime from the token expiry.
	CookieMaxAgeFromToken bool

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Manager resolves credentials for one request.
type Manager struct {
	oauth           *oauth2.Config
	maxAge          int
	maxAgeFromToken bool
	metrics         *instrumentation.Metrics
	logger          *slog.Logger
}

// NewManager creates a Manager.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		oauth:           cfg.OAuth,
		maxAge:          cfg.CookieMaxAge,
		maxAgeFromToken: cfg.CookieMaxAgeFromToken,
		metrics:         cfg.Metrics,
		logger:          logging.WithOperation(logger, "credentials"),
	}
}

// FromCookies returns the credentials carried in cookies, or nil when
// there are none or they cannot be decoded.
func (m *Manager) FromCookies(cookies []string) *Credentials {
	value, ok := CookieValue(cookies)
	if !ok {
		return nil
	}
	creds, err := Decode(value)
	if err != nil {
		m.logger.Warn("ignoring unreadable credentials cookie", logging.Err(err))
		return nil
	}
	return creds
}

// Resolve finds usable credentials for a request. Cookie credentials win
// over an authorization code. Expired credentials with a refresh token are
// refreshed; anything else unusable yields a consent redirect. Exchange
// and refresh failures are returned as errors.
func (m *Manager) Resolve(ctx context.Context, code string, cookies []string) (*Resolution, error) {
	creds := m.FromCookies(cookies)

	if creds == nil && code != "" {
		tok, err := google.Exchange(ctx, m.oauth, code)
		if err != nil {
			m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
			return nil, err
		}
		m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
		m.logger.Debug("exchanged authorization code",
			"access_token", logging.SanitizeToken(tok.AccessToken),
			"has_refresh_token", tok.RefreshToken != "")
		return &Resolution{Credentials: FromToken(tok, m.oauth), FromExchange: true}, nil
	}

	if creds.Valid() {
		m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
		return &Resolution{Credentials: creds}, nil
	}

	if creds != nil && creds.Expired() && creds.RefreshToken != "" {
		refreshed, err := m.Refresh(ctx, creds)
		if err != nil {
			m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
			return nil, err
		}
		m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
		return &Resolution{Credentials: refreshed}, nil
	}

	m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultRedirect)
	m.logger.Info("credentials missing or unusable, redirecting to consent",
		"had_cookie", creds != nil)
	return &Resolution{RedirectURL: google.AuthURL(m.oauth)}, nil
}

// Refresh exchanges the refresh token for a new access token.
func (m *Manager) Refresh(ctx context.Context, creds *Credentials) (*Credentials, error) {
	tok, err := google.Refresh(ctx, m.oauth, creds.OAuthToken())
	if err != nil {
		m.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return nil, err
	}
	m.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)
	m.logger.Debug("refreshed access token", "access_token", logging.SanitizeToken(tok.AccessToken))

	refreshed := FromToken(tok, m.oauth)
	if len(creds.Scopes) > 0 {
		refreshed.Scopes = creds.Scopes
	}
	return refreshed, nil
}

// TokenSource returns a token source for API clients. It refreshes on its
// own if the token lapses during the invocation.
func (m *Manager) TokenSource(ctx context.Context, creds *Credentials) oauth2.TokenSource {
	return m.oauth.TokenSource(ctx, creds.OAuthToken())
}

// Current returns creds updated with the token ts holds now, so a refresh
// made by an API client during the invocation reaches the cookie. The
// refresh token, scopes and client fields carry over when the new token
// lacks them. creds is returned unchanged when ts fails.
func (m *Manager) Current(ts oauth2.TokenSource, creds *Credentials) *Credentials {
	if ts == nil {
		return creds
	}
	tok, err := ts.Token()
	if err != nil {
		m.logger.Warn("could not read current token, keeping resolved credentials", logging.Err(err))
		return creds
	}
	if tok.AccessToken == creds.Token && tok.Expiry.Equal(creds.Expiry) {
		return creds
	}

	current := *creds
	current.Token = tok.AccessToken
	current.Expiry = tok.Expiry.UTC()
	if tok.RefreshToken != "" {
		current.RefreshToken = tok.RefreshToken
	}
	current.Scopes = append([]string(nil), creds.Scopes...)
	m.logger.Debug("access token changed during invocation", "access_token", logging.SanitizeToken(tok.AccessToken))
	return &current
}

// CookieMaxAge returns the Max-Age to send with creds.
func (m *Manager) CookieMaxAge(creds *Credentials) int {
	if !m.maxAgeFromToken || creds.Expiry.IsZero() {
		return m.maxAge
	}
	secs := creds.Expiry.Sub(now()).Seconds()
	if secs <= 0 {
		return 0
	}
	return int(math.Floor(secs))
}

// Cookie encodes creds as a complete Set-Cookie header value.
func (m *Manager) Cookie(creds *Credentials) (string, error) {
	value, err := Encode(creds)
	if err != nil {
		return "", err
	}
	return SetCookie(value, m.CookieMaxAge(creds)), nil
}
