package credentials

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type tokenEndpoint struct {
	grants []string
}

func newManager(t *testing.T, fromToken bool) (*Manager, *tokenEndpoint) {
	t.Helper()
	te := &tokenEndpoint{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		grant := r.PostForm.Get("grant_type")
		te.grants = append(te.grants, grant)

		var body map[string]any
		switch {
		case grant == "authorization_code" && r.PostForm.Get("code") == "good-code":
			body = map[string]any{"access_token": "exchanged", "refresh_token": "rt-new", "token_type": "Bearer", "expires_in": 3599}
		case grant == "refresh_token" && r.PostForm.Get("refresh_token") == "rt":
			body = map[string]any{"access_token": "refreshed", "token_type": "Bearer", "expires_in": 1800}
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	conf := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "https://example.com/callback",
		Scopes:       []string{"scope-a"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://accounts.google.com/o/oauth2/auth",
			TokenURL:  srv.URL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	return NewManager(ManagerConfig{OAuth: conf, CookieMaxAge: 3600, CookieMaxAgeFromToken: fromToken}), te
}

func cookieFor(t *testing.T, c *Credentials) string {
	t.Helper()
	v, err := Encode(c)
	require.NoError(t, err)
	return CookieName + "=" + v
}

func TestResolve_NoCookieNoCode_Redirects(t *testing.T) {
	m, te := newManager(t, false)

	res, err := m.Resolve(context.Background(), "", nil)
	require.NoError(t, err)

	assert.Nil(t, res.Credentials)
	assert.True(t, strings.HasPrefix(res.RedirectURL, "https://accounts.google.com/o/oauth2/auth"))
	u, err := url.Parse(res.RedirectURL)
	require.NoError(t, err)
	assert.Equal(t, "consent", u.Query().Get("prompt"))
	assert.Empty(t, te.grants)
}

func TestResolve_MalformedCookieTreatedAsMissing(t *testing.T) {
	m, _ := newManager(t, false)

	res, err := m.Resolve(context.Background(), "", []string{"credentials=%%%garbage"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.RedirectURL)
}

func TestResolve_ValidCookie(t *testing.T) {
	m, te := newManager(t, false)
	c := &Credentials{Token: "live", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)}

	res, err := m.Resolve(context.Background(), "ignored-code", []string{cookieFor(t, c)})
	require.NoError(t, err)

	require.NotNil(t, res.Credentials)
	assert.Equal(t, "live", res.Credentials.Token)
	assert.False(t, res.FromExchange)
	assert.Empty(t, te.grants, "cookie wins over code")
}

func TestResolve_Exchange(t *testing.T) {
	m, te := newManager(t, false)

	res, err := m.Resolve(context.Background(), "good-code", nil)
	require.NoError(t, err)

	require.NotNil(t, res.Credentials)
	assert.True(t, res.FromExchange)
	assert.Equal(t, "exchanged", res.Credentials.Token)
	assert.Equal(t, "rt-new", res.Credentials.RefreshToken)
	assert.Equal(t, "client", res.Credentials.ClientID)
	assert.Equal(t, []string{"authorization_code"}, te.grants)
}

func TestResolve_ExchangeFailurePropagates(t *testing.T) {
	m, _ := newManager(t, false)

	_, err := m.Resolve(context.Background(), "bad-code", nil)
	assert.Error(t, err)
}

func TestResolve_ExpiredWithRefreshToken(t *testing.T) {
	m, te := newManager(t, false)
	c := &Credentials{Token: "stale", RefreshToken: "rt", Scopes: []string{"kept"}, Expiry: time.Now().Add(-time.Hour)}

	res, err := m.Resolve(context.Background(), "", []string{cookieFor(t, c)})
	require.NoError(t, err)

	require.NotNil(t, res.Credentials)
	assert.Equal(t, "refreshed", res.Credentials.Token)
	assert.Equal(t, "rt", res.Credentials.RefreshToken)
	assert.Equal(t, []string{"kept"}, res.Credentials.Scopes)
	assert.True(t, res.Credentials.Valid())
	assert.Equal(t, []string{"refresh_token"}, te.grants)
}

func TestResolve_RefreshFailurePropagates(t *testing.T) {
	m, _ := newManager(t, false)
	c := &Credentials{Token: "stale", RefreshToken: "revoked", Expiry: time.Now().Add(-time.Hour)}

	_, err := m.Resolve(context.Background(), "", []string{cookieFor(t, c)})
	assert.Error(t, err)
}

func TestResolve_ExpiredWithoutRefreshTokenRedirects(t *testing.T) {
	m, te := newManager(t, false)
	c := &Credentials{Token: "stale", Expiry: time.Now().Add(-time.Hour)}

	res, err := m.Resolve(context.Background(), "", []string{cookieFor(t, c)})
	require.NoError(t, err)
	assert.NotEmpty(t, res.RedirectURL)
	assert.Empty(t, te.grants)
}

func TestCookie(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixedNow(t, at)
	c := &Credentials{Token: "t", Expiry: at.Add(30 * time.Minute)}

	fixed, _ := newManager(t, false)
	header, err := fixed.Cookie(c)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(header, "credentials="))
	assert.True(t, strings.HasSuffix(header, "; HttpOnly; Secure; SameSite=Strict; Max-Age=3600"))

	value, ok := CookieValue([]string{strings.SplitN(header, ";", 2)[0]})
	require.True(t, ok)
	decoded, err := Decode(value)
	require.NoError(t, err)
	assert.Equal(t, "t", decoded.Token)

	aligned, _ := newManager(t, true)
	assert.Equal(t, 1800, aligned.CookieMaxAge(c))
	assert.Equal(t, 0, aligned.CookieMaxAge(&Credentials{Token: "t", Expiry: at.Add(-time.Minute)}))
	assert.Equal(t, 3600, aligned.CookieMaxAge(&Credentials{Token: "t"}))
}

func TestCurrent(t *testing.T) {
	m, te := newManager(t, false)
	base := &Credentials{
		Token:        "live",
		RefreshToken: "rt",
		ClientID:     "client",
		Scopes:       []string{"scope-old"},
		Expiry:       time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}

	t.Run("unchanged token keeps credentials", func(t *testing.T) {
		got := m.Current(m.TokenSource(t.Context(), base), base)
		assert.Same(t, base, got)
	})

	t.Run("token refreshed during invocation", func(t *testing.T) {
		stale := *base
		stale.Expiry = time.Now().Add(-time.Minute).UTC()
		ts := m.TokenSource(t.Context(), &stale)

		got := m.Current(ts, &stale)
		assert.Equal(t, "refreshed", got.Token)
		assert.Equal(t, "rt", got.RefreshToken, "refresh token carries over")
		assert.Equal(t, []string{"scope-old"}, got.Scopes)
		assert.Equal(t, "client", got.ClientID)
		assert.True(t, got.Expiry.After(time.Now()))
		assert.Equal(t, "live", stale.Token, "input is not modified")
		assert.Equal(t, []string{"refresh_token"}, te.grants)
	})

	t.Run("token source failure keeps credentials", func(t *testing.T) {
		dead := &Credentials{Token: "old", Expiry: time.Now().Add(-time.Minute).UTC()}
		got := m.Current(m.TokenSource(t.Context(), dead), dead)
		assert.Same(t, dead, got)
	})

	t.Run("static source with new refresh token", func(t *testing.T) {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "other", RefreshToken: "rt-rotated"})
		got := m.Current(ts, base)
		assert.Equal(t, "other", got.Token)
		assert.Equal(t, "rt-rotated", got.RefreshToken)
		assert.True(t, got.Expiry.IsZero())
	})
}
