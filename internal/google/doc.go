// Package google loads the OAuth2 app descriptor for the Gmail API and
// wraps the authorization-code and refresh-token grants.
//
// Nothing here stores tokens. Callers carry the resulting *oauth2.Token
// themselves, which keeps every invocation independent of the last one.
package google
