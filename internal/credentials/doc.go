// Package credentials manages the OAuth2 credentials for a session without
// any server-side storage.
//
// The token bundle travels in a cookie as base64-encoded JSON. Each
// invocation decodes it, refreshes or re-authorizes when needed, and hands
// back a fresh Set-Cookie value. A cookie that cannot be decoded is treated
// the same as no cookie at all.
package credentials
