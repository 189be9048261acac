// Package handler orchestrates one invocation: it resolves the caller's
// credentials, fetches recent messages, enriches the unprocessed ones with
// action items and answers with JSON plus a refreshed credentials cookie.
//
// The core entry point is Handler.Handle, which works on the
// transport-neutral Request and Response types. HandleAPIGateway adapts it
// to AWS Lambda behind an API Gateway HTTP API, and ServeHTTP adapts it to
// net/http for local development.
package handler
