// Package actions asks a language model for the action items in an email
// body.
//
// Model output is parsed leniently and never fails the caller: anything
// that does not yield the expected JSON object becomes an empty list, and
// the raw text is logged for inspection. Only a failed model call is
// returned as an error.
package actions
