// Package gmail reads recent messages and manages labels in the signed-in
// user's mailbox through the Gmail REST API.
//
// Mailbox is the narrow set of API calls the rest of the service needs;
// Client implements it against google.golang.org/api/gmail/v1 and records
// a metric and a span for every call. Retriever turns raw API messages into
// Message records with a plain-text body and label names.
package gmail
