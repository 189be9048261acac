package google

import (
	gmail "google.golang.org/api/gmail/v1"
)

// Scopes are the Gmail scopes requested during consent. They cover reading
// messages, managing labels, and modifying the labels on a message.
var Scopes = []string{
	gmail.GmailReadonlyScope,
	gmail.GmailLabelsScope,
	gmail.GmailModifyScope,
}
