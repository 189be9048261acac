package gmail

import (
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/inboxcook/internal/actions"
)

// InboxLabel is the system label of the inbox.
const InboxLabel = "INBOX"

// Message is one retrieved message as returned to the caller.
type Message struct {
	ID       string   `json:"id"`
	Subject  string   `json:"subject"`
	Sender   string   `json:"sender"`
	FullText string   `json:"full_text"`
	Labels   []string `json:"labels"`

	// ActionItems stays nil for messages that were not enriched in this
	// invocation, so they serialize without the field.
	ActionItems *[]actions.ActionItem `json:"action_items,omitempty"`
}

// HasLabel reports whether the message carries the label name.
func (m *Message) HasLabel(name string) bool {
	for _, l := range m.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// SetActionItems attaches extracted items. A nil slice is stored as empty.
func (m *Message) SetActionItems(items []actions.ActionItem) {
	if items == nil {
		items = []actions.ActionItem{}
	}
	m.ActionItems = &items
}

// Batch is the result of one retrieval: the messages plus the label
// catalog used to name their labels.
type Batch struct {
	Messages []*Message
	Labels   []*gmail.Label
}

// LabelID returns the id of the catalog label with the given name.
func (b *Batch) LabelID(name string) (string, bool) {
	for _, l := range b.Labels {
		if l.Name == name {
			return l.Id, true
		}
	}
	return "", false
}
