// Package gmailtest provides an in-memory Mailbox for tests.
package gmailtest

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	gmail "google.golang.org/api/gmail/v1"
)

// Mailbox is an in-memory gmail.Mailbox. Zero value is an empty mailbox.
type Mailbox struct {
	mu sync.Mutex

	// Messages are returned newest first, in slice order.
	Messages []*gmail.Message
	Labels   []*gmail.Label

	// Errors injected per operation name ("list", "get", "labels",
	// "create", "modify").
	Errors map[string]error

	// Calls counts invocations per operation name.
	Calls map[string]int

	// LastLabelFilter is the label filter of the latest list call.
	LastLabelFilter []string
	// LastMax is the max of the latest list call.
	LastMax int64

	nextLabel int
}

func (m *Mailbox) record(op string) error {
	if m.Calls == nil {
		m.Calls = map[string]int{}
	}
	m.Calls[op]++
	return m.Errors[op]
}

// CallCount returns how often op was invoked.
func (m *Mailbox) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[op]
}

// ListMessages implements gmail.Mailbox.
func (m *Mailbox) ListMessages(_ context.Context, labelIDs []string, max int64) ([]*gmail.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("list"); err != nil {
		return nil, err
	}
	m.LastLabelFilter = labelIDs
	m.LastMax = max

	var out []*gmail.Message
	for _, msg := range m.Messages {
		if int64(len(out)) >= max {
			break
		}
		if hasAll(msg.LabelIds, labelIDs) {
			out = append(out, &gmail.Message{Id: msg.Id, ThreadId: msg.ThreadId})
		}
	}
	return out, nil
}

// GetMessage implements gmail.Mailbox.
func (m *Mailbox) GetMessage(_ context.Context, id string) (*gmail.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("get"); err != nil {
		return nil, err
	}
	for _, msg := range m.Messages {
		if msg.Id == id {
			return msg, nil
		}
	}
	return nil, fmt.Errorf("message %s not found", id)
}

// ListLabels implements gmail.Mailbox.
func (m *Mailbox) ListLabels(context.Context) ([]*gmail.Label, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("labels"); err != nil {
		return nil, err
	}
	return append([]*gmail.Label(nil), m.Labels...), nil
}

// CreateLabel implements gmail.Mailbox.
func (m *Mailbox) CreateLabel(_ context.Context, name string) (*gmail.Label, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("create"); err != nil {
		return nil, err
	}
	m.nextLabel++
	label := &gmail.Label{Id: fmt.Sprintf("Label_%d", m.nextLabel), Name: name, Type: "user"}
	m.Labels = append(m.Labels, label)
	return label, nil
}

// AddLabels implements gmail.Mailbox.
func (m *Mailbox) AddLabels(_ context.Context, messageID string, labelIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("modify"); err != nil {
		return err
	}
	for _, msg := range m.Messages {
		if msg.Id == messageID {
			for _, id := range labelIDs {
				if !hasAll(msg.LabelIds, []string{id}) {
					msg.LabelIds = append(msg.LabelIds, id)
				}
			}
			return nil
		}
	}
	return fmt.Errorf("message %s not found", messageID)
}

func hasAll(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// PlainMessage builds a single-part text/plain message.
func PlainMessage(id, subject, from, body string, labelIDs ...string) *gmail.Message {
	return &gmail.Message{
		Id:       id,
		LabelIds: labelIDs,
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: subject},
				{Name: "From", Value: from},
			},
			Body: &gmail.MessagePartBody{Data: Encode(body)},
		},
	}
}

// Encode encodes text the way the Gmail API returns body data.
func Encode(text string) string {
	return base64.URLEncoding.EncodeToString([]byte(text))
}
