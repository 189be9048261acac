package gmail

import (
	"context"
	"log/slog"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/inboxcook/internal/logging"
)

// Retriever fetches the most recent messages from a Mailbox.
type Retriever struct {
	mailbox Mailbox
	max     int64
	logger  *slog.Logger
}

// NewRetriever creates a Retriever returning at most max messages.
func NewRetriever(mailbox Mailbox, max int, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		mailbox: mailbox,
		max:     int64(max),
		logger:  logging.WithOperation(logger, "gmail.fetch"),
	}
}

// Fetch lists recent messages and loads each one. With inboxOnly the
// listing is restricted to the inbox. An empty mailbox yields an empty
// Batch without fetching the label catalog.
func (r *Retriever) Fetch(ctx context.Context, inboxOnly bool) (*Batch, error) {
	var labelFilter []string
	if inboxOnly {
		labelFilter = []string{InboxLabel}
	}

	stubs, err := r.mailbox.ListMessages(ctx, labelFilter, r.max)
	if err != nil {
		return nil, err
	}
	if len(stubs) == 0 {
		r.logger.Debug("no messages found", "inbox_only", inboxOnly)
		return &Batch{}, nil
	}

	labels, err := r.mailbox.ListLabels(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(labels))
	for _, l := range labels {
		names[l.Id] = l.Name
	}

	batch := &Batch{
		Messages: make([]*Message, 0, len(stubs)),
		Labels:   labels,
	}
	for _, stub := range stubs {
		raw, err := r.mailbox.GetMessage(ctx, stub.Id)
		if err != nil {
			return nil, err
		}
		msg, err := toMessage(raw, names)
		if err != nil {
			return nil, err
		}
		batch.Messages = append(batch.Messages, msg)
	}

	r.logger.Debug("fetched messages", logging.Count(len(batch.Messages)), "inbox_only", inboxOnly)
	return batch, nil
}

// toMessage converts an API message, naming its labels from the catalog.
// Ids missing from the catalog are kept as-is.
func toMessage(raw *gmail.Message, labelNames map[string]string) (*Message, error) {
	text, err := MessageText(raw.Payload)
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(raw.LabelIds))
	for _, id := range raw.LabelIds {
		if name, ok := labelNames[id]; ok {
			labels = append(labels, name)
		} else {
			labels = append(labels, id)
		}
	}

	return &Message{
		ID:       raw.Id,
		Subject:  headerOr(raw, "Subject", NoSubject),
		Sender:   headerOr(raw, "From", UnknownSender),
		FullText: text,
		Labels:   labels,
	}, nil
}
