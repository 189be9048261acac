package enrich

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/inboxcook/internal/actions"
	"github.com/teemow/inboxcook/internal/gmail"
	"github.com/teemow/inboxcook/internal/instrumentation"
	"github.com/teemow/inboxcook/internal/logging"
)

// Extractor produces action items for a message body.
type Extractor interface {
	Extract(ctx context.Context, body string) ([]actions.ActionItem, error)
}

// Coordinator enriches the messages of one batch.
type Coordinator struct {
	mailbox   gmail.Mailbox
	extractor Extractor
	label     string
	metrics   *instrumentation.Metrics
	logger    *slog.Logger
}

// NewCoordinator creates a Coordinator that marks processed messages with
// label.
func NewCoordinator(mailbox gmail.Mailbox, extractor Extractor, label string, metrics *instrumentation.Metrics, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		mailbox:   mailbox,
		extractor: extractor,
		label:     label,
		metrics:   metrics,
		logger:    logging.WithOperation(logger, "enrich"),
	}
}

// Enrich processes every message in batch lacking the marker label, in
// order. Messages that already carry it are left untouched and cost no
// API calls. Extraction errors abort the batch; tagging errors do not.
func (c *Coordinator) Enrich(ctx context.Context, batch *gmail.Batch) error {
	labels := &labelResolver{
		mailbox: c.mailbox,
		name:    c.label,
		catalog: batch,
	}

	for _, msg := range batch.Messages {
		if err := c.enrichMessage(ctx, labels, msg); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) enrichMessage(ctx context.Context, labels *labelResolver, msg *gmail.Message) error {
	ctx, span := instrumentation.StartSpan(ctx, "enrich.message",
		attribute.String(instrumentation.SpanAttrMessageID, msg.ID))
	defer span.End()

	if msg.HasLabel(c.label) {
		span.SetAttributes(attribute.Bool(instrumentation.SpanAttrSkipped, true))
		c.metrics.RecordMessageProcessed(ctx, false)
		return nil
	}

	items, err := c.extractor.Extract(ctx, msg.FullText)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return err
	}
	msg.SetActionItems(items)
	msg.Labels = append(msg.Labels, c.label)
	c.metrics.RecordMessageProcessed(ctx, true)

	if err := c.tag(ctx, labels, msg.ID); err != nil {
		c.metrics.RecordLabelApplied(ctx, instrumentation.LabelResultFailed)
		c.logger.Warn("error adding label to message",
			logging.MessageID(msg.ID),
			logging.Label(c.label),
			logging.Err(err))
		return nil
	}
	c.metrics.RecordLabelApplied(ctx, instrumentation.LabelResultApplied)
	instrumentation.SetSpanSuccess(span)
	return nil
}

func (c *Coordinator) tag(ctx context.Context, labels *labelResolver, messageID string) error {
	id, err := labels.id(ctx)
	if err != nil {
		return err
	}
	return c.mailbox.AddLabels(ctx, messageID, []string{id})
}

// labelResolver looks the marker label up in the batch's catalog and
// creates it on a miss, at most once per batch. When creation fails, the
// label list is fetched again once in case a concurrent invocation created
// it. A failed creation is not cached so the next message retries it.
type labelResolver struct {
	mailbox  gmail.Mailbox
	name     string
	catalog  *gmail.Batch
	cached   string
	relisted bool
}

func (r *labelResolver) id(ctx context.Context) (string, error) {
	if r.cached != "" {
		return r.cached, nil
	}
	if id, ok := r.catalog.LabelID(r.name); ok {
		r.cached = id
		return id, nil
	}

	created, err := r.mailbox.CreateLabel(ctx, r.name)
	if err != nil {
		if id, ok := r.relist(ctx); ok {
			r.cached = id
			return id, nil
		}
		return "", err
	}
	r.cached = created.Id
	return created.Id, nil
}

func (r *labelResolver) relist(ctx context.Context) (string, bool) {
	if r.relisted {
		return "", false
	}
	r.relisted = true
	labels, err := r.mailbox.ListLabels(ctx)
	if err != nil {
		return "", false
	}
	for _, l := range labels {
		if l.Name == r.name {
			return l.Id, true
		}
	}
	return "", false
}
