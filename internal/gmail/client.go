package gmail

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/inboxcook/internal/instrumentation"
)

// user addresses the mailbox of the authenticated account.
const user = "me"

// Mailbox is the subset of the Gmail API used by the service.
type Mailbox interface {
	// ListMessages returns up to max message stubs, optionally restricted
	// to messages carrying all of labelIDs.
	ListMessages(ctx context.Context, labelIDs []string, max int64) ([]*gmail.Message, error)
	// GetMessage fetches a message in full format.
	GetMessage(ctx context.Context, id string) (*gmail.Message, error)
	ListLabels(ctx context.Context) ([]*gmail.Label, error)
	CreateLabel(ctx context.Context, name string) (*gmail.Label, error)
	// AddLabels attaches labelIDs to a message.
	AddLabels(ctx context.Context, messageID string, labelIDs []string) error
}

// Client wraps the Gmail Users service.
type Client struct {
	svc     *gmail.UsersService
	metrics *instrumentation.Metrics
}

var _ Mailbox = (*Client)(nil)

// NewClient creates a Gmail client authorized by ts. metrics may be nil.
func NewClient(ctx context.Context, ts oauth2.TokenSource, metrics *instrumentation.Metrics) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{svc: svc.Users, metrics: metrics}, nil
}

// observe runs fn inside a Google API span and records its outcome.
func (c *Client) observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, operation)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, operation, status, time.Since(start))
	return err
}

// ListMessages lists message stubs, newest first.
func (c *Client) ListMessages(ctx context.Context, labelIDs []string, max int64) ([]*gmail.Message, error) {
	var msgs []*gmail.Message
	err := c.observe(ctx, instrumentation.OperationListMessages, func(ctx context.Context) error {
		call := c.svc.Messages.List(user).MaxResults(max).Context(ctx)
		if len(labelIDs) > 0 {
			call = call.LabelIds(labelIDs...)
		}
		res, err := call.Do()
		if err != nil {
			return err
		}
		msgs = res.Messages
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

// GetMessage fetches one message with headers and body.
func (c *Client) GetMessage(ctx context.Context, id string) (*gmail.Message, error) {
	var msg *gmail.Message
	err := c.observe(ctx, instrumentation.OperationGetMessage, func(ctx context.Context) error {
		var err error
		msg, err = c.svc.Messages.Get(user, id).Format("full").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return msg, nil
}

// ListLabels returns the account's label catalog.
func (c *Client) ListLabels(ctx context.Context) ([]*gmail.Label, error) {
	var labels []*gmail.Label
	err := c.observe(ctx, instrumentation.OperationListLabels, func(ctx context.Context) error {
		res, err := c.svc.Labels.List(user).Context(ctx).Do()
		if err != nil {
			return err
		}
		labels = res.Labels
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return labels, nil
}

// CreateLabel creates a user label.
func (c *Client) CreateLabel(ctx context.Context, name string) (*gmail.Label, error) {
	var label *gmail.Label
	err := c.observe(ctx, instrumentation.OperationCreateLabel, func(ctx context.Context) error {
		var err error
		label, err = c.svc.Labels.Create(user, &gmail.Label{Name: name}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create label %q: %w", name, err)
	}
	return label, nil
}

// AddLabels adds labels to a message.
func (c *Client) AddLabels(ctx context.Context, messageID string, labelIDs []string) error {
	err := c.observe(ctx, instrumentation.OperationModify, func(ctx context.Context) error {
		_, err := c.svc.Messages.Modify(user, messageID, &gmail.ModifyMessageRequest{
			AddLabelIds: labelIDs,
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to label message %s: %w", messageID, err)
	}
	return nil
}
