package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/teemow/inboxcook/internal/credentials"
	"github.com/teemow/inboxcook/internal/enrich"
	"github.com/teemow/inboxcook/internal/gmail"
	"github.com/teemow/inboxcook/internal/instrumentation"
	"github.com/teemow/inboxcook/internal/logging"
)

const (
	// MessageNoInboxMessages is returned after a code exchange when the
	// inbox is empty.
	MessageNoInboxMessages = "No messages found in the inbox."

	// MessageNoMessages is returned when the mailbox is empty.
	MessageNoMessages = "No messages found."

	contentTypeJSON = "application/json"

	// route labels request metrics. Both the Lambda and the HTTP entry
	// points serve a single route.
	route = "/"
)

// Request is one inbound invocation.
type Request struct {
	// Code is the OAuth authorization code, if the caller was just
	// redirected back from the consent screen.
	Code string

	// Cookies are the raw "name=value" cookie strings.
	Cookies []string

	// RequestID identifies the invocation in logs. One is generated when
	// empty.
	RequestID string

	Method string
	Path   string
}

// Response is the reply to an invocation.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// MailboxFactory builds a Mailbox authorized by ts.
type MailboxFactory func(ctx context.Context, ts oauth2.TokenSource) (gmail.Mailbox, error)

// Config holds the dependencies of a Handler.
type Config struct {
	Credentials *credentials.Manager
	NewMailbox  MailboxFactory
	Extractor   enrich.Extractor

	// MaxMessages caps how many messages one invocation fetches.
	MaxMessages int

	// CookedLabel marks messages that were already enriched.
	CookedLabel string

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Handler serves invocations. It is safe for concurrent use as long as its
// dependencies are.
type Handler struct {
	creds       *credentials.Manager
	newMailbox  MailboxFactory
	extractor   enrich.Extractor
	maxMessages int
	label       string
	metrics     *instrumentation.Metrics
	logger      *slog.Logger
}

// New creates a Handler.
func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		creds:       cfg.Credentials,
		newMailbox:  cfg.NewMailbox,
		extractor:   cfg.Extractor,
		maxMessages: cfg.MaxMessages,
		label:       cfg.CookedLabel,
		metrics:     cfg.Metrics,
		logger:      logger,
	}
}

// GmailMailbox is the MailboxFactory backed by the Gmail API.
func GmailMailbox(metrics *instrumentation.Metrics) MailboxFactory {
	return func(ctx context.Context, ts oauth2.TokenSource) (gmail.Mailbox, error) {
		return gmail.NewClient(ctx, ts, metrics)
	}
}

// Handle runs one invocation. Errors are returned unchanged so the hosting
// platform reports them as failures.
func (h *Handler) Handle(ctx context.Context, req Request) (*Response, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	ctx, span := instrumentation.StartRequestSpan(ctx, req.RequestID)
	defer span.End()

	logger := logging.WithRequestID(h.logger, req.RequestID)
	if traceID := instrumentation.GetTraceID(ctx); traceID != "" {
		logger = logger.With(logging.TraceID(traceID))
	}
	logger.Debug("handling request",
		"method", req.Method,
		"path", req.Path,
		"has_code", req.Code != "",
		"cookies", len(req.Cookies))

	start := time.Now()
	resp, err := h.handle(ctx, logger, req)

	status := http.StatusInternalServerError
	if err != nil {
		instrumentation.SetSpanError(span, err)
		logger.Error("request failed", logging.Err(err))
	} else {
		status = resp.StatusCode
		instrumentation.SetSpanSuccess(span)
	}
	h.metrics.RecordHTTPRequest(ctx, req.Method, route, status, time.Since(start))
	return resp, err
}

func (h *Handler) handle(ctx context.Context, logger *slog.Logger, req Request) (*Response, error) {
	res, err := h.creds.Resolve(ctx, req.Code, req.Cookies)
	if err != nil {
		return nil, err
	}
	if res.RedirectURL != "" {
		return &Response{
			StatusCode: http.StatusFound,
			Headers:    map[string]string{"Location": res.RedirectURL},
		}, nil
	}

	ts := h.creds.TokenSource(ctx, res.Credentials)
	mailbox, err := h.newMailbox(ctx, ts)
	if err != nil {
		return nil, err
	}

	batch, err := gmail.NewRetriever(mailbox, h.maxMessages, logger).Fetch(ctx, res.FromExchange)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	if len(batch.Messages) == 0 {
		msg := MessageNoMessages
		if res.FromExchange {
			msg = MessageNoInboxMessages
		}
		return h.respond(h.creds.Current(ts, res.Credentials), map[string]string{"message": msg})
	}

	coordinator := enrich.NewCoordinator(mailbox, h.extractor, h.label, h.metrics, logger)
	if err := coordinator.Enrich(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to enrich messages: %w", err)
	}

	logger.Info("request complete", logging.Count(len(batch.Messages)), "from_exchange", res.FromExchange)
	return h.respond(h.creds.Current(ts, res.Credentials), map[string][]*gmail.Message{"messages": batch.Messages})
}

// respond builds a 200 JSON response carrying the credentials cookie.
func (h *Handler) respond(creds *credentials.Credentials, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	cookie, err := h.creds.Cookie(creds)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type": contentTypeJSON,
			"Set-Cookie":   cookie,
		},
		Body: string(body),
	}, nil
}
