package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/inboxcook/internal/instrumentation"
	"github.com/teemow/inboxcook/internal/logging"
)

// SystemPrompt asks for the action items as a fixed JSON shape.
const SystemPrompt = `Given the email message, produce a list of action items. Return only the JSON in the following format:

{"ActionItemList": 
[{"action": "Action item text"}, 
{"action": "Action item text"}
]
}`

// ActionItem is one thing the recipient should do.
type ActionItem struct {
	Action string `json:"action"`
}

// actionItemList is the object the model is asked to return.
type actionItemList struct {
	ActionItemList []ActionItem `json:"ActionItemList"`
}

// Completer is the model call the extractor depends on.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
}

// Extractor turns email bodies into action items.
type Extractor struct {
	completer Completer
	metrics   *instrumentation.Metrics
	logger    *slog.Logger
}

// NewExtractor creates an Extractor. metrics and logger may be nil.
func NewExtractor(completer Completer, metrics *instrumentation.Metrics, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		completer: completer,
		metrics:   metrics,
		logger:    logging.WithOperation(logger, "actions.extract").With(logging.Provider(completer.Name())),
	}
}

// Extract returns the action items in body. An unparseable reply yields
// an empty, non-nil list.
func (e *Extractor) Extract(ctx context.Context, body string) ([]ActionItem, error) {
	provider := e.completer.Name()
	ctx, span := instrumentation.StartLLMSpan(ctx, provider)
	defer span.End()

	start := time.Now()
	reply, err := e.completer.Complete(ctx, SystemPrompt, body)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		e.metrics.RecordExtraction(ctx, provider, instrumentation.ExtractionResultError, 0, time.Since(start))
		return nil, fmt.Errorf("failed to extract action items: %w", err)
	}

	items, err := Parse(reply)
	if err != nil {
		e.logger.Warn("error parsing model response",
			logging.Err(err),
			"response", logging.Truncate(reply))
		e.metrics.RecordExtraction(ctx, provider, instrumentation.ExtractionResultInvalid, 0, time.Since(start))
		return []ActionItem{}, nil
	}

	e.metrics.RecordExtraction(ctx, provider, instrumentation.ExtractionResultParsed, len(items), time.Since(start))
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrActionItems, len(items)))
	instrumentation.SetSpanSuccess(span)
	return items, nil
}

// Parse reads the model reply. Markdown code fences and prose around the
// outermost JSON object are tolerated. Entries without text are dropped.
func Parse(reply string) ([]ActionItem, error) {
	raw := extractJSONObject(reply)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var list actionItemList
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("invalid JSON in response: %w", err)
	}
	if list.ActionItemList == nil {
		return nil, fmt.Errorf("response has no ActionItemList")
	}

	items := make([]ActionItem, 0, len(list.ActionItemList))
	for _, item := range list.ActionItemList {
		item.Action = strings.TrimSpace(item.Action)
		if item.Action != "" {
			items = append(items, item)
		}
	}
	return items, nil
}

// extractJSONObject returns the span from the first '{' to the last '}',
// after stripping a surrounding code fence.
func extractJSONObject(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
