package enrich_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/teemow/inboxcook/internal/actions"
	"github.com/teemow/inboxcook/internal/enrich"
	"github.com/teemow/inboxcook/internal/gmail"
	"github.com/teemow/inboxcook/internal/gmail/gmailtest"
	"github.com/teemow/inboxcook/internal/instrumentation"
)

type stubExtractor struct {
	items  []actions.ActionItem
	err    error
	bodies []string
}

func (s *stubExtractor) Extract(_ context.Context, body string) ([]actions.ActionItem, error) {
	s.bodies = append(s.bodies, body)
	return s.items, s.err
}

func fetch(t *testing.T, mb *gmailtest.Mailbox) *gmail.Batch {
	t.Helper()
	batch, err := gmail.NewRetriever(mb, 10, nil).Fetch(context.Background(), false)
	require.NoError(t, err)
	return batch
}

func TestEnrich_TagsUncookedMessages(t *testing.T) {
	mb := &gmailtest.Mailbox{
		Labels: []*gmailapi.Label{{Id: "INBOX", Name: "INBOX"}},
		Messages: []*gmailapi.Message{
			gmailtest.PlainMessage("m1", "s1", "a@example.com", "body one", "INBOX"),
			gmailtest.PlainMessage("m2", "s2", "b@example.com", "body two", "INBOX"),
		},
	}
	ex := &stubExtractor{items: []actions.ActionItem{{Action: "Do it"}}}
	batch := fetch(t, mb)

	err := enrich.NewCoordinator(mb, ex, "cooked", nil, nil).Enrich(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, []string{"body one", "body two"}, ex.bodies)
	for _, msg := range batch.Messages {
		require.NotNil(t, msg.ActionItems)
		assert.Equal(t, []actions.ActionItem{{Action: "Do it"}}, *msg.ActionItems)
		assert.Equal(t, []string{"INBOX", "cooked"}, msg.Labels)
	}

	assert.Equal(t, 1, mb.CallCount("create"), "label is created once per batch")
	assert.Equal(t, 2, mb.CallCount("modify"))
	assert.Equal(t, []string{"INBOX", "Label_1"}, mb.Messages[0].LabelIds)
	assert.Equal(t, []string{"INBOX", "Label_1"}, mb.Messages[1].LabelIds)
}

func TestEnrich_UsesExistingLabel(t *testing.T) {
	mb := &gmailtest.Mailbox{
		Labels:   []*gmailapi.Label{{Id: "Label_42", Name: "cooked"}},
		Messages: []*gmailapi.Message{gmailtest.PlainMessage("m1", "s", "f", "b")},
	}
	batch := fetch(t, mb)
	labelCalls := mb.CallCount("labels")

	err := enrich.NewCoordinator(mb, &stubExtractor{}, "cooked", nil, nil).Enrich(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, 0, mb.CallCount("create"))
	assert.Equal(t, labelCalls, mb.CallCount("labels"), "catalog from the batch is reused")
	assert.Equal(t, []string{"Label_42"}, mb.Messages[0].LabelIds)

	require.NotNil(t, batch.Messages[0].ActionItems)
	assert.Empty(t, *batch.Messages[0].ActionItems)
}

func TestEnrich_Idempotent(t *testing.T) {
	mb := &gmailtest.Mailbox{
		Labels: []*gmailapi.Label{{Id: "Label_9", Name: "cooked"}},
		Messages: []*gmailapi.Message{
			gmailtest.PlainMessage("m1", "s", "f", "already done", "INBOX", "Label_9"),
		},
	}
	ex := &stubExtractor{items: []actions.ActionItem{{Action: "x"}}}
	coord := enrich.NewCoordinator(mb, ex, "cooked", nil, nil)

	for i := 0; i < 2; i++ {
		batch := fetch(t, mb)
		require.NoError(t, coord.Enrich(context.Background(), batch))

		msg := batch.Messages[0]
		assert.Nil(t, msg.ActionItems)
		assert.Equal(t, []string{"INBOX", "cooked"}, msg.Labels)
	}

	assert.Empty(t, ex.bodies, "no extraction for cooked messages")
	assert.Equal(t, 0, mb.CallCount("modify"))
	assert.Equal(t, 0, mb.CallCount("create"))
}

func TestEnrich_SecondRunSkipsTaggedMessages(t *testing.T) {
	mb := &gmailtest.Mailbox{
		Messages: []*gmailapi.Message{gmailtest.PlainMessage("m1", "s", "f", "b", "INBOX")},
	}
	ex := &stubExtractor{}
	coord := enrich.NewCoordinator(mb, ex, "cooked", nil, nil)

	require.NoError(t, coord.Enrich(context.Background(), fetch(t, mb)))
	require.NoError(t, coord.Enrich(context.Background(), fetch(t, mb)))

	assert.Len(t, ex.bodies, 1)
	assert.Equal(t, 1, mb.CallCount("modify"))
}

func TestEnrich_TaggingFailureIsSwallowed(t *testing.T) {
	mb := &gmailtest.Mailbox{
		Messages: []*gmailapi.Message{
			gmailtest.PlainMessage("m1", "s", "f", "one"),
			gmailtest.PlainMessage("m2", "s", "f", "two"),
		},
		Errors: map[string]error{"create": errors.New("insufficient permissions")},
	}
	ex := &stubExtractor{items: []actions.ActionItem{{Action: "a"}}}
	batch := fetch(t, mb)
	labelCalls := mb.CallCount("labels")

	err := enrich.NewCoordinator(mb, ex, "cooked", nil, nil).Enrich(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, labelCalls+1, mb.CallCount("labels"), "labels are listed again once per batch")
	assert.Len(t, ex.bodies, 2)
	for _, msg := range batch.Messages {
		require.NotNil(t, msg.ActionItems)
		assert.Len(t, *msg.ActionItems, 1)
		assert.Contains(t, msg.Labels, "cooked")
	}
	assert.Equal(t, 2, mb.CallCount("create"), "failed lookup is retried per message")
	assert.Equal(t, 0, mb.CallCount("modify"))
}

func TestEnrich_CreateConflictUsesExistingLabel(t *testing.T) {
	mb := &gmailtest.Mailbox{
		Messages: []*gmailapi.Message{
			gmailtest.PlainMessage("m1", "s", "f", "one"),
			gmailtest.PlainMessage("m2", "s", "f", "two"),
		},
		Errors: map[string]error{"create": errors.New("googleapi: Error 409: Label name exists or conflicts")},
	}
	batch := fetch(t, mb)
	// Another invocation creates the label between fetch and tagging.
	mb.Labels = append(mb.Labels, &gmailapi.Label{Id: "Label_77", Name: "cooked"})

	err := enrich.NewCoordinator(mb, &stubExtractor{}, "cooked", nil, nil).Enrich(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, 1, mb.CallCount("create"))
	assert.Equal(t, 2, mb.CallCount("labels"), "one list from fetch, one after the conflict")
	assert.Equal(t, 2, mb.CallCount("modify"))
	assert.Equal(t, []string{"Label_77"}, mb.Messages[0].LabelIds)
	assert.Equal(t, []string{"Label_77"}, mb.Messages[1].LabelIds)
}

func TestEnrich_SpanPerMessage(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	mb := &gmailtest.Mailbox{
		Labels: []*gmailapi.Label{{Id: "Label_9", Name: "cooked"}},
		Messages: []*gmailapi.Message{
			gmailtest.PlainMessage("m1", "s", "f", "fresh"),
			gmailtest.PlainMessage("m2", "s", "f", "done", "Label_9"),
		},
	}
	err := enrich.NewCoordinator(mb, &stubExtractor{}, "cooked", nil, nil).Enrich(context.Background(), fetch(t, mb))
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	for i, want := range []struct {
		id      string
		skipped bool
	}{{"m1", false}, {"m2", true}} {
		assert.Equal(t, "enrich.message", spans[i].Name)
		assert.Contains(t, spans[i].Attributes, attribute.String(instrumentation.SpanAttrMessageID, want.id))
		if want.skipped {
			assert.Contains(t, spans[i].Attributes, attribute.Bool(instrumentation.SpanAttrSkipped, true))
		}
	}
}

func TestEnrich_ModifyFailureIsSwallowed(t *testing.T) {
	mb := &gmailtest.Mailbox{
		Messages: []*gmailapi.Message{
			gmailtest.PlainMessage("m1", "s", "f", "one"),
			gmailtest.PlainMessage("m2", "s", "f", "two"),
		},
		Errors: map[string]error{"modify": errors.New("backend error")},
	}
	batch := fetch(t, mb)

	err := enrich.NewCoordinator(mb, &stubExtractor{}, "cooked", nil, nil).Enrich(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, 1, mb.CallCount("create"))
	assert.Equal(t, 2, mb.CallCount("modify"))
}

func TestEnrich_ExtractionErrorAborts(t *testing.T) {
	boom := errors.New("model down")
	mb := &gmailtest.Mailbox{
		Messages: []*gmailapi.Message{gmailtest.PlainMessage("m1", "s", "f", "b")},
	}

	err := enrich.NewCoordinator(mb, &stubExtractor{err: boom}, "cooked", nil, nil).Enrich(context.Background(), fetch(t, mb))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, mb.CallCount("modify"))
}
