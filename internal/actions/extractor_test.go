package actions

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	reply  string
	err    error
	calls  int
	system string
	user   string
}

func (s *stubCompleter) Complete(_ context.Context, system, user string) (string, error) {
	s.calls++
	s.system = system
	s.user = user
	return s.reply, s.err
}

func (s *stubCompleter) Name() string { return "stub" }

func TestExtractor_Extract(t *testing.T) {
	stub := &stubCompleter{reply: `{"ActionItemList": [{"action": "Send the Q3 numbers"}, {"action": "Book the room"}]}`}
	ex := NewExtractor(stub, nil, nil)

	items, err := ex.Extract(context.Background(), "Hi, please send the Q3 numbers and book the room.")
	require.NoError(t, err)

	assert.Equal(t, []ActionItem{{Action: "Send the Q3 numbers"}, {Action: "Book the room"}}, items)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, SystemPrompt, stub.system)
	assert.Equal(t, "Hi, please send the Q3 numbers and book the room.", stub.user)
}

func TestExtractor_FailSoft(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ex := NewExtractor(&stubCompleter{reply: "Sure! Here are your action items: none."}, nil, logger)

	items, err := ex.Extract(context.Background(), "body")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	assert.Contains(t, buf.String(), "error parsing model response")
	assert.Contains(t, buf.String(), "Here are your action items")
}

func TestExtractor_CompleterErrorPropagates(t *testing.T) {
	boom := errors.New("model unavailable")
	ex := NewExtractor(&stubCompleter{err: boom}, nil, nil)

	_, err := ex.Extract(context.Background(), "body")
	assert.ErrorIs(t, err, boom)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    []ActionItem
		wantErr bool
	}{
		{
			name:  "plain json",
			reply: `{"ActionItemList": [{"action": "Reply to Dana"}]}`,
			want:  []ActionItem{{Action: "Reply to Dana"}},
		},
		{
			name:  "empty list",
			reply: `{"ActionItemList": []}`,
			want:  []ActionItem{},
		},
		{
			name:  "code fence",
			reply: "```json\n{\"ActionItemList\": [{\"action\": \"Sign the form\"}]}\n```",
			want:  []ActionItem{{Action: "Sign the form"}},
		},
		{
			name:  "surrounding prose",
			reply: "Here you go:\n{\"ActionItemList\": [{\"action\": \"Call back\"}]}\nLet me know!",
			want:  []ActionItem{{Action: "Call back"}},
		},
		{
			name:  "blank entries dropped",
			reply: `{"ActionItemList": [{"action": "  "}, {"action": " Pay invoice "}]}`,
			want:  []ActionItem{{Action: "Pay invoice"}},
		},
		{name: "not json", reply: "no action items", wantErr: true},
		{name: "empty", reply: "", wantErr: true},
		{name: "missing key", reply: `{"items": []}`, wantErr: true},
		{name: "wrong shape", reply: `{"ActionItemList": ["just a string"]}`, wantErr: true},
		{name: "truncated", reply: `{"ActionItemList": [{"action": "Send`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.reply)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
