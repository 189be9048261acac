package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ChatCompletionAPI is the subset of the OpenAI client used here.
type ChatCompletionAPI interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIConfig configures an OpenAI completer.
type OpenAIConfig struct {
	APIKey   string
	Model    string
	Sampling Sampling

	// Client overrides the chat completions service, mainly for tests.
	Client ChatCompletionAPI
}

// OpenAI calls the chat completions API. TopK has no equivalent there and
// is not sent.
type OpenAI struct {
	client   ChatCompletionAPI
	model    string
	sampling Sampling
}

// NewOpenAI creates an OpenAI completer.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	client := cfg.Client
	if client == nil {
		c := openai.NewClient(option.WithAPIKey(cfg.APIKey))
		client = &c.Chat.Completions
	}
	return &OpenAI{client: client, model: cfg.Model, sampling: cfg.Sampling}
}

// Name implements Completer.
func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) params(system, user string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{OfString: openai.String(system)},
			}},
			{OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{OfString: openai.String(user)},
			}},
		},
		Temperature:         openai.Float(o.sampling.Temperature),
		TopP:                openai.Float(o.sampling.TopP),
		MaxCompletionTokens: openai.Int(int64(o.sampling.MaxTokens)),
	}
}

// Complete implements Completer.
func (o *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	completion, err := o.client.New(ctx, o.params(system, user))
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}
