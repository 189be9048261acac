package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/teemow/inboxcook/internal/logging"
)

// anthropicVersion is the messages API version Bedrock expects.
const anthropicVersion = "bedrock-2023-05-31"

// InvokeModelAPI is the subset of the Bedrock runtime client used here.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockConfig configures a Bedrock completer.
type BedrockConfig struct {
	ModelID  string
	Region   string
	Sampling Sampling
	Logger   *slog.Logger

	// Client overrides the runtime client, mainly for tests.
	Client InvokeModelAPI
}

// Bedrock calls Anthropic models hosted on Amazon Bedrock.
type Bedrock struct {
	client   InvokeModelAPI
	modelID  string
	sampling Sampling
}

// NewBedrock creates a Bedrock completer. Without an explicit Client the
// default AWS credential chain is used.
func NewBedrock(ctx context.Context, cfg BedrockConfig) (*Bedrock, error) {
	client := cfg.Client
	if client == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithLogger(logging.NewSlogAdapter(cfg.Logger)),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = bedrockruntime.NewFromConfig(awsCfg)
	}
	return &Bedrock{client: client, modelID: cfg.ModelID, sampling: cfg.Sampling}, nil
}

// Name implements Completer.
func (b *Bedrock) Name() string { return "bedrock" }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	System           string             `json:"system,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
	Temperature      float64            `json:"temperature"`
	TopP             float64            `json:"top_p"`
	TopK             int                `json:"top_k"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (b *Bedrock) requestBody(system, user string) ([]byte, error) {
	return json.Marshal(anthropicRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        b.sampling.MaxTokens,
		System:           system,
		Messages:         []anthropicMessage{{Role: "user", Content: user}},
		Temperature:      b.sampling.Temperature,
		TopP:             b.sampling.TopP,
		TopK:             b.sampling.TopK,
	})
}

// parseAnthropicResponse joins the text blocks of a messages response.
func parseAnthropicResponse(body []byte) (string, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse model response: %w", err)
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// Complete implements Completer.
func (b *Bedrock) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := b.requestBody(system, user)
	if err != nil {
		return "", fmt.Errorf("failed to build model request: %w", err)
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke model %s: %w", b.modelID, err)
	}
	return parseAnthropicResponse(out.Body)
}
