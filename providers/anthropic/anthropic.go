package anthropic

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/botirk38/noteinsights/models"
	"github.com/botirk38/noteinsights/types"
)

const (
	DefaultAnthropicModel = "claude-3-5-sonnet-latest"

	// DefaultBaseURL is the API root; requests go to {base}v1/messages.
	DefaultBaseURL = "https://api.anthropic.com/"
)

// AnthropicProvider uses Anthropic's messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// AnthropicConfig provides configuration options for the Anthropic provider
type AnthropicConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// NewAnthropicProvider creates a completion provider for Anthropic.
// If APIKey is empty, it uses os.Getenv("ANTHROPIC_API_KEY").
func NewAnthropicProvider(config AnthropicConfig) (*AnthropicProvider, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, errors.New("Anthropic API key is required")
		}
	}

	model := config.Model
	if model == "" {
		model = DefaultAnthropicModel
	}

	// the SDK sets the x-api-key and anthropic-version headers itself
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(config.HTTPClient))
	}

	client := anthropic.NewClient(opts...)
	return &AnthropicProvider{client: &client, model: model}, nil
}

// Client exposes the SDK client, e.g. for token counting.
func (p *AnthropicProvider) Client() *anthropic.Client {
	return p.client
}

// Name returns "anthropic/<model>".
func (p *AnthropicProvider) Name() string {
	return string(types.ProviderAnthropic) + "/" + p.model
}

// Complete sends one message request.
func (p *AnthropicProvider) Complete(ctx context.Context, req types.CompletionRequest) (*types.Completion, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.GetMaxTokens()
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if strings.TrimSpace(req.System) != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, p.classify(err)
	}

	completion := &types.Completion{
		Model: string(msg.Model),
		Usage: types.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
			Requests:     1,
		},
	}
	if string(msg.StopReason) == "refusal" {
		return completion, types.NewFatalError(p.Name(), 0, errors.New("model refused the request"))
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return completion, types.NewTransientError(p.Name(), 0, errors.New("no text returned by Anthropic"))
	}

	completion.Text = b.String()
	return completion, nil
}

func (p *AnthropicProvider) classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return types.ClassifyError(p.Name(), apiErr.StatusCode, err)
	}
	return types.ClassifyError(p.Name(), 0, err)
}

// GetMaxTokens returns the output token limit of the configured model.
func (p *AnthropicProvider) GetMaxTokens() int {
	cfg, _ := models.Lookup(types.ProviderAnthropic, p.model)
	return cfg.MaxTokens
}

func (p *AnthropicProvider) Close() {}
