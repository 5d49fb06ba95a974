package openai

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/botirk38/noteinsights/models"
	"github.com/botirk38/noteinsights/types"
)

const (
	DefaultOpenAIModel = string(openai.ChatModelGPT4o)

	// DefaultBaseURL is the API root; requests go to {base}chat/completions.
	DefaultBaseURL = "https://api.openai.com/v1/"
)

// OpenAIProvider uses OpenAI's chat completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// OpenAIConfig provides configuration options for the OpenAI provider
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	OrgID      string
	Model      string
	HTTPClient *http.Client
}

// NewOpenAIProvider creates a completion provider for OpenAI.
// If APIKey is empty, it uses os.Getenv("OPENAI_API_KEY").
func NewOpenAIProvider(config OpenAIConfig) (*OpenAIProvider, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, errors.New("OpenAI API key is required")
		}
	}

	model := config.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	// retries are owned by the executor
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.OrgID != "" {
		opts = append(opts, option.WithOrganization(config.OrgID))
	}

	if config.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(config.HTTPClient))
	}

	client := openai.NewClient(opts...)
	return &OpenAIProvider{client: &client, model: model}, nil
}

// Name returns "openai/<model>".
func (p *OpenAIProvider) Name() string {
	return string(types.ProviderOpenAI) + "/" + p.model
}

// Complete sends one chat completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, req types.CompletionRequest) (*types.Completion, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.GetMaxTokens()
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(p.model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return nil, p.classify(err)
	}

	completion := &types.Completion{
		Model: resp.Model,
		Usage: types.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
			Requests:     1,
		},
	}
	if len(resp.Choices) == 0 {
		return completion, types.NewTransientError(p.Name(), 0, errors.New("no choices returned by OpenAI"))
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return completion, types.NewFatalError(p.Name(), 0, errors.New("completion blocked by content filter"))
	}
	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		return completion, types.NewFatalError(p.Name(), 0, errors.New("model refused: "+refusal))
	}

	completion.Text = choice.Message.Content
	return completion, nil
}

func (p *OpenAIProvider) classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return types.ClassifyError(p.Name(), apiErr.StatusCode, err)
	}
	return types.ClassifyError(p.Name(), 0, err)
}

// GetMaxTokens returns the output token limit of the configured model.
func (p *OpenAIProvider) GetMaxTokens() int {
	cfg, _ := models.Lookup(types.ProviderOpenAI, p.model)
	return cfg.MaxTokens
}

func (p *OpenAIProvider) Close() {}
