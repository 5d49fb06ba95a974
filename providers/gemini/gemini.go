package gemini

import (
	"context"
	"errors"
	"net/http"
	"os"

	"google.golang.org/genai"

	"github.com/botirk38/noteinsights/models"
	"github.com/botirk38/noteinsights/types"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider uses the Gemini API through the genai SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// GeminiConfig provides configuration options for the Gemini provider
type GeminiConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// NewGeminiProvider creates a completion provider for Gemini.
// If APIKey is empty, it uses os.Getenv("GEMINI_API_KEY").
func NewGeminiProvider(ctx context.Context, config GeminiConfig) (*GeminiProvider, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, errors.New("Gemini API key is required")
		}
	}

	model := config.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: config.HTTPClient,
	}
	if config.BaseURL != "" {
		cc.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// Client exposes the SDK client, e.g. for token counting.
func (p *GeminiProvider) Client() *genai.Client {
	return p.client
}

// Name returns "gemini/<model>".
func (p *GeminiProvider) Name() string {
	return string(types.ProviderGemini) + "/" + p.model
}

// Complete sends one generateContent request.
func (p *GeminiProvider) Complete(ctx context.Context, req types.CompletionRequest) (*types.Completion, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.GetMaxTokens()
	}

	config := &genai.GenerateContentConfig{MaxOutputTokens: int32(maxTokens)}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, p.classify(err)
	}

	completion := &types.Completion{Model: p.model}
	if resp.UsageMetadata != nil {
		completion.Usage = types.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	completion.Usage.Requests = 1

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return completion, types.NewFatalError(p.Name(), 0, errors.New("prompt blocked: "+string(resp.PromptFeedback.BlockReason)))
	}

	completion.Text = resp.Text()
	if completion.Text == "" {
		return completion, types.NewTransientError(p.Name(), 0, errors.New("no text returned by Gemini"))
	}
	return completion, nil
}

func (p *GeminiProvider) classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return types.ClassifyError(p.Name(), apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return types.ClassifyError(p.Name(), apiErrPtr.Code, err)
	}
	return types.ClassifyError(p.Name(), 0, err)
}

// GetMaxTokens returns the output token limit of the configured model.
func (p *GeminiProvider) GetMaxTokens() int {
	cfg, _ := models.Lookup(types.ProviderGemini, p.model)
	return cfg.MaxTokens
}

func (p *GeminiProvider) Close() {}
