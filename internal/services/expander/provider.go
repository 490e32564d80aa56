package expander

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/common"
	"google.golang.org/genai"
)

// Provider generates text for a prompt. Implementations are expected to
// return JSON when asked; parsing stays with the caller.
type Provider interface {
	GenerateText(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

// NewProvider creates the configured LLM provider. Claude is selected when
// llm.default_provider says so and a key is present; otherwise Gemini.
func NewProvider(cfg *common.Config, logger arbor.ILogger) (Provider, error) {
	switch cfg.LLM.DefaultProvider {
	case common.LLMProviderClaude:
		if cfg.Claude.APIKey == "" {
			return nil, fmt.Errorf("claude provider selected but no API key configured")
		}
		return newClaudeProvider(&cfg.Claude, logger), nil
	default:
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("gemini provider selected but no API key configured")
		}
		return newGeminiProvider(&cfg.Gemini, logger)
	}
}

type geminiProvider struct {
	config *common.GeminiConfig
	client *genai.Client
	logger arbor.ILogger
}

func newGeminiProvider(config *common.GeminiConfig, logger arbor.ILogger) (*geminiProvider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &geminiProvider{
		config: config,
		client: client,
		logger: logger,
	}, nil
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	temp := p.config.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(temp),
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"search_queries": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
			},
			Required: []string{"search_queries"},
		},
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(prompt)},
		},
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.config.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}
	return text, nil
}

type claudeProvider struct {
	config *common.ClaudeConfig
	client anthropic.Client
	logger arbor.ILogger
}

func newClaudeProvider(config *common.ClaudeConfig, logger arbor.ILogger) *claudeProvider {
	return &claudeProvider{
		config: config,
		client: anthropic.NewClient(option.WithAPIKey(config.APIKey)),
		logger: logger,
	}
}

func (p *claudeProvider) Name() string {
	return "claude"
}

func (p *claudeProvider) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: int64(p.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if p.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(p.config.Temperature))
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}
	return text.String(), nil
}
