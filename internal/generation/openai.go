package generation

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAIClient struct {
	client  openai.Client
	model   string
	size    string
	timeout timeoutFunc
	logger  *slog.Logger
}

type timeoutFunc func(context.Context) (context.Context, context.CancelFunc)

// NewOpenAI creates a generation client backed by the OpenAI Images API.
func NewOpenAI(cfg *Config, logger *slog.Logger) Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	timeout := cfg.TimeoutDuration()

	return &openAIClient{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		size:   cfg.Size,
		timeout: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return context.WithTimeout(ctx, timeout)
		},
		logger: logger.With("system", "generation"),
	}
}

// Generate runs a bounded-timeout image generation call. All provider
// errors, including timeouts, come back as failed Results.
func (c *openAIClient) Generate(ctx context.Context, req Request) Result {
	callCtx, cancel := c.timeout(ctx)
	defer cancel()

	resp, err := c.client.Images.Generate(callCtx, openai.ImageGenerateParams{
		Prompt:         composePrompt(req),
		Model:          openai.ImageModel(c.model),
		N:              openai.Int(1),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		Size:           openai.ImageGenerateParamsSize(c.size),
	})
	if err != nil {
		c.logger.Warn("generation call failed", "kind", req.Kind, "error", err)
		return Failure(err.Error())
	}

	if len(resp.Data) == 0 {
		return Failure("provider returned no images")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return Failure(fmt.Sprintf("decode image payload: %v", err))
	}

	return Result{
		Success:     true,
		Data:        data,
		ContentType: "image/png",
	}
}

// composePrompt prefixes the request prompt with a style directive per
// artwork kind and appends reference URLs as grounding context.
func composePrompt(req Request) string {
	prompt := req.Prompt

	switch req.Kind {
	case KindCharacterSketch, KindPageSketch:
		prompt = "Pencil sketch, monochrome line art. " + prompt
	case KindPortrait:
		prompt = "Full color character portrait, consistent storybook style. " + prompt
	case KindIllustration:
		prompt = "Full color storybook page illustration. " + prompt
	}

	for _, ref := range req.ReferenceURLs {
		prompt += "\nReference: " + ref
	}

	return prompt
}
