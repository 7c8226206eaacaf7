package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultTemperature = 0.7
)

// TransportError marks a failure to reach the completion service, including
// timeouts. Callers with a deterministic branch treat it as a signal to fall
// back, never as a fatal fault.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model gateway: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Events receives one record per completed model call. Satisfied by
// observability.Logger; nil disables call logging.
type Events interface {
	LogLLM(model string, prompt any, response string)
}

// ModelGateway sends prompts to an OpenAI-compatible completion endpoint
// (OpenRouter in the default deployment). It is the engine's only network
// dependency.
type ModelGateway struct {
	Model     llms.Model
	ModelName string
	Timeout   time.Duration
	Events    Events
}

// New builds a gateway for the given provider credentials. BaseURL is
// optional and overrides the default OpenAI endpoint.
func New(apiKey, model, baseURL string, timeout time.Duration) (*ModelGateway, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &ModelGateway{
		Model:     llm,
		ModelName: model,
		Timeout:   timeout,
	}, nil
}

// Complete sends one prompt and returns the model's text. A transport
// failure is retried exactly once; the second failure is returned as a
// *TransportError.
func (g *ModelGateway) Complete(ctx context.Context, system, prompt string) (string, error) {
	reply, err := g.complete(ctx, system, prompt)
	if err != nil {
		if ctx.Err() != nil {
			// The caller's context is gone; retrying would just burn time.
			return "", err
		}
		reply, err = g.complete(ctx, system, prompt)
	}
	if err != nil {
		return "", err
	}
	if g.Events != nil {
		g.Events.LogLLM(g.ModelName, prompt, reply)
	}
	return reply, nil
}

func (g *ModelGateway) complete(ctx context.Context, system, prompt string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	var messages []llms.MessageContent
	if system != "" {
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		})
	}
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(prompt)},
	})

	resp, err := g.Model.GenerateContent(cctx, messages, llms.WithTemperature(defaultTemperature))
	if err != nil {
		return "", &TransportError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &TransportError{Err: errors.New("completion returned no choices")}
	}
	return resp.Choices[0].Content, nil
}
