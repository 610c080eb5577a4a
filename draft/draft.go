// Package draft generates step description proposals from the service's
// authoritative diagram, using a language model.
package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const instruction = "You are a technical writer for manual service documentation. " +
	"Write a short, factual description of the given work step in plain language. " +
	"Address the person executing the step. Do not invent details that are not " +
	"in the provided context. Answer with the description only."

// Generator produces prose from a system instruction and a prompt.
type Generator interface {
	Generate(ctx context.Context, instruction string, prompt string) (string, error)
}

// NewModelGenerator wraps a langchaingo model.
func NewModelGenerator(model llms.Model) (Generator, error) {
	if model == nil {
		return nil, errors.New("model is nil")
	}
	return &modelGenerator{model: model}, nil
}

// NewOpenAIGenerator creates a generator backed by an OpenAI compatible API.
func NewOpenAIGenerator(token string, model string) (Generator, error) {
	if token == "" {
		return nil, errors.New("token is empty")
	}

	opts := []openai.Option{openai.WithToken(token)}
	if model != "" {
		opts = append(opts, openai.WithModel(model))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %v", err)
	}

	return &modelGenerator{model: llm}, nil
}

type modelGenerator struct {
	model llms.Model
}

func (g *modelGenerator) Generate(ctx context.Context, instruction string, prompt string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(instruction)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	resp, err := g.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Content), nil
}
