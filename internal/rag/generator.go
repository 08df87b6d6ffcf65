package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// ErrEmptyAnswer indicates the model returned no usable text.
var ErrEmptyAnswer = errors.New("model returned empty answer")

// Generator produces answers through a Genkit model.
type Generator struct {
	g         *genkit.Genkit
	modelName string
}

// NewGenerator creates a Generator for the provider-qualified model name,
// e.g. "openai/gpt-4o-mini".
func NewGenerator(g *genkit.Genkit, modelName string) *Generator {
	return &Generator{g: g, modelName: modelName}
}

// Generate sends the composed system prompt and the user's question to the
// model and returns the answer text.
func (gn *Generator) Generate(ctx context.Context, systemPrompt, question string) (string, error) {
	resp, err := genkit.Generate(ctx, gn.g,
		ai.WithModelName(gn.modelName),
		ai.WithSystem(systemPrompt),
		ai.WithMessages(ai.NewUserTextMessage(question)),
	)
	if err != nil {
		return "", fmt.Errorf("generate with %s: %w", gn.modelName, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyAnswer
	}
	return text, nil
}
