package ai

import (
	"context"
	"errors"
)

// ErrGeneration wraps every failure of the generation engine, timeouts included.
var ErrGeneration = errors.New("generation failed")

type Message struct {
	Role    string
	Content string
}

// Schema is a named JSON schema the provider must constrain its output to.
type Schema struct {
	Name       string
	Definition map[string]any
}

// Provider produces one JSON document matching schema. The returned bytes are
// the raw model output; callers validate them.
type Provider interface {
	GenerateJSON(ctx context.Context, messages []Message, schema Schema) ([]byte, error)
}
