package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Request is one structured generation: system instructions, the user input
// document and the output schema. Model overrides the engine default.
type Request struct {
	Instructions string
	Input        string
	Schema       Schema
	Model        string
}

// Engine resolves the configured provider per call and bounds each call with
// a timeout. It never retries.
type Engine struct {
	registry *Registry
	provider string
	model    string
	timeout  time.Duration
}

func NewEngine(registry *Registry, provider, model string, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &Engine{registry: registry, provider: provider, model: model, timeout: timeout}
}

func (e *Engine) Model() string { return e.model }

func (e *Engine) Generate(ctx context.Context, req Request) ([]byte, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = e.model
	}
	p, err := e.registry.Get(ctx, e.provider, model)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	out, err := p.GenerateJSON(cctx, []Message{
		{Role: "system", Content: req.Instructions},
		{Role: "user", Content: req.Input},
	}, req.Schema)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s timed out after %s", ErrGeneration, req.Schema.Name, e.timeout)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrGeneration, req.Schema.Name, err)
	}
	return out, nil
}
