// Package contract defines the structured output each agent task must return.
// A contract is sent to the generation engine as a JSON schema and used again
// to decode and validate whatever comes back.
package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrViolation is wrapped by every decode/validation failure.
var ErrViolation = errors.New("output contract violation")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Contract is the engine-facing half: a schema name plus JSON schema.
type Contract interface {
	Name() string
	Schema() map[string]any
}

// Spec binds a schema to the Go type results decode into.
type Spec[T any] struct {
	name     string
	schema   map[string]any
	compiled *jsonschema.Schema
}

// New compiles schema once. Contracts are package-level values, so a schema
// that does not compile panics at init.
func New[T any](name string, schema map[string]any) Spec[T] {
	compiled, err := compile(name, schema)
	if err != nil {
		panic(fmt.Sprintf("contract %s: %v", name, err))
	}
	return Spec[T]{name: name, schema: schema, compiled: compiled}
}

func compile(name string, schema map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft2020)
	loc := name + ".json"
	if err := c.AddResource(loc, doc); err != nil {
		return nil, err
	}
	return c.Compile(loc)
}

func (s Spec[T]) Name() string           { return s.name }
func (s Spec[T]) Schema() map[string]any { return s.schema }

// Decode parses raw model output. The schema decides shape: missing or extra
// fields, wrong JSON types, item counts and string lengths. The struct's
// validate tags only carry what the schema cannot say, such as non-empty
// array items and cross-field ordering. Every failure wraps ErrViolation and
// nothing is padded or trimmed.
func (s Spec[T]) Decode(raw []byte) (T, error) {
	var zero T

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return zero, fmt.Errorf("%w: %s: malformed json: %v", ErrViolation, s.name, err)
	}
	if err := s.compiled.Validate(inst); err != nil {
		return zero, fmt.Errorf("%w: %s: %v", ErrViolation, s.name, err)
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("%w: %s: %v", ErrViolation, s.name, err)
	}
	if err := validate.Struct(out); err != nil {
		return zero, fmt.Errorf("%w: %s: %s", ErrViolation, s.name, describe(err))
	}
	return out, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
