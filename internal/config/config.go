// Package config implements the immutable resource-bound record described in
// spec §4.3. Bounds are validated at construction time against a compiled
// JSON Schema, the same approach the teacher's core/types package uses for
// parameter schema validation: define the contract once, compile once,
// validate every construction against it instead of hand-rolled range
// checks scattered through the codebase.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/satlang/saturate/internal/status"
)

// Config is the immutable resource-bound record consumed by the lexer,
// parser and executor. Zero value is never valid; build one with New.
type Config struct {
	MaxOps         int  `json:"max_ops"`
	MaxStack       int  `json:"max_stack"`
	MaxSaturate    int  `json:"max_saturate"`
	MaxBindings    int  `json:"max_bindings"`
	MaxNesting     int  `json:"max_nesting"`
	MaxTokens      int  `json:"max_tokens"`
	MaxSourceBytes int  `json:"max_source_bytes"`
	TraceEnabled   bool `json:"trace_enabled"`

	// MaxSymbolLen bounds the byte length of any single symbol (literal
	// PUSH/BIND/RELEASE argument or GATE bound/unbound key). Go strings are
	// not intrinsically bounded, so spec §5's memory-accounting guarantee
	// requires this to be enforced explicitly.
	MaxSymbolLen int `json:"max_symbol_len"`
}

// Default returns the default bound table from spec §4.3.
func Default() *Config {
	return &Config{
		MaxOps:         100000,
		MaxStack:       256,
		MaxSaturate:    1000,
		MaxBindings:    1024,
		MaxNesting:     32,
		MaxTokens:      100000,
		MaxSourceBytes: 1048576,
		TraceEnabled:   false,
		MaxSymbolLen:   4096,
	}
}

const schemaURL = "https://satvm.invalid/schemas/config.json"

// schemaJSON encodes the bound table of spec §4.3 (plus the max_symbol_len
// extension of spec §5) as a JSON Schema, compiled once, on the first call
// to New.
const schemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"max_ops":          {"type": "integer", "minimum": 1, "maximum": 1000000},
		"max_stack":        {"type": "integer", "minimum": 1, "maximum": 4096},
		"max_saturate":     {"type": "integer", "minimum": 1, "maximum": 10000},
		"max_bindings":     {"type": "integer", "minimum": 1, "maximum": 8192},
		"max_nesting":      {"type": "integer", "minimum": 1, "maximum": 64},
		"max_tokens":       {"type": "integer", "minimum": 1, "maximum": 1000000},
		"max_source_bytes": {"type": "integer", "minimum": 1, "maximum": 16777216},
		"max_symbol_len":   {"type": "integer", "minimum": 1, "maximum": 1048576},
		"trace_enabled":    {"type": "boolean"}
	},
	"required": ["max_ops", "max_stack", "max_saturate", "max_bindings", "max_nesting", "max_tokens", "max_source_bytes", "max_symbol_len", "trace_enabled"]
}`

var (
	compileOnce   sync.Once
	compiledCheck *jsonschema.Schema
	compileErr    error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			compileErr = fmt.Errorf("config: compiling bound schema: %w", err)
			return
		}
		compiledCheck, compileErr = compiler.Compile(schemaURL)
	})
	return compiledCheck, compileErr
}

// Error reports a config that failed bound validation (spec status ERR_CONFIG).
type Error struct {
	Message string
}

func (e *Error) Error() string { return string(status.ErrConfig) + ": " + e.Message }

// Status is always status.ErrConfig; provided so callers can build a
// uniform result record without a type switch.
func (e *Error) Status() status.Status { return status.ErrConfig }

// New validates cfg against the bound table in spec §4.3 and returns a copy,
// or an *Error (ERR_CONFIG) describing the first violation.
func New(cfg Config) (*Config, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}

	// jsonschema validates against decoded-JSON shapes (map[string]interface{}),
	// not Go structs directly, so round-trip through encoding/json exactly as
	// the teacher's validator does for arbitrary parameter values.
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("marshaling config: %v", err)}
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &Error{Message: fmt.Sprintf("decoding config: %v", err)}
	}

	if err := schema.Validate(doc); err != nil {
		return nil, &Error{Message: err.Error()}
	}

	out := cfg
	return &out, nil
}
