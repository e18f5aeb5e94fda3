// Package saturate implements a deterministic, sandboxed virtual machine for
// small stack-oriented state-transition programs (spec §1). It exposes the
// two external entry points of spec §6.2: Check (lexer + parser only) and
// Run (the full lexer -> parser -> executor -> finalizer pipeline).
//
// The package itself is a thin facade: all real work happens in the
// internal/ subpackages, grounded throughout on the teacher repository's
// pipeline split (lexer -> parser -> planner -> executor).
package saturate

import (
	"fmt"

	"github.com/satlang/saturate/internal/ast"
	"github.com/satlang/saturate/internal/config"
	"github.com/satlang/saturate/internal/lexer"
	"github.com/satlang/saturate/internal/parser"
	"github.com/satlang/saturate/internal/result"
	"github.com/satlang/saturate/internal/status"
	"github.com/satlang/saturate/internal/vm"
)

// Config is the immutable resource-bound record of spec §4.3.
type Config = config.Config

// Result is the structured result record of spec §6.4.
type Result = result.Result

// Checkpoint is one WITNESS trace record (spec §4.7).
type Checkpoint = result.Checkpoint

// Status is one of the exit status codes of spec §6.3.
type Status = status.Status

// The exit status vocabulary of spec §6.3.
const (
	Complete            = status.Complete
	Halted              = status.Halted
	TermOpLimit         = status.TermOpLimit
	TermCycleLimit      = status.TermCycleLimit
	ErrStackOverflow    = status.ErrStackOverflow
	ErrBindingsOverflow = status.ErrBindingsOverflow
	ErrParse            = status.ErrParse
	ErrArity            = status.ErrArity
	ErrCondition        = status.ErrCondition
	ErrInvalidOp        = status.ErrInvalidOp
	ErrNestingTooDeep   = status.ErrNestingTooDeep
	ErrConfig           = status.ErrConfig
)

// DefaultConfig returns the default bound table of spec §4.3.
func DefaultConfig() *Config {
	return config.Default()
}

// NewConfig validates cfg against the bound table of spec §4.3, returning an
// error (status ErrConfig) describing the first violation if any.
func NewConfig(cfg Config) (*Config, error) {
	return config.New(cfg)
}

// StructuralError is returned by Check for every parse-time failure of spec
// §7 ("Structural (parse-time)" errors): ERR_PARSE, ERR_ARITY, ERR_CONDITION,
// ERR_INVALID_OP, ERR_NESTING_TOO_DEEP.
type StructuralError struct {
	Status    Status
	Message   string
	PhaseName string
}

func (e *StructuralError) Error() string {
	if e.PhaseName != "" {
		return fmt.Sprintf("%s in phase %q: %s", e.Status, e.PhaseName, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

// Check runs the lexer and parser only (spec §6.2 `check`), validating that
// source parses into a well-formed program under cfg without executing it.
// On success it returns any non-fatal parser warnings (spec §9: duplicate
// phase names warn rather than error).
func Check(source []byte, cfg *Config) (warnings []string, err error) {
	prog, err := parse(source, cfg)
	if err != nil {
		return nil, err
	}
	return prog.Warnings, nil
}

// Run executes source under cfg through the full pipeline (spec §6.2 `run`)
// and always returns a Result: parse-time failures are reported as a Result
// whose Status is the corresponding structural error, exactly as a runtime
// termination would be (spec §4.8 "The finalizer is total").
func Run(source []byte, cfg *Config) *Result {
	prog, err := parse(source, cfg)
	if err != nil {
		se := err.(*StructuralError)
		return &Result{Status: se.Status, Message: se.Message, PhaseName: se.PhaseName}
	}
	return vm.Run(prog, cfg)
}

func parse(source []byte, cfg *Config) (*ast.Program, error) {
	tokens, err := lexer.Lex(source, cfg)
	if err != nil {
		le := err.(*lexer.Error)
		return nil, &StructuralError{Status: status.ErrParse, Message: le.Error()}
	}

	prog, err := parser.Parse(tokens, cfg, string(source))
	if err != nil {
		pe := err.(*parser.Error)
		return nil, &StructuralError{Status: pe.Status, Message: pe.Message, PhaseName: pe.PhaseName}
	}

	return prog, nil
}
