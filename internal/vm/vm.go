// Package vm implements the executor and finalizer of spec §4.4-§4.8: AST ->
// terminal state -> result record. Grounded on the teacher's
// runtime/executor/executor.go (a small state-holding struct driving a
// sequential dispatch loop, guard checks threaded through every step) and
// runtime/executor/context.go (execution state owned exclusively by one
// run, never shared).
//
// The control-flow signal spec §9 suggests raising as an internal exception
// is instead threaded explicitly as a plain result-variant (blockOutcome),
// per the same design note's recommendation for a systems language.
package vm

import (
	"fmt"

	"github.com/satlang/saturate/internal/ast"
	"github.com/satlang/saturate/internal/config"
	"github.com/satlang/saturate/internal/invariant"
	"github.com/satlang/saturate/internal/result"
	"github.com/satlang/saturate/internal/status"
)

// blockOutcome is the control-flow signal produced by running a sequence of
// operations (spec §9: "a plain result-variant... threaded explicitly").
type blockOutcome int

const (
	// outcomeNormal: the block ran to completion (or, for a SATURATE
	// operation, converged/was broken successfully).
	outcomeNormal blockOutcome = iota
	// outcomeBreak: a GATE evaluated false, unwinding the current block
	// (spec §4.4 "Gate"). Consumed by the enclosing SATURATE iteration or,
	// absent one, by the enclosing phase.
	outcomeBreak
	// outcomeHalted: HALT was executed; propagates all the way to Run.
	outcomeHalted
)

// termination is a resource-guard or fixed-point-exhaustion error (spec §7
// "Runtime resource" errors plus TERM_CYCLE_LIMIT/TERM_OP_LIMIT). It always
// aborts the run; there is no local recovery (spec §7 "Propagation policy").
type termination struct {
	status    status.Status
	message   string
	phaseName string
}

func (t *termination) Error() string {
	return fmt.Sprintf("%s: %s", t.status, t.message)
}

// machine owns the mutable state of one VM invocation (spec §3 "Lifetimes":
// stack and bindings are created empty by the executor entry and consumed by
// the finalizer; no entity outlives a single invocation).
type machine struct {
	cfg *config.Config

	stack    []string
	bindings map[string]string

	opCount       int
	phasesEntered int
	halted        bool

	trace []result.Checkpoint
}

// Run drives prog to a terminal state under cfg and returns the finalized
// result record (spec §2 steps 4-5: Executor then Finalizer). Run never
// returns an error: every outcome, including every error taxonomy member of
// spec §7, is represented in the returned Result (spec §4.8 "The finalizer
// is total").
func Run(prog *ast.Program, cfg *config.Config) *result.Result {
	invariant.Precondition(prog != nil, "program must not be nil")
	invariant.Precondition(cfg != nil, "config must not be nil")

	m := &machine{cfg: cfg, bindings: make(map[string]string)}

	var term *termination

phaseLoop:
	for _, phase := range prog.Phases {
		m.phasesEntered++
		outcome, err := m.runOps(phase.Name, phase.Body)
		if err != nil {
			var ok bool
			term, ok = err.(*termination)
			invariant.Invariant(ok, "runOps returned a non-termination error: %v", err)
			break phaseLoop
		}
		if outcome == outcomeHalted {
			break phaseLoop
		}
		// outcomeNormal or outcomeBreak (a top-level GATE ended the phase,
		// spec §4.4 "or -- if there is no enclosing SATURATE -- by the
		// enclosing phase"): proceed to the next phase in source order.
	}

	return m.finalize(term, prog.Warnings)
}

// finalize classifies the terminal state into a Status (spec §4.8) and
// serializes it into a Result. Always produces a Result, even mid-abort.
func (m *machine) finalize(term *termination, warnings []string) *result.Result {
	r := &result.Result{
		OpCount:       m.opCount,
		PhasesEntered: m.phasesEntered,
		FinalStack:    append([]string(nil), m.stack...),
		FinalBindings: cloneBindings(m.bindings),
		Warnings:      warnings,
	}
	if m.cfg.TraceEnabled {
		r.Trace = m.trace
	}

	switch {
	case term != nil:
		r.Status = term.status
		r.Message = term.message
		r.PhaseName = term.phaseName
	case m.halted:
		r.Status = status.Halted
	default:
		r.Status = status.Complete
	}

	invariant.Postcondition(len(r.FinalStack) <= m.cfg.MaxStack, "final stack exceeds max_stack")
	invariant.Postcondition(len(r.FinalBindings) <= m.cfg.MaxBindings, "final bindings exceed max_bindings")
	invariant.Postcondition(r.OpCount <= m.cfg.MaxOps, "op_count exceeds max_ops")

	return r
}

func (m *machine) terminate(st status.Status, phaseName, format string, args ...interface{}) error {
	return &termination{status: st, phaseName: phaseName, message: fmt.Sprintf(format, args...)}
}

func cloneBindings(b map[string]string) map[string]string {
	out := make(map[string]string, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
