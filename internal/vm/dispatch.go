package vm

import (
	"github.com/satlang/saturate/internal/ast"
	"github.com/satlang/saturate/internal/invariant"
	"github.com/satlang/saturate/internal/result"
	"github.com/satlang/saturate/internal/snapshot"
	"github.com/satlang/saturate/internal/status"
)

// runOps executes ops in source order under phaseName, performing the guard
// checks of spec §4.4 before every dispatch. Each operator's own op_count
// bookkeeping happens inside dispatch, so that an operation which errors
// before completing its effect (stack/bindings overflow) is never counted as
// executed (spec §4.4 "Push(s)" note).
func (m *machine) runOps(phaseName string, ops []ast.Operation) (blockOutcome, error) {
	for _, op := range ops {
		if m.halted {
			return outcomeHalted, nil
		}
		if m.opCount >= m.cfg.MaxOps {
			return outcomeNormal, m.terminate(status.TermOpLimit, phaseName,
				"op_count reached max_ops=%d", m.cfg.MaxOps)
		}

		outcome, err := m.dispatch(phaseName, op)
		if err != nil {
			return outcomeNormal, err
		}
		switch outcome {
		case outcomeBreak:
			return outcomeBreak, nil
		case outcomeHalted:
			return outcomeHalted, nil
		}
	}
	return outcomeNormal, nil
}

// dispatch executes a single operation (spec §4.4 "Per-operator semantics").
func (m *machine) dispatch(phaseName string, op ast.Operation) (blockOutcome, error) {
	switch op.Kind {
	case ast.OpPush:
		if len(m.stack)+1 > m.cfg.MaxStack {
			return outcomeNormal, m.terminate(status.ErrStackOverflow, phaseName,
				"PUSH %q would grow the stack to %d, exceeding max_stack=%d", op.Symbol, len(m.stack)+1, m.cfg.MaxStack)
		}
		m.stack = append(m.stack, op.Symbol)
		m.opCount++
		return outcomeNormal, nil

	case ast.OpInvert:
		invertInPlace(m.stack)
		m.opCount++
		return outcomeNormal, nil

	case ast.OpBind:
		if _, exists := m.bindings[op.Key]; !exists && len(m.bindings)+1 > m.cfg.MaxBindings {
			return outcomeNormal, m.terminate(status.ErrBindingsOverflow, phaseName,
				"BIND %q would grow bindings to %d, exceeding max_bindings=%d", op.Key, len(m.bindings)+1, m.cfg.MaxBindings)
		}
		m.bindings[op.Key] = op.Value
		m.opCount++
		return outcomeNormal, nil

	case ast.OpRelease:
		delete(m.bindings, op.Key)
		m.opCount++
		return outcomeNormal, nil

	case ast.OpGate:
		m.opCount++
		if m.evalGate(op.Cond) {
			return outcomeNormal, nil
		}
		return outcomeBreak, nil

	case ast.OpSaturate:
		return m.runSaturate(phaseName, op)

	case ast.OpWitness:
		m.opCount++
		if m.cfg.TraceEnabled {
			m.trace = append(m.trace, result.Checkpoint{
				PhaseName: phaseName,
				OpCount:   m.opCount,
				Stack:     append([]string(nil), m.stack...),
				Bindings:  cloneBindings(m.bindings),
			})
		}
		return outcomeNormal, nil

	case ast.OpHalt:
		m.opCount++
		m.halted = true
		return outcomeHalted, nil

	default:
		invariant.Invariant(false, "unknown operation kind %v", op.Kind)
		return outcomeNormal, nil
	}
}

// runSaturate implements the fixed-point loop of spec §4.5. Each invocation
// gets a fresh local iteration counter; nested SATURATE loops are
// independent (spec §4.5 step 1).
func (m *machine) runSaturate(phaseName string, op ast.Operation) (blockOutcome, error) {
	i := 0
	for {
		pre := snapshot.Take(m.stack, m.bindings)

		outcome, err := m.runOps(phaseName, op.Body)
		if err != nil {
			return outcomeNormal, err
		}
		if outcome == outcomeHalted {
			return outcomeHalted, nil
		}
		if outcome == outcomeBreak {
			// spec §4.5 "GATE inside SATURATE": a false GATE halts the
			// current body pass AND the SATURATE containing it, successfully.
			return outcomeNormal, nil
		}

		post := snapshot.Take(m.stack, m.bindings)
		if pre.Equal(post) {
			// Fixed point (spec §4.5 step e).
			return outcomeNormal, nil
		}

		i++
		if i >= m.cfg.MaxSaturate {
			return outcomeNormal, m.terminate(status.TermCycleLimit, phaseName,
				"SATURATE did not reach a fixed point within max_saturate=%d iterations", m.cfg.MaxSaturate)
		}
	}
}

// evalGate evaluates a GATE condition (spec §4.6). Side-effect free.
func (m *machine) evalGate(cond ast.GateCond) bool {
	switch cond.Kind {
	case ast.GateDepthLt:
		return len(m.stack) < cond.N
	case ast.GateDepthGt:
		return len(m.stack) > cond.N
	case ast.GateDepthEq:
		return len(m.stack) == cond.N
	case ast.GateBound:
		_, ok := m.bindings[cond.Key]
		return ok
	case ast.GateUnbound:
		_, ok := m.bindings[cond.Key]
		return !ok
	default:
		invariant.Invariant(false, "unknown gate kind %v", cond.Kind)
		return false
	}
}

// invertInPlace reverses s in place (spec §4.4 "Invert"). A no-op on an
// empty or single-element stack.
func invertInPlace(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
