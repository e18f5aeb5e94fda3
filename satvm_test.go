package saturate_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	saturate "github.com/satlang/saturate"
)

// TestScenario1InversionAndBind is spec §8 scenario 1.
func TestScenario1InversionAndBind(t *testing.T) {
	src := `
BEGIN { PUSH "above" PUSH "below" WITNESS }
TRANSFORM { INVERT WITNESS }
RESOLVE { BIND "above" "below" HALT }
`
	r := saturate.Run([]byte(src), saturate.DefaultConfig())

	assert.Equal(t, saturate.Halted, r.Status)
	assert.Equal(t, 3, r.PhasesEntered)
	// Seven operations are dispatched: PUSH, PUSH, WITNESS, INVERT, WITNESS,
	// BIND, HALT. Every one increments op_count under the operational rule of
	// spec §4.4 ("After dispatch, op_count += 1"), including WITNESS and HALT
	// themselves (spec §9: "Witness when trace disabled" establishes WITNESS
	// as always counted; HALT's own guard check happens before its dispatch,
	// so it still counts itself). See DESIGN.md for why this differs from the
	// op_count=6 stated in spec §8 scenario 1's worked example.
	assert.Equal(t, 7, r.OpCount)
	if diff := cmp.Diff([]string{"below", "above"}, r.FinalStack); diff != "" {
		t.Errorf("final_stack mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, map[string]string{"above": "below"}, r.FinalBindings)
}

// TestScenario2SaturateWithGate is spec §8 scenario 2.
func TestScenario2SaturateWithGate(t *testing.T) {
	src := `LOOP { SATURATE { PUSH "x" GATE depth < 3 } }`

	r := saturate.Run([]byte(src), saturate.DefaultConfig())

	require.Equal(t, saturate.Complete, r.Status)
	assert.Equal(t, []string{"x", "x", "x"}, r.FinalStack)
}

// TestScenario3FixedPointInTwoIterations is spec §8 scenario 3.
func TestScenario3FixedPointInTwoIterations(t *testing.T) {
	src := `CONVERGE { SATURATE { GATE unbound "done" BIND "done" "yes" } }`

	r := saturate.Run([]byte(src), saturate.DefaultConfig())

	require.Equal(t, saturate.Complete, r.Status)
	assert.Equal(t, map[string]string{"done": "yes"}, r.FinalBindings)
	assert.Empty(t, r.FinalStack)
}

// TestScenario4CycleLimit is spec §8 scenario 4.
func TestScenario4CycleLimit(t *testing.T) {
	src := `EXPAND { SATURATE { PUSH "layer" } }`

	cfg, err := saturate.NewConfig(saturate.Config{
		MaxOps: 100000, MaxStack: 4096, MaxSaturate: 1000, MaxBindings: 1024,
		MaxNesting: 32, MaxTokens: 100000, MaxSourceBytes: 1048576, MaxSymbolLen: 4096,
	})
	require.NoError(t, err)

	r := saturate.Run([]byte(src), cfg)

	require.Equal(t, saturate.TermCycleLimit, r.Status)
	assert.Len(t, r.FinalStack, 1000)
}

// TestScenario5StackOverflowBeatsCycleLimit is spec §8 scenario 5.
func TestScenario5StackOverflowBeatsCycleLimit(t *testing.T) {
	src := `EXPAND { SATURATE { PUSH "layer" } }`

	r := saturate.Run([]byte(src), saturate.DefaultConfig())

	require.Equal(t, saturate.ErrStackOverflow, r.Status)
	assert.Len(t, r.FinalStack, 256)
}

// TestScenario6ParseTimeArityError is spec §8 scenario 6.
func TestScenario6ParseTimeArityError(t *testing.T) {
	src := `BROKEN { PUSH }`

	r := saturate.Run([]byte(src), saturate.DefaultConfig())

	require.Equal(t, saturate.ErrArity, r.Status)
	assert.Equal(t, 0, r.OpCount)
}

// TestCheckMatchesRunOnParseError verifies Check surfaces the same
// classification as Run without ever touching the executor (spec §6.2).
func TestCheckMatchesRunOnParseError(t *testing.T) {
	src := `BROKEN { PUSH }`

	_, err := saturate.Check([]byte(src), saturate.DefaultConfig())
	require.Error(t, err)

	se, ok := err.(*saturate.StructuralError)
	require.True(t, ok)
	assert.Equal(t, saturate.ErrArity, se.Status)
}

// TestCheckWarnsOnDuplicatePhaseNames exercises spec §9 "Duplicate phase
// names": both run in source order, and produce a warning rather than a
// parse error.
func TestCheckWarnsOnDuplicatePhaseNames(t *testing.T) {
	src := `
A { PUSH "one" }
A { PUSH "two" }
`
	warnings, err := saturate.Check([]byte(src), saturate.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, warnings, 1)

	r := saturate.Run([]byte(src), saturate.DefaultConfig())
	assert.Equal(t, saturate.Complete, r.Status)
	assert.Equal(t, 2, r.PhasesEntered)
	assert.Equal(t, []string{"one", "two"}, r.FinalStack)
}

// TestInvertIdempotence is the universal invariant of spec §8: two
// consecutive INVERT operations leave the stack unchanged.
func TestInvertIdempotence(t *testing.T) {
	src := `P { PUSH "a" PUSH "b" PUSH "c" INVERT INVERT }`

	r := saturate.Run([]byte(src), saturate.DefaultConfig())

	require.Equal(t, saturate.Complete, r.Status)
	assert.Equal(t, []string{"a", "b", "c"}, r.FinalStack)
}

// TestBindReleaseRoundTrip is the universal invariant of spec §8: BIND k v
// then RELEASE k leaves bindings equal to their pre-state for key k.
func TestBindReleaseRoundTrip(t *testing.T) {
	src := `P { BIND "x" "1" BIND "k" "v" RELEASE "k" }`

	r := saturate.Run([]byte(src), saturate.DefaultConfig())

	require.Equal(t, saturate.Complete, r.Status)
	assert.Equal(t, map[string]string{"x": "1"}, r.FinalBindings)
}

// TestGateOutsideSaturateEndsPhase resolves the spec §9 open question: a
// false GATE with no enclosing SATURATE ends its phase cleanly, not the
// whole program.
func TestGateOutsideSaturateEndsPhase(t *testing.T) {
	src := `
FIRST { PUSH "a" GATE depth > 5 PUSH "unreachable" }
SECOND { PUSH "b" }
`
	r := saturate.Run([]byte(src), saturate.DefaultConfig())

	require.Equal(t, saturate.Complete, r.Status)
	assert.Equal(t, []string{"a", "b"}, r.FinalStack)
	assert.Equal(t, 2, r.PhasesEntered)
}

// TestHaltSkipsSubsequentPhases verifies the sticky halted flag (spec §3
// "halted").
func TestHaltSkipsSubsequentPhases(t *testing.T) {
	src := `
ONE { PUSH "a" HALT }
TWO { PUSH "unreachable" }
`
	r := saturate.Run([]byte(src), saturate.DefaultConfig())

	require.Equal(t, saturate.Halted, r.Status)
	assert.Equal(t, []string{"a"}, r.FinalStack)
	assert.Equal(t, 1, r.PhasesEntered)
}

// TestWitnessCountedEvenWhenTraceDisabled verifies spec §9 "Witness when
// trace disabled": op_count is invariant under trace toggling.
func TestWitnessCountedEvenWhenTraceDisabled(t *testing.T) {
	src := `P { WITNESS WITNESS }`

	cfg := saturate.DefaultConfig()
	without := saturate.Run([]byte(src), cfg)

	traced := *cfg
	traced.TraceEnabled = true
	tracedCfg, err := saturate.NewConfig(traced)
	require.NoError(t, err)
	with := saturate.Run([]byte(src), tracedCfg)

	assert.Equal(t, without.OpCount, with.OpCount)
	assert.Empty(t, without.Trace)
	assert.Len(t, with.Trace, 2)
}

// TestDeterminismAcrossRuns is the spec §8 "Determinism" universal
// invariant: running the same source+config twice yields byte-identical
// canonical encodings.
func TestDeterminismAcrossRuns(t *testing.T) {
	src := `
LOOP { SATURATE { PUSH "x" GATE depth < 5 } }
MIX { INVERT BIND "seen" "yes" }
`
	cfg := saturate.DefaultConfig()

	first := saturate.Run([]byte(src), cfg)
	second := saturate.Run([]byte(src), cfg)

	firstBytes, err := first.CanonicalCBOR()
	require.NoError(t, err)
	secondBytes, err := second.CanonicalCBOR()
	require.NoError(t, err)

	assert.Equal(t, firstBytes, secondBytes)
}
