// Package snapshot implements the structural-hash approach to SATURATE
// fixed-point detection permitted by spec §9 ("Snapshots for fixed-point")
// as an alternative to full deep-copy equality: a canonical, order-aware
// encoding of the stack and an order-insensitive encoding of bindings, each
// digested with a fast keyless hash.
//
// Grounded on the teacher's core/planfmt/canonical.go two-pass
// canonical-form-then-digest approach (there: CBOR + SHA-256 over a
// placeholder-substituted plan tree) and core/sdk/secret/idfactory.go's use
// of a BLAKE2 hash family for deterministic, collision-resistant digests.
package snapshot

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/satlang/saturate/internal/invariant"
)

var canonicalMode cbor.EncMode

func init() {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		// Options are a package-level literal; a failure here means the
		// cbor library's canonical preset itself is broken.
		panic(fmt.Sprintf("snapshot: building canonical cbor encoder: %v", err))
	}
	canonicalMode = mode
}

// Snapshot is a pair of digests standing in for a deep copy of the stack and
// bindings at one point in execution.
type Snapshot struct {
	StackDigest    [32]byte
	BindingsDigest [32]byte
}

// bindingPair is the canonical per-entry shape used to make the bindings
// digest independent of Go map iteration order (spec §3: bindings equality
// for snapshot purposes is a multiset of key->value pairs, never an ordered
// map).
type bindingPair struct {
	Key   string `cbor:"k"`
	Value string `cbor:"v"`
}

// Take computes a Snapshot for the given stack (order-significant) and
// bindings (order-insignificant) state.
func Take(stack []string, bindings map[string]string) Snapshot {
	stackCopy := append([]string(nil), stack...)
	stackBytes, err := canonicalMode.Marshal(stackCopy)
	invariant.Invariant(err == nil, "encoding stack snapshot: %v", err)

	pairs := make([]bindingPair, 0, len(bindings))
	for k, v := range bindings {
		pairs = append(pairs, bindingPair{Key: k, Value: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	bindingsBytes, err := canonicalMode.Marshal(pairs)
	invariant.Invariant(err == nil, "encoding bindings snapshot: %v", err)

	return Snapshot{
		StackDigest:    blake2b.Sum256(stackBytes),
		BindingsDigest: blake2b.Sum256(bindingsBytes),
	}
}

// Equal reports whether two snapshots represent the same stack+bindings
// state (spec §4.5 step (e): "pre == post").
func (s Snapshot) Equal(o Snapshot) bool {
	return s.StackDigest == o.StackDigest && s.BindingsDigest == o.BindingsDigest
}

