// Package result defines the structured result record (spec §6.4) that the
// finalizer in internal/vm fills from the terminal executor state, and its
// JSON and canonical CBOR encodings. Grounded on the teacher's
// core/planfmt writer/reader pair, which likewise turns an internal
// in-memory tree into a stable, serializable wire shape.
package result

import (
	"encoding/json"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/satlang/saturate/internal/status"
)

// Checkpoint is one WITNESS record (spec §4.7).
type Checkpoint struct {
	PhaseName string            `json:"phase_name" cbor:"phase_name"`
	OpCount   int               `json:"op_count" cbor:"op_count"`
	Stack     []string          `json:"stack" cbor:"stack"`
	Bindings  map[string]string `json:"bindings" cbor:"bindings"`
}

// Result is the structured result record of spec §6.4.
type Result struct {
	Status        status.Status     `json:"status" cbor:"status"`
	Message       string            `json:"message,omitempty" cbor:"message,omitempty"`
	PhaseName     string            `json:"phase_name,omitempty" cbor:"phase_name,omitempty"`
	OpCount       int               `json:"op_count" cbor:"op_count"`
	PhasesEntered int               `json:"phases_entered" cbor:"phases_entered"`
	FinalStack    []string          `json:"final_stack" cbor:"final_stack"`
	FinalBindings map[string]string `json:"final_bindings" cbor:"final_bindings"`
	Trace         []Checkpoint      `json:"trace,omitempty" cbor:"trace,omitempty"`
	Warnings      []string          `json:"warnings,omitempty" cbor:"warnings,omitempty"`
}

// JSON renders the result as JSON. encoding/json sorts map keys
// alphabetically, which keeps FinalBindings output deterministic across
// runs (spec §8 "Determinism") despite Go's randomized map iteration order.
func (r *Result) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

var canonicalMode cbor.EncMode

func init() {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic("result: building canonical cbor encoder: " + err.Error())
	}
	canonicalMode = mode
}

// CanonicalCBOR renders the result in canonical CBOR: a byte-for-byte
// deterministic encoding (map keys in canonical sort order) suitable for
// hashing or for bit-identical comparison across implementations, the same
// guarantee core/planfmt's canonical encoding gives the teacher's plan
// format.
func (r *Result) CanonicalCBOR() ([]byte, error) {
	return canonicalMode.Marshal(r)
}

// sortedKeys returns the keys of m in ascending order. Nothing in the
// package calls it at present.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
