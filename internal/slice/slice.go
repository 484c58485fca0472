// Package slice implements the per-(dex_family, account_type) byte
// projection contract (C2 in SPEC_FULL.md): a schema is an ordered list of
// half-open byte intervals copied out of a raw account blob into a single,
// fixed-length buffer, zero-padding any interval that runs past the input.
package slice

import "github.com/solroute-arb/arbengine/internal/types"

// Interval is a half-open byte range [Start, End) within a raw account blob.
type Interval struct {
	Start, End int
}

func (iv Interval) len() int { return iv.End - iv.Start }

// Schema is a fixed, ordered list of intervals plus their total length.
type Schema struct {
	Intervals []Interval
	TotalLen  int
}

// NewSchema builds a Schema from intervals, computing TotalLen.
func NewSchema(intervals ...Interval) Schema {
	total := 0
	for _, iv := range intervals {
		total += iv.len()
	}
	return Schema{Intervals: intervals, TotalLen: total}
}

// Kind distinguishes the subscribed (dynamic) vs unsubscribed (static)
// projection of an account type.
type Kind uint8

const (
	Dynamic Kind = iota
	Static
)

// Project copies s's intervals out of data into a freshly allocated buffer of
// exactly s.TotalLen bytes. Any interval whose End exceeds len(data) is
// zero-padded for the missing suffix. Deterministic, one allocation per call.
// Satisfies P1 (projection totality): the returned buffer always has length
// s.TotalLen regardless of the shape of data.
func Project(s Schema, data []byte) []byte {
	out := make([]byte, s.TotalLen)
	pos := 0
	for _, iv := range s.Intervals {
		n := iv.len()
		if iv.Start >= len(data) {
			pos += n
			continue
		}
		end := iv.End
		if end > len(data) {
			end = len(data)
		}
		copy(out[pos:pos+n], data[iv.Start:end])
		pos += n
	}
	return out
}

// Registry holds the fixed schemas keyed by (family, accountType, kind),
// populated once at bootstrap and read-only thereafter.
type Registry struct {
	schemas map[key]Schema
}

type key struct {
	family types.DexFamily
	atype  types.AccountType
	kind   Kind
}

// NewRegistry constructs an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[key]Schema)}
}

// Register installs the schema for (family, atype, kind). Bootstrap-only.
func (r *Registry) Register(family types.DexFamily, atype types.AccountType, kind Kind, s Schema) {
	r.schemas[key{family, atype, kind}] = s
}

// Lookup returns the schema for (family, atype, kind), if registered.
func (r *Registry) Lookup(family types.DexFamily, atype types.AccountType, kind Kind) (Schema, bool) {
	s, ok := r.schemas[key{family, atype, kind}]
	return s, ok
}

// ErrUnknownAccount is returned by ProjectAuto when no schema can be
// resolved for an incoming account (unregistered (family,type) or no
// relation-registry match). No fallback guessing.
var ErrUnknownAccount = errUnknownAccount{}

type errUnknownAccount struct{}

func (errUnknownAccount) Error() string { return "slice: unknown account" }

// Project resolves and applies the schema for (family, atype, kind) from the
// registry, returning ErrUnknownAccount if no schema is registered.
func (r *Registry) Project(family types.DexFamily, atype types.AccountType, kind Kind, data []byte) ([]byte, error) {
	s, ok := r.Lookup(family, atype, kind)
	if !ok {
		return nil, ErrUnknownAccount
	}
	return Project(s, data), nil
}
