// Package iface implements the PIT interface grammar: parsing, canonical
// serialization, and the SHA3-256 digest that is an interface's sole
// cross-language identity (spec §4.1). An [Interface] is an ordered
// mapping from method name to [Signature] plus an ordered list of
// [Attr] annotations (spec §3, "Interface").
package iface

import (
	"fmt"
	"sort"

	"github.com/portal-pit/pit/internal/ordered"
)

// ResourceKind selects which of the three resource-type forms (§3
// "Argument kind") an [ArgKind]'s resource slot names.
type ResourceKind uint8

const (
	// ResourceNone is the grammar's ε alternative: a resource with no
	// declared type.
	ResourceNone ResourceKind = iota
	// ResourceThis names the interface's own receiver type (the `this`
	// literal).
	ResourceThis
	// ResourceDigest names another interface by its 32-byte digest.
	ResourceDigest
)

// Digest is the 32-byte SHA3-256 canonical digest of an [Interface]'s
// serialized form (spec §3, "interface digest").
type Digest [32]byte

// String renders a Digest as lowercase hex, the form used in `pit/<digest>`
// and `tpit/<digest>` import/export namespaces (spec §6).
func (d Digest) String() string {
	const hextab = "0123456789abcdef"
	buf := make([]byte, 64)
	for i, b := range d {
		buf[i*2] = hextab[b>>4]
		buf[i*2+1] = hextab[b&0xf]
	}
	return string(buf)
}

// Less orders digests lexicographically on their byte representation,
// giving every pass over a set of interfaces ("sorted by digest", §4.2) a
// single stable order.
func (d Digest) Less(o Digest) bool {
	for i := range d {
		if d[i] != o[i] {
			return d[i] < o[i]
		}
	}
	return false
}

// Attr is one name/value annotation pair. Value is the grammar's `balanced`
// production: any string with balanced `[`/`]`.
type Attr struct {
	Name  string
	Value string
}

// Attrs is an annotation list, always stored sorted by Name with duplicate
// names merged last-wins (spec §4.1: "duplicate names are merged by
// last-wins; the serialized form always emits attributes sorted by name").
// Backed by [ordered.Map] so that construction order, lookup, and in-order
// traversal all go through the one container the spec's "ordered mapping"
// data-model wording (§3) calls for; the zero value is ready to use.
type Attrs struct {
	m ordered.Map[string, string]
}

// Get returns the value of the annotation named name, and ok=false if absent.
func (a Attrs) Get(name string) (string, bool) {
	return a.m.GetOK(name)
}

// Len returns the number of annotations.
func (a Attrs) Len() int {
	return a.m.Len()
}

// Pairs returns the annotations as a sorted-by-name slice, for callers that
// want to range over them (serialization, tests).
func (a Attrs) Pairs() []Attr {
	out := make([]Attr, 0, a.m.Len())
	a.m.All()(func(name, value string) bool {
		out = append(out, Attr{Name: name, Value: value})
		return true
	})
	return out
}

// NewAttrs builds an Attrs from possibly-unsorted, possibly-duplicated
// pairs, merging duplicates last-wins and sorting by name.
func NewAttrs(pairs []Attr) Attrs {
	if len(pairs) == 0 {
		return Attrs{}
	}
	byName := make(map[string]string, len(pairs))
	for _, p := range pairs {
		byName[p.Name] = p.Value // last-wins
	}
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sortStrings(names)
	var out Attrs
	for _, n := range names {
		out.m.Set(n, byName[n])
	}
	return out
}

// ArgClass identifies which of the grammar's `arg` alternatives an ArgKind is.
type ArgClass uint8

const (
	ArgI32 ArgClass = iota
	ArgI64
	ArgF32
	ArgF64
	ArgResource
)

func (c ArgClass) String() string {
	switch c {
	case ArgI32:
		return "I32"
	case ArgI64:
		return "I64"
	case ArgF32:
		return "F32"
	case ArgF64:
		return "F64"
	case ArgResource:
		return "R"
	default:
		return fmt.Sprintf("argclass(%d)", uint8(c))
	}
}

// ResourceType names what kind of resource an ArgKind's resource slot
// refers to: none, `this`, or a specific interface digest (spec §3,
// "resource-type").
type ResourceType struct {
	Kind   ResourceKind
	Digest Digest // valid iff Kind == ResourceDigest
}

// ArgKind is one parameter or result slot: one of the four numeric kinds,
// or a resource with its four attributes (spec §3, "Argument kind").
type ArgKind struct {
	Class ArgClass

	// The following apply only when Class == ArgResource.
	Resource    ResourceType
	Nullable    bool
	Take        bool // true: ownership transfers. false: borrow.
	Annotations Attrs
}

// I32Arg, I64Arg, F32Arg, F64Arg construct numeric ArgKinds.
func I32Arg() ArgKind { return ArgKind{Class: ArgI32} }
func I64Arg() ArgKind { return ArgKind{Class: ArgI64} }
func F32Arg() ArgKind { return ArgKind{Class: ArgF32} }
func F64Arg() ArgKind { return ArgKind{Class: ArgF64} }

// ResourceArg constructs a resource ArgKind.
func ResourceArg(ty ResourceType, nullable, take bool, annotations Attrs) ArgKind {
	return ArgKind{Class: ArgResource, Resource: ty, Nullable: nullable, Take: take, Annotations: annotations}
}

// Signature is a method's shape: annotations plus ordered parameter and
// result ArgKind sequences (spec §3, "Signature").
type Signature struct {
	Annotations Attrs
	Params      []ArgKind
	Results     []ArgKind
}

// Interface is an ordered mapping from method name to Signature, plus
// top-level annotations (spec §3, "Interface"). Methods is backed by
// [ordered.Map], giving construction-order traversal and name lookup over
// the same container; canonical order (ascending by name) is still imposed
// at serialization time, which is also what the digest is computed over, so
// two Interface values with the same (Annotations, Methods) content always
// digest equal regardless of construction order.
type Interface struct {
	Annotations Attrs
	Methods     ordered.Map[string, Signature]
}

// MethodNames returns the interface's method names in ascending order,
// the canonical enumeration order spec §4.1 fixes for serialization.
func (i Interface) MethodNames() []string {
	names := i.Methods.Keys()
	sortStrings(names)
	return names
}

func sortStrings(s []string) {
	sort.Strings(s)
}
