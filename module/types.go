// Package module is the in-memory WebAssembly module representation the
// rewriter passes transform in place: signatures, functions, tables,
// memories, globals, imports, exports, and custom sections, with function
// bodies expressed as typed SSA values over structured blocks and explicit
// terminators (spec §3 DATA MODEL, "Module").
//
// This is deliberately not a binary-format codec: parsing and encoding an
// actual .wasm file is the surface CLI's concern (spec §1, out of scope).
// Module is the host-side IR every pass reads and rewrites; the driver
// round-trips only the one custom section (§4.2, §6) the discovery and
// embed operations care about.
package module

import "fmt"

// ValType is one of the value types an SSA value, function parameter,
// local, global, or table element can carry.
type ValType uint8

const (
	I32 ValType = iota
	I64
	F32
	F64
	// Ref is an opaque reference value: a resource handle in reference form
	// (spec §3, "Handle"/"Resource"), or a null reference. Ref-typed table
	// elements and values are what the instantiate pass (§4.6) eliminates.
	Ref
)

func (t ValType) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case Ref:
		return "ref"
	default:
		return fmt.Sprintf("valtype(%d)", uint8(t))
	}
}

// IsNumeric reports whether t is one of the four numeric kinds.
func (t ValType) IsNumeric() bool {
	return t != Ref
}

// Signature is a function signature: ordered parameter and result types.
// It corresponds to §3's "Signature" stripped of annotations, which live on
// the [iface.Signature] this module-level signature was lowered from.
type Signature struct {
	Params  []ValType
	Results []ValType
}

// Equal reports whether s and o describe the same parameter/result shape.
func (s Signature) Equal(o Signature) bool {
	if len(s.Params) != len(o.Params) || len(s.Results) != len(o.Results) {
		return false
	}
	for i, p := range s.Params {
		if o.Params[i] != p {
			return false
		}
	}
	for i, r := range s.Results {
		if o.Results[i] != r {
			return false
		}
	}
	return true
}

// Table is a table of ElemType elements. Real WebAssembly constrains table
// element types to reference types; this IR additionally allows numeric
// element types so that the handle-table primitives (§4.3) and the canon
// pass's argument side tables (§4.5) can be expressed as ordinary tables
// without inventing a second container kind. instantiate's "exportable as
// integers" configuration (§4.6) is exactly a Ref table whose ElemType is
// rewritten to I32 in place.
type Table struct {
	ElemType ValType
	Min, Max uint32
	Name     string // debug name, e.g. for untpit's synthesized handle table
	// Elems, when non-nil, is an element-segment-like initializer: Elems[i]
	// is the function index placed at slot i, for tables instantiate builds
	// to drive CallIndirect (the pit.drop dispatch table, §4.6). Tables that
	// start empty (the handle tables) leave this nil.
	Elems []Index
}

// Memory is a linear memory declaration. The rewriter does not read or
// write memory contents; it only needs memories to exist as an index space
// some imports/exports may reference pass-through.
type Memory struct {
	Min, Max uint32
}

// Const is a constant value usable as a global's initializer: exactly one of
// the four numeric fields is meaningful, selected by the owning Global's
// Type (globals never hold Ref, so there is no null-reference case here).
type Const struct {
	I32 int32
	I64 int64
	F32 float32
	F64 float64
}

// Global is a module-level global variable.
type Global struct {
	Type    ValType
	Mutable bool
	Init    Const
}

// CustomSection is an opaque named section. The `.pit-types` section (§6)
// is one of these; all others are preserved untouched (§7, "Unknown custom
// sections are preserved").
type CustomSection struct {
	Name string
	Data []byte
}

// DescKind identifies which index space a [Desc] index refers into.
type DescKind uint8

const (
	DescFunc DescKind = iota
	DescTable
	DescMemory
	DescGlobal
)

// Desc is the (kind, index) pair shared by imports and exports: an import
// or export always names one entity in one of the four index spaces.
type Desc struct {
	Kind  DescKind
	Index Index
}

// Import is one module-level import. Module and Name together form the
// two-level import namespace (§6): `pit/<digest>`, `tpit/<digest>`,
// `pit.drop`, `tpit.drop`, etc.
type Import struct {
	Module string
	Name   string
	Desc   Desc
}

// Export is one module-level export.
type Export struct {
	Name string
	Desc Desc
}
