package module

import "github.com/portal-pit/pit/internal/arena"

// Index identifies an element within one of a Module's index spaces
// (signatures, functions, tables, memories, globals, imports, exports).
// Each space has its own numbering; an Index is only meaningful together
// with the space it was drawn from.
type Index = arena.Index

// ValueID identifies an SSA value produced within a single [Body]: a
// parameter, a local, or an instruction result. Spec §2 describes function
// bodies as carrying "typed SSA values"; ValueID is the name of one.
type ValueID uint32

// Func is one entry in the function index space: either imported (Body is
// nil, and exactly one [Import] with Desc.Kind==DescFunc points at this
// index) or locally defined (Body is non-nil).
type Func struct {
	Sig  Index // index into Module.Signatures
	Body *Body // nil iff this function is imported
	Name string
}
