// Package handle synthesizes the handle-table primitives described in
// spec §4.3: a table of opaque references plus zero or more auxiliary
// tables of companion payload values, and the alloc/free function pair
// that manage slots in all of them together.
//
// untpit uses Synth once per resource type it needs a handle table for
// (§4.4); canon uses it again for its per-instance side tables, whose
// element types are the argument types of the constructor or dispatched
// export being packed (§4.5, "packs the extra arguments into a side table").
package handle

import (
	"strconv"

	"github.com/portal-pit/pit/module"
)

// Tables is the result of synthesizing one handle-table cluster: the main
// table plus any auxiliary tables, and the two functions that manage slots
// across all of them as a unit.
type Tables struct {
	Main  module.Index   // the table holding the primary element (a Ref, in untpit's use; the first packed argument's type, in canon's)
	Aux   []module.Index // companion tables, same length at every valid Main index as Main itself
	Alloc module.Index   // func(main, aux...) -> i32
	Free  module.Index   // func(i32) -> (main, aux...)
}

// Synth declares a table of mainElem plus one auxiliary table per entry in
// auxElems, and defines the alloc/free functions over the whole cluster.
// namePrefix is used only for the tables' and functions' debug names.
//
// alloc(ref, a1..an) -> i32 finds the smallest index holding mainElem's zero
// value (growing Main by one slot if none is free), writes ref there and
// each ai into the corresponding Aux[k], and returns the index (§4.3).
//
// free(i) -> (ref, a1..an) reads Main[i] and each Aux[k][i], resets Main[i]
// to its zero value, and returns what it read. Auxiliary slots are left
// untouched, matching §4.3's "auxiliary slots are not cleared" — a freed
// and not-yet-reallocated slot's aux payload is simply stale, never read
// until the next alloc overwrites it.
func Synth(mod *module.Module, mainElem module.ValType, auxElems []module.ValType, namePrefix string) *Tables {
	main := mod.AddTable(module.Table{ElemType: mainElem, Name: namePrefix + ".table"})
	aux := make([]module.Index, len(auxElems))
	for k, t := range auxElems {
		aux[k] = mod.AddTable(module.Table{ElemType: t, Name: namePrefix + ".aux" + strconv.Itoa(k)})
	}

	allocFn := synthAlloc(mod, main, mainElem, aux, auxElems, namePrefix)
	freeFn := synthFree(mod, main, mainElem, aux, auxElems, namePrefix)

	return &Tables{Main: main, Aux: aux, Alloc: allocFn, Free: freeFn}
}

func synthAlloc(mod *module.Module, main module.Index, mainElem module.ValType, aux []module.Index, auxElems []module.ValType, namePrefix string) module.Index {
	params := append([]module.ValType{mainElem}, auxElems...)
	b := module.NewBuilder(len(params))

	mainParam := b.Param(0, mainElem)
	auxParams := make([]module.ValueID, len(auxElems))
	for k, t := range auxElems {
		auxParams[k] = b.Param(module.Index(1+k), t)
	}

	idx := b.TableFindFree(main, aux...)
	b.TableSet(main, idx, mainParam)
	for k, a := range aux {
		b.TableSet(a, idx, auxParams[k])
	}

	body := module.Body{Entry: b.Return(idx)}
	sig := module.Signature{Params: params, Results: []module.ValType{module.I32}}
	return mod.DefineFunc(namePrefix+".alloc", sig, body, "")
}

func synthFree(mod *module.Module, main module.Index, mainElem module.ValType, aux []module.Index, auxElems []module.ValType, namePrefix string) module.Index {
	b := module.NewBuilder(1)
	i := b.Param(0, module.I32)

	refVal := b.TableGet(main, i, mainElem)
	auxVals := make([]module.ValueID, len(aux))
	for k, a := range aux {
		auxVals[k] = b.TableGet(a, i, auxElems[k])
	}

	zero := zeroValue(b, mainElem)
	b.TableSet(main, i, zero)

	results := append([]module.ValueID{refVal}, auxVals...)
	body := module.Body{Entry: b.Return(results...)}
	sig := module.Signature{Params: []module.ValType{module.I32}, Results: append([]module.ValType{mainElem}, auxElems...)}
	return mod.DefineFunc(namePrefix+".free", sig, body, "")
}

// zeroValue emits the zero/null constant for t: the value §4.3 treats an
// empty slot as holding, and what free resets a slot to.
func zeroValue(b *module.Builder, t module.ValType) module.ValueID {
	switch t {
	case module.Ref:
		return b.RefNull()
	case module.I64:
		return b.ConstI64(0)
	case module.F32:
		return b.ConstF32(0)
	case module.F64:
		return b.ConstF64(0)
	default: // I32
		return b.ConstI32(0)
	}
}
