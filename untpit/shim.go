// Package untpit rewrites a handle-form (`tpit/…`) module into a
// reference-form (`pit/…`) one, inserting a handle table and its
// allocate/free primitives and shimming every resource-typed argument and
// result across the boundary (spec §4.4).
package untpit

import (
	"github.com/portal-pit/pit/handle"
	"github.com/portal-pit/pit/module"
)

// shimIntToRef converts handle h (an i32, 0=null else idx+1) into a
// reference, then continues building with cont. take selects the owning
// crossing (frees the slot, moving ownership out of the table) versus the
// borrowing crossing (TableGet, aliasing without disturbing the table) —
// the two cases in §4.4's "For an owning crossing… free when going
// ref-out… For a borrowing crossing… TableGet when going ref-out".
func shimIntToRef(b *module.Builder, tbls *handle.Tables, h module.ValueID, take bool, cont func(ab *module.Builder, ref module.ValueID) module.Block) module.Block {
	isNull := b.UnOp(module.Eqz, h, module.I32)
	return b.IfElseJoin(isNull, []module.ValType{module.Ref},
		func(tb *module.Builder) []module.ValueID {
			return []module.ValueID{tb.RefNull()}
		},
		func(eb *module.Builder) []module.ValueID {
			idx := eb.BinOp(module.Sub, h, eb.ConstI32(1), module.I32)
			var ref module.ValueID
			if take {
				ref = eb.Call(tbls.Free, []module.ValueID{idx}, []module.ValType{module.Ref})[0]
			} else {
				ref = eb.TableGet(tbls.Main, idx, module.Ref)
			}
			return []module.ValueID{ref}
		},
		func(ab *module.Builder, joined []module.ValueID) module.Block {
			return cont(ab, joined[0])
		},
	)
}

// shimRefToInt converts reference ref into a handle, then continues
// building with cont. Per §4.4, both the owning and the borrowing crossing
// allocate a fresh handle here ("alloc still when going ref-in, because a
// fresh handle must exist to name the reference") — take is accepted only
// so call sites read symmetrically with shimIntToRef and stay correct if
// a future revision does distinguish the two.
func shimRefToInt(b *module.Builder, tbls *handle.Tables, ref module.ValueID, take bool, cont func(ab *module.Builder, h module.ValueID) module.Block) module.Block {
	isNull := b.RefIsNull(ref)
	return b.IfElseJoin(isNull, []module.ValType{module.I32},
		func(tb *module.Builder) []module.ValueID {
			return []module.ValueID{tb.ConstI32(0)}
		},
		func(eb *module.Builder) []module.ValueID {
			idx := eb.Call(tbls.Alloc, []module.ValueID{ref}, []module.ValType{module.I32})[0]
			h := eb.BinOp(module.Add, idx, eb.ConstI32(1), module.I32)
			return []module.ValueID{h}
		},
		func(ab *module.Builder, joined []module.ValueID) module.Block {
			return cont(ab, joined[0])
		},
	)
}
