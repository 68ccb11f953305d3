package canon

import (
	"github.com/portal-pit/pit/handle"
	"github.com/portal-pit/pit/iface"
	"github.com/portal-pit/pit/module"
)

type dispatchArm struct {
	fn      module.Index
	sig     module.Signature
	present bool
}

// buildDispatcher synthesizes the merged export `pit/I/~target/<method>`
// (or `pit/I/~target.drop` when isDrop) per spec §4.5 step 3: given idx,
// compute k = idx mod N, m = idx div N, select the per-instance export
// belonging to instance k, and tail-call it with m. An instance that
// never exported this method falls to the default branch, returning a
// typed zero (§4.5, "Tie-break and defaults").
func buildDispatcher(mod *module.Module, d iface.Digest, ids []string, target, method string, isDrop bool) error {
	arms := make([]dispatchArm, len(ids))
	var resultTypes []module.ValType
	any := false
	for k, id := range ids {
		name := exportName(d, id, method, isDrop)
		exp, ok := mod.FindExport(name)
		if !ok {
			continue
		}
		sig := mod.FuncSignature(exp.Desc.Index)
		arms[k] = dispatchArm{fn: exp.Desc.Index, sig: sig, present: true}
		if !any {
			resultTypes = sig.Results
			any = true
		}
	}
	if !any {
		// No instance implements this method/drop at all; nothing to
		// dispatch to, so no merged entry point is produced for it.
		return nil
	}

	n := len(ids)
	b := module.NewBuilder(1)
	idx := b.Param(0, module.I32)
	k := b.BinOp(module.RemU, idx, b.ConstI32(int32(n)), module.I32)
	m := b.BinOp(module.DivU, idx, b.ConstI32(int32(n)), module.I32)

	entry := buildSwitch(b, k, n, func(i int, ib *module.Builder) module.Block {
		a := arms[i]
		if !a.present {
			return ib.Return(zeroValues(ib, resultTypes)...)
		}
		if len(a.sig.Params) == 1 && a.sig.Params[0] == module.I32 {
			return ib.TailCall(a.fn, m)
		}
		return unpackAndTailCall(ib, mod, d, ids[i], method, isDrop, a, m)
	})

	sig := module.Signature{Params: []module.ValType{module.I32}, Results: resultTypes}
	mod.DefineFunc(exportName(d, target, method, isDrop), sig, module.Body{Entry: entry}, exportName(d, target, method, isDrop))
	return nil
}

func exportName(d iface.Digest, instanceID, method string, isDrop bool) string {
	if isDrop {
		return iface.DropExportName(d, instanceID)
	}
	return iface.MethodExportName(d, instanceID, method)
}

// unpackAndTailCall handles a per-instance arm whose export takes more
// than a single i32: m is an index into a side table (synthesized here,
// parallel to EncodeThunk's packing one) holding the original argument
// tuple; this arm reads it back and tail-calls with the full argument
// list. Any caller constructing idx for this arm is expected to have
// built m through this same table's exported alloc (see Tables.Alloc
// export below) — there is no way for this module, acting alone, to
// observe how an external caller produced m otherwise.
func unpackAndTailCall(ib *module.Builder, mod *module.Module, d iface.Digest, id, method string, isDrop bool, a dispatchArm, m module.ValueID) module.Block {
	prefix := d.String()[:8] + "." + id + "." + dispatchArgsLabel(method, isDrop)
	tbls := packTableFor(mod, prefix, a.sig.Params)
	exportSideTable(mod, tbls, prefix)

	results := ib.Call(tbls.Free, []module.ValueID{m}, a.sig.Params)
	return ib.TailCall(a.fn, results...)
}

func dispatchArgsLabel(method string, isDrop bool) string {
	if isDrop {
		return "drop.args"
	}
	return method + ".args"
}

func exportSideTable(mod *module.Module, tbls *handle.Tables, prefix string) {
	mod.AddExport(module.Export{Name: prefix + ".pack", Desc: module.Desc{Kind: module.DescFunc, Index: tbls.Alloc}})
}

// zeroValues emits the dispatcher default branch's typed zero constants:
// integer 0, float 0.0, null reference (§4.5, §6 "Numeric zero constants").
func zeroValues(b *module.Builder, types []module.ValType) []module.ValueID {
	out := make([]module.ValueID, len(types))
	for i, t := range types {
		switch t {
		case module.I64:
			out[i] = b.ConstI64(0)
		case module.F32:
			out[i] = b.ConstF32(0)
		case module.F64:
			out[i] = b.ConstF64(0)
		case module.Ref:
			out[i] = b.RefNull()
		default:
			out[i] = b.ConstI32(0)
		}
	}
	return out
}

// buildSwitch builds a cascading equality chain over k selecting one of n
// arms, each built by armFor via its own forked Builder (so sibling arms'
// instructions never collide). The last arm is taken unconditionally,
// relying on k = idx mod n always landing in [0, n).
func buildSwitch(b *module.Builder, k module.ValueID, n int, armFor func(i int, ib *module.Builder) module.Block) module.Block {
	return buildSwitchFrom(b, k, 0, n, armFor)
}

func buildSwitchFrom(b *module.Builder, k module.ValueID, i, n int, armFor func(int, *module.Builder) module.Block) module.Block {
	if i == n-1 {
		return armFor(i, b)
	}
	eq := b.BinOp(module.Eq, k, b.ConstI32(int32(i)), module.I32)
	thenB := b.Fork()
	thenBlk := armFor(i, thenB)
	elseB := b.Fork()
	elseBlk := buildSwitchFrom(elseB, k, i+1, n, armFor)
	blk := b.Block()
	blk.Term = module.Term{Kind: module.TermIf, Cond: eq, Then: &thenBlk, Else: &elseBlk}
	return blk
}
