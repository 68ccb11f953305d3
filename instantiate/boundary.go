package instantiate

import (
	"sort"

	"github.com/portal-pit/pit/iface"
	"github.com/portal-pit/pit/module"
)

// rankedInterfaces sorts ifaces by digest and returns them alongside their
// assigned rank (spec §4.6: "Enumerate interfaces in their sorted order;
// assign each a rank 0...R-1").
func rankedInterfaces(ifaces []iface.Interface) []rankedInterface {
	out := make([]rankedInterface, len(ifaces))
	for i, def := range ifaces {
		out[i] = rankedInterface{Def: def, Digest: iface.ComputeDigest(def)}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Digest.Less(out[j].Digest) })
	for i := range out {
		out[i].Rank = i
	}
	return out
}

type rankedInterface struct {
	Def    iface.Interface
	Digest iface.Digest
	Rank   int
}

// wireCtor converts the merged `pit/<digest>.~root` constructor import left
// by canon's sentinel pass into a local thunk that returns `rank + R*m`
// directly — the constructor is never called again (spec §4.6).
func wireCtor(mod *module.Module, ri rankedInterface, r int) {
	fn, ok := mod.FuncImportIndex(iface.PitModule(ri.Digest), iface.CtorName(iface.InstantiateSentinel))
	if !ok {
		return
	}
	b := module.NewBuilder(1)
	m := b.Param(0, module.I32)
	idx := b.BinOp(module.Add, b.ConstI32(int32(ri.Rank)), b.BinOp(module.Mul, b.ConstI32(int32(r)), m, module.I32), module.I32)
	body := module.Body{Entry: b.Return(idx)}

	f := mod.Funcs.Get(fn)
	*f = module.Func{Sig: f.Sig, Body: &body, Name: "instantiate_ctor_" + ri.Digest.String()[:8]}

	mod.RemoveImportIf(func(imp module.Import) bool {
		return imp.Module == iface.PitModule(ri.Digest) && imp.Name == iface.CtorName(iface.InstantiateSentinel)
	})
}

// wireMethods converts every remaining `pit/<digest>.<method>` import into
// a thunk that decodes m = idx div R from its single encoded idx parameter
// (idx mod R is not checked against the rank) and tail-calls the `~root`
// dispatcher export with m (spec §4.6, "For every
// other ... import"). By this stage the import's signature is already a
// single i32 — canon has already collapsed every per-instance entry point
// for this interface into that one-scalar ABI (§4.5 step 3), and a plain
// method import crossing the same `pit/I` namespace necessarily mirrors it
// (see DESIGN.md's note on why no further side-table packing is needed
// here, unlike the ctor case canon itself handles).
func wireMethods(mod *module.Module, ri rankedInterface, r int) error {
	for _, method := range ri.Def.MethodNames() {
		fn, ok := mod.FuncImportIndex(iface.PitModule(ri.Digest), method)
		if !ok {
			continue
		}
		exp, ok := mod.FindExport(iface.MethodExportName(ri.Digest, iface.InstantiateSentinel, method))
		if !ok {
			return &module.MissingExportError{Name: iface.MethodExportName(ri.Digest, iface.InstantiateSentinel, method)}
		}

		b := module.NewBuilder(1)
		idx := b.Param(0, module.I32)
		m := b.BinOp(module.DivU, idx, b.ConstI32(int32(r)), module.I32)
		body := module.Body{Entry: b.TailCall(exp.Desc.Index, m)}

		f := mod.Funcs.Get(fn)
		*f = module.Func{Sig: f.Sig, Body: &body, Name: "instantiate_method_" + ri.Digest.String()[:8] + "_" + method}
	}
	mod.RemoveImportIf(func(imp module.Import) bool {
		if imp.Module != iface.PitModule(ri.Digest) {
			return false
		}
		_, isCtor := iface.IsCtorImportName(imp.Name)
		return !isCtor
	})
	return nil
}

// wireDrop builds the indirect-dispatch table backing the single pit.drop
// import: slot k holds interface k's `~root.drop` export, and the import's
// body decodes (rank, m) = (idx mod R, idx div R) and dispatches through
// the table (spec §4.6).
func wireDrop(mod *module.Module, ris []rankedInterface, r int) error {
	fn, ok := mod.FuncImportIndex(iface.DropModule, iface.DropName)
	if !ok {
		return nil
	}

	elems := make([]module.Index, r)
	for _, ri := range ris {
		exp, ok := mod.FindExport(iface.DropExportName(ri.Digest, iface.InstantiateSentinel))
		if !ok {
			return &module.MissingExportError{Name: iface.DropExportName(ri.Digest, iface.InstantiateSentinel)}
		}
		elems[ri.Rank] = exp.Desc.Index
	}
	tbl := mod.AddTable(module.Table{ElemType: module.I32, Min: uint32(r), Max: uint32(r), Name: "drop_dispatch", Elems: elems})

	dropResults := mod.FuncSignature(fn).Results
	b := module.NewBuilder(1)
	idx := b.Param(0, module.I32)
	rank := b.BinOp(module.RemU, idx, b.ConstI32(int32(r)), module.I32)
	m := b.BinOp(module.DivU, idx, b.ConstI32(int32(r)), module.I32)
	results := b.CallIndirect(tbl, rank, []module.ValueID{m}, dropResults)
	body := module.Body{Entry: b.Return(results...)}

	f := mod.Funcs.Get(fn)
	*f = module.Func{Sig: f.Sig, Body: &body, Name: "instantiate_drop_dispatch"}

	mod.RemoveImportIf(func(imp module.Import) bool {
		return imp.Module == iface.DropModule && imp.Name == iface.DropName
	})
	return nil
}

// resolveStub turns the fixed `system.stub` import into a locally defined
// function returning typed zeros, so that side-table structure-building
// code canon emitted still links even though nothing actually calls stub
// for its value (spec §4.6, "so that structure-building code emitted by
// canon still links").
func resolveStub(mod *module.Module) {
	fn, ok := mod.FuncImportIndex(iface.StubModule, iface.StubName)
	if !ok {
		return
	}
	sig := mod.FuncSignature(fn)
	b := module.NewBuilder(len(sig.Params))
	for i, t := range sig.Params {
		b.Param(module.Index(i), t)
	}
	body := module.Body{Entry: b.Return(zeroValues(b, sig.Results)...)}

	f := mod.Funcs.Get(fn)
	*f = module.Func{Sig: f.Sig, Body: &body, Name: "instantiate_stub"}

	mod.RemoveImportIf(func(imp module.Import) bool {
		return imp.Module == iface.StubModule && imp.Name == iface.StubName
	})
}

// zeroValues emits a typed zero per t (§4.6, §6 "Numeric zero constants").
// By the time this runs, eliminateRefs has already turned every Ref into
// I32, so only the four numeric cases remain reachable in practice; the
// Ref arm stays as a defensive fallback for a stub resolved before
// eliminateRefs runs.
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
