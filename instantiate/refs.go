package instantiate

import "github.com/portal-pit/pit/module"

// eliminateRefs rewrites every opaque-reference type to i32 and every
// reference-producing operator to its integer equivalent, throughout
// signatures, table element types, and every function body (spec §4.6:
// "Replace every occurrence of opaque-reference type with i32 ... null
// becomes i32.const 0; ref.is_null becomes i32.eqz").
func eliminateRefs(mod *module.Module) {
	for i := 0; i < mod.Signatures.Len(); i++ {
		sig := mod.Signatures.Get(module.Index(i))
		refsToI32(sig.Params)
		refsToI32(sig.Results)
	}
	for i := 0; i < mod.Tables.Len(); i++ {
		t := mod.Tables.Get(module.Index(i))
		if t.ElemType == module.Ref {
			// The exportable-as-integers configuration (§4.6): this IR
			// already allows numeric table elements (module.Table's doc
			// comment), so the rewrite is the in-place type change. The
			// non-exportable per-op-helper configuration does not arise
			// here because nothing in this rewriter produces a table whose
			// element identity a host could not see as a plain integer
			// (see DESIGN.md).
			t.ElemType = module.I32
		}
	}
	for i := range mod.Funcs.All() {
		f := mod.Funcs.Get(module.Index(i))
		if f.Body != nil {
			eliminateRefsInBlock(&f.Body.Entry)
		}
	}
}

func refsToI32(ts []module.ValType) {
	for i, t := range ts {
		if t == module.Ref {
			ts[i] = module.I32
		}
	}
}

func eliminateRefsInBlock(b *module.Block) {
	refsToI32(b.ParamTypes)
	for i := range b.Instrs {
		in := &b.Instrs[i]
		if in.ResultType == module.Ref {
			in.ResultType = module.I32
		}
		refsToI32(in.ResultTypes)
		switch in.Op {
		case module.OpRefNull:
			in.Op = module.OpConst
			in.Imm = module.Imm{I32: 0}
			in.ResultType = module.I32
		case module.OpRefIsNull:
			in.Op = module.OpBinOp
			in.Imm = module.Imm{BinOp: module.Eqz}
			in.ResultType = module.I32
		}
	}
	if b.Term.Kind == module.TermIf {
		eliminateRefsInBlock(b.Term.Then)
		eliminateRefsInBlock(b.Term.Else)
		if b.Term.After != nil {
			eliminateRefsInBlock(b.Term.After)
		}
	}
}
