package untpit

import (
	"github.com/portal-pit/pit/handle"
	"github.com/portal-pit/pit/iface"
	"github.com/portal-pit/pit/module"
)

// convertVoid rewrites the tpit.void import at fn into a local thunk that
// frees the handle and discards the reference (§4.4 step 1).
func convertVoid(mod *module.Module, tbls *handle.Tables, fn module.Index) {
	b := module.NewBuilder(1)
	h := b.Param(0, module.I32)
	body := module.Body{Entry: shimIntToRef(b, tbls, h, true, func(ab *module.Builder, _ module.ValueID) module.Block {
		return ab.Return()
	})}
	*mod.Funcs.Get(fn) = module.Func{Sig: mod.Funcs.All()[fn].Sig, Body: &body, Name: "tpit.void"}
}

// convertClone rewrites the tpit.clone import at fn into a local thunk that
// reads the reference at the given handle and allocates a fresh handle
// aliasing it (§4.4 step 1, "aliasing semantics").
func convertClone(mod *module.Module, tbls *handle.Tables, fn module.Index) {
	b := module.NewBuilder(1)
	h := b.Param(0, module.I32)
	body := module.Body{Entry: shimIntToRef(b, tbls, h, false, func(ab *module.Builder, ref module.ValueID) module.Block {
		return shimRefToInt(ab, tbls, ref, false, func(ab2 *module.Builder, h2 module.ValueID) module.Block {
			return ab2.Return(h2)
		})
	})}
	*mod.Funcs.Get(fn) = module.Func{Sig: mod.Funcs.All()[fn].Sig, Body: &body, Name: "tpit.clone"}
}

// convertDrop rewrites the tpit.drop import at fn into a local thunk that
// frees the handle's slot and forwards the reference to a newly-imported
// pit.drop (§4.4 step 1).
func convertDrop(mod *module.Module, tbls *handle.Tables, fn module.Index) {
	dropSig := module.Signature{Params: []module.ValType{module.Ref}}
	pitDrop := mod.ImportFunc(iface.DropModule, iface.DropName, dropSig)

	b := module.NewBuilder(1)
	h := b.Param(0, module.I32)
	body := module.Body{Entry: shimIntToRef(b, tbls, h, true, func(ab *module.Builder, ref module.ValueID) module.Block {
		return ab.TailCall(pitDrop, ref)
	})}
	*mod.Funcs.Get(fn) = module.Func{Sig: mod.Funcs.All()[fn].Sig, Body: &body, Name: "tpit.drop"}
}
