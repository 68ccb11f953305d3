package untpit

import (
	"github.com/portal-pit/pit/handle"
	"github.com/portal-pit/pit/iface"
	"github.com/portal-pit/pit/module"
)

// Rewrite transforms mod from handle-form (`tpit/…`) to reference-form
// (`pit/…`) in place, per spec §4.4. ifaces is the set of interfaces in
// scope, as produced by iface.Discover.
func Rewrite(mod *module.Module, ifaces []iface.Interface) error {
	tbls := handle.Synth(mod, module.Ref, nil, "tpit")

	convertLifetimeImport(mod, tbls, iface.TpitVoidName, convertVoid)
	convertLifetimeImport(mod, tbls, iface.TpitCloneName, convertClone)
	convertLifetimeImport(mod, tbls, iface.TpitDropName, convertDrop)
	mod.RemoveImportIf(func(imp module.Import) bool {
		return imp.Module == iface.TpitLifetimeModule &&
			(imp.Name == iface.TpitVoidName || imp.Name == iface.TpitCloneName || imp.Name == iface.TpitDropName)
	})

	for _, def := range ifaces {
		d := iface.ComputeDigest(def)
		if err := rewriteImports(mod, tbls, d, def); err != nil {
			return err
		}
		if err := rewriteExports(mod, tbls, d, def); err != nil {
			return err
		}
	}

	exportExtras(mod, tbls)
	return nil
}

func convertLifetimeImport(mod *module.Module, tbls *handle.Tables, name string, convert func(*module.Module, *handle.Tables, module.Index)) {
	if fn, ok := mod.FuncImportIndex(iface.TpitLifetimeModule, name); ok {
		convert(mod, tbls, fn)
	}
}

// rewriteImports handles spec §4.4 step 2: every `tpit/I` import is either
// an instance constructor or a method, each converted into a local thunk
// over a freshly-imported `pit/I` entry point with the corresponding
// reference-form signature.
func rewriteImports(mod *module.Module, tbls *handle.Tables, d iface.Digest, def iface.Interface) error {
	modName := iface.TpitModule(d)

	type job struct {
		name string
		fn   module.Index
	}
	var jobs []job
	for _, imp := range mod.Imports.All() {
		if imp.Module == modName && imp.Desc.Kind == module.DescFunc {
			jobs = append(jobs, job{imp.Name, imp.Desc.Index})
		}
	}

	for _, j := range jobs {
		if _, ok := iface.IsCtorImportName(j.name); ok {
			convertCtor(mod, tbls, d, j.name, j.fn)
			continue
		}
		sig, ok := def.Methods.GetOK(j.name)
		if !ok {
			return &module.InvalidShapeError{
				Where: "untpit import " + modName + "/" + j.name,
				Want:  "a declared method or instance constructor",
				Got:   "an unrecognized import name",
			}
		}
		convertMethodImport(mod, tbls, d, j.name, sig, j.fn)
	}

	mod.RemoveImportIf(func(imp module.Import) bool { return imp.Module == modName })
	return nil
}

// rewriteExports handles spec §4.4 step 3: every
// `tpit/I/~instance/method` or `tpit/I/~instance.drop` export gets a
// reference-form sibling wrapping the original handle-form body.
func rewriteExports(mod *module.Module, tbls *handle.Tables, d iface.Digest, def iface.Interface) error {
	type job struct {
		instanceID string
		method     string
		isDrop     bool
		fn         module.Index
	}
	var jobs []job
	for _, exp := range mod.Exports.All() {
		if exp.Desc.Kind != module.DescFunc {
			continue
		}
		instanceID, method, isDrop, ok := iface.SplitInstanceExport(exp.Name, iface.TpitPrefix, d)
		if !ok {
			continue
		}
		jobs = append(jobs, job{instanceID, method, isDrop, exp.Desc.Index})
	}

	for _, j := range jobs {
		var params, results []iface.ArgKind
		var exportName string
		if j.isDrop {
			params = thisResourceParam
			exportName = iface.DropExportName(d, j.instanceID)
		} else {
			sig, ok := def.Methods.GetOK(j.method)
			if !ok {
				return &module.InvalidShapeError{
					Where: "untpit export " + iface.TpitMethodExportName(d, j.instanceID, j.method),
					Want:  "a declared method",
					Got:   "an unrecognized export name",
				}
			}
			params, results = sig.Params, sig.Results
			exportName = iface.MethodExportName(d, j.instanceID, j.method)
		}
		defineExportWrapper(mod, tbls, j.fn, params, results, exportName)
	}

	mod.RemoveExportIf(func(exp module.Export) bool {
		_, _, _, ok := iface.SplitInstanceExport(exp.Name, iface.TpitPrefix, d)
		return ok
	})
	return nil
}

// convertCtor rewrites a `~instance` constructor import: the new import
// returns a reference instead of a handle; the thunk at the original
// index calls it and allocates a handle for the result (§4.4 step 2,
// "Instance constructor").
func convertCtor(mod *module.Module, tbls *handle.Tables, d iface.Digest, name string, fn module.Index) {
	orig := mod.FuncSignature(fn)
	newSig := module.Signature{Params: append([]module.ValType{}, orig.Params...), Results: []module.ValType{module.Ref}}
	newImport := mod.ImportFunc(iface.PitModule(d), name, newSig)

	b := module.NewBuilder(len(orig.Params))
	args := make([]module.ValueID, len(orig.Params))
	for i, t := range orig.Params {
		args[i] = b.Param(module.Index(i), t)
	}
	refResult := b.Call(newImport, args, []module.ValType{module.Ref})[0]

	body := module.Body{Entry: shimRefToInt(b, tbls, refResult, true, func(ab *module.Builder, h module.ValueID) module.Block {
		return ab.Return(h)
	})}
	f := mod.Funcs.Get(fn)
	*f = module.Func{Sig: f.Sig, Body: &body, Name: name}
}

// convertMethodImport rewrites a method import: the new import uses
// reference-form parameter/result types; the thunk at the original index
// shims handle-form arguments to references, calls it, and shims
// reference-form results back to handles (§4.4 step 2, "Method").
func convertMethodImport(mod *module.Module, tbls *handle.Tables, d iface.Digest, name string, sig iface.Signature, fn module.Index) {
	newSig := module.Signature{Params: refValTypes(sig.Params), Results: refValTypes(sig.Results)}
	newImport := mod.ImportFunc(iface.PitModule(d), name, newSig)

	orig := mod.FuncSignature(fn)
	b := module.NewBuilder(len(orig.Params))
	args := make([]module.ValueID, len(orig.Params))
	for i, t := range orig.Params {
		args[i] = b.Param(module.Index(i), t)
	}

	body := module.Body{Entry: shimValuesToRef(b, tbls, sig.Params, args, func(ab *module.Builder, refArgs []module.ValueID) module.Block {
		results := ab.Call(newImport, refArgs, newSig.Results)
		return shimValuesToInt(ab, tbls, sig.Results, results, func(ab2 *module.Builder, finalResults []module.ValueID) module.Block {
			return ab2.Return(finalResults...)
		})
	})}
	f := mod.Funcs.Get(fn)
	*f = module.Func{Sig: f.Sig, Body: &body, Name: name}
}

// defineExportWrapper defines a new function that accepts reference-form
// arguments, shims them to the handle-form orig expects, calls orig,
// and shims its handle-form results back to references — then exports it
// under exportName (§4.4 step 3).
func defineExportWrapper(mod *module.Module, tbls *handle.Tables, orig module.Index, params, results []iface.ArgKind, exportName string) {
	refParams := refValTypes(params)
	origSig := mod.FuncSignature(orig)

	b := module.NewBuilder(len(refParams))
	refArgs := make([]module.ValueID, len(refParams))
	for i, t := range refParams {
		refArgs[i] = b.Param(module.Index(i), t)
	}

	entry := shimValuesToInt(b, tbls, params, refArgs, func(ab *module.Builder, handleArgs []module.ValueID) module.Block {
		callResults := ab.Call(orig, handleArgs, origSig.Results)
		return shimValuesToRef(ab, tbls, results, callResults, func(ab2 *module.Builder, finalResults []module.ValueID) module.Block {
			return ab2.Return(finalResults...)
		})
	})

	sig := module.Signature{Params: refParams, Results: refValTypes(results)}
	mod.DefineFunc(exportName, sig, module.Body{Entry: entry}, exportName)
}

// exportExtras exposes the synthesized handle table and its alloc/free
// functions under the fixed names a host may rely on to inspect the
// table directly (§4.4, "Extra exports").
func exportExtras(mod *module.Module, tbls *handle.Tables) {
	mod.AddExport(module.Export{Name: iface.TableExport, Desc: module.Desc{Kind: module.DescTable, Index: tbls.Main}})
	mod.AddExport(module.Export{Name: iface.AllocExport, Desc: module.Desc{Kind: module.DescFunc, Index: tbls.Alloc}})
	mod.AddExport(module.Export{Name: iface.FreeExport, Desc: module.Desc{Kind: module.DescFunc, Index: tbls.Free}})
}
