// Package canon merges the per-instance entry points multiple source
// modules contribute for the same interface into one dispatcher driven by
// arithmetic on the encoded handle (spec §4.5), and (in jigger.go)
// deterministically salts instance identifiers.
package canon

import (
	"sort"

	"github.com/portal-pit/pit/handle"
	"github.com/portal-pit/pit/iface"
	"github.com/portal-pit/pit/module"
)

// Canon merges every `pit/I.~id` constructor import and every
// `pit/I/~id/<method>` / `pit/I/~id.drop` export for interface d into a
// single `pit/I.~target` import and a matching set of
// `pit/I/~target/<method>` dispatcher exports (spec §4.5).
//
// If no instances are present for d, Canon is a no-op.
func Canon(mod *module.Module, d iface.Digest, def iface.Interface, target string) error {
	ids := sortedCtorInstanceIDs(mod, d)
	n := len(ids)
	if n == 0 {
		return nil
	}
	if err := checkInstanceConsistency(mod, d, ids); err != nil {
		return err
	}

	mergedCtor := mod.ImportFunc(iface.PitModule(d), iface.CtorName(target),
		module.Signature{Params: []module.ValType{module.I32}, Results: []module.ValType{module.Ref}})

	for k, id := range ids {
		fn, ok := mod.FuncImportIndex(iface.PitModule(d), iface.CtorName(id))
		if !ok {
			continue
		}
		origSig := mod.FuncSignature(fn)
		EncodeThunk(mod, fn, origSig, k, n, mergedCtor, d.String()[:8]+"."+id+".ctor")
	}
	mod.RemoveImportIf(func(imp module.Import) bool {
		if imp.Module != iface.PitModule(d) {
			return false
		}
		id, ok := iface.IsCtorImportName(imp.Name)
		if !ok || id == target {
			return false
		}
		return containsString(ids, id)
	})

	for _, method := range def.MethodNames() {
		if err := buildDispatcher(mod, d, ids, target, method, false); err != nil {
			return err
		}
	}
	return buildDispatcher(mod, d, ids, target, "", true)
}

// sortedCtorInstanceIDs collects every instance id appearing as a
// `pit/I.~id` constructor import, sorted ascending (spec §4.5 step 1).
func sortedCtorInstanceIDs(mod *module.Module, d iface.Digest) []string {
	modName := iface.PitModule(d)
	var ids []string
	for _, imp := range mod.Imports.All() {
		if imp.Module != modName || imp.Desc.Kind != module.DescFunc {
			continue
		}
		if id, ok := iface.IsCtorImportName(imp.Name); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// checkInstanceConsistency scans every `pit/I/~id/<method>` and
// `pit/I/~id.drop` export for d and rejects one whose id names an instance
// with no corresponding `pit/I.~id` constructor import (§7, "inconsistent
// instance"): such an export could never be reached through the handle
// encoding buildDispatcher assigns, since that encoding only ever produces
// a k in [0, N) over the ctor-derived ids.
func checkInstanceConsistency(mod *module.Module, d iface.Digest, ids []string) error {
	for _, exp := range mod.Exports.All() {
		if exp.Desc.Kind != module.DescFunc {
			continue
		}
		instanceID, method, _, ok := iface.SplitInstanceExport(exp.Name, iface.PitPrefix, d)
		if !ok || instanceID == "" {
			continue
		}
		if !containsString(ids, instanceID) {
			return &module.InconsistentInstanceError{Instance: instanceID, Method: method}
		}
	}
	return nil
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// EncodeThunk replaces the body of the function at fn — previously an
// import with signature origSig — with a thunk that packs origSig's
// parameters into a single payload m (unchanged, if origSig is exactly
// one i32 parameter — §4.5's "common case of handle pass-through" —
// otherwise packed through a freshly synthesized side table), computes
// idx = position + count*m, and tail-calls target with idx.
//
// Canon calls it with position = instance rank k and count = instance
// count N. instantiate's constructor wiring does not use it: that thunk
// returns its encoded index instead of calling anything.
func EncodeThunk(mod *module.Module, fn module.Index, origSig module.Signature, position, count int, target module.Index, sideTablePrefix string) {
	b := module.NewBuilder(len(origSig.Params))
	args := make([]module.ValueID, len(origSig.Params))
	for i, t := range origSig.Params {
		args[i] = b.Param(module.Index(i), t)
	}

	var m module.ValueID
	if len(origSig.Params) == 1 && origSig.Params[0] == module.I32 {
		m = args[0]
	} else {
		tbls := packTableFor(mod, sideTablePrefix, origSig.Params)
		if len(args) == 0 {
			args = []module.ValueID{b.ConstI32(0)}
		}
		m = b.Call(tbls.Alloc, args, []module.ValType{module.I32})[0]
	}

	idx := b.BinOp(module.Add, b.ConstI32(int32(position)), b.BinOp(module.Mul, b.ConstI32(int32(count)), m, module.I32), module.I32)
	body := module.Body{Entry: b.TailCall(target, idx)}

	f := mod.Funcs.Get(fn)
	*f = module.Func{Sig: f.Sig, Body: &body, Name: f.Name}
}

// packTableFor synthesizes the side table EncodeThunk's non-pass-through
// branch packs arguments into, treating paramTypes[0] as the table's main
// element and the rest as auxiliaries (§4.5 step 2, "packed into a fresh
// structure type, stored in a side table"). A zero-parameter shape still
// needs an index to stand in for m, so it gets a dummy I32 main table
// whose slots always hold a 0.
func packTableFor(mod *module.Module, prefix string, paramTypes []module.ValType) *handle.Tables {
	if len(paramTypes) == 0 {
		return handle.Synth(mod, module.I32, nil, prefix)
	}
	return handle.Synth(mod, paramTypes[0], paramTypes[1:], prefix)
}
