package instantiate

import (
	"testing"

	"github.com/portal-pit/pit/iface"
	"github.com/portal-pit/pit/module"
)

// buildTwoInterfaceModule constructs a minimal reference-form module
// implementing two single-method interfaces, each with one instance named
// "A", mirroring the shape canon.Canon expects as input.
func buildTwoInterfaceModule(t *testing.T) (*module.Module, []iface.Interface) {
	t.Helper()
	def0, err := iface.Parse("{m(I32)->(I32)}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	def1, err := iface.Parse("{n(I32)->(I32)}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ifaces := []iface.Interface{def0, def1}

	mod := module.New()
	for _, def := range ifaces {
		d := iface.ComputeDigest(def)
		method := def.MethodNames()[0]

		ctorSig := module.Signature{Params: []module.ValType{module.I32}, Results: []module.ValType{module.Ref}}
		mod.ImportFunc(iface.PitModule(d), "~A", ctorSig)

		// method has no resource ("this") parameter at all — a plain
		// numeric pass-through, the common case canon's dispatcher (and
		// the import wired against it) handles without side-table packing.
		methodSig := module.Signature{Params: []module.ValType{module.I32}, Results: []module.ValType{module.I32}}
		mod.ImportFunc(iface.PitModule(d), method, methodSig)

		implSig := module.Signature{Params: []module.ValType{module.I32}, Results: []module.ValType{module.I32}}
		body := module.Body{Entry: module.Block{Term: module.Term{Kind: module.TermReturn, Values: []module.ValueID{0}}}}
		mod.DefineFunc("impl"+method, implSig, body, iface.MethodExportName(d, "A", method))

		dropSig := module.Signature{Params: []module.ValType{module.Ref}}
		mod.DefineFunc("drop"+method, dropSig, module.Body{Entry: module.Block{Term: module.Term{Kind: module.TermReturn}}}, iface.DropExportName(d, "A"))
	}
	mod.ImportFunc(iface.DropModule, iface.DropName, module.Signature{Params: []module.ValType{module.Ref}})

	return mod, ifaces
}

func TestInstantiateEliminatesReferences(t *testing.T) {
	mod, ifaces := buildTwoInterfaceModule(t)

	if err := Instantiate(mod, ifaces); err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	for i := 0; i < mod.Signatures.Len(); i++ {
		sig := mod.Signatures.Get(module.Index(i))
		for _, p := range sig.Params {
			if p == module.Ref {
				t.Errorf("signature %d still has a Ref param", i)
			}
		}
		for _, r := range sig.Results {
			if r == module.Ref {
				t.Errorf("signature %d still has a Ref result", i)
			}
		}
	}
	for i := 0; i < mod.Tables.Len(); i++ {
		tbl := mod.Tables.Get(module.Index(i))
		if tbl.ElemType == module.Ref {
			t.Errorf("table %d still has Ref element type", i)
		}
	}
}

func TestInstantiateRemovesInterfaceImports(t *testing.T) {
	mod, ifaces := buildTwoInterfaceModule(t)
	if err := Instantiate(mod, ifaces); err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	for _, def := range ifaces {
		d := iface.ComputeDigest(def)
		for _, imp := range mod.Imports.All() {
			if imp.Module == iface.PitModule(d) {
				t.Errorf("expected no remaining pit/%s imports, found %+v", d.String(), imp)
			}
		}
	}
	if _, ok := mod.FuncImportIndex(iface.DropModule, iface.DropName); ok {
		t.Error("pit.drop should no longer be an import")
	}
}

func TestInstantiateBuildsDropDispatchTable(t *testing.T) {
	mod, ifaces := buildTwoInterfaceModule(t)
	if err := Instantiate(mod, ifaces); err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	found := false
	for i := 0; i < mod.Tables.Len(); i++ {
		tbl := mod.Tables.Get(module.Index(i))
		if tbl.Name == "drop_dispatch" {
			found = true
			if len(tbl.Elems) != len(ifaces) {
				t.Errorf("expected %d drop dispatch slots, got %d", len(ifaces), len(tbl.Elems))
			}
		}
	}
	if !found {
		t.Error("expected a drop_dispatch table")
	}
}
