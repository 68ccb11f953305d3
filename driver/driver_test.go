package driver

import (
	"testing"

	"github.com/portal-pit/pit/iface"
	"github.com/portal-pit/pit/module"
)

// buildHandleFormModule mirrors untpit's own fixture: one interface with a
// single resource-passing method, one source instance, in integer-handle
// (table-index) form. The instance also exports a drop, which instantiate's
// pit.drop dispatch table needs for every interface.
func buildHandleFormModule(t *testing.T) (*module.Module, iface.Interface) {
	t.Helper()
	def, err := iface.Parse("{m(R)->(R)}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	d := iface.ComputeDigest(def)

	mod := module.New()
	mod.ImportFunc(iface.TpitLifetimeModule, iface.TpitVoidName, module.Signature{Params: []module.ValType{module.I32}})
	mod.ImportFunc(iface.TpitLifetimeModule, iface.TpitCloneName, module.Signature{Params: []module.ValType{module.I32}, Results: []module.ValType{module.I32}})
	mod.ImportFunc(iface.TpitLifetimeModule, iface.TpitDropName, module.Signature{Params: []module.ValType{module.I32}})

	ctorSig := module.Signature{Params: []module.ValType{module.I32}, Results: []module.ValType{module.I32}}
	mod.ImportFunc(iface.TpitModule(d), "~inst1", ctorSig)

	methodSig := module.Signature{Params: []module.ValType{module.I32}, Results: []module.ValType{module.I32}}
	mod.ImportFunc(iface.TpitModule(d), "m", methodSig)

	origBody := module.Body{Entry: module.Block{Term: module.Term{Kind: module.TermReturn, Values: []module.ValueID{0}}}}
	mod.DefineFunc("inst1_m_impl", methodSig, origBody, "tpit/"+d.String()+"/~inst1/m")

	dropSig := module.Signature{Params: []module.ValType{module.I32}}
	dropBody := module.Body{Entry: module.Block{Term: module.Term{Kind: module.TermReturn}}}
	mod.DefineFunc("inst1_drop_impl", dropSig, dropBody, iface.TpitDropExportName(d, "inst1"))

	if err := iface.Embed(mod, []iface.Interface{def}); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	return mod, def
}

func TestRunModeCanonReEmbedsInterfaces(t *testing.T) {
	mod, def := buildHandleFormModule(t)

	if err := Run(mod, Options{Mode: ModeCanon, Target: "root"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := iface.Discover(mod)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 1 || iface.ComputeDigest(got[0]) != iface.ComputeDigest(def) {
		t.Errorf("expected the original interface to remain embedded, got %+v", got)
	}
}

func TestRunModeCanonAppliesJigger(t *testing.T) {
	mod, _ := buildHandleFormModule(t)

	if err := Run(mod, Options{Mode: ModeCanon, Target: "root", JiggerSeed: "salt"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, imp := range mod.Imports.All() {
		if id, ok := iface.IsCtorImportName(imp.Name); ok && id == "root" {
			t.Errorf("expected jigger to rename target instance %q away from its plain name", id)
		}
	}
}

func TestRunModeInstantiateEliminatesReferences(t *testing.T) {
	mod, def := buildHandleFormModule(t)

	if err := Run(mod, Options{Mode: ModeInstantiate}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for i := 0; i < mod.Signatures.Len(); i++ {
		sig := mod.Signatures.Get(module.Index(i))
		for _, p := range sig.Params {
			if p == module.Ref {
				t.Errorf("signature %d still has a Ref param after instantiate", i)
			}
		}
	}
	_ = def
}
