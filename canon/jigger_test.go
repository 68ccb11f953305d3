package canon

import (
	"testing"

	"github.com/portal-pit/pit/iface"
	"github.com/portal-pit/pit/module"
)

func buildJiggerTestModule(t *testing.T) (*module.Module, iface.Digest) {
	t.Helper()
	def, err := iface.Parse("{m()->()}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	d := iface.ComputeDigest(def)

	mod := module.New()
	mod.ImportFunc(iface.PitModule(d), "~0", module.Signature{Results: []module.ValType{module.Ref}})
	sig := module.Signature{Params: []module.ValType{module.Ref}}
	mod.DefineFunc("inst0_m", sig, module.Body{Entry: module.Block{Term: module.Term{Kind: module.TermReturn}}}, iface.MethodExportName(d, "0", "m"))

	return mod, d
}

func TestJiggerRenamesCtorImportAndExport(t *testing.T) {
	mod, d := buildJiggerTestModule(t)

	Jigger(mod, "seed-a")

	if _, ok := mod.FuncImportIndex(iface.PitModule(d), "~0"); ok {
		t.Error("original ~0 ctor import should have been renamed away")
	}
	foundCtor := false
	for _, imp := range mod.Imports.All() {
		if imp.Module == iface.PitModule(d) {
			if _, ok := iface.IsCtorImportName(imp.Name); ok && imp.Name != "~0" {
				foundCtor = true
			}
		}
	}
	if !foundCtor {
		t.Error("expected a renamed ctor import")
	}

	if _, ok := mod.FindExport(iface.MethodExportName(d, "0", "m")); ok {
		t.Error("original export name should have been renamed away")
	}
}

func TestJiggerIsDeterministic(t *testing.T) {
	mod1, d := buildJiggerTestModule(t)
	mod2, _ := buildJiggerTestModule(t)

	Jigger(mod1, "same-seed")
	Jigger(mod2, "same-seed")

	name1 := ""
	name2 := ""
	for _, imp := range mod1.Imports.All() {
		if imp.Module == iface.PitModule(d) {
			name1 = imp.Name
		}
	}
	for _, imp := range mod2.Imports.All() {
		if imp.Module == iface.PitModule(d) {
			name2 = imp.Name
		}
	}
	if name1 == "" || name1 != name2 {
		t.Errorf("expected identical renamed ids for identical modules, got %q vs %q", name1, name2)
	}
}

func TestJiggerDiffersByModuleContent(t *testing.T) {
	mod1, d := buildJiggerTestModule(t)
	mod2, _ := buildJiggerTestModule(t)
	mod2.ImportFunc("extra", "noise", module.Signature{})

	Jigger(mod1, "same-seed")
	Jigger(mod2, "same-seed")

	name1, name2 := "", ""
	for _, imp := range mod1.Imports.All() {
		if imp.Module == iface.PitModule(d) {
			name1 = imp.Name
		}
	}
	for _, imp := range mod2.Imports.All() {
		if imp.Module == iface.PitModule(d) {
			name2 = imp.Name
		}
	}
	if name1 == name2 {
		t.Error("expected different renamed ids once module content differs")
	}
}
