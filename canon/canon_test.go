package canon

import (
	"testing"

	"github.com/portal-pit/pit/iface"
	"github.com/portal-pit/pit/module"
)

// buildThreeInstanceModule builds a reference-form module for one interface
// with three source instances (A, B, C, sorted): A and C are ordinary,
// single-i32-passthrough instances; B's constructor takes two i32
// parameters, exercising EncodeThunk's side-table packing branch. Only A
// and C export method "m" — B is missing it, exercising the dispatcher's
// typed-zero tie-break/default arm.
func buildThreeInstanceModule(t *testing.T) (*module.Module, iface.Interface, iface.Digest) {
	t.Helper()
	def, err := iface.Parse("{m(I32)->(I32)}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	d := iface.ComputeDigest(def)

	mod := module.New()

	mod.ImportFunc(iface.PitModule(d), "~A", module.Signature{Params: []module.ValType{module.I32}, Results: []module.ValType{module.Ref}})
	mod.ImportFunc(iface.PitModule(d), "~B", module.Signature{Params: []module.ValType{module.I32, module.I32}, Results: []module.ValType{module.Ref}})
	mod.ImportFunc(iface.PitModule(d), "~C", module.Signature{Params: []module.ValType{module.I32}, Results: []module.ValType{module.Ref}})

	methodSig := module.Signature{Params: []module.ValType{module.I32}, Results: []module.ValType{module.I32}}
	identity := module.Body{Entry: module.Block{Term: module.Term{Kind: module.TermReturn, Values: []module.ValueID{0}}}}
	mod.DefineFunc("implA_m", methodSig, identity, iface.MethodExportName(d, "A", "m"))
	mod.DefineFunc("implC_m", methodSig, identity, iface.MethodExportName(d, "C", "m"))
	// B deliberately has no "m" export.

	dropSig := module.Signature{Params: []module.ValType{module.Ref}}
	dropBody := module.Body{Entry: module.Block{Term: module.Term{Kind: module.TermReturn}}}
	mod.DefineFunc("dropA", dropSig, dropBody, iface.DropExportName(d, "A"))
	mod.DefineFunc("dropB", dropSig, dropBody, iface.DropExportName(d, "B"))
	mod.DefineFunc("dropC", dropSig, dropBody, iface.DropExportName(d, "C"))

	return mod, def, d
}

func TestCanonMergesThreeInstanceConstructors(t *testing.T) {
	mod, def, d := buildThreeInstanceModule(t)

	if err := Canon(mod, d, def, "root"); err != nil {
		t.Fatalf("Canon: %v", err)
	}

	if _, ok := mod.FuncImportIndex(iface.PitModule(d), iface.CtorName("root")); !ok {
		t.Fatal("expected merged pit/I.~root constructor import")
	}
	for _, id := range []string{"A", "B", "C"} {
		if _, ok := mod.FuncImportIndex(iface.PitModule(d), iface.CtorName(id)); ok {
			t.Errorf("expected original ~%s constructor import to be removed", id)
		}
	}
}

func TestCanonEncodeThunkPacksNonPassthroughConstructor(t *testing.T) {
	mod, def, d := buildThreeInstanceModule(t)

	if err := Canon(mod, d, def, "root"); err != nil {
		t.Fatalf("Canon: %v", err)
	}

	// B's two-parameter constructor must have been replaced by a local
	// thunk body (EncodeThunk's side-table-packing branch), rather than
	// the single-i32 pass-through A and C take. Canon only exports a side
	// table for dispatcher-side unpacking (method/drop arms), not for
	// EncodeThunk's constructor-side packing, so confirm indirectly: the
	// function that used to be import ~B now has a body and still
	// declares its original two-i32 signature.
	wantName := iface.PitModule(d) + ".~B"
	found := false
	for i := 0; i < mod.Funcs.Len(); i++ {
		f := mod.Funcs.Get(module.Index(i))
		if f.Name == wantName {
			found = true
			if len(f.Sig.Params) != 2 {
				t.Errorf("expected B's original thunk to keep its 2-param signature, got %d", len(f.Sig.Params))
			}
			if f.Body == nil {
				t.Error("expected B's thunk to now have a body instead of being an import")
			}
		}
	}
	if !found {
		t.Error("expected to find the local thunk replacing ~B's former import")
	}
}

func TestCanonBuildsMergedDispatcherAndDrop(t *testing.T) {
	mod, def, d := buildThreeInstanceModule(t)

	if err := Canon(mod, d, def, "root"); err != nil {
		t.Fatalf("Canon: %v", err)
	}

	if _, ok := mod.FindExport(iface.MethodExportName(d, "root", "m")); !ok {
		t.Fatal("expected merged pit/I/~root/m dispatcher export")
	}
	if _, ok := mod.FindExport(iface.DropExportName(d, "root")); !ok {
		t.Fatal("expected merged pit/I/~root.drop dispatcher export")
	}
}

// TestCanonDispatcherDefaultsMissingInstanceToZero walks the merged "m"
// dispatcher's IR directly, since this IR has no interpreter: with ids
// sorted [A, B, C], buildSwitch tests k==0 (A, present) then k==1 (B,
// absent — must fall to the typed-zero return) with C (index 2, the last
// arm) taken unconditionally.
func TestCanonDispatcherDefaultsMissingInstanceToZero(t *testing.T) {
	mod, def, d := buildThreeInstanceModule(t)

	if err := Canon(mod, d, def, "root"); err != nil {
		t.Fatalf("Canon: %v", err)
	}

	exp, ok := mod.FindExport(iface.MethodExportName(d, "root", "m"))
	if !ok {
		t.Fatal("missing merged dispatcher export")
	}
	f := mod.Funcs.Get(exp.Desc.Index)
	entry := f.Body.Entry

	if entry.Term.Kind != module.TermIf {
		t.Fatalf("expected top-level dispatch to branch on k==0 (A), got %v", entry.Term.Kind)
	}
	if entry.Term.Then.Term.Kind != module.TermTailCall {
		t.Errorf("expected A's arm (present) to tail-call, got %v", entry.Term.Then.Term.Kind)
	}

	bArm := entry.Term.Else
	if bArm.Term.Kind != module.TermIf {
		t.Fatalf("expected second-level dispatch to branch on k==1 (B), got %v", bArm.Term.Kind)
	}
	if bArm.Term.Then.Term.Kind != module.TermReturn {
		t.Errorf("expected B's arm (absent) to return a typed zero directly, got %v", bArm.Term.Then.Term.Kind)
	}
	if len(bArm.Term.Then.Term.Values) != 1 {
		t.Errorf("expected B's default arm to return exactly one zero value, got %d", len(bArm.Term.Then.Term.Values))
	}

	cArm := bArm.Term.Else
	if cArm.Term.Kind != module.TermTailCall {
		t.Errorf("expected C's arm (the final, unconditional one) to tail-call, got %v", cArm.Term.Kind)
	}
}

func TestCanonRejectsExportForUnknownInstance(t *testing.T) {
	mod, def, d := buildThreeInstanceModule(t)

	methodSig := module.Signature{Params: []module.ValType{module.I32}, Results: []module.ValType{module.I32}}
	stray := module.Body{Entry: module.Block{Term: module.Term{Kind: module.TermReturn, Values: []module.ValueID{0}}}}
	mod.DefineFunc("implGhost_m", methodSig, stray, iface.MethodExportName(d, "ghost", "m"))

	err := Canon(mod, d, def, "root")
	if err == nil {
		t.Fatal("expected Canon to reject an export naming an instance with no constructor import")
	}
	var ie *module.InconsistentInstanceError
	if !asInconsistentInstanceError(err, &ie) {
		t.Fatalf("expected *module.InconsistentInstanceError, got %T: %v", err, err)
	}
	if ie.Instance != "ghost" {
		t.Errorf("expected the error to name instance %q, got %q", "ghost", ie.Instance)
	}
}

func asInconsistentInstanceError(err error, target **module.InconsistentInstanceError) bool {
	if ie, ok := err.(*module.InconsistentInstanceError); ok {
		*target = ie
		return true
	}
	return false
}
