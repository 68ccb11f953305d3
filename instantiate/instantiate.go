// Package instantiate implements spec §4.6: the final pass that eliminates
// opaque references in favor of plain 32-bit integers throughout a module,
// wiring each interface's import/export pair to the others through
// arithmetic on the encoded index rather than through the reference type
// system.
package instantiate

import (
	"github.com/portal-pit/pit/canon"
	"github.com/portal-pit/pit/iface"
	"github.com/portal-pit/pit/module"
)

// Instantiate runs canon against the fixed sentinel instance for every
// interface in ifaces, eliminates opaque references from the resulting
// module, wires the per-interface boundary (constructors, methods, drop)
// through rank-encoded dispatch, resolves the system.stub convention, and
// tree-shakes the now-unreachable originals (spec §4.6).
func Instantiate(mod *module.Module, ifaces []iface.Interface) error {
	ris := rankedInterfaces(ifaces)
	r := len(ris)

	for _, ri := range ris {
		if err := canon.Canon(mod, ri.Digest, ri.Def, iface.InstantiateSentinel); err != nil {
			return err
		}
	}

	eliminateRefs(mod)

	for _, ri := range ris {
		wireCtor(mod, ri, r)
		if err := wireMethods(mod, ri, r); err != nil {
			return err
		}
	}
	if err := wireDrop(mod, ris, r); err != nil {
		return err
	}
	resolveStub(mod)

	mod.TreeShakeFuncs()
	return nil
}
