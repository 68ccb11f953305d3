package iface

import "strings"

// This file collects the import/export name formatting and parsing shared
// by untpit, canon, and instantiate (§6 EXTERNAL INTERFACES). Every pass
// that needs to recognize or build a `pit/<digest>` or `tpit/<digest>`
// name goes through these helpers so the two-level namespace convention
// lives in one place.

const (
	PitPrefix  = "pit/"
	TpitPrefix = "tpit/"

	// DropModule/DropName name the single reference-form drop import
	// `pit.drop` untpit installs in place of the three tpit.* lifetime
	// imports.
	DropModule = "pit"
	DropName   = "drop"

	// TpitLifetimeModule is the fixed import module untpit's input uses
	// for the three handle-form lifetime primitives below.
	TpitLifetimeModule = "tpit"
	TpitDropName       = "drop"
	TpitVoidName       = "void"
	TpitCloneName      = "clone"

	AllocExport = "tpit_alloc"
	FreeExport  = "tpit_free"
	TableExport = "tpit_table"

	// InstantiateSentinel is the instance-id instantiate runs canon
	// against so every interface reduces to one import/export pair
	// (§4.6, §6).
	InstantiateSentinel = "pit_patch_internal_instantiate"

	StubModule = "system"
	StubName   = "stub"
)

// PitModule returns the reference-form import module name for d.
func PitModule(d Digest) string { return PitPrefix + d.String() }

// TpitModule returns the handle-form import module name for d.
func TpitModule(d Digest) string { return TpitPrefix + d.String() }

// CtorName returns the instance-constructor entry name `~<instanceID>`.
func CtorName(instanceID string) string { return "~" + instanceID }

// MethodExportName returns the export name implementing method for
// instanceID of interface d: `pit/<digest>/~<instanceID>/<method>`.
func MethodExportName(d Digest, instanceID, method string) string {
	return PitPrefix + d.String() + "/" + CtorName(instanceID) + "/" + method
}

// DropExportName returns the export name implementing the drop for
// instanceID of interface d: `pit/<digest>/~<instanceID>.drop`.
func DropExportName(d Digest, instanceID string) string {
	return PitPrefix + d.String() + "/" + CtorName(instanceID) + ".drop"
}

// TpitMethodExportName is the tpit/ (handle-form) analogue of MethodExportName.
func TpitMethodExportName(d Digest, instanceID, method string) string {
	return TpitPrefix + d.String() + "/" + CtorName(instanceID) + "/" + method
}

// TpitDropExportName is the tpit/ (handle-form) analogue of DropExportName.
func TpitDropExportName(d Digest, instanceID string) string {
	return TpitPrefix + d.String() + "/" + CtorName(instanceID) + ".drop"
}

// SplitInstanceExport recognizes an export name of the form
// "<prefix><digest>/~<instanceID>/<method>" or
// "<prefix><digest>/~<instanceID>.drop", returning instanceID, method
// ("" for the drop form), isDrop, and ok.
func SplitInstanceExport(name, prefix string, d Digest) (instanceID, method string, isDrop, ok bool) {
	base := prefix + d.String() + "/~"
	if !strings.HasPrefix(name, base) {
		return "", "", false, false
	}
	rest := name[len(base):]
	if idx := strings.LastIndex(rest, ".drop"); idx >= 0 && idx == len(rest)-len(".drop") {
		return rest[:idx], "", true, true
	}
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx], rest[idx+1:], false, true
	}
	return "", "", false, false
}

// IsCtorImportName reports whether name (an import name within a
// `pit/<digest>` or `tpit/<digest>` module) is an instance constructor
// name `~<instanceID>`, returning the instanceID.
func IsCtorImportName(name string) (instanceID string, ok bool) {
	if !strings.HasPrefix(name, "~") {
		return "", false
	}
	return name[1:], true
}
