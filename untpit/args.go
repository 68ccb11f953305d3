package untpit

import (
	"github.com/portal-pit/pit/handle"
	"github.com/portal-pit/pit/iface"
	"github.com/portal-pit/pit/module"
)

// refValType returns the reference-form module type for an argument kind:
// Ref for a resource, the matching numeric ValType otherwise.
func refValType(k iface.ArgKind) module.ValType {
	switch k.Class {
	case iface.ArgI64:
		return module.I64
	case iface.ArgF32:
		return module.F32
	case iface.ArgF64:
		return module.F64
	case iface.ArgResource:
		return module.Ref
	default:
		return module.I32
	}
}

func refValTypes(kinds []iface.ArgKind) []module.ValType {
	out := make([]module.ValType, len(kinds))
	for i, k := range kinds {
		out[i] = refValType(k)
	}
	return out
}

// shimValuesToRef walks kinds/vals left to right, converting each resource
// value from handle to reference form (shimIntToRef) and passing every
// other value through unchanged, then invokes cont with the full
// reference-form argument list. Used for a method import's parameters
// (going into the new pit/ call) and for an export wrapper's results
// (coming back from the handle-form original); the opposite direction is
// shimValuesToInt.
func shimValuesToRef(b *module.Builder, tbls *handle.Tables, kinds []iface.ArgKind, vals []module.ValueID, cont func(*module.Builder, []module.ValueID) module.Block) module.Block {
	return shimValuesToRefFrom(b, tbls, kinds, vals, 0, nil, cont)
}

func shimValuesToRefFrom(b *module.Builder, tbls *handle.Tables, kinds []iface.ArgKind, vals []module.ValueID, i int, acc []module.ValueID, cont func(*module.Builder, []module.ValueID) module.Block) module.Block {
	if i == len(kinds) {
		return cont(b, acc)
	}
	if kinds[i].Class != iface.ArgResource {
		return shimValuesToRefFrom(b, tbls, kinds, vals, i+1, append(append([]module.ValueID{}, acc...), vals[i]), cont)
	}
	return shimIntToRef(b, tbls, vals[i], kinds[i].Take, func(ab *module.Builder, ref module.ValueID) module.Block {
		return shimValuesToRefFrom(ab, tbls, kinds, vals, i+1, append(append([]module.ValueID{}, acc...), ref), cont)
	})
}

// shimValuesToInt is shimValuesToRef's inverse: converts each resource
// value from reference to handle form (shimRefToInt).
func shimValuesToInt(b *module.Builder, tbls *handle.Tables, kinds []iface.ArgKind, vals []module.ValueID, cont func(*module.Builder, []module.ValueID) module.Block) module.Block {
	return shimValuesToIntFrom(b, tbls, kinds, vals, 0, nil, cont)
}

func shimValuesToIntFrom(b *module.Builder, tbls *handle.Tables, kinds []iface.ArgKind, vals []module.ValueID, i int, acc []module.ValueID, cont func(*module.Builder, []module.ValueID) module.Block) module.Block {
	if i == len(kinds) {
		return cont(b, acc)
	}
	if kinds[i].Class != iface.ArgResource {
		return shimValuesToIntFrom(b, tbls, kinds, vals, i+1, append(append([]module.ValueID{}, acc...), vals[i]), cont)
	}
	return shimRefToInt(b, tbls, vals[i], kinds[i].Take, func(ab *module.Builder, h module.ValueID) module.Block {
		return shimValuesToIntFrom(ab, tbls, kinds, vals, i+1, append(append([]module.ValueID{}, acc...), h), cont)
	})
}

// thisResourceParam is the implicit single parameter of a `.drop` entry
// point: the instance handle/reference itself, always owning.
var thisResourceParam = []iface.ArgKind{iface.ResourceArg(iface.ResourceType{Kind: iface.ResourceThis}, false, true, nil)}
