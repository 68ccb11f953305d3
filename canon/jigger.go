package canon

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/portal-pit/pit/iface"
	"github.com/portal-pit/pit/module"
)

// Jigger perturbs every instance identifier in mod deterministically
// (spec §4.5, final paragraph): it hashes a canonical serialization of
// mod together with seed, then for every `pit/I.~id` import and every
// `pit/I/~id/<method>` or `pit/I/~id.drop` export, replaces id with the
// hex SHA3-256 of "id-<module hash>". Two modules with identical content
// (and the same seed) salt their instance ids identically; modules that
// differ in any way salt differently, which is the point — it keeps two
// independently compiled modules contributing the same literal id (e.g.
// both using "~0") from colliding once merged.
func Jigger(mod *module.Module, seed string) {
	h := moduleHash(mod, seed)

	rename := func(id string) string {
		sum := sha3.Sum256([]byte(id + "-" + h))
		return fmt.Sprintf("%x", sum)
	}

	renameImports(mod, rename)
	renameExports(mod, rename)
}

func renameImports(mod *module.Module, rename func(string) string) {
	for i, imp := range mod.Imports.All() {
		if imp.Desc.Kind != module.DescFunc || !strings.HasPrefix(imp.Module, iface.PitPrefix) {
			continue
		}
		id, ok := iface.IsCtorImportName(imp.Name)
		if !ok {
			continue
		}
		imp.Name = iface.CtorName(rename(id))
		*mod.Imports.Get(module.Index(i)) = imp
	}
}

func renameExports(mod *module.Module, rename func(string) string) {
	for i, exp := range mod.Exports.All() {
		if exp.Desc.Kind != module.DescFunc {
			continue
		}
		id, method, isDrop, ok := splitAnyDigestExport(exp.Name)
		if !ok {
			continue
		}
		newID := rename(id)
		digestPart, _, _, _ := splitDigestPrefix(exp.Name)
		if isDrop {
			exp.Name = iface.PitPrefix + digestPart + "/" + iface.CtorName(newID) + ".drop"
		} else {
			exp.Name = iface.PitPrefix + digestPart + "/" + iface.CtorName(newID) + "/" + method
		}
		*mod.Exports.Get(module.Index(i)) = exp
	}
}

// splitAnyDigestExport recognizes `pit/<digest>/~id/...` regardless of
// digest value, since Jigger runs over every interface present at once
// rather than one digest at a time.
func splitAnyDigestExport(name string) (id, method string, isDrop, ok bool) {
	digest, rest, found, _ := splitDigestPrefix(name)
	if !found {
		return "", "", false, false
	}
	if !strings.HasPrefix(rest, "~") {
		return "", "", false, false
	}
	rest = rest[1:]
	if strings.HasSuffix(rest, ".drop") {
		return rest[:len(rest)-len(".drop")], "", true, true
	}
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx], rest[idx+1:], false, true
	}
	_ = digest
	return "", "", false, false
}

// splitDigestPrefix splits `pit/<digest>/<rest>` into digest and rest.
func splitDigestPrefix(name string) (digest, rest string, found bool, _ bool) {
	if !strings.HasPrefix(name, iface.PitPrefix) {
		return "", "", false, false
	}
	trimmed := name[len(iface.PitPrefix):]
	idx := strings.Index(trimmed, "/")
	if idx < 0 {
		return "", "", false, false
	}
	return trimmed[:idx], trimmed[idx+1:], true, false
}

// moduleHash returns a stable hex digest of mod's current content plus
// seed. It is not a real wasm binary encoding — only a canonical
// fingerprint stable under repeated calls against the same content — since
// Jigger only needs a value that varies with the module, not a
// byte-for-byte reproduction of its eventual encoded form.
func moduleHash(mod *module.Module, seed string) string {
	var sb strings.Builder
	sb.WriteString(seed)
	sb.WriteByte(0)
	for _, sig := range mod.Signatures.All() {
		fmt.Fprintf(&sb, "sig:%v\x00", sig)
	}
	for _, f := range mod.Funcs.All() {
		fmt.Fprintf(&sb, "func:%s:%v\x00", f.Name, f.Sig)
	}
	for _, imp := range mod.Imports.All() {
		fmt.Fprintf(&sb, "import:%s:%s:%v\x00", imp.Module, imp.Name, imp.Desc)
	}
	for _, exp := range mod.Exports.All() {
		fmt.Fprintf(&sb, "export:%s:%v\x00", exp.Name, exp.Desc)
	}
	sum := sha3.Sum256([]byte(sb.String()))
	return fmt.Sprintf("%x", sum)
}
