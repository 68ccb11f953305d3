package iface

import (
	"fmt"

	"github.com/portal-pit/pit/internal/visitor"
	"github.com/portal-pit/pit/module"
)

// SectionName is the fixed custom section PIT interfaces live in (spec §6).
const SectionName = ".pit-types"

// MissingSectionError reports that SectionName is absent where the caller
// required it (spec §7, "missing section").
type MissingSectionError struct {
	Section string
}

func (e *MissingSectionError) Error() string {
	return fmt.Sprintf("iface: missing custom section %q", e.Section)
}

// Discover reads the `.pit-types` custom section, splits it on zero bytes,
// parses each fragment, and returns the set of distinct interfaces sorted
// by digest (spec §4.2). It returns a [MissingSectionError] if no section
// named [SectionName] is present, and a [*ParseError] (wrapped) at the
// first fragment that fails to parse.
func Discover(mod *module.Module) ([]Interface, error) {
	data, ok := findSection(mod, SectionName)
	if !ok {
		return nil, &MissingSectionError{Section: SectionName}
	}
	return parseSection(data)
}

// DiscoverOptional behaves like Discover but returns an empty, non-error
// result when the section is absent — used by driver.Run and Embed, which
// operate on "every interface present" and treat "none embedded" as the
// empty set rather than a hard failure.
func DiscoverOptional(mod *module.Module) ([]Interface, error) {
	ifaces, err := Discover(mod)
	if _, missing := err.(*MissingSectionError); missing {
		return nil, nil
	}
	return ifaces, err
}

func findSection(mod *module.Module, name string) ([]byte, bool) {
	for _, c := range mod.Customs.All() {
		if c.Name == name {
			return c.Data, true
		}
	}
	return nil, false
}

// parseSection splits data on zero bytes and parses each non-empty
// fragment, deduplicating by digest and sorting the result (spec §4.2:
// "any parse error fails the whole call").
func parseSection(data []byte) ([]Interface, error) {
	var fragments [][]byte
	start := 0
	for i, b := range data {
		if b == 0 {
			fragments = append(fragments, data[start:i])
			start = i + 1
		}
	}
	// A section that doesn't end in a trailing zero still yields its last
	// fragment; well-formed sections always zero-terminate every entry, so
	// in practice start == len(data) here.
	if start < len(data) {
		fragments = append(fragments, data[start:])
	}

	byDigest := make(map[Digest]Interface)
	seen := visitor.New(func(Digest) bool { return true })
	var order []Digest
	for _, frag := range fragments {
		if len(frag) == 0 {
			continue
		}
		parsed, err := Parse(string(frag))
		if err != nil {
			return nil, fmt.Errorf("iface: discovery: %w", err)
		}
		d := ComputeDigest(parsed)
		if !seen.Visited(d) {
			order = append(order, d)
		}
		seen.Yield(d)
		byDigest[d] = parsed
	}
	sortDigests(order)
	out := make([]Interface, len(order))
	for i, d := range order {
		out[i] = byDigest[d]
	}
	return out, nil
}

func sortDigests(ds []Digest) {
	for i := 1; i < len(ds); i++ {
		for j := i; j > 0 && ds[j].Less(ds[j-1]); j-- {
			ds[j], ds[j-1] = ds[j-1], ds[j]
		}
	}
}

// Embed appends each of additions (canonical form + trailing zero) to the
// `.pit-types` section, then re-parses and rewrites the whole section in
// deduplicated, digest-sorted canonical order (spec §4.2, "Embedding").
// Calling Embed twice with the same interfaces is idempotent: the second
// call discovers nothing new and re-emits the same bytes.
func Embed(mod *module.Module, additions []Interface) error {
	existing, err := DiscoverOptional(mod)
	if err != nil {
		return err
	}
	merged := mergeByDigest(existing, additions)
	return writeSection(mod, merged)
}

func mergeByDigest(sets ...[]Interface) []Interface {
	byDigest := make(map[Digest]Interface)
	var order []Digest
	for _, set := range sets {
		for _, i := range set {
			d := ComputeDigest(i)
			if _, ok := byDigest[d]; !ok {
				order = append(order, d)
			}
			byDigest[d] = i
		}
	}
	sortDigests(order)
	out := make([]Interface, len(order))
	for i, d := range order {
		out[i] = byDigest[d]
	}
	return out
}

func writeSection(mod *module.Module, ifaces []Interface) error {
	var data []byte
	for _, i := range ifaces {
		data = append(data, Serialize(i)...)
		data = append(data, 0)
	}
	customs := mod.Customs.All()
	for idx := range customs {
		if customs[idx].Name == SectionName {
			*mod.Customs.Get(module.Index(idx)) = module.CustomSection{Name: SectionName, Data: data}
			return nil
		}
	}
	mod.Customs.Append(module.CustomSection{Name: SectionName, Data: data})
	return nil
}
