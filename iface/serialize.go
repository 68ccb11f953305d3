package iface

import (
	"strings"

	"github.com/portal-pit/pit/internal/stringio"
)

// Serialize renders i in its canonical form (spec §3, §4.1): annotations in
// (sorted) order, `{`, methods in ascending name order separated by `;`,
// `}`. digest(i) is always SHA3-256 of exactly this string.
func Serialize(i Interface) string {
	var b strings.Builder
	writeAttrs(&b, i.Annotations)
	stringio.Write(&b, "{")
	for idx, name := range i.MethodNames() {
		if idx > 0 {
			stringio.Write(&b, ";")
		}
		stringio.Write(&b, name)
		sig, _ := i.Methods.GetOK(name)
		writeSignature(&b, sig)
	}
	stringio.Write(&b, "}")
	return b.String()
}

// SerializeSignature renders sig alone, in the `sig` grammar production's
// canonical form. Exposed for tests and for passes that need to describe a
// signature outside of a full interface (none currently do; kept because
// the grammar treats sig as a first-class production).
func SerializeSignature(sig Signature) string {
	var b strings.Builder
	writeSignature(&b, sig)
	return b.String()
}

func writeSignature(b *strings.Builder, sig Signature) {
	writeAttrs(b, sig.Annotations)
	stringio.Write(b, "(")
	writeArgs(b, sig.Params)
	stringio.Write(b, ") -> (")
	writeArgs(b, sig.Results)
	stringio.Write(b, ")")
}

func writeArgs(b *strings.Builder, args []ArgKind) {
	for i, a := range args {
		if i > 0 {
			stringio.Write(b, ",")
		}
		writeArg(b, a)
	}
}

func writeArg(b *strings.Builder, a ArgKind) {
	switch a.Class {
	case ArgI32, ArgI64, ArgF32, ArgF64:
		stringio.Write(b, a.Class.String())
	case ArgResource:
		writeAttrs(b, a.Annotations)
		stringio.Write(b, "R")
		switch a.Resource.Kind {
		case ResourceNone:
			// ε
		case ResourceThis:
			stringio.Write(b, "this")
		case ResourceDigest:
			stringio.Write(b, a.Resource.Digest.String())
		}
		if a.Nullable {
			stringio.Write(b, "n")
		}
		if !a.Take {
			stringio.Write(b, "&")
		}
	}
}

func writeAttrs(b *strings.Builder, attrs Attrs) {
	for _, a := range attrs.Pairs() {
		stringio.Write(b, "[", a.Name, "=", a.Value, "]")
	}
}
