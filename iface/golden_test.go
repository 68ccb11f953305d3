package iface

import (
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// golden cases pin the exact canonical text for a handful of interfaces,
// the way the teacher's wit/golden_test.go pins generator output. Unlike
// that test there is no -update flag: these strings are short enough to
// author by hand. "s1" and "s2" are the spec's own S1/S2 literal values.
var goldenCases = map[string]string{
	"s1": "{m(I32)->(I32)}",
	"s2": "{b()->();a()->()}",
	"three-instances-ish": "{m(I32,I64)->(F32,F64,R&)}",
}

var goldenWant = map[string]string{
	"s1":                  "{m(I32) -> (I32)}",
	"s2":                  "{a() -> ();b() -> ()}",
	"three-instances-ish": "{m(I32,I64) -> (F32,F64,R&)}",
}

func TestGoldenSerialization(t *testing.T) {
	for name, src := range goldenCases {
		i, err := Parse(src)
		if err != nil {
			t.Fatalf("%s: Parse: %v", name, err)
		}
		got := Serialize(i)
		want := goldenWant[name]
		if got != want {
			dmp := diffmatchpatch.New()
			diffs := dmp.DiffMain(want, got, false)
			t.Errorf("%s: serialization mismatch:\n%s", name, dmp.DiffPrettyText(diffs))
		}
	}
}
