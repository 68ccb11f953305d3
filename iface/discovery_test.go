package iface

import (
	"testing"

	"github.com/portal-pit/pit/module"
)

func TestSectionRoundTrip(t *testing.T) {
	mod := module.New()
	i, err := Parse("{m(I32)->(I32)}")
	if err != nil {
		t.Fatal(err)
	}

	if err := Embed(mod, []Interface{i}); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	got, err := Discover(mod)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 1 || ComputeDigest(got[0]) != ComputeDigest(i) {
		t.Fatalf("Discover after Embed = %+v, want [%+v]", got, i)
	}

	// Embedding the same interface again is idempotent (S3).
	if err := Embed(mod, []Interface{i}); err != nil {
		t.Fatalf("second Embed: %v", err)
	}
	got2, err := Discover(mod)
	if err != nil {
		t.Fatalf("second Discover: %v", err)
	}
	if len(got2) != 1 {
		t.Fatalf("Embed should be idempotent, got %d interfaces", len(got2))
	}
}

func TestSectionSortedByDigest(t *testing.T) {
	mod := module.New()
	a, _ := Parse("{a()->()}")
	b, _ := Parse("{bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb()->()}")
	c, _ := Parse("{c()->(I32,I64,F32,F64)}")

	if err := Embed(mod, []Interface{c, a, b}); err != nil {
		t.Fatal(err)
	}
	got, err := Discover(mod)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(got); i++ {
		if !ComputeDigest(got[i-1]).Less(ComputeDigest(got[i])) {
			t.Fatalf("Discover result not sorted by digest at index %d", i)
		}
	}
}

func TestDiscoverMissingSection(t *testing.T) {
	mod := module.New()
	_, err := Discover(mod)
	if err == nil {
		t.Fatal("expected MissingSectionError")
	}
	if _, ok := err.(*MissingSectionError); !ok {
		t.Fatalf("expected *MissingSectionError, got %T", err)
	}
}

func TestDiscoverParseErrorFailsWholeCall(t *testing.T) {
	mod := module.New()
	mod.Customs.Append(module.CustomSection{Name: SectionName, Data: []byte("{not valid\x00")})
	_, err := Discover(mod)
	if err == nil {
		t.Fatal("expected a parse error to propagate")
	}
}
