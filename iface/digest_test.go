package iface

import (
	"testing"

	"golang.org/x/crypto/sha3"
)

func TestDigestDeterminism(t *testing.T) {
	i, err := Parse("{b(I32)->();a()->(F64)}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	again, err := Parse(Serialize(i))
	if err != nil {
		t.Fatalf("Parse(Serialize): %v", err)
	}
	if ComputeDigest(i) != ComputeDigest(again) {
		t.Error("digest(parse(serialize(i))) != digest(i)")
	}
}

func TestDigestAttributeOrderInsensitive(t *testing.T) {
	a, err := Parse("[x=1][y=2]{m()->()}")
	if err != nil {
		t.Fatalf("Parse a: %v", err)
	}
	b, err := Parse("[y=2][x=1]{m()->()}")
	if err != nil {
		t.Fatalf("Parse b: %v", err)
	}
	if ComputeDigest(a) != ComputeDigest(b) {
		t.Error("attribute order should not affect digest")
	}
	if Serialize(a) != Serialize(b) {
		t.Errorf("serialize should also be order-insensitive: %q vs %q", Serialize(a), Serialize(b))
	}
}

func TestDigestDistinctForDistinctInterfaces(t *testing.T) {
	a, _ := Parse("{m(I32)->(I32)}")
	b, _ := Parse("{m(I32)->(I64)}")
	if ComputeDigest(a) == ComputeDigest(b) {
		t.Error("distinct interfaces must have distinct digests")
	}
}

func TestDigestIsSHA3_256OfCanonicalForm(t *testing.T) {
	i, err := Parse("{m(I32)->(I32)}")
	if err != nil {
		t.Fatal(err)
	}
	if len(ComputeDigest(i)) != 32 {
		t.Fatalf("digest must be 32 bytes, got %d", len(ComputeDigest(i)))
	}
	if want := Digest(sha3.Sum256([]byte("{m(I32) -> (I32)}"))); ComputeDigest(i) != want {
		t.Errorf("digest = %s, want SHA3-256 of the canonical form, %s", ComputeDigest(i), want)
	}
}
