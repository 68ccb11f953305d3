package iface

import "testing"

func TestParseS1(t *testing.T) {
	i, err := Parse("{m(I32)->(I32)}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := Serialize(i)
	want := "{m(I32) -> (I32)}"
	if got != want {
		t.Errorf("Serialize = %q, want %q", got, want)
	}
}

func TestParseS2_MethodOrderInsensitive(t *testing.T) {
	a, err := Parse("{b()->();a()->()}")
	if err != nil {
		t.Fatalf("Parse a: %v", err)
	}
	b, err := Parse("{a()->();b()->()}")
	if err != nil {
		t.Fatalf("Parse b: %v", err)
	}
	wantSerial := "{a() -> ();b() -> ()}"
	if got := Serialize(a); got != wantSerial {
		t.Errorf("Serialize(a) = %q, want %q", got, wantSerial)
	}
	if got := Serialize(b); got != wantSerial {
		t.Errorf("Serialize(b) = %q, want %q", got, wantSerial)
	}
	if ComputeDigest(a) != ComputeDigest(b) {
		t.Error("digests of differently-ordered methods should be equal")
	}
}

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"{}",
		"{m(I32)->(I32)}",
		"{a(I64,F32)->(F64);b()->(I32)}",
		"[v=1]{m()->()}",
		"{m(Rn)->(R&)}",
		"{m(Rthis)->(Rthisn&)}",
		"{m([a=b]R&)->()}",
	}
	for _, src := range cases {
		i, err := Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		again, err := Parse(Serialize(i))
		if err != nil {
			t.Fatalf("Parse(Serialize(%q)): %v", src, err)
		}
		if Serialize(again) != Serialize(i) {
			t.Errorf("round-trip mismatch for %q: got %q, want %q", src, Serialize(again), Serialize(i))
		}
	}
}

func TestParseResourceDigest(t *testing.T) {
	hex64 := ""
	for i := 0; i < 64; i++ {
		hex64 += "a"
	}
	src := "{m(R" + hex64 + ")->()}"
	i, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sig, _ := i.Methods.GetOK("m")
	arg := sig.Params[0]
	if arg.Class != ArgResource || arg.Resource.Kind != ResourceDigest {
		t.Fatalf("expected a resource-digest arg, got %+v", arg)
	}
	if arg.Resource.Digest.String() != hex64 {
		t.Errorf("digest round-trip: got %s, want %s", arg.Resource.Digest.String(), hex64)
	}
}

func TestParseErrorNoPartialResult(t *testing.T) {
	got, err := Parse("{m(I32)->(")
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if got.Methods.Len() != 0 || got.Annotations.Len() != 0 {
		t.Errorf("expected no partial interface on error, got %d methods", got.Methods.Len())
	}
	var pe *ParseError
	if !asParseError(err, &pe) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
}

func asParseError(err error, target **ParseError) bool {
	if pe, ok := err.(*ParseError); ok {
		*target = pe
		return true
	}
	return false
}

func TestAttrsLastWinsSorted(t *testing.T) {
	attrs := NewAttrs([]Attr{{Name: "z", Value: "1"}, {Name: "a", Value: "1"}, {Name: "a", Value: "2"}})
	if attrs.Len() != 2 {
		t.Fatalf("expected 2 merged attrs, got %d", attrs.Len())
	}
	pairs := attrs.Pairs()
	if pairs[0].Name != "a" || pairs[0].Value != "2" {
		t.Errorf("expected a=2 (last wins) first (sorted), got %+v", pairs[0])
	}
	if pairs[1].Name != "z" {
		t.Errorf("expected z second, got %+v", pairs[1])
	}
}
