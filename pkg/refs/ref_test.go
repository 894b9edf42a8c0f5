package refs

import "testing"

func TestStorageTierString(t *testing.T) {
	cases := map[StorageTier]string{
		New:         "new",
		Loose:       "loose",
		Packed:      "packed",
		LoosePacked: "loose+packed",
	}
	for tier, want := range cases {
		if got := tier.String(); got != want {
			t.Fatalf("StorageTier(%d).String() = %q, want %q", tier, got, want)
		}
	}
}

func TestRefIsSymbolic(t *testing.T) {
	sym := Ref{Name: "HEAD", SymbolicTarget: "refs/heads/main"}
	if !sym.IsSymbolic() {
		t.Fatalf("expected symbolic ref to report IsSymbolic")
	}
	direct := Ref{Name: "refs/heads/main"}
	if direct.IsSymbolic() {
		t.Fatalf("expected direct ref to report non-symbolic")
	}
}
