package util

import "testing"

func TestHashUserKeyStable(t *testing.T) {
	a := HashUserKey("guest:abc")
	b := HashUserKey("guest:abc")
	if a != b {
		t.Fatalf("expected stable hash, got %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == HashUserKey("guest:abd") {
		t.Fatalf("expected distinct hashes for distinct inputs")
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "lease.pdf", want: "lease.pdf"},
		{in: " lease agreement.pdf ", want: "lease agreement.pdf"},
		{in: "a/b.pdf", want: "a_b.pdf"},
		{in: "a\\b.pdf", want: "a_b.pdf"},
		{in: "../etc/passwd", wantErr: true},
		{in: "   ", wantErr: true},
	}
	for _, tc := range cases {
		got, err := SanitizeFileName(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("SanitizeFileName(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SanitizeFileName(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
