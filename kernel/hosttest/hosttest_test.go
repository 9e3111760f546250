//go:build hosttest

package hosttest

import "testing"

func TestArenaBytesRoundTrip(t *testing.T) {
	a, err := NewArena(4)
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	defer a.Close()

	a.Bytes(2)[0] = 0x42
	if got := a.Bytes(2)[0]; got != 0x42 {
		t.Fatalf("got %#x, want 0x42", got)
	}
	if a.Bytes(0)[0] != 0 {
		t.Fatal("expected frame 0 to be untouched")
	}
}
