package time_test

import (
	"testing"

	ktime "github.com/kestrel-os/kernel/kernel/time"
)

func TestAddNormalizes(t *testing.T) {
	got := ktime.TimeSpec{Sec: 1, Nsec: 800_000_000}.Add(ktime.TimeSpec{Sec: 0, Nsec: 500_000_000})
	want := ktime.TimeSpec{Sec: 2, Nsec: 300_000_000}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if got.Nsec < 0 || got.Nsec >= 1_000_000_000 {
		t.Fatalf("nsec out of range: %d", got.Nsec)
	}
}

func TestSubBorrows(t *testing.T) {
	got := ktime.TimeSpec{Sec: 2, Nsec: 100_000_000}.Sub(ktime.TimeSpec{Sec: 0, Nsec: 300_000_000})
	want := ktime.TimeSpec{Sec: 1, Nsec: 800_000_000}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestTimevalRoundTrip(t *testing.T) {
	orig := ktime.TimeSpec{Sec: 5, Nsec: 123_456_789}
	rt := orig.ToTimeval().ToTimeSpec()
	diff := orig.Nsec - rt.Nsec
	if diff < 0 {
		diff = -diff
	}
	if orig.Sec != rt.Sec || diff >= 1000 {
		t.Fatalf("round trip drifted: %+v -> %+v", orig, rt)
	}
}

func TestBefore(t *testing.T) {
	a := ktime.TimeSpec{Sec: 1, Nsec: 0}
	b := ktime.TimeSpec{Sec: 1, Nsec: 1}
	if !a.Before(b) || b.Before(a) {
		t.Fatalf("Before ordering wrong for %+v, %+v", a, b)
	}
}
