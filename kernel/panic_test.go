package kernel

import "testing"

func TestPanicHaltsWithError(t *testing.T) {
	orig := haltFn
	defer func() { haltFn = orig }()

	var halted bool
	haltFn = func() { halted = true }

	Panic(&panicError{message: "boom"})

	if !halted {
		t.Fatal("expected Panic to halt the hart")
	}
}

func TestPanicHaltsWithNil(t *testing.T) {
	orig := haltFn
	defer func() { haltFn = orig }()

	var halted bool
	haltFn = func() { halted = true }

	Panic(nil)

	if !halted {
		t.Fatal("expected Panic to halt the hart even with a nil cause")
	}
}

func TestPanicAcceptsPlainString(t *testing.T) {
	orig := haltFn
	defer func() { haltFn = orig }()
	haltFn = func() {}

	Panic("something went wrong")
}
