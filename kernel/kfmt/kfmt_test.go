package kfmt_test

import (
	"testing"

	"github.com/kestrel-os/kernel/kernel/hal"
	"github.com/kestrel-os/kernel/kernel/kfmt"
)

type bufConsole struct{ buf []byte }

func (c *bufConsole) WriteByte(b byte) { c.buf = append(c.buf, b) }
func (c *bufConsole) Write(p []byte)   { c.buf = append(c.buf, p...) }

func TestPrintf(t *testing.T) {
	specs := []struct {
		format string
		args   []interface{}
		exp    string
	}{
		{"hello", nil, "hello"},
		{"%s world", []interface{}{"hello"}, "hello world"},
		{"%5s|", []interface{}{"ab"}, "   ab|"},
		{"%d", []interface{}{42}, "42"},
		{"%d", []interface{}{-7}, "-7"},
		{"%x", []interface{}{uint32(255)}, "0xff"},
		{"%o", []interface{}{uint8(8)}, "10"},
		{"%t/%t", []interface{}{true, false}, "true/false"},
		{"%d %d", []interface{}{1}, "1 (MISSING)"},
		{"%d", []interface{}{1, 2}, "1%!(EXTRA)"},
	}

	for _, spec := range specs {
		c := &bufConsole{}
		hal.SetConsole(c)
		kfmt.Printf(spec.format, spec.args...)
		if got := string(c.buf); got != spec.exp {
			t.Errorf("Printf(%q, %v): got %q, want %q", spec.format, spec.args, got, spec.exp)
		}
	}
	hal.SetConsole(nil)
}

func TestPrintfWarnAndErrTagTheLine(t *testing.T) {
	c := &bufConsole{}
	hal.SetConsole(c)
	defer hal.SetConsole(nil)

	kfmt.PrintfWarn("disk %s\n", "slow")
	if got, want := string(c.buf), "[WARN] disk slow\n"; got != want {
		t.Errorf("PrintfWarn: got %q, want %q", got, want)
	}

	c.buf = nil
	kfmt.PrintfErr("disk %s\n", "gone")
	if got, want := string(c.buf), "[ERROR] disk gone\n"; got != want {
		t.Errorf("PrintfErr: got %q, want %q", got, want)
	}
}
