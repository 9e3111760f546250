// Package hal is the thin hardware-abstraction seam between the core
// and the device drivers that are out of scope for this repository
// (spec.md §1's "external collaborators"). It exposes exactly the boot
// contract (spec.md §6) and a console sink that kernel/kfmt writes
// through, mirroring the teacher's kernel/hal package.
package hal

// Console is anything that can accept raw bytes for early, allocation-
// free diagnostic output. A concrete UART or framebuffer driver (out of
// scope here) implements this and is installed via SetConsole during
// boot.
type Console interface {
	WriteByte(b byte)
	Write(p []byte)
}

// discardConsole swallows everything; it is the default until boot
// installs a real console, so that early Printf calls before console
// bring-up do not fault on a nil interface.
type discardConsole struct{}

func (discardConsole) WriteByte(byte) {}
func (discardConsole) Write([]byte)   {}

// ActiveConsole is the console kernel/kfmt.Printf writes to.
var ActiveConsole Console = discardConsole{}

// SetConsole installs c as the active console. Called once per hart
// during boot after the platform driver (UART, framebuffer, ...) has
// initialized itself.
func SetConsole(c Console) {
	if c == nil {
		c = discardConsole{}
	}
	ActiveConsole = c
}

// HartInfo carries the boot-time identity handed to kernel main by the
// architecture's entry assembly (spec.md §6's boot contract).
type HartInfo struct {
	// HartID is a0 at boot entry (or 0 on platforms that clobber it).
	HartID uint64
}
