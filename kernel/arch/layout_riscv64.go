//go:build riscv64

package arch

// Sv39 is a 3-level scheme: VPN[2] at bits 38:30, VPN[1] at 29:21,
// VPN[0] at 20:12, each index 9 bits wide.
const (
	numLevels  = 3
	indexBits  = 9
	indexMask  = (1 << indexBits) - 1
	leafLevel  = numLevels - 1
	vaddrBits  = 39
	paddrBits  = 56
	satpModeSv39 = 8 << 60
)

var levelShift = [numLevels]uint{30, 21, 12}

// NumLevels returns the page-table depth for this architecture.
func NumLevels() int { return numLevels }

// LevelShift returns the bit shift for the VPN index at the given level
// (0 = root).
func LevelShift(level int) uint { return levelShift[level] }
