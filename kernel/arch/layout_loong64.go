//go:build loong64

package arch

// The LoongArch page-walk used here is a 4-level scheme with a uniform
// 9-bit index per level (a simplification of the architecture's
// configurable PWCL/PWCH strides, matching spec.md's "the indices shift
// by the configured level stride").
const (
	numLevels = 4
	indexBits = 9
	indexMask = (1 << indexBits) - 1
	leafLevel = numLevels - 1
)

var levelShift = [numLevels]uint{39, 30, 21, 12}

// NumLevels returns the page-table depth for this architecture.
func NumLevels() int { return numLevels }

// LevelShift returns the bit shift for the index at the given level
// (0 = root).
func LevelShift(level int) uint { return levelShift[level] }
