package memutils

import (
	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Integer
}

// CheckPow2 returns PowerOfTwoError if number is not zero or a power of two
func CheckPow2[T Number](number T, name string) error {
	if number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// AlignOffset rounds offset up to the next multiple of alignment. An alignment of 0 leaves
// offset unchanged. Alignment must otherwise be a power of two.
func AlignOffset(offset int, alignment uint) int {
	if alignment == 0 {
		return offset
	}

	return AlignUp(offset, alignment)
}

func AlignUp(value int, alignment uint) int {
	return (value + int(alignment) - 1) & int(^(alignment - 1))
}
