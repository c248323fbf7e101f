// SPDX-License-Identifier: MIT

/*
Package bitint provides the power-of-two arithmetic needed to size and
validate radix-2 FFT buffers.

All functions are constant time, allocation free and safe to call from
the sequencer's worker goroutine.

Usage:

	// Reject transform sizes the radix-2 kernel cannot split evenly.
	if !bitint.IsPowerOfTwo(size) { ... }

	// Round a sample count derived from a frame rate up to a valid size.
	size := bitint.NextPowerOfTwo(1000) // 1024

	// Recursion depth of the kernel for a valid size.
	depth := bitint.Log2(1024) // 10
*/
package bitint

import "math/bits"

// IsPowerOfTwo reports whether n is a positive power of two.
// A power of two has exactly one bit set, so clearing the lowest set bit
// with n&(n-1) leaves zero:
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	6      false   0110 & 0101 = 0100
//	0      false   not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPowerOfTwo returns the smallest power of two >= n. Values <= 0
// return 1. Subtracting one first keeps exact powers of two unchanged:
// for n=8, bits.Len(7)=3 and 1<<3 is 8 again.
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// Log2 returns floor(log2(n)) for n > 0 and -1 otherwise. For a power of
// two this is the number of halvings the DIT recursion performs.
func Log2(n int) int {
	if n <= 0 {
		return -1
	}
	return bits.Len(uint(n)) - 1
}
