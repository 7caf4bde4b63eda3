// SPDX-License-Identifier: MIT

/*
Package bitint provides the power-of-two arithmetic used to size and validate
FFT buffers. Every function is allocation free and constant time so it can be
called from the tick path.

Usage:

	// Reject an FFT size at configuration time
	if !bitint.IsPowerOfTwo(size) { ... }

	// Number of butterfly stages for a radix-2 transform
	stages := bitint.Log2(size) // 4096 -> 12

	// Round a requested buffer length up
	n := bitint.NextPowerOfTwo(1000) // 1024

----------------------------------------------------------------------

NextPowerOfTwo subtracts one before taking the bit length so that exact
powers of two are preserved:

	size = 8   ->  size-1 = 0111  ->  bits.Len = 3  ->  1<<3 = 8
	size = 9   ->  size-1 = 1000  ->  bits.Len = 4  ->  1<<4 = 16

Without the subtraction an exact power of two would be doubled.
*/
package bitint

import "math/bits"

// IsPowerOfTwo reports whether n is a positive power of two.
// Powers of two have a single bit set, so n&(n-1) clears it to zero.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	12     false   1100 & 1011 = 1000
//	0      false   not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPowerOfTwo returns the smallest power of two >= size. Zero and
// negative sizes return 1.
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// PreviousPowerOfTwo returns the largest power of two <= size. Zero and
// negative sizes return 1.
func PreviousPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << (bits.Len(uint(size)) - 1)
}

// Log2 returns floor(log2(n)) for positive n and -1 otherwise. For powers of
// two this is the number of radix-2 stages of an n-point transform.
func Log2(n int) int {
	if n <= 0 {
		return -1
	}
	return bits.Len(uint(n)) - 1
}
