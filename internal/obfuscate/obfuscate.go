// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package obfuscate hides sequential database ids behind a reversible
// multiplicative permutation of the 63-bit integer space.
package obfuscate

import (
	"errors"
	"math/bits"
)

// Max is the modulus of the permutation, 2^63 - 1.
const Max uint64 = 1<<63 - 1

// ErrInvalidParameters is returned by Validate when Prime and Inverse are
// not multiplicative inverses modulo Max.
var ErrInvalidParameters = errors.New("obfuscation parameters are not inverses modulo 2^63-1")

// Codec maps ids to public ids and back. The zero value is not usable.
type Codec struct {
	Prime   uint64
	Inverse uint64
	Random  uint64
}

// New creates a codec from the three configured parameters.
func New(prime, inverse, random uint64) Codec {
	return Codec{Prime: prime, Inverse: inverse, Random: random}
}

// Encode returns the public form of n.
func (c Codec) Encode(n int64) int64 {
	return int64(mulMod(uint64(n), c.Prime) ^ c.Random) //nolint:gosec // result fits in 63 bits
}

// Decode reverses Encode.
func (c Codec) Decode(m int64) int64 {
	return int64(mulMod(uint64(m)^c.Random, c.Inverse)) //nolint:gosec // result fits in 63 bits
}

// Validate reports whether the parameters form a bijection. Call it once at
// startup; Encode and Decode never check.
func (c Codec) Validate() error {
	if c.Prime >= Max || c.Inverse >= Max || c.Random >= Max {
		return ErrInvalidParameters
	}
	if mulMod(c.Prime, c.Inverse) != 1 {
		return ErrInvalidParameters
	}
	return nil
}

// mulMod computes (a * b) mod Max without overflowing.
func mulMod(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, Max)
}
