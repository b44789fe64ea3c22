// Package random provides the randomness source used for turn-order
// selection and computer moves.
package random

import (
	"crypto/rand"
	"math/big"
)

// Source produces uniformly distributed random integers.
type Source interface {
	// Intn returns a random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// cryptoSource implements Source using crypto/rand.
//
// Invariant: All values produced are uniformly distributed in [0, n)
// for any n > 0.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "random: Intn called with n <= 0" if n <= 0.
// Panics with "random: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("random: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("random: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// FixedSource is a deterministic Source for tests: it returns the queued
// values in order and repeats the last one once exhausted.
type FixedSource struct {
	values []int
	next   int
}

// NewFixedSource creates a FixedSource returning the given values.
//
// Precondition: at least one value must be supplied.
func NewFixedSource(values ...int) *FixedSource {
	if len(values) == 0 {
		panic("random: NewFixedSource requires at least one value")
	}
	return &FixedSource{values: values}
}

// Intn returns the next queued value modulo n.
func (f *FixedSource) Intn(n int) int {
	if n <= 0 {
		panic("random: Intn called with n <= 0")
	}
	v := f.values[f.next]
	if f.next < len(f.values)-1 {
		f.next++
	}
	return v % n
}
