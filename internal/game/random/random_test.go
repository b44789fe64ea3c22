package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCryptoSource_Range(t *testing.T) {
	src := NewCryptoSource()
	for i := 0; i < 100; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

func TestCryptoSource_PanicsOnZero(t *testing.T) {
	src := NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
}

func TestFixedSource_Sequence(t *testing.T) {
	src := NewFixedSource(2, 0, 1)
	assert.Equal(t, 2, src.Intn(5))
	assert.Equal(t, 0, src.Intn(5))
	assert.Equal(t, 1, src.Intn(5))
	// repeats the last value once exhausted
	assert.Equal(t, 1, src.Intn(5))
}

func TestFixedSource_Modulo(t *testing.T) {
	src := NewFixedSource(7)
	assert.Equal(t, 1, src.Intn(3))
}

func TestPropertyCryptoSourceAlwaysInRange(t *testing.T) {
	src := NewCryptoSource()
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 1000).Draw(t, "n")
		v := src.Intn(n)
		if v < 0 || v >= n {
			t.Fatalf("Intn(%d) returned %d", n, v)
		}
	})
}
