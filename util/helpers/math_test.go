package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetBit(t *testing.T) {
	require.True(t, GetBit(0b00000001, 0))
	require.True(t, GetBit(0b00000010, 1))
	require.True(t, GetBit(0b00000100, 2))
	require.True(t, GetBit(0b10000000, 7))

	require.False(t, GetBit(0b00000010, 0))
	require.False(t, GetBit(0b00000100, 1))
	require.False(t, GetBit(0b00000001, 7))
}

func TestSetBit(t *testing.T) {
	b := new(uint8)
	*b = 0

	SetBit(b, 0, true)
	require.Equal(t, uint8(0b00000001), *b)

	SetBit(b, 0, false)
	require.Equal(t, uint8(0b00000000), *b)

	SetBit(b, 4, true)
	require.Equal(t, uint8(0b00010000), *b)

	SetBit(b, 6, true)
	require.Equal(t, uint8(0b01010000), *b)

	SetBit(b, 4, false)
	require.Equal(t, uint8(0b01000000), *b)
}

func TestCompare(t *testing.T) {
	require.Equal(t, -1, Compare(1, 2))
	require.Equal(t, 1, Compare(2, 1))
	require.Equal(t, 0, Compare(7, 7))
	require.Equal(t, -1, Compare("a", "b"))
	require.Equal(t, 1, Compare(2.5, -1.5))
}

func TestMin(t *testing.T) {
	require.Equal(t, 1, Min(3, 1, 2))
	require.Equal(t, -5.5, Min(0.0, -5.5))
}
