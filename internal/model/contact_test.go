package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOffset(t *testing.T) {
	for page, want := range map[int]int{0: 0, 1: 0, 2: 5, 4: 15} {
		require.Equal(t, want, Offset(page), "page %d", page)
	}
}

func TestOffset_HugePageDoesNotOverflow(t *testing.T) {
	got := Offset(math.MaxInt)
	require.Equal(t, (MaxPage-1)*PageSize, got)
	require.Positive(t, got)
}

func TestClampPage(t *testing.T) {
	tests := map[int]int{
		math.MinInt: 1,
		-3:          1,
		0:           1,
		1:           1,
		42:          42,
		MaxPage:     MaxPage,
		MaxPage + 1: MaxPage,
		math.MaxInt: MaxPage,
	}
	for in, want := range tests {
		require.Equal(t, want, ClampPage(in), "page %d", in)
	}
}

func TestValidID(t *testing.T) {
	tests := map[int64]bool{
		-1:                false,
		0:                 false,
		1:                 true,
		math.MaxInt32:     true,
		math.MaxInt32 + 1: false,
		3000000000:        false,
	}
	for id, want := range tests {
		require.Equal(t, want, ValidID(id), "id %d", id)
	}
}
