package aggregation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartree/go-query/pkg/types"
)

func TestDistinctFilter(t *testing.T) {
	terms := []Term{
		{Kind: Count, Type: intMeta, Input: expr("x"), Distinct: true},
		{Kind: Sum, Type: intMeta, Input: expr("y")},
	}
	df := NewDistinctFilter(terms)

	next := df.Filter("", []types.DataType{iv(1), iv(10)})
	require.Equal(t, int64(1), next[0].Value())

	// duplicate distinct value is nulled, non-distinct term untouched
	next = df.Filter("", []types.DataType{iv(1), iv(10)})
	require.True(t, next[0].IsNull())
	require.Equal(t, int64(10), next[1].Value())

	next = df.Filter("", []types.DataType{iv(2), iv(10)})
	require.Equal(t, int64(2), next[0].Value())
}

func TestDistinctFilterPerGroup(t *testing.T) {
	terms := []Term{
		{Kind: Sum, Type: intMeta, Input: expr("x"), Distinct: true},
	}
	df := NewDistinctFilter(terms)

	df.Filter("a", []types.DataType{iv(5)})
	// same value in another group is still new
	next := df.Filter("b", []types.DataType{iv(5)})
	require.Equal(t, int64(5), next[0].Value())

	next = df.Filter("a", []types.DataType{iv(5)})
	require.True(t, next[0].IsNull())

	df.Reset()
	next = df.Filter("a", []types.DataType{iv(5)})
	require.Equal(t, int64(5), next[0].Value())
}

func TestDistinctTermsNeverShareSlots(t *testing.T) {
	terms := []Term{
		{Kind: Count, Type: intMeta, Input: expr("x")},
		{Kind: Count, Type: intMeta, Input: expr("x"), Distinct: true},
	}
	a, err := Setup(terms, true)
	require.NoError(t, err)

	df := NewDistinctFilter(terms)
	buf := make([]byte, a.StorageSize())
	a.CreateInitialGlobalValues(buf)

	for _, n := range []int64{1, 2, 2, 1} {
		a.AdvanceValues(buf, df.Filter("", []types.DataType{iv(n), iv(n)}))
	}

	res := a.FinalizeValues(buf)
	require.Equal(t, uint64(4), res[0].Value())
	require.Equal(t, uint64(2), res[1].Value())
}

func TestDistinctCountEndToEnd(t *testing.T) {
	terms := []Term{
		{Kind: Count, Type: intMeta, Input: expr("x"), Distinct: true},
		{Kind: CountStar},
	}
	a, err := Setup(terms, true)
	require.NoError(t, err)

	df := NewDistinctFilter(terms)
	buf := make([]byte, a.StorageSize())
	a.CreateInitialGlobalValues(buf)

	for _, n := range []int64{1, 2, 2, 3, 1} {
		a.AdvanceValues(buf, df.Filter("", []types.DataType{iv(n), nil}))
	}

	res := a.FinalizeValues(buf)
	require.Equal(t, uint64(3), res[0].Value())
	require.Equal(t, uint64(5), res[1].Value())
}
