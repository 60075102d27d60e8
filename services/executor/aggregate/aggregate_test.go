package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartree/go-query/pkg/aggregation"
	"github.com/smartree/go-query/pkg/types"
	"github.com/smartree/go-query/services/eval"
	"github.com/smartree/go-query/util/stream"
)

var intMeta = &types.IntegerMeta{Signed: true, ByteSize: 8}
var floatMeta = &types.FloatMeta{ByteSize: 8}
var cityMeta = &types.VarcharMeta{Cap: 16}

func row(city string, temp interface{}) types.DataRow {
	r := types.DataRow{
		"city": types.Type(cityMeta).Set(city),
	}
	if temp == nil {
		r["temp"] = floatMeta.Null()
	} else {
		r["temp"] = types.Type(floatMeta).Set(temp)
	}
	return r
}

func results(t *testing.T, e *Executor) []types.DataRow {
	t.Helper()
	st := stream.New[types.DataRow](64)
	_, err := e.Flush(st)
	require.NoError(t, err)
	st.Close()
	return st.Slice()
}

func TestGroupedAggregation(t *testing.T) {
	e, err := New(
		[]eval.Expression{eval.NewColumn("city", cityMeta)},
		[]Term{
			{Kind: aggregation.Avg, Type: floatMeta, Input: eval.NewColumn("temp", floatMeta), Alias: "avg_temp"},
			{Kind: aggregation.Max, Type: floatMeta, Input: eval.NewColumn("temp", floatMeta), Alias: "max_temp"},
			{Kind: aggregation.CountStar, Alias: "rows"},
		},
	)
	require.NoError(t, err)

	require.NoError(t, e.Add(row("yerevan", 20.0)))
	require.NoError(t, e.Add(row("berlin", 10.0)))
	require.NoError(t, e.Add(row("yerevan", 30.0)))
	require.NoError(t, e.Add(row("berlin", nil)))

	rows := results(t, e)
	require.Len(t, rows, 2)

	// groups come out in first-seen order
	require.Equal(t, "yerevan", rows[0]["city"].Value())
	require.Equal(t, 25.0, rows[0]["avg_temp"].Value())
	require.Equal(t, 30.0, rows[0]["max_temp"].Value())
	require.Equal(t, uint64(2), rows[0]["rows"].Value())

	require.Equal(t, "berlin", rows[1]["city"].Value())
	require.Equal(t, 10.0, rows[1]["avg_temp"].Value())
	require.Equal(t, uint64(2), rows[1]["rows"].Value())
}

func TestGlobalAggregationZeroRows(t *testing.T) {
	e, err := New(nil, []Term{
		{Kind: aggregation.Count, Type: floatMeta, Input: eval.NewColumn("temp", floatMeta)},
		{Kind: aggregation.Sum, Type: floatMeta, Input: eval.NewColumn("temp", floatMeta)},
	})
	require.NoError(t, err)

	rows := results(t, e)
	require.Len(t, rows, 1)
	require.Equal(t, uint64(0), rows[0]["COUNT(temp)"].Value())
	require.True(t, rows[0]["SUM(temp)"].IsNull())
}

func TestGlobalAggregation(t *testing.T) {
	e, err := New(nil, []Term{
		{Kind: aggregation.Min, Type: floatMeta, Input: eval.NewColumn("temp", floatMeta), Alias: "min"},
		{Kind: aggregation.Count, Type: floatMeta, Input: eval.NewColumn("temp", floatMeta), Alias: "cnt"},
	})
	require.NoError(t, err)

	for _, v := range []interface{}{5.0, nil, 2.0, 8.0} {
		require.NoError(t, e.Add(row("", v)))
	}

	rows := results(t, e)
	require.Len(t, rows, 1)
	require.Equal(t, 2.0, rows[0]["min"].Value())
	require.Equal(t, uint64(3), rows[0]["cnt"].Value())
}

func TestCompiledInputExpression(t *testing.T) {
	e, err := New(nil, func() []Term {
		total, err := eval.Compile("price * qty", floatMeta)
		require.NoError(t, err)
		return []Term{
			{Kind: aggregation.Sum, Type: floatMeta, Input: total, Alias: "revenue"},
		}
	}())
	require.NoError(t, err)

	require.NoError(t, e.Add(types.DataRow{
		"price": types.Type(floatMeta).Set(2.5),
		"qty":   types.Type(intMeta).Set(4),
	}))
	require.NoError(t, e.Add(types.DataRow{
		"price": types.Type(floatMeta).Set(1.0),
		"qty":   types.Type(intMeta).Set(3),
	}))

	rows := results(t, e)
	require.Equal(t, 13.0, rows[0]["revenue"].Value())
}

func TestDistinctAggregation(t *testing.T) {
	e, err := New(
		[]eval.Expression{eval.NewColumn("city", cityMeta)},
		[]Term{
			{Kind: aggregation.Count, Type: floatMeta, Input: eval.NewColumn("temp", floatMeta), Distinct: true, Alias: "uniq"},
		},
	)
	require.NoError(t, err)

	for _, v := range []float64{1, 2, 2, 3, 1} {
		require.NoError(t, e.Add(row("yerevan", v)))
	}
	require.NoError(t, e.Add(row("berlin", 2.0)))

	rows := results(t, e)
	require.Len(t, rows, 2)
	require.Equal(t, uint64(3), rows[0]["uniq"].Value())
	require.Equal(t, uint64(1), rows[1]["uniq"].Value())
}

func TestReset(t *testing.T) {
	e, err := New(
		[]eval.Expression{eval.NewColumn("city", cityMeta)},
		[]Term{
			{Kind: aggregation.CountStar, Alias: "rows"},
		},
	)
	require.NoError(t, err)

	require.NoError(t, e.Add(row("yerevan", 1.0)))
	require.Len(t, results(t, e), 1)

	e.Reset()
	require.Len(t, results(t, e), 0)

	require.NoError(t, e.Add(row("berlin", 1.0)))
	rows := results(t, e)
	require.Len(t, rows, 1)
	require.Equal(t, uint64(1), rows[0]["rows"].Value())
}

func TestSetupErrorSurfaces(t *testing.T) {
	_, err := New(nil, nil)
	require.ErrorIs(t, err, aggregation.ErrNoTerms)

	_, err = New(nil, []Term{
		{Kind: aggregation.Sum, Type: floatMeta},
	})
	require.ErrorIs(t, err, aggregation.ErrMissingInput)
}
