package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartree/go-query/pkg/types"
)

var intMeta = &types.IntegerMeta{Signed: true, ByteSize: 8}
var floatMeta = &types.FloatMeta{ByteSize: 8}

func TestColumn(t *testing.T) {
	col := NewColumn("temperature", floatMeta)
	require.Equal(t, "temperature", col.String())

	v, err := col.Eval(types.DataRow{
		"temperature": types.Type(floatMeta).Set(21.5),
	})
	require.NoError(t, err)
	require.Equal(t, 21.5, v.Value())
}

func TestColumnMissingField(t *testing.T) {
	col := NewColumn("missing", intMeta)
	v, err := col.Eval(types.DataRow{})
	require.NoError(t, err)
	require.True(t, v.IsNull())
}

func TestColumnCasts(t *testing.T) {
	col := NewColumn("n", floatMeta)
	v, err := col.Eval(types.DataRow{
		"n": types.Type(intMeta).Set(3),
	})
	require.NoError(t, err)
	require.Equal(t, 3.0, v.Value())
}

func TestCompiled(t *testing.T) {
	e, err := Compile("price * qty", floatMeta)
	require.NoError(t, err)
	require.Equal(t, "price * qty", e.String())

	v, err := e.Eval(types.DataRow{
		"price": types.Type(floatMeta).Set(2.5),
		"qty":   types.Type(intMeta).Set(4),
	})
	require.NoError(t, err)
	require.Equal(t, 10.0, v.Value())
}

func TestCompiledNullInput(t *testing.T) {
	e, err := Compile("price", floatMeta)
	require.NoError(t, err)

	v, err := e.Eval(types.DataRow{
		"price": floatMeta.Null(),
	})
	require.NoError(t, err)
	require.True(t, v.IsNull())
}

func TestCompileError(t *testing.T) {
	_, err := Compile("price *", floatMeta)
	require.Error(t, err)
}
