package types

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/smartree/go-query/util/helpers"
)

var float64Meta = &FloatMeta{ByteSize: 8}

func init() {
	numericTypes[TYPE_FLOAT] = struct{}{}

	typesMap[TYPE_FLOAT] = newable{
		newInstance: func(meta DataTypeMeta) DataType {
			return &Float{Meta: meta.(*FloatMeta)}
		},
		newMeta: func(args ...interface{}) DataTypeMeta {
			if len(args) == 0 {
				return &FloatMeta{ByteSize: 8}
			}

			return &FloatMeta{
				ByteSize: cast.ToUint8(args[0]),
			}
		},
	}
}

type FloatMeta struct {
	ByteSize uint8 `json:"byte_size"`
}

func (m *FloatMeta) GetCode() TypeCode {
	return TYPE_FLOAT
}

func (m *FloatMeta) Size() int {
	return int(m.ByteSize)
}

func (m *FloatMeta) IsFixedSize() bool {
	return true
}

func (m *FloatMeta) IsNumeric() bool {
	return true
}

func (m *FloatMeta) Zero() DataType {
	return Type(m).Set(0.0)
}

func (m *FloatMeta) Null() DataType {
	return Type(m).Set(nil)
}

type Float struct {
	value float64
	null  bool
	Meta  *FloatMeta
}

func (t *Float) MarshalBinary() (data []byte, err error) {
	switch t.Meta.ByteSize {
	case 4:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(t.value)))
		return buf, nil
	case 8:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(t.value))
		return buf, nil
	}
	return nil, errors.Errorf("invalid float byte size => %v", t.Meta.ByteSize)
}

func (t *Float) UnmarshalBinary(data []byte) error {
	if len(data) < int(t.Meta.ByteSize) {
		return errors.Errorf("float requires %d bytes, got %d", t.Meta.ByteSize, len(data))
	}

	switch t.Meta.ByteSize {
	case 4:
		t.value = float64(math.Float32frombits(binary.LittleEndian.Uint32(data)))
	case 8:
		t.value = math.Float64frombits(binary.LittleEndian.Uint64(data))
	default:
		return errors.Errorf("invalid float byte size => %v", t.Meta.ByteSize)
	}
	t.null = false
	return nil
}

func (t *Float) MetaOf() DataTypeMeta {
	return t.Meta
}

func (t *Float) Copy() DataType {
	cp := *t
	return &cp
}

func (t *Float) IsNull() bool {
	return t.null
}

func (t *Float) Value() interface{} {
	if t.null {
		return nil
	}
	if t.Meta.ByteSize == 4 {
		return float32(t.value)
	}
	return t.value
}

func (t *Float) Set(value interface{}) DataType {
	if value == nil {
		t.value, t.null = 0, true
		return t
	}
	if dt, ok := value.(DataType); ok {
		return t.Set(dt.Value())
	}

	v, err := cast.ToFloat64E(value)
	if err != nil {
		panic(errors.Wrapf(err, "failed to set %s", t.Meta.GetCode()))
	}
	t.value = v
	t.null = false
	return t
}

func (t *Float) Add(val DataType) DataType {
	if t.null || val.IsNull() {
		panic(errors.New("arithmetic on null value"))
	}

	t.value += floatOf(val)
	return t
}

func (t *Float) Compare(val DataType) int {
	if t.null || val.IsNull() {
		panic(errors.New("comparison with null value"))
	}

	return helpers.Compare(t.value, floatOf(val))
}

func (t *Float) CompareOp(operator Operator, val DataType) bool {
	return compareOp(t, operator, val)
}

func (t *Float) Cast(meta DataTypeMeta) (DataType, error) {
	switch meta.GetCode() {
	case TYPE_FLOAT:
		if t.null {
			return meta.Null(), nil
		}
		return Type(meta).Set(t.value), nil
	case TYPE_INTEGER:
		if t.null {
			return meta.Null(), nil
		}
		return Type(meta).Set(int64(t.value)), nil
	case TYPE_VARCHAR:
		if t.null {
			return meta.Null(), nil
		}
		return Type(meta).Set(fmt.Sprint(t.Value())), nil
	}

	return nil, errors.Errorf("typecast from %s to %s not supported", t.GetCode(), meta.GetCode())
}

func (t *Float) GetCode() TypeCode {
	return t.Meta.GetCode()
}

func (t *Float) Size() int {
	return t.Meta.Size()
}

func (t *Float) IsFixedSize() bool {
	return t.Meta.IsFixedSize()
}

func (t *Float) IsNumeric() bool {
	return t.Meta.IsNumeric()
}

func (t *Float) Zero() DataType {
	return t.Meta.Zero()
}

func (t *Float) Null() DataType {
	return t.Meta.Null()
}

func floatOf(val DataType) float64 {
	if f, ok := val.(*Float); ok {
		return f.value
	}

	v, err := cast.ToFloat64E(val.Value())
	if err != nil {
		panic(errors.Wrap(err, "failed to read float operand"))
	}
	return v
}
