package types

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/smartree/go-query/util/helpers"
)

var int64Meta = &IntegerMeta{Signed: true, ByteSize: 8}

func init() {
	numericTypes[TYPE_INTEGER] = struct{}{}

	typesMap[TYPE_INTEGER] = newable{
		newInstance: func(meta DataTypeMeta) DataType {
			return &Integer{Meta: meta.(*IntegerMeta)}
		},
		newMeta: func(args ...interface{}) DataTypeMeta {
			if len(args) == 0 {
				return &IntegerMeta{Signed: true, ByteSize: 8}
			}

			return &IntegerMeta{
				Signed:   cast.ToBool(args[0]),
				ByteSize: cast.ToUint8(args[1]),
			}
		},
	}
}

type IntegerMeta struct {
	Signed   bool  `json:"signed"`
	ByteSize uint8 `json:"byte_size"`
}

func (m *IntegerMeta) GetCode() TypeCode {
	return TYPE_INTEGER
}

func (m *IntegerMeta) Size() int {
	return int(m.ByteSize)
}

func (m *IntegerMeta) IsFixedSize() bool {
	return true
}

func (m *IntegerMeta) IsNumeric() bool {
	return true
}

func (m *IntegerMeta) Zero() DataType {
	return Type(m).Set(0)
}

func (m *IntegerMeta) Null() DataType {
	return Type(m).Set(nil)
}

type Integer struct {
	value int64
	null  bool
	Meta  *IntegerMeta
}

func (t *Integer) MarshalBinary() (data []byte, err error) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(t.value))
	return buf[:t.Meta.ByteSize], nil
}

func (t *Integer) UnmarshalBinary(data []byte) error {
	if len(data) < int(t.Meta.ByteSize) {
		return errors.Errorf("integer requires %d bytes, got %d", t.Meta.ByteSize, len(data))
	}

	var full [8]byte
	copy(full[:], data[:t.Meta.ByteSize])
	v := binary.LittleEndian.Uint64(full[:])
	if t.Meta.Signed {
		shift := 64 - 8*uint(t.Meta.ByteSize)
		t.value = int64(v<<shift) >> shift
	} else {
		t.value = int64(v)
	}
	t.null = false
	return nil
}

func (t *Integer) MetaOf() DataTypeMeta {
	return t.Meta
}

func (t *Integer) Copy() DataType {
	cp := *t
	return &cp
}

func (t *Integer) IsNull() bool {
	return t.null
}

func (t *Integer) Value() interface{} {
	if t.null {
		return nil
	}

	if t.Meta.Signed {
		switch t.Meta.ByteSize {
		case 1:
			return int8(t.value)
		case 2:
			return int16(t.value)
		case 4:
			return int32(t.value)
		default:
			return t.value
		}
	}

	switch t.Meta.ByteSize {
	case 1:
		return uint8(t.value)
	case 2:
		return uint16(t.value)
	case 4:
		return uint32(t.value)
	default:
		return uint64(t.value)
	}
}

func (t *Integer) Set(value interface{}) DataType {
	if value == nil {
		t.value, t.null = 0, true
		return t
	}
	if dt, ok := value.(DataType); ok {
		return t.Set(dt.Value())
	}

	if t.Meta.Signed {
		v, err := cast.ToInt64E(value)
		if err != nil {
			panic(errors.Wrapf(err, "failed to set %s", t.Meta.GetCode()))
		}
		t.value = v
	} else {
		v, err := cast.ToUint64E(value)
		if err != nil {
			panic(errors.Wrapf(err, "failed to set %s", t.Meta.GetCode()))
		}
		t.value = int64(v)
	}
	t.null = false
	return t
}

func (t *Integer) Add(val DataType) DataType {
	if t.null || val.IsNull() {
		panic(errors.New("arithmetic on null value"))
	}

	t.value += intOf(val)
	return t
}

func (t *Integer) Compare(val DataType) int {
	if t.null || val.IsNull() {
		panic(errors.New("comparison with null value"))
	}

	o := intOf(val)
	if t.Meta.Signed {
		return helpers.Compare(t.value, o)
	}
	return helpers.Compare(uint64(t.value), uint64(o))
}

func (t *Integer) CompareOp(operator Operator, val DataType) bool {
	return compareOp(t, operator, val)
}

func (t *Integer) Cast(meta DataTypeMeta) (DataType, error) {
	switch meta.GetCode() {
	case TYPE_INTEGER:
		if t.null {
			return meta.Null(), nil
		}
		return Type(meta).Set(t.Value()), nil
	case TYPE_FLOAT:
		if t.null {
			return meta.Null(), nil
		}
		if t.Meta.Signed {
			return Type(meta).Set(float64(t.value)), nil
		}
		return Type(meta).Set(float64(uint64(t.value))), nil
	case TYPE_VARCHAR:
		if t.null {
			return meta.Null(), nil
		}
		return Type(meta).Set(fmt.Sprint(t.Value())), nil
	}

	return nil, errors.Errorf("typecast from %s to %s not supported", t.GetCode(), meta.GetCode())
}

func (t *Integer) GetCode() TypeCode {
	return t.Meta.GetCode()
}

func (t *Integer) Size() int {
	return t.Meta.Size()
}

func (t *Integer) IsFixedSize() bool {
	return t.Meta.IsFixedSize()
}

func (t *Integer) IsNumeric() bool {
	return t.Meta.IsNumeric()
}

func (t *Integer) Zero() DataType {
	return t.Meta.Zero()
}

func (t *Integer) Null() DataType {
	return t.Meta.Null()
}

func intOf(val DataType) int64 {
	if i, ok := val.(*Integer); ok {
		return i.value
	}

	v, err := cast.ToInt64E(val.Value())
	if err != nil {
		panic(errors.Wrap(err, "failed to read integer operand"))
	}
	return v
}
