package types

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/smartree/go-query/util/helpers"
)

func init() {
	typesMap[TYPE_VARCHAR] = newable{
		newInstance: func(meta DataTypeMeta) DataType {
			return &Varchar{Meta: meta.(*VarcharMeta)}
		},
		newMeta: func(args ...interface{}) DataTypeMeta {
			if len(args) == 0 {
				return &VarcharMeta{}
			}

			return &VarcharMeta{
				Cap: cast.ToUint16(args[0]),
			}
		},
	}
}

type VarcharMeta struct {
	Cap uint16 `json:"cap"`
}

func (m *VarcharMeta) GetCode() TypeCode {
	return TYPE_VARCHAR
}

// Size is the fixed storage footprint: 2 length bytes plus capacity.
func (m *VarcharMeta) Size() int {
	return 2 + int(m.Cap)
}

func (m *VarcharMeta) IsFixedSize() bool {
	return true
}

func (m *VarcharMeta) IsNumeric() bool {
	return false
}

func (m *VarcharMeta) Zero() DataType {
	return Type(m).Set("")
}

func (m *VarcharMeta) Null() DataType {
	return Type(m).Set(nil)
}

type Varchar struct {
	value []byte
	null  bool
	Meta  *VarcharMeta
}

func (t *Varchar) MarshalBinary() (data []byte, err error) {
	buf := make([]byte, t.Size())
	binary.LittleEndian.PutUint16(buf[:2], uint16(len(t.value)))
	copy(buf[2:], t.value)
	return buf, nil
}

func (t *Varchar) UnmarshalBinary(data []byte) error {
	if len(data) < t.Size() {
		return errors.Errorf("varchar requires %d bytes, got %d", t.Size(), len(data))
	}

	n := binary.LittleEndian.Uint16(data[:2])
	t.value = append(t.value[:0], data[2:2+n]...)
	t.null = false
	return nil
}

func (t *Varchar) MetaOf() DataTypeMeta {
	return t.Meta
}

func (t *Varchar) Copy() DataType {
	return &Varchar{
		value: append([]byte(nil), t.value...),
		null:  t.null,
		Meta:  t.Meta,
	}
}

func (t *Varchar) IsNull() bool {
	return t.null
}

func (t *Varchar) Value() interface{} {
	if t.null {
		return nil
	}
	return string(t.value)
}

func (t *Varchar) Set(value interface{}) DataType {
	if value == nil {
		t.value, t.null = nil, true
		return t
	}
	if dt, ok := value.(DataType); ok {
		return t.Set(dt.Value())
	}

	v, err := cast.ToStringE(value)
	if err != nil {
		panic(errors.Wrapf(err, "failed to set %s", t.Meta.GetCode()))
	}
	n := helpers.Min(len(v), int(t.Meta.Cap))
	t.value = append(t.value[:0], v[:n]...)
	t.null = false
	return t
}

func (t *Varchar) Add(val DataType) DataType {
	panic(errors.Errorf("arithmetic not supported on %s", t.GetCode()))
}

func (t *Varchar) Compare(val DataType) int {
	if t.null || val.IsNull() {
		panic(errors.New("comparison with null value"))
	}

	o, ok := val.(*Varchar)
	if !ok {
		panic(errors.Errorf("cannot compare %s with %s", t.GetCode(), val.GetCode()))
	}
	return bytes.Compare(t.value, o.value)
}

func (t *Varchar) CompareOp(operator Operator, val DataType) bool {
	return compareOp(t, operator, val)
}

func (t *Varchar) Cast(meta DataTypeMeta) (DataType, error) {
	switch meta.GetCode() {
	case TYPE_VARCHAR:
		if t.null {
			return meta.Null(), nil
		}
		return Type(meta).Set(string(t.value)), nil
	case TYPE_INTEGER, TYPE_FLOAT, TYPE_DATETIME:
		if t.null {
			return meta.Null(), nil
		}
		return Type(meta).Set(string(t.value)), nil
	}

	return nil, errors.Errorf("typecast from %s to %s not supported", t.GetCode(), meta.GetCode())
}

func (t *Varchar) GetCode() TypeCode {
	return t.Meta.GetCode()
}

func (t *Varchar) Size() int {
	return t.Meta.Size()
}

func (t *Varchar) IsFixedSize() bool {
	return t.Meta.IsFixedSize()
}

func (t *Varchar) IsNumeric() bool {
	return t.Meta.IsNumeric()
}

func (t *Varchar) Zero() DataType {
	return t.Meta.Zero()
}

func (t *Varchar) Null() DataType {
	return t.Meta.Null()
}
