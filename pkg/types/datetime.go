package types

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/smartree/go-query/util/helpers"
)

func init() {
	typesMap[TYPE_DATETIME] = newable{
		newInstance: func(meta DataTypeMeta) DataType {
			return &Datetime{Meta: meta.(*DatetimeMeta)}
		},
		newMeta: func(args ...interface{}) DataTypeMeta {
			return &DatetimeMeta{}
		},
	}
}

type DatetimeMeta struct{}

func (m *DatetimeMeta) GetCode() TypeCode {
	return TYPE_DATETIME
}

func (m *DatetimeMeta) Size() int {
	return 8
}

func (m *DatetimeMeta) IsFixedSize() bool {
	return true
}

func (m *DatetimeMeta) IsNumeric() bool {
	return false
}

func (m *DatetimeMeta) Zero() DataType {
	return Type(m).Set(time.Unix(0, 0))
}

func (m *DatetimeMeta) Null() DataType {
	return Type(m).Set(nil)
}

// Datetime stores a second-precision UTC timestamp.
type Datetime struct {
	value int64
	null  bool
	Meta  *DatetimeMeta
}

func (t *Datetime) MarshalBinary() (data []byte, err error) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(t.value))
	return buf, nil
}

func (t *Datetime) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return errors.Errorf("datetime requires 8 bytes, got %d", len(data))
	}

	t.value = int64(binary.LittleEndian.Uint64(data))
	t.null = false
	return nil
}

func (t *Datetime) MetaOf() DataTypeMeta {
	return t.Meta
}

func (t *Datetime) Copy() DataType {
	cp := *t
	return &cp
}

func (t *Datetime) IsNull() bool {
	return t.null
}

func (t *Datetime) Value() interface{} {
	if t.null {
		return nil
	}
	return time.Unix(t.value, 0).UTC()
}

func (t *Datetime) Set(value interface{}) DataType {
	if value == nil {
		t.value, t.null = 0, true
		return t
	}
	if dt, ok := value.(DataType); ok {
		return t.Set(dt.Value())
	}

	v, err := cast.ToTimeE(value)
	if err != nil {
		panic(errors.Wrapf(err, "failed to set %s", t.Meta.GetCode()))
	}
	t.value = v.Unix()
	t.null = false
	return t
}

func (t *Datetime) Add(val DataType) DataType {
	panic(errors.Errorf("arithmetic not supported on %s", t.GetCode()))
}

func (t *Datetime) Compare(val DataType) int {
	if t.null || val.IsNull() {
		panic(errors.New("comparison with null value"))
	}

	o, ok := val.(*Datetime)
	if !ok {
		panic(errors.Errorf("cannot compare %s with %s", t.GetCode(), val.GetCode()))
	}
	return helpers.Compare(t.value, o.value)
}

func (t *Datetime) CompareOp(operator Operator, val DataType) bool {
	return compareOp(t, operator, val)
}

func (t *Datetime) Cast(meta DataTypeMeta) (DataType, error) {
	switch meta.GetCode() {
	case TYPE_DATETIME:
		if t.null {
			return meta.Null(), nil
		}
		return Type(meta).Set(t.Value()), nil
	case TYPE_INTEGER:
		if t.null {
			return meta.Null(), nil
		}
		return Type(meta).Set(t.value), nil
	case TYPE_VARCHAR:
		if t.null {
			return meta.Null(), nil
		}
		return Type(meta).Set(helpers.FormatTime(time.Unix(t.value, 0).UTC())), nil
	}

	return nil, errors.Errorf("typecast from %s to %s not supported", t.GetCode(), meta.GetCode())
}

func (t *Datetime) GetCode() TypeCode {
	return t.Meta.GetCode()
}

func (t *Datetime) Size() int {
	return t.Meta.Size()
}

func (t *Datetime) IsFixedSize() bool {
	return t.Meta.IsFixedSize()
}

func (t *Datetime) IsNumeric() bool {
	return t.Meta.IsNumeric()
}

func (t *Datetime) Zero() DataType {
	return t.Meta.Zero()
}

func (t *Datetime) Null() DataType {
	return t.Meta.Null()
}
