package types

import (
	"encoding"
	"fmt"
)

type TypeCode uint8

const (
	TYPE_INTEGER  TypeCode = iota // 8/16/32/64 bit [un]signed integer
	TYPE_FLOAT                    // 32/64 bit floating point number
	TYPE_DATETIME                 // second-precision timestamp
	TYPE_VARCHAR                  // fixed capacity string
)

func (c TypeCode) String() string {
	switch c {
	case TYPE_INTEGER:
		return "INTEGER"
	case TYPE_FLOAT:
		return "FLOAT"
	case TYPE_DATETIME:
		return "DATETIME"
	case TYPE_VARCHAR:
		return "VARCHAR"
	}
	return fmt.Sprintf("TypeCode(%d)", uint8(c))
}

type Operator string

const (
	Equal          Operator = "="
	GreaterOrEqual Operator = ">="
	LessOrEqual    Operator = "<="
	Greater        Operator = ">"
	Less           Operator = "<"
	NotEqual       Operator = "!="
)

type newable struct {
	newInstance func(meta DataTypeMeta) DataType
	newMeta     func(args ...interface{}) DataTypeMeta
}

var typesMap = map[TypeCode]newable{}
var numericTypes = map[TypeCode]struct{}{}

type DataTypeMeta interface {
	GetCode() TypeCode
	Size() int
	IsFixedSize() bool
	IsNumeric() bool

	// Zero returns a non-null zero value of this type.
	Zero() DataType
	// Null returns a null value of this type.
	Null() DataType
}

// DataType is a tagged, nullable SQL value. The binary form is exactly
// Size() bytes and carries no null indicator; null-ness of stored values
// is tracked by the owning storage layout.
type DataType interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	DataTypeMeta

	MetaOf() DataTypeMeta
	Copy() DataType
	IsNull() bool
	Value() interface{}
	Set(value interface{}) DataType
	Add(val DataType) DataType
	Compare(val DataType) int
	CompareOp(operator Operator, val DataType) bool
	Cast(meta DataTypeMeta) (DataType, error)
}

type DataRow map[string]DataType

func Type(meta DataTypeMeta) DataType {
	return typesMap[meta.GetCode()].newInstance(meta)
}

func Meta(typeCode TypeCode, args ...interface{}) DataTypeMeta {
	return typesMap[typeCode].newMeta(args...)
}

func IsNumeric(code TypeCode) bool {
	_, ok := numericTypes[code]
	return ok
}

func compareOp(t DataType, operator Operator, val DataType) bool {
	switch operator {
	case Equal:
		return t.Compare(val) == 0
	case GreaterOrEqual:
		return t.Compare(val) >= 0
	case LessOrEqual:
		return t.Compare(val) <= 0
	case Greater:
		return t.Compare(val) > 0
	case Less:
		return t.Compare(val) < 0
	case NotEqual:
		return t.Compare(val) != 0
	}
	panic(fmt.Errorf("invalid operator:'%s'", operator))
}
