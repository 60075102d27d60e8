// Package eval provides the input-expression handles the aggregation
// engine consumes. The engine itself only ever looks at an expression's
// canonical string form; evaluation against rows happens here, on the
// executor side of the row contract.
package eval

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"

	"github.com/smartree/go-query/pkg/types"
)

// Expression evaluates to one typed value per row. String() is the
// canonical identity used for physical slot sharing, so two expressions
// with equal strings must compute the same value.
type Expression interface {
	fmt.Stringer
	Eval(row types.DataRow) (types.DataType, error)
}

// Column is a bare field reference.
type Column struct {
	Name string
	Meta types.DataTypeMeta
}

func NewColumn(name string, meta types.DataTypeMeta) *Column {
	return &Column{Name: name, Meta: meta}
}

func (c *Column) String() string {
	return c.Name
}

func (c *Column) Eval(row types.DataRow) (types.DataType, error) {
	v, ok := row[c.Name]
	if !ok || v == nil || v.IsNull() {
		return c.Meta.Null(), nil
	}
	if v.GetCode() == c.Meta.GetCode() && v.Size() == c.Meta.Size() {
		return v, nil
	}

	cast, err := v.Cast(c.Meta)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read column %q", c.Name)
	}
	return cast, nil
}

// Compiled is an expr program over the row's fields, e.g. "price * qty".
type Compiled struct {
	src     string
	meta    types.DataTypeMeta
	program *vm.Program
}

func Compile(src string, meta types.DataTypeMeta) (*Compiled, error) {
	program, err := expr.Compile(src, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compile expression %q", src)
	}
	return &Compiled{src: src, meta: meta, program: program}, nil
}

func (c *Compiled) String() string {
	return c.src
}

func (c *Compiled) Eval(row types.DataRow) (types.DataType, error) {
	env := make(map[string]interface{}, len(row))
	for name, v := range row {
		if v != nil && !v.IsNull() {
			env[name] = v.Value()
		}
	}

	out, err := expr.Run(c.program, env)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to evaluate expression %q", c.src)
	}
	if out == nil {
		return c.meta.Null(), nil
	}
	return types.Type(c.meta).Set(out), nil
}
