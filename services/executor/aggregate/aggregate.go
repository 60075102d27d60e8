// Package aggregate drives the aggregation engine over row streams. It
// owns one state buffer per group (or a single global buffer), evaluates
// every term's input expression against incoming rows, and emits one
// result row per group on Flush.
package aggregate

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/smartree/go-query/pkg/aggregation"
	"github.com/smartree/go-query/pkg/types"
	"github.com/smartree/go-query/services/eval"
	"github.com/smartree/go-query/util/logger"
	"github.com/smartree/go-query/util/stream"
)

// Term is one requested output aggregate. Alias names the output field
// and defaults to "KIND(input)".
type Term struct {
	Kind     aggregation.Kind
	Type     types.DataTypeMeta
	Input    eval.Expression
	Distinct bool
	Alias    string
}

type group struct {
	items types.DataRow
	buf   []byte
}

// Executor accumulates rows into per-group aggregate state. An empty
// group-by list makes it a global aggregation with exactly one output
// row. Not safe for concurrent use; each executor belongs to one
// execution thread, the engine inside it is shared read-only.
type Executor struct {
	engine   *aggregation.Aggregation
	terms    []Term
	groupBy  []eval.Expression
	distinct *aggregation.DistinctFilter
	groups   map[string]*group
	order    []string
	log      *logrus.Entry
}

func New(groupBy []eval.Expression, terms []Term) (*Executor, error) {
	aggTerms := make([]aggregation.Term, len(terms))
	for i := range terms {
		if terms[i].Alias == "" {
			terms[i].Alias = defaultAlias(terms[i])
		}
		aggTerms[i] = aggregation.Term{
			Kind:     terms[i].Kind,
			Type:     terms[i].Type,
			Distinct: terms[i].Distinct,
		}
		if terms[i].Input != nil {
			aggTerms[i].Input = terms[i].Input
		}
	}

	engine, err := aggregation.Setup(aggTerms, len(groupBy) == 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to set up aggregation")
	}

	e := &Executor{
		engine:   engine,
		terms:    terms,
		groupBy:  groupBy,
		distinct: aggregation.NewDistinctFilter(aggTerms),
		groups:   map[string]*group{},
		log:      logger.WithPrefix("executor:aggregate"),
	}
	e.init()

	e.log.WithFields(logrus.Fields{
		"terms": len(terms),
		"slots": engine.Layout().NumSlots(),
		"size":  engine.StorageSize(),
	}).Debug("aggregation set up")
	return e, nil
}

func (e *Executor) init() {
	if !e.engine.IsGlobal() {
		return
	}

	// a global aggregation emits a row even over zero input rows
	g := &group{buf: make([]byte, e.engine.StorageSize())}
	e.engine.CreateInitialGlobalValues(g.buf)
	e.groups[""] = g
	e.order = []string{""}
}

// Add folds one row into its group's state, creating the group on first
// sight.
func (e *Executor) Add(row types.DataRow) error {
	key, items, err := e.groupKey(row)
	if err != nil {
		return err
	}

	next, err := e.evalInputs(row)
	if err != nil {
		return err
	}
	next = e.distinct.Filter(key, next)

	g, ok := e.groups[key]
	if !ok {
		g = &group{
			items: items,
			buf:   make([]byte, e.engine.StorageSize()),
		}
		e.engine.CreateInitialValues(g.buf, next)
		e.groups[key] = g
		e.order = append(e.order, key)
		e.log.WithField("groups", len(e.groups)).Debug("group created")
		return nil
	}

	e.engine.AdvanceValues(g.buf, next)
	return nil
}

// Flush finalizes every group in first-seen order and pushes one result
// row per group to dst. The caller closes dst.
func (e *Executor) Flush(dst stream.Writer[types.DataRow]) (n int, err error) {
	for _, key := range e.order {
		g := e.groups[key]
		finals := e.engine.FinalizeValues(g.buf)

		record := make(types.DataRow, len(g.items)+len(finals))
		for name, v := range g.items {
			record[name] = v
		}
		for i := range e.terms {
			record[e.terms[i].Alias] = finals[i]
		}

		dst.Push(record)
		n++
	}
	return n, nil
}

// Reset drops all accumulated state so the executor can aggregate a new
// input, e.g. the next window of a stream.
func (e *Executor) Reset() {
	e.groups = map[string]*group{}
	e.order = nil
	e.distinct.Reset()
	e.init()
}

func (e *Executor) groupKey(row types.DataRow) (string, types.DataRow, error) {
	if len(e.groupBy) == 0 {
		return "", nil, nil
	}

	var key bytes.Buffer
	items := make(types.DataRow, len(e.groupBy))
	for _, ge := range e.groupBy {
		v, err := ge.Eval(row)
		if err != nil {
			return "", nil, errors.Wrapf(err, "failed to evaluate group expression %q", ge)
		}

		// a marker byte keeps null distinct from any real value
		if v.IsNull() {
			key.WriteByte(0)
		} else {
			b, err := v.MarshalBinary()
			if err != nil {
				return "", nil, errors.Wrapf(err, "failed to encode group value of %q", ge)
			}
			key.WriteByte(1)
			key.Write(b)
		}
		items[ge.String()] = v
	}
	return key.String(), items, nil
}

func (e *Executor) evalInputs(row types.DataRow) ([]types.DataType, error) {
	next := make([]types.DataType, len(e.terms))
	for i := range e.terms {
		if e.terms[i].Input == nil {
			continue
		}

		v, err := e.terms[i].Input.Eval(row)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to evaluate aggregate input %q", e.terms[i].Input)
		}
		next[i] = v
	}
	return next, nil
}

func defaultAlias(t Term) string {
	if t.Input == nil {
		return t.Kind.String()
	}
	if t.Distinct {
		return fmt.Sprintf("%s(DISTINCT %s)", t.Kind, t.Input)
	}
	return fmt.Sprintf("%s(%s)", t.Kind, t.Input)
}
