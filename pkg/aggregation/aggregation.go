// Package aggregation implements the aggregate-computation engine of the
// query executor. Callers describe the aggregates they want once through
// Setup, which decomposes them into physical state slots and fixes a
// storage layout for the lifetime of the aggregation. Per group (or once,
// for a global aggregation) a caller-owned buffer is then seeded through
// CreateInitialValues/CreateInitialGlobalValues, folded forward one row
// at a time through AdvanceValues, and read out through FinalizeValues.
//
// The ordering of terms and value vectors must stay consistent with the
// ordering provided during Setup.
package aggregation

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/smartree/go-query/pkg/storage"
	"github.com/smartree/go-query/pkg/types"
)

// Expression identifies an aggregate's input. The engine never evaluates
// it; String() is the canonical identity used to share physical state
// between terms over the same input.
type Expression interface {
	String() string
}

// Term is one logically requested aggregate.
type Term struct {
	Kind     Kind
	Type     types.DataTypeMeta
	Input    Expression
	Distinct bool
}

var (
	ErrNoTerms           = errors.New("aggregation requires at least one term")
	ErrMissingInput      = errors.New("aggregate requires an input expression")
	ErrUnexpectedInput   = errors.New("COUNT(*) takes no input expression")
	ErrMissingType       = errors.New("aggregate requires an input value type")
	ErrNotNumeric        = errors.New("aggregate requires a numeric input type")
	ErrDistinctCountStar = errors.New("COUNT(*) cannot be distinct")
)

// COUNT state is always an 8-byte row counter, whatever the input type.
var counterMeta = &types.IntegerMeta{Signed: false, ByteSize: 8}

// AVG results are computed in 8-byte floats to avoid premature
// truncation of integer sums.
var avgResultMeta = &types.FloatMeta{ByteSize: 8}

// slotInfo maps one allocated storage slot back to the term list. There
// may be fewer slots than terms (identical terms share state, AVG reuses
// an existing SUM) and more (AVG decomposes into SUM and COUNT).
type slotInfo struct {
	kind     Kind
	meta     types.DataTypeMeta
	source   uint32
	storage  uint32
	internal bool
}

// termInfo resolves one caller term to the slots realizing it. Plain
// kinds use slot; AVG is realized purely by its sum and count slots.
type termInfo struct {
	slot  uint32
	sum   uint32
	count uint32
}

// Aggregation is immutable after Setup and safe to share read-only
// across threads. It holds no buffer state; every call operates on a
// caller-owned buffer of StorageSize() bytes.
type Aggregation struct {
	global bool
	terms  []Term
	slots  []slotInfo
	refs   []termInfo
	layout *storage.Layout
}

// Setup plans the physical state for the given terms. Identical physical
// requirements resolve to one shared slot: SUM(x) and AVG(x) keep a
// single sum, duplicate terms keep a single slot. Distinct and plain
// terms never share state even over the same input. A slot is internal
// when no term exposes it directly.
func Setup(terms []Term, global bool) (*Aggregation, error) {
	if len(terms) == 0 {
		return nil, ErrNoTerms
	}

	a := &Aggregation{
		global: global,
		terms:  append([]Term(nil), terms...),
		refs:   make([]termInfo, 0, len(terms)),
	}
	lookup := map[string]uint32{}

	slotFor := func(kind Kind, meta types.DataTypeMeta, source int, in Expression, distinct bool) uint32 {
		key := shareKey(kind, meta, in, distinct)
		if idx, ok := lookup[key]; ok {
			return idx
		}
		idx := uint32(len(a.slots))
		a.slots = append(a.slots, slotInfo{
			kind:     kind,
			meta:     meta,
			source:   uint32(source),
			storage:  idx,
			internal: true,
		})
		lookup[key] = idx
		return idx
	}

	for i, t := range terms {
		if err := validateTerm(i, t); err != nil {
			return nil, err
		}

		switch t.Kind {
		case CountStar:
			idx := slotFor(CountStar, counterMeta, i, nil, false)
			a.slots[idx].internal = false
			a.refs = append(a.refs, termInfo{slot: idx})
		case Count:
			idx := slotFor(Count, counterMeta, i, t.Input, t.Distinct)
			a.slots[idx].internal = false
			a.refs = append(a.refs, termInfo{slot: idx})
		case Sum:
			idx := slotFor(Sum, t.Type, i, t.Input, t.Distinct)
			a.slots[idx].internal = false
			a.refs = append(a.refs, termInfo{slot: idx})
		case Min, Max:
			idx := slotFor(t.Kind, t.Type, i, t.Input, t.Distinct)
			a.slots[idx].internal = false
			a.refs = append(a.refs, termInfo{slot: idx})
		case Avg:
			sumIdx := slotFor(Sum, t.Type, i, t.Input, t.Distinct)
			cntIdx := slotFor(Count, counterMeta, i, t.Input, t.Distinct)
			a.refs = append(a.refs, termInfo{sum: sumIdx, count: cntIdx})
		default:
			return nil, errors.Errorf("unsupported aggregate kind %s in term %d", t.Kind, i)
		}
	}

	metas := make([]types.DataTypeMeta, len(a.slots))
	for i, s := range a.slots {
		metas[i] = s.meta
	}
	layout, err := storage.NewLayout(metas)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build aggregate storage layout")
	}
	a.layout = layout
	return a, nil
}

func validateTerm(i int, t Term) error {
	if !t.Kind.NeedsInput() {
		if t.Input != nil {
			return errors.Wrapf(ErrUnexpectedInput, "term %d", i)
		}
		if t.Distinct {
			return errors.Wrapf(ErrDistinctCountStar, "term %d", i)
		}
		return nil
	}

	if t.Input == nil {
		return errors.Wrapf(ErrMissingInput, "term %d (%s)", i, t.Kind)
	}
	if t.Type == nil {
		return errors.Wrapf(ErrMissingType, "term %d (%s)", i, t.Kind)
	}
	if t.Kind.NeedsNumeric() && !t.Type.IsNumeric() {
		return errors.Wrapf(ErrNotNumeric, "term %d (%s over %s)", i, t.Kind, t.Type.GetCode())
	}
	return nil
}

func shareKey(kind Kind, meta types.DataTypeMeta, in Expression, distinct bool) string {
	input := ""
	if in != nil {
		input = in.String()
	}
	return fmt.Sprintf("%d|%T%+v|%s|%t", kind, meta, meta, input, distinct)
}

// IsGlobal reports whether this is a global (non-grouped) aggregation.
func (a *Aggregation) IsGlobal() bool {
	return a.global
}

func (a *Aggregation) NumTerms() int {
	return len(a.terms)
}

// StorageSize is the number of bytes a caller must allocate per buffer.
func (a *Aggregation) StorageSize() int {
	return a.layout.Size()
}

// Layout is the storage format of the aggregate state.
func (a *Aggregation) Layout() *storage.Layout {
	return a.layout
}

// CreateInitialGlobalValues writes the zero-row defaults: counters start
// at 0, everything else starts null. Only a global aggregation may use
// this path; grouped buffers are always seeded from their first row.
func (a *Aggregation) CreateInitialGlobalValues(buf []byte) {
	if !a.global {
		panic(errors.New("grouped aggregation buffers must be seeded from a first row"))
	}

	for _, s := range a.slots {
		idx := int(s.storage)
		switch s.kind {
		case Count, CountStar:
			a.layout.Set(buf, idx, counter(0))
		case Sum, Min, Max:
			a.layout.SetNull(buf, idx)
		default:
			panic(fmt.Errorf("unexpected physical aggregate kind %s", s.kind))
		}
	}
}

// CreateInitialValues seeds a fresh group buffer from the first row's
// values, one value per term in setup order.
func (a *Aggregation) CreateInitialValues(buf []byte, initial []types.DataType) {
	if a.global {
		panic(errors.New("global aggregation buffers are seeded with CreateInitialGlobalValues"))
	}
	a.checkVector(initial)

	for _, s := range a.slots {
		idx := int(s.storage)
		v := initial[s.source]
		switch s.kind {
		case CountStar:
			a.layout.Set(buf, idx, counter(1))
		case Count:
			if isNull(v) {
				a.layout.Set(buf, idx, counter(0))
			} else {
				a.layout.Set(buf, idx, counter(1))
			}
		case Sum, Min, Max:
			if isNull(v) {
				a.layout.SetNull(buf, idx)
			} else {
				a.layout.Set(buf, idx, v)
			}
		default:
			panic(fmt.Errorf("unexpected physical aggregate kind %s", s.kind))
		}
	}
}

// AdvanceValues folds the next row's values into the buffer, one value
// per term in setup order. Shared slots advance exactly once per row.
func (a *Aggregation) AdvanceValues(buf []byte, next []types.DataType) {
	a.checkVector(next)

	for _, s := range a.slots {
		a.doAdvance(buf, s, next[s.source])
	}
}

func (a *Aggregation) doAdvance(buf []byte, s slotInfo, next types.DataType) {
	idx := int(s.storage)
	switch s.kind {
	case CountStar:
		a.layout.Set(buf, idx, a.layout.Get(buf, idx).Add(counter(1)))
	case Count:
		if isNull(next) {
			return
		}
		a.layout.Set(buf, idx, a.layout.Get(buf, idx).Add(counter(1)))
	case Sum:
		if isNull(next) {
			return
		}
		if a.layout.IsNull(buf, idx) {
			a.layout.Set(buf, idx, next)
			return
		}
		a.layout.Set(buf, idx, a.layout.Get(buf, idx).Add(next))
	case Min:
		if isNull(next) {
			return
		}
		if a.layout.IsNull(buf, idx) || next.CompareOp(types.Less, a.layout.Get(buf, idx)) {
			a.layout.Set(buf, idx, next)
		}
	case Max:
		if isNull(next) {
			return
		}
		if a.layout.IsNull(buf, idx) || next.CompareOp(types.Greater, a.layout.Get(buf, idx)) {
			a.layout.Set(buf, idx, next)
		}
	default:
		panic(fmt.Errorf("unexpected physical aggregate kind %s", s.kind))
	}
}

// MergeValues folds the partial state in src into dst. Both buffers must
// come from this aggregation's layout. Counters add up, sums add with
// null as identity, extrema keep the winning value. The caller uses this
// to combine per-thread partial aggregations of the same group.
func (a *Aggregation) MergeValues(dst, src []byte) {
	for _, s := range a.slots {
		idx := int(s.storage)
		if a.layout.IsNull(src, idx) {
			continue
		}
		sv := a.layout.Get(src, idx)

		switch s.kind {
		case Count, CountStar:
			a.layout.Set(dst, idx, a.layout.Get(dst, idx).Add(sv))
		case Sum:
			if a.layout.IsNull(dst, idx) {
				a.layout.Set(dst, idx, sv)
			} else {
				a.layout.Set(dst, idx, a.layout.Get(dst, idx).Add(sv))
			}
		case Min:
			if a.layout.IsNull(dst, idx) || sv.CompareOp(types.Less, a.layout.Get(dst, idx)) {
				a.layout.Set(dst, idx, sv)
			}
		case Max:
			if a.layout.IsNull(dst, idx) || sv.CompareOp(types.Greater, a.layout.Get(dst, idx)) {
				a.layout.Set(dst, idx, sv)
			}
		default:
			panic(fmt.Errorf("unexpected physical aggregate kind %s", s.kind))
		}
	}
}

// FinalizeValues reads the buffer once and emits one result per term, in
// setup order. Internal slots never appear directly: AVG recombines its
// SUM and COUNT slots here. The buffer is not modified.
func (a *Aggregation) FinalizeValues(buf []byte) []types.DataType {
	out := make([]types.DataType, len(a.terms))
	for i, t := range a.terms {
		ref := a.refs[i]
		if t.Kind != Avg {
			out[i] = a.layout.Get(buf, int(ref.slot))
			continue
		}

		sumIdx, cntIdx := int(ref.sum), int(ref.count)
		cnt := a.layout.Get(buf, cntIdx).Value().(uint64)
		if a.layout.IsNull(buf, sumIdx) || cnt == 0 {
			out[i] = avgResultMeta.Null()
			continue
		}

		sum, err := a.layout.Get(buf, sumIdx).Cast(avgResultMeta)
		if err != nil {
			panic(errors.Wrapf(err, "failed to finalize %s for term %d", t.Kind, i))
		}
		out[i] = types.Type(avgResultMeta).Set(sum.Value().(float64) / float64(cnt))
	}
	return out
}

func (a *Aggregation) checkVector(vals []types.DataType) {
	if len(vals) != len(a.terms) {
		panic(fmt.Errorf(
			"value vector has %d entries, aggregation was set up with %d terms",
			len(vals), len(a.terms),
		))
	}
}

func counter(n uint64) types.DataType {
	return types.Type(counterMeta).Set(n)
}

func isNull(v types.DataType) bool {
	return v == nil || v.IsNull()
}
