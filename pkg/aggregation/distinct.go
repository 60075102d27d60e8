package aggregation

import (
	"github.com/pkg/errors"

	"github.com/smartree/go-query/pkg/types"
)

// DistinctFilter deduplicates input values for distinct terms before
// they reach the engine. The engine's slots only account for post-dedup
// state, so the caller runs every row's value vector through Filter
// before seeding or advancing a buffer. Duplicates are replaced with
// null, which every advance rule treats as a no-op.
//
// Like the buffers it guards, a filter is owned by a single execution
// thread.
type DistinctFilter struct {
	distinct []bool
	any      bool
	seen     map[string][]map[string]struct{}
}

func NewDistinctFilter(terms []Term) *DistinctFilter {
	df := &DistinctFilter{
		distinct: make([]bool, len(terms)),
		seen:     map[string][]map[string]struct{}{},
	}
	for i, t := range terms {
		if t.Distinct {
			df.distinct[i] = true
			df.any = true
		}
	}
	return df
}

// Filter nulls out already-seen values of distinct terms, in place.
// group distinguishes per-group value sets; a global aggregation passes
// the empty string.
func (df *DistinctFilter) Filter(group string, next []types.DataType) []types.DataType {
	if !df.any {
		return next
	}

	sets, ok := df.seen[group]
	if !ok {
		sets = make([]map[string]struct{}, len(df.distinct))
		df.seen[group] = sets
	}

	for i, d := range df.distinct {
		if !d || next[i] == nil || next[i].IsNull() {
			continue
		}

		b, err := next[i].MarshalBinary()
		if err != nil {
			panic(errors.Wrapf(err, "failed to encode distinct value for term %d", i))
		}
		key := string(b)

		if sets[i] == nil {
			sets[i] = map[string]struct{}{}
		}
		if _, dup := sets[i][key]; dup {
			next[i] = next[i].Null()
		} else {
			sets[i][key] = struct{}{}
		}
	}
	return next
}

// Reset drops all seen values.
func (df *DistinctFilter) Reset() {
	df.seen = map[string][]map[string]struct{}{}
}
