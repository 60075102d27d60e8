package aggregation

import "fmt"

// Kind is the closed set of aggregate kinds the engine understands.
// Init/advance/merge/finalize switch exhaustively over it, so adding a
// kind is a localized, compile-time-checked change.
type Kind uint8

const (
	Count Kind = iota
	CountStar
	Sum
	Min
	Max
	Avg
)

func (k Kind) String() string {
	switch k {
	case Count:
		return "COUNT"
	case CountStar:
		return "COUNT(*)"
	case Sum:
		return "SUM"
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Avg:
		return "AVG"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// NeedsInput reports whether the kind aggregates an input expression.
// COUNT(*) counts rows and takes none.
func (k Kind) NeedsInput() bool {
	return k != CountStar
}

// NeedsNumeric reports whether the kind only makes sense over a numeric
// input type.
func (k Kind) NeedsNumeric() bool {
	return k == Sum || k == Avg
}
