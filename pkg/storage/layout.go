package storage

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/smartree/go-query/pkg/types"
	"github.com/smartree/go-query/util/helpers"
)

var (
	ErrNoSlots      = errors.New("layout requires at least one slot")
	ErrVariableSize = errors.New("only fixed-size types can be laid out")
)

type slot struct {
	meta   types.DataTypeMeta
	offset int
}

// Layout assigns fixed byte offsets to an ordered list of typed slots
// inside one contiguous buffer. The buffer starts with a null bitmap
// (one bit per slot), followed by each slot's value bytes in request
// order. A Layout is immutable after construction and safe for
// concurrent use; the buffers it reads and writes are caller-owned.
type Layout struct {
	slots     []slot
	nullBytes int
	size      int
}

func NewLayout(metas []types.DataTypeMeta) (*Layout, error) {
	if len(metas) == 0 {
		return nil, ErrNoSlots
	}

	l := &Layout{
		slots:     make([]slot, 0, len(metas)),
		nullBytes: (len(metas) + 7) / 8,
	}

	offset := l.nullBytes
	for i, m := range metas {
		if !m.IsFixedSize() {
			return nil, errors.Wrapf(ErrVariableSize, "slot %d (%s)", i, m.GetCode())
		}
		l.slots = append(l.slots, slot{meta: m, offset: offset})
		offset += m.Size()
	}
	l.size = offset
	return l, nil
}

// Size is the total footprint in bytes of one buffer.
func (l *Layout) Size() int {
	return l.size
}

func (l *Layout) NumSlots() int {
	return len(l.slots)
}

func (l *Layout) SlotMeta(idx int) types.DataTypeMeta {
	return l.slots[l.checkIdx(idx)].meta
}

func (l *Layout) SlotOffset(idx int) int {
	return l.slots[l.checkIdx(idx)].offset
}

func (l *Layout) IsNull(buf []byte, idx int) bool {
	l.check(buf, idx)
	return helpers.GetBit(buf[idx/8], uint8(idx%8))
}

// SetNull marks the slot null and zeroes its value bytes.
func (l *Layout) SetNull(buf []byte, idx int) {
	s := l.check(buf, idx)
	helpers.SetBit(&buf[idx/8], uint8(idx%8), true)
	for i := 0; i < s.meta.Size(); i++ {
		buf[s.offset+i] = 0
	}
}

// Set writes val into the slot. A nil or null val is stored as null.
func (l *Layout) Set(buf []byte, idx int, val types.DataType) {
	s := l.check(buf, idx)
	if val == nil || val.IsNull() {
		l.SetNull(buf, idx)
		return
	}
	if val.GetCode() != s.meta.GetCode() || val.Size() != s.meta.Size() {
		panic(fmt.Errorf(
			"slot %d holds %s of %d bytes, cannot store %s of %d bytes",
			idx, s.meta.GetCode(), s.meta.Size(), val.GetCode(), val.Size(),
		))
	}

	b, err := val.MarshalBinary()
	if err != nil {
		panic(errors.Wrapf(err, "failed to marshal slot %d", idx))
	}
	copy(buf[s.offset:s.offset+s.meta.Size()], b)
	helpers.SetBit(&buf[idx/8], uint8(idx%8), false)
}

// Get reads the slot back as a standalone value.
func (l *Layout) Get(buf []byte, idx int) types.DataType {
	s := l.check(buf, idx)
	if l.IsNull(buf, idx) {
		return s.meta.Null()
	}

	v := s.meta.Zero()
	if err := v.UnmarshalBinary(buf[s.offset : s.offset+s.meta.Size()]); err != nil {
		panic(errors.Wrapf(err, "failed to unmarshal slot %d", idx))
	}
	return v
}

func (l *Layout) checkIdx(idx int) int {
	if idx < 0 || idx >= len(l.slots) {
		panic(fmt.Errorf("slot index %d out of range [0,%d)", idx, len(l.slots)))
	}
	return idx
}

func (l *Layout) check(buf []byte, idx int) slot {
	l.checkIdx(idx)
	if len(buf) < l.size {
		panic(fmt.Errorf("buffer of %d bytes is smaller than layout size %d", len(buf), l.size))
	}
	return l.slots[idx]
}
