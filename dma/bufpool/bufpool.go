// Package bufpool provides receive buffers and transmit reference slots for descriptor rings.
package bufpool

import (
	"errors"

	"github.com/pkg/math"
	"go.uber.org/atomic"
)

// Buffer sizing.
const (
	// Alignment is the DMA buffer alignment in octets.
	Alignment = 4

	// FCSLen is the room reserved after each frame for the frame check sequence.
	FCSLen = 4

	// MinBufferSize is the minimum receive buffer size.
	MinBufferSize = 64

	// MaxBufferSize is the maximum receive buffer size.
	MaxBufferSize = 1524
)

// Errors.
var (
	ErrCount     = errors.New("buffer count must be positive")
	ErrSlotInUse = errors.New("transmit slot is in use")
	ErrSlotIndex = errors.New("transmit slot index out of range")
)

// AlignSize computes receive buffer size for a given frame size.
// The result includes FCS room, is a multiple of Alignment, and is clamped to [MinBufferSize, MaxBufferSize].
func AlignSize(frameSize int) int {
	size := (frameSize + FCSLen + Alignment - 1) / Alignment * Alignment
	return math.MinInt(math.MaxInt(size, MinBufferSize), MaxBufferSize)
}

// RxPool contains preallocated receive buffers.
// Buffers are carved out of one backing array and live as long as the pool.
type RxPool struct {
	backing []byte
	bufs    [][]byte
	size    int
}

// NewRxPool allocates count buffers of size octets each.
func NewRxPool(count, size int) (*RxPool, error) {
	if count <= 0 {
		return nil, ErrCount
	}
	if size <= 0 {
		return nil, errors.New("buffer size must be positive")
	}
	p := &RxPool{
		backing: make([]byte, count*size),
		bufs:    make([][]byte, count),
		size:    size,
	}
	for i := range p.bufs {
		p.bufs[i] = p.backing[i*size : (i+1)*size : (i+1)*size]
	}
	return p, nil
}

// Len returns number of buffers.
func (p *RxPool) Len() int {
	return len(p.bufs)
}

// BufferSize returns size of each buffer.
func (p *RxPool) BufferSize() int {
	return p.size
}

// Buffer returns i-th buffer.
func (p *RxPool) Buffer(i int) []byte {
	return p.bufs[i]
}

type txSlot[T any] struct {
	inUse atomic.Bool
	ref   T
}

// TxSlots is a table of non-owning references to caller-supplied transmit buffers.
//
// Attach is called by the main line and Release by interrupt context. The inUse flag hands each
// slot over: Attach writes ref before setting it, Release clears ref before unsetting it.
type TxSlots[T any] struct {
	slots []txSlot[T]
}

// NewTxSlots creates a table with count empty slots.
func NewTxSlots[T any](count int) (*TxSlots[T], error) {
	if count <= 0 {
		return nil, ErrCount
	}
	return &TxSlots[T]{
		slots: make([]txSlot[T], count),
	}, nil
}

// Len returns number of slots.
func (t *TxSlots[T]) Len() int {
	return len(t.slots)
}

func (t *TxSlots[T]) get(i int) *txSlot[T] {
	if i < 0 || i >= len(t.slots) {
		return nil
	}
	return &t.slots[i]
}

// InUse determines whether slot i holds an unreleased reference.
func (t *TxSlots[T]) InUse(i int) bool {
	s := t.get(i)
	return s != nil && s.inUse.Load()
}

// Attach stores a reference in slot i.
func (t *TxSlots[T]) Attach(i int, ref T) error {
	s := t.get(i)
	if s == nil {
		return ErrSlotIndex
	}
	if s.inUse.Load() {
		return ErrSlotInUse
	}
	s.ref = ref
	s.inUse.Store(true)
	return nil
}

// Get returns the reference in slot i without releasing it.
func (t *TxSlots[T]) Get(i int) (ref T, ok bool) {
	s := t.get(i)
	if s == nil || !s.inUse.Load() {
		return ref, false
	}
	return s.ref, true
}

// Release clears slot i and returns the reference it held.
func (t *TxSlots[T]) Release(i int) (ref T, ok bool) {
	s := t.get(i)
	if s == nil || !s.inUse.Load() {
		return ref, false
	}
	ref = s.ref
	var zero T
	s.ref = zero
	s.inUse.Store(false)
	return ref, true
}

// CountInUse returns number of slots holding a reference.
func (t *TxSlots[T]) CountInUse() (n int) {
	for i := range t.slots {
		if t.slots[i].inUse.Load() {
			n++
		}
	}
	return n
}
