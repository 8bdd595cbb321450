// Package descring implements a closed ring of DMA descriptors.
//
// Each descriptor carries an ownership flag that is the only synchronization between the DMA engine
// and software. Software may touch a descriptor only while it is software-owned, and hands it to
// hardware with Ring.Arm. Hardware hands it back with Ring.Writeback after completing the transfer.
package descring

import (
	"errors"
	"fmt"

	"go.uber.org/atomic"
)

// Limits of descriptor count.
const (
	MinCount = 1
	MaxCount = 255
)

// Errors.
var (
	ErrCount         = fmt.Errorf("descriptor count must be between %d and %d", MinCount, MaxCount)
	ErrIndex         = errors.New("descriptor index out of range")
	ErrArmed         = errors.New("descriptor is already armed")
	ErrHardwareOwned = errors.New("descriptor is owned by hardware")
	ErrNotArmed      = errors.New("descriptor is not armed")
	ErrLength        = errors.New("length exceeds bound buffer")
)

// Owner indicates which side may access a descriptor.
type Owner uint8

// Owner values.
const (
	OwnerSoftware Owner = iota
	OwnerHardware
)

func (o Owner) String() string {
	switch o {
	case OwnerSoftware:
		return "software"
	case OwnerHardware:
		return "hardware"
	}
	return fmt.Sprintf("Owner(%d)", uint8(o))
}

// Status is the status bit field written back by hardware.
// Its meaning depends on the descriptor direction; bit 31 is reserved for the ownership flag.
type Status uint32

const (
	ownBit     = uint32(1) << 31
	statusMask = ownBit - 1
)

// Descriptor describes one buffer within a Ring.
//
// The word field contains the ownership flag in bit 31 and Status in lower bits.
// Software writes word only while the descriptor is software-owned, in Ring.Arm.
// Hardware writes word only while the descriptor is hardware-owned, in Ring.Writeback.
// buf and length are plain fields: the side that owns the descriptor may write them,
// and the atomic store of word publishes them to the other side.
type Descriptor struct {
	word   atomic.Uint32
	buf    []byte
	length int
	next   int
}

// Owner returns current owner.
func (d *Descriptor) Owner() Owner {
	if d.word.Load()&ownBit != 0 {
		return OwnerHardware
	}
	return OwnerSoftware
}

// Next returns the index of the next descriptor in the ring.
func (d *Descriptor) Next() int {
	return d.next
}

// View is a software-side snapshot of a software-owned descriptor.
type View struct {
	Index  int
	Buffer []byte // bound buffer truncated to Length
	Length int
	Status Status
}

// Ring is a closed ring of descriptors.
type Ring struct {
	desc []Descriptor
	cur  int
}

// New creates a Ring of count descriptors, all software-owned with no buffer bound.
func New(count int) (r *Ring, e error) {
	if count < MinCount || count > MaxCount {
		return nil, ErrCount
	}
	r = &Ring{
		desc: make([]Descriptor, count),
	}
	for i := range r.desc {
		r.desc[i].next = (i + 1) % count
	}
	return r, nil
}

// Len returns number of descriptors.
func (r *Ring) Len() int {
	return len(r.desc)
}

// CurrentIndex returns the index of the descriptor under software consideration.
func (r *Ring) CurrentIndex() int {
	return r.cur
}

// Advance moves the current index to the next descriptor and returns the new index.
func (r *Ring) Advance() int {
	r.cur = r.desc[r.cur].next
	return r.cur
}

// Next returns the index following i.
func (r *Ring) Next(i int) int {
	return r.desc[i].next
}

// Descriptor returns a descriptor by index, or nil if index is out of range.
func (r *Ring) Descriptor(i int) *Descriptor {
	if i < 0 || i >= len(r.desc) {
		return nil
	}
	return &r.desc[i]
}

func (r *Ring) get(i int) (*Descriptor, error) {
	d := r.Descriptor(i)
	if d == nil {
		return nil, ErrIndex
	}
	return d, nil
}

// Bind attaches a buffer to a software-owned descriptor.
func (r *Ring) Bind(i int, buf []byte) error {
	d, e := r.get(i)
	if e != nil {
		return e
	}
	if d.word.Load()&ownBit != 0 {
		return ErrHardwareOwned
	}
	d.buf, d.length = buf, 0
	return nil
}

// IsHardwareOwned determines whether descriptor i is owned by hardware.
// This is the only safe way to decide whether software may touch the descriptor.
// An out of range index is reported as hardware-owned.
func (r *Ring) IsHardwareOwned(i int) bool {
	d := r.Descriptor(i)
	return d == nil || d.word.Load()&ownBit != 0
}

// Arm passes descriptor i to hardware.
// length is the number of bytes hardware may read (transmit) or write (receive) in the bound buffer.
// The status field is cleared.
func (r *Ring) Arm(i, length int) error {
	d, e := r.get(i)
	if e != nil {
		return e
	}
	if d.word.Load()&ownBit != 0 {
		return ErrArmed
	}
	if length < 0 || length > len(d.buf) {
		return ErrLength
	}
	d.length = length
	d.word.Store(ownBit)
	return nil
}

// Read returns a snapshot of a software-owned descriptor.
func (r *Ring) Read(i int) (v View, e error) {
	d, e := r.get(i)
	if e != nil {
		return v, e
	}
	w := d.word.Load()
	if w&ownBit != 0 {
		return v, ErrHardwareOwned
	}
	return View{
		Index:  i,
		Buffer: d.buf[:d.length],
		Length: d.length,
		Status: Status(w & statusMask),
	}, nil
}

// HardwareBuffer returns the region of an armed descriptor that hardware may access.
// This is called on the hardware side only.
func (r *Ring) HardwareBuffer(i int) ([]byte, error) {
	d, e := r.get(i)
	if e != nil {
		return nil, e
	}
	if d.word.Load()&ownBit == 0 {
		return nil, ErrNotArmed
	}
	return d.buf[:d.length], nil
}

// Writeback completes an armed descriptor and passes it back to software.
// This is called on the hardware side only.
func (r *Ring) Writeback(i, length int, status Status) error {
	d, e := r.get(i)
	if e != nil {
		return e
	}
	if d.word.Load()&ownBit == 0 {
		return ErrNotArmed
	}
	if length < 0 || length > len(d.buf) {
		return ErrLength
	}
	d.length = length
	d.word.Store(uint32(status) & statusMask)
	return nil
}

// CountArmed returns number of hardware-owned descriptors.
func (r *Ring) CountArmed() (n int) {
	for i := range r.desc {
		if r.desc[i].word.Load()&ownBit != 0 {
			n++
		}
	}
	return n
}

// CheckArc verifies that hardware-owned descriptors form one contiguous arc of the ring.
func (r *Ring) CheckArc() error {
	n := len(r.desc)
	transitions := 0
	for i := range r.desc {
		if r.IsHardwareOwned(i) != r.IsHardwareOwned((i+1)%n) {
			transitions++
		}
	}
	if transitions > 2 {
		return fmt.Errorf("hardware-owned descriptors form %d arcs", transitions/2)
	}
	return nil
}

// Reset returns every descriptor to software with cleared status and moves the current index to 0.
// The caller must ensure hardware has stopped accessing the ring.
func (r *Ring) Reset() {
	for i := range r.desc {
		r.desc[i].length = 0
		r.desc[i].word.Store(0)
	}
	r.cur = 0
}
