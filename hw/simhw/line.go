package simhw

import (
	"fmt"
	"sync"

	"github.com/usnistgov/ethmac/irq"
)

// LineID identifies an interrupt line of the engine.
type LineID int

// LineID values.
const (
	LineRx LineID = iota
	LineTx
	LineError
	nLines
)

func (id LineID) String() string {
	switch id {
	case LineRx:
		return "rx"
	case LineTx:
		return "tx"
	case LineError:
		return "error"
	}
	return fmt.Sprintf("LineID(%d)", int(id))
}

// StatusRegister is a simulated status register with posted clears.
type StatusRegister struct {
	mu      sync.Mutex
	bits    uint32
	posted  uint32
	nClears int
}

var _ irq.StatusRegister = (*StatusRegister)(nil)

// Pending implements irq.StatusRegister.
func (s *StatusRegister) Pending() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bits
}

// Clear implements irq.StatusRegister.
// The clear is posted and takes effect at the next barrier.
func (s *StatusRegister) Clear(bits uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posted |= bits
	s.nClears++
}

// NClears returns number of Clear invocations.
func (s *StatusRegister) NClears() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nClears
}

func (s *StatusRegister) assert(bits uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bits |= bits
}

func (s *StatusRegister) retire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bits &^= s.posted
	s.posted = 0
}

// line models an interrupt line: a handler is never re-entered, and a cause asserted while the
// handler is active causes another signal after it returns.
type line struct {
	vector       irq.Vector
	status       *StatusRegister
	maxRetrigger int

	mu     sync.Mutex
	masked bool
	active bool
	refire bool
}

func newLine(vector irq.Vector, maxRetrigger int) *line {
	return &line{
		vector:       vector,
		status:       &StatusRegister{},
		maxRetrigger: maxRetrigger,
	}
}

func (l *line) setMasked(masked bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.masked = masked
}

func (l *line) fire() {
	l.mu.Lock()
	if l.masked {
		l.mu.Unlock()
		return
	}
	if l.active {
		l.refire = true
		l.mu.Unlock()
		return
	}
	l.active = true
	l.mu.Unlock()

	for {
		for i := 0; i < l.maxRetrigger && l.status.Pending() != 0; i++ {
			if !irq.Signal(l.vector) {
				break
			}
		}

		l.mu.Lock()
		if !l.refire || l.masked {
			l.active, l.refire = false, false
			l.mu.Unlock()
			return
		}
		l.refire = false
		l.mu.Unlock()
	}
}
