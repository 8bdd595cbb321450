package irq_test

import (
	"github.com/usnistgov/ethmac/core/testenv"
)

var makeAR = testenv.MakeAR

// postedStatus is a StatusRegister whose Clear takes effect at the next barrier.
type postedStatus struct {
	bits    uint32
	posted  uint32
	nClears int
}

func (s *postedStatus) Pending() uint32 {
	return s.bits
}

func (s *postedStatus) Clear(bits uint32) {
	s.posted |= bits
	s.nClears++
}

func (s *postedStatus) Barrier() {
	s.bits &^= s.posted
	s.posted = 0
}
