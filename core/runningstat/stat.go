// Package runningstat implements Knuth and Welford's method for computing the standard deviation.
package runningstat

import (
	"math"

	binutils "github.com/jfoster/binary-utilities"
	mathpkg "github.com/pkg/math"
)

// MaxSampleInterval is the maximum sample interval.
const MaxSampleInterval = 1 << 30

// RunningStat collects statistics and allows computing mean and variance.
// Algorithm comes from https://www.johndcook.com/blog/standard_deviation/ .
//
// The zero value samples every input.
// RunningStat is not thread-safe.
type RunningStat struct {
	mask uint64
	i    uint64
	n    uint64
	m1   float64
	m2   float64
}

// Init initializes the instance and clears existing data.
// sampleInterval: how often to collect sample, will be adjusted to nearest power of two and truncated between 1 and 2^30.
func (s *RunningStat) Init(sampleInterval int) {
	interval := 1
	if sampleInterval > 1 {
		interval = int(binutils.NearPowerOfTwo(int64(sampleInterval)))
	}
	*s = RunningStat{
		mask: uint64(mathpkg.MinInt(mathpkg.MaxInt(interval, 1), MaxSampleInterval)) - 1,
	}
}

// SampleInterval returns the effective sample interval.
func (s RunningStat) SampleInterval() int {
	return int(s.mask + 1)
}

// Push adds an input.
func (s *RunningStat) Push(x float64) {
	s.i++
	if (s.i-1)&s.mask != 0 {
		return
	}

	s.n++
	if s.n == 1 {
		s.m1, s.m2 = x, 0
		return
	}
	m1 := s.m1 + (x-s.m1)/float64(s.n)
	s.m2 += (x - s.m1) * (x - m1)
	s.m1 = m1
}

// Read returns current counters as Snapshot.
func (s RunningStat) Read() Snapshot {
	return newSnapshot(s.i, s.n, s.m1, s.m2, false, 0, 0)
}

// IntStat is like RunningStat but also tracks min and max of unsigned integer inputs.
// Min and max are updated on every input, regardless of sample interval.
type IntStat struct {
	s   RunningStat
	min uint64
	max uint64
}

// Init initializes the instance and clears existing data.
func (s *IntStat) Init(sampleInterval int) {
	s.s.Init(sampleInterval)
	s.min = math.MaxUint64
	s.max = 0
}

// Push adds an input.
func (s *IntStat) Push(x uint64) {
	if s.s.i == 0 {
		s.min, s.max = x, x
	}
	if x < s.min {
		s.min = x
	}
	if x > s.max {
		s.max = x
	}
	s.s.Push(float64(x))
}

// Read returns current counters as Snapshot.
func (s IntStat) Read() Snapshot {
	return newSnapshot(s.s.i, s.s.n, s.s.m1, s.s.m2, s.s.i > 0, s.min, s.max)
}
