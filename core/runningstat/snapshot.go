package runningstat

import (
	"math"
)

func combineMinMax(f func(a, b uint64) uint64, a, b *uint64) (uint64, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	return f(*a, *b), true
}

func scaleMinMax(x *uint64, ratio float64) (uint64, bool) {
	if x == nil {
		return 0, false
	}
	return uint64(float64(*x) * ratio), true
}

func minU64(a, b uint64) uint64 {
	return min(a, b)
}

func maxU64(a, b uint64) uint64 {
	return max(a, b)
}

// Snapshot contains a snapshot of RunningStat reading.
type Snapshot struct {
	Count    uint64  `json:"count"`    // number of inputs
	Len      uint64  `json:"len"`      // number of collected samples
	Mean     float64 `json:"mean"`     // valid if len>0
	Variance float64 `json:"variance"` // valid if len>1
	Stdev    float64 `json:"stdev"`    // valid if len>1
	M1       float64 `json:"m1"`
	M2       float64 `json:"m2"`
	Min      *uint64 `json:"min,omitempty"` // valid if count>0
	Max      *uint64 `json:"max,omitempty"` // valid if count>0
}

// Add combines stats with another instance.
func (s Snapshot) Add(o Snapshot) Snapshot {
	if s.Len == 0 {
		return o
	} else if o.Len == 0 {
		return s
	}
	i := s.Count + o.Count
	n := s.Len + o.Len
	aN, bN, cN := float64(s.Len), float64(o.Len), float64(n)
	delta := o.M1 - s.M1
	m1 := (aN*s.M1 + bN*o.M1) / cN
	m2 := s.M2 + o.M2 + delta*delta*aN*bN/cN
	lo, hasMin := combineMinMax(minU64, s.Min, o.Min)
	hi, hasMax := combineMinMax(maxU64, s.Max, o.Max)
	return newSnapshot(i, n, m1, m2, hasMin && hasMax, lo, hi)
}

// Sub computes numerical difference.
// Min and max cannot be recovered and are omitted.
func (s Snapshot) Sub(o Snapshot) Snapshot {
	i := s.Count - o.Count
	n := s.Len - o.Len
	if n == 0 {
		return newSnapshot(i, 0, 0, 0, false, 0, 0)
	}
	cN, aN, bN := float64(s.Len), float64(o.Len), float64(n)
	m1 := (cN*s.M1 - aN*o.M1) / bN
	delta := o.M1 - m1
	m2 := s.M2 - o.M2 - delta*delta*aN*bN/cN
	return newSnapshot(i, n, m1, m2, false, 0, 0)
}

// Scale multiplies every number by a ratio.
func (s Snapshot) Scale(ratio float64) Snapshot {
	m1, m2 := s.M1*ratio, s.M2*ratio*ratio
	lo, hasMin := scaleMinMax(s.Min, ratio)
	hi, hasMax := scaleMinMax(s.Max, ratio)
	return newSnapshot(s.Count, s.Len, m1, m2, hasMin && hasMax, lo, hi)
}

func newSnapshot(i, n uint64, m1, m2 float64, hasMinMax bool, lo, hi uint64) (s Snapshot) {
	s.Count, s.Len = i, n
	s.M1, s.M2 = m1, m2
	if n > 0 {
		s.Mean = m1
	}
	if n > 1 {
		s.Variance = m2 / float64(n-1)
		s.Stdev = math.Sqrt(s.Variance)
	}
	if i > 0 && hasMinMax {
		s.Min, s.Max = &lo, &hi
	}
	return
}
