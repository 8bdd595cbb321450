package runningstat_test

import (
	"math"
	"testing"

	"github.com/usnistgov/ethmac/core/runningstat"
	"github.com/usnistgov/ethmac/core/testenv"
)

var makeAR = testenv.MakeAR

func TestIntStat(t *testing.T) {
	assert, require := makeAR(t)

	var s runningstat.IntStat
	s.Init(1)
	o := s.Read()
	assert.EqualValues(0, o.Count)
	assert.Nil(o.Min)

	for _, x := range []uint64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Push(x)
	}
	o = s.Read()
	assert.EqualValues(8, o.Count)
	assert.EqualValues(8, o.Len)
	assert.InDelta(5.0, o.Mean, 1e-9)
	assert.InDelta(32.0/7.0, o.Variance, 1e-9)
	assert.InDelta(math.Sqrt(32.0/7.0), o.Stdev, 1e-9)
	require.NotNil(o.Min)
	require.NotNil(o.Max)
	assert.EqualValues(2, *o.Min)
	assert.EqualValues(9, *o.Max)
}

func TestSampleInterval(t *testing.T) {
	assert, _ := makeAR(t)

	var s runningstat.RunningStat
	assert.Equal(1, s.SampleInterval())
	s.Init(0)
	assert.Equal(1, s.SampleInterval())
	s.Init(1 << 40)
	assert.Equal(runningstat.MaxSampleInterval, s.SampleInterval())

	s.Init(6)
	interval := s.SampleInterval()
	assert.Zero(interval & (interval - 1))
	assert.GreaterOrEqual(interval, 4)
	assert.LessOrEqual(interval, 8)

	for i := 0; i < 64; i++ {
		s.Push(float64(i))
	}
	o := s.Read()
	assert.EqualValues(64, o.Count)
	assert.EqualValues(64/interval, o.Len)
	assert.InDelta(float64(64-interval)/2, o.Mean, 1e-9)
}

func TestSnapshotArithmetic(t *testing.T) {
	assert, require := makeAR(t)

	var a, b, c runningstat.IntStat
	a.Init(1)
	b.Init(1)
	c.Init(1)
	for x := uint64(1); x <= 10; x++ {
		a.Push(x)
		c.Push(x)
	}
	for x := uint64(11); x <= 30; x++ {
		b.Push(x)
		c.Push(x)
	}

	sum := a.Read().Add(b.Read())
	whole := c.Read()
	assert.Equal(whole.Count, sum.Count)
	assert.InDelta(whole.Mean, sum.Mean, 1e-9)
	assert.InDelta(whole.Variance, sum.Variance, 1e-9)
	require.NotNil(sum.Min)
	assert.EqualValues(1, *sum.Min)
	assert.EqualValues(30, *sum.Max)

	diff := whole.Sub(a.Read())
	expected := b.Read()
	assert.Equal(expected.Count, diff.Count)
	assert.InDelta(expected.Mean, diff.Mean, 1e-9)
	assert.InDelta(expected.Variance, diff.Variance, 1e-6)
	assert.Nil(diff.Min)

	scaled := a.Read().Scale(2)
	assert.InDelta(11.0, scaled.Mean, 1e-9)
	assert.EqualValues(20, *scaled.Max)

	assert.Equal(a.Read(), runningstat.Snapshot{}.Add(a.Read()))
}
