package subtract_test

import (
	"testing"

	"github.com/usnistgov/ethmac/core/subtract"
	"github.com/usnistgov/ethmac/core/testenv"
)

var makeAR = testenv.MakeAR

type window struct {
	Frames uint64
	nSub   *int
}

func (curr window) Sub(prev window) window {
	if curr.nSub != nil {
		*curr.nSub++
	}
	return window{Frames: 1000}
}

type wrongSub struct {
	Frames uint64
}

func (wrongSub) Sub(wrongSub) int {
	return 0
}

type reading struct {
	Frames  uint64
	Delta   int32
	Rate    float64
	Lanes   [2]uint16
	History []uint32
	Peer    *reading
	Window  window
	Wrong   wrongSub
	Label   string
	Channel int `subtract:"-"`
	hidden  int
}

func TestSubMethod(t *testing.T) {
	assert, _ := makeAR(t)

	nSub := 0
	diff := subtract.Sub(window{Frames: 5, nSub: &nSub}, window{Frames: 3, nSub: new(int)})
	assert.EqualValues(1000, diff.Frames)
	assert.Equal(1, nSub)

	assert.EqualValues(2, subtract.Sub(wrongSub{Frames: 5}, wrongSub{Frames: 3}).Frames)
}

func TestStruct(t *testing.T) {
	assert, require := makeAR(t)

	nSub := 0
	curr := reading{
		Frames: 50, Delta: -5, Rate: 2.5,
		Lanes: [2]uint16{10, 20}, History: []uint32{7, 8, 9},
		Peer:   &reading{Frames: 40},
		Window: window{nSub: &nSub},
		Wrong:  wrongSub{Frames: 9},
		Label:  "curr", Channel: 3, hidden: 1,
	}
	prev := reading{
		Frames: 20, Delta: 5, Rate: 0.5,
		Lanes: [2]uint16{1, 2}, History: []uint32{1, 1},
		Peer:   &reading{Frames: 10},
		Window: window{nSub: new(int)},
		Wrong:  wrongSub{Frames: 4},
		Label:  "prev", Channel: 1, hidden: 2,
	}

	diff := subtract.Sub(curr, prev)
	assert.EqualValues(30, diff.Frames)
	assert.EqualValues(-10, diff.Delta)
	assert.InDelta(2.0, diff.Rate, 1e-9)
	assert.Equal([2]uint16{9, 18}, diff.Lanes)
	assert.Equal([]uint32{6, 7}, diff.History)
	require.NotNil(diff.Peer)
	assert.EqualValues(30, diff.Peer.Frames)
	assert.EqualValues(1000, diff.Window.Frames)
	assert.Equal(1, nSub)
	assert.EqualValues(5, diff.Wrong.Frames)
	assert.Equal("curr", diff.Label)
	assert.Equal(3, diff.Channel)
	assert.Equal(0, diff.hidden)

	prev.Peer = nil
	diff = subtract.Sub(curr, prev)
	assert.Nil(diff.Peer)
	assert.EqualValues(50, curr.Frames)
	assert.EqualValues(20, prev.Frames)
}
