package macvnet_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/usnistgov/ethmac/core/macaddr"
	"github.com/usnistgov/ethmac/core/testenv"
	"github.com/usnistgov/ethmac/mac"
	"github.com/usnistgov/ethmac/mac/macvnet"
	"go4.org/must"
)

var makeAR = testenv.MakeAR

type receiver struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (r *receiver) onFrame(f mac.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, append([]byte(nil), f.Payload...))
}

func (r *receiver) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

func TestVNet(t *testing.T) {
	assert, require := makeAR(t)

	vnet, e := macvnet.New(macvnet.Config{NNodes: 3, FirstChannel: 2})
	require.NoError(e)
	defer must.Close(vnet)
	require.Len(vnet.Nodes, 3)
	assert.Equal("02:00:00:00:00:01", vnet.Nodes[0].Address().String())
	assert.Equal("02:00:00:00:00:03", vnet.Nodes[2].Address().String())
	assert.Same(vnet.Nodes[1].Controller, mac.Get(3))

	var rx [3]receiver
	for i, node := range vnet.Nodes {
		node.OnFrame(rx[i].onFrame)
	}

	const nFrames = 20
	src := vnet.Nodes[0]
	for i := 0; i < nFrames; i++ {
		payload := make([]byte, 64)
		payload[0] = byte(i)
		nb, e := src.PrepareFrame(macaddr.Broadcast(), layers.EthernetTypeIPv4, payload)
		require.NoError(e)
		require.NoError(src.SendBufferWait(context.Background(), nb))
	}

	assert.Eventually(func() bool { return rx[1].Count() == nFrames && rx[2].Count() == nFrames },
		time.Second, 10*time.Millisecond)
	assert.Zero(rx[0].Count())
	for i, payload := range rx[2].payloads {
		assert.EqualValues(i, payload[0])
	}
	assert.EqualValues(nFrames, src.Counters().TxFrames)
	assert.EqualValues(2*nFrames, vnet.Counters().Delivered)
}

func TestLoss(t *testing.T) {
	assert, require := makeAR(t)

	vnet, e := macvnet.New(macvnet.Config{NNodes: 2, LossProbability: 1})
	require.NoError(e)
	defer must.Close(vnet)

	src := vnet.Nodes[1]
	nb, e := src.PrepareFrame(vnet.Nodes[0].Address(), layers.EthernetTypeIPv4, make([]byte, 64))
	require.NoError(e)
	require.NoError(src.SendBuffer(nb))

	assert.Eventually(func() bool { return vnet.Counters().Drops == 1 }, time.Second, 10*time.Millisecond)
	assert.Zero(vnet.Nodes[0].Counters().RxFrames)
}
