package mac_test

import (
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/usnistgov/ethmac/core/testenv"
	"github.com/usnistgov/ethmac/mac"
	"github.com/usnistgov/ethmac/netevents"
)

func TestDecodeFrame(t *testing.T) {
	assert, require := makeAR(t)

	f, kind := mac.DecodeFrame(testenv.BytesFromHex(`
		020000000001 020000000002 8100 A07B 86DD
		60000000
	`))
	require.Equal(netevents.ErrNone, kind)
	assert.Equal(addrLocal, f.Dst)
	assert.Equal(addrRemote, f.Src)
	assert.Equal(uint16(0x07B), f.VLAN)
	assert.Equal(layers.EthernetTypeIPv6, f.EtherType)
	assert.Equal(testenv.BytesFromHex("60000000"), f.Payload)
	assert.False(f.SNAP)

	_, kind = mac.DecodeFrame(testenv.BytesFromHex(`020000000001 020000000002 8100 A0`))
	assert.Equal(netevents.ErrHeader, kind)

	_, kind = mac.DecodeFrame(testenv.BytesFromHex(`020000000001 020000000002 0040 AAAA03`))
	assert.Equal(netevents.ErrTruncated, kind)

	_, kind = mac.DecodeFrame(nil)
	assert.Equal(netevents.ErrTruncated, kind)
}

func TestPrepareFrame(t *testing.T) {
	assert, require := makeAR(t)
	f := newFixture(t, nil)

	_, e := f.Ctrl.PrepareFrame(addrRemote, layers.EthernetTypeIPv4, nil)
	assert.ErrorIs(e, mac.ErrNotInitialised)

	f.Start(nil)
	payload := makePayload(0xA0, 100)
	nb, e := f.Ctrl.PrepareFrame(addrRemote, layers.EthernetTypeIPv4, payload)
	require.NoError(e)
	require.Len(nb.Frame, mac.HeaderLen+len(payload))

	fr, kind := mac.DecodeFrame(nb.Frame)
	require.Equal(netevents.ErrNone, kind)
	assert.Equal(addrRemote, fr.Dst)
	assert.Equal(addrLocal, fr.Src)
	assert.Equal(layers.EthernetTypeIPv4, fr.EtherType)
	assert.Equal(payload, fr.Payload)

	short, e := f.Ctrl.PrepareFrame(addrRemote, layers.EthernetTypeARP, makePayload(0, 28))
	require.NoError(e)
	assert.Len(short.Frame, mac.MinMTU)
}
