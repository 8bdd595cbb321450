package mac

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/usnistgov/ethmac/netevents"
)

// LLC values of SNAP encapsulation.
const (
	llcSAPSNAP     = 0xAA
	llcControlUI   = 0x03
	minEthernetLen = HeaderLen
)

// Frame is a read-only view of a received frame.
// All slices point into the receive buffer and are valid only during the frame callback.
type Frame struct {
	// Index is the receive descriptor index.
	Index int

	// Data is the whole frame.
	Data []byte

	Dst net.HardwareAddr
	Src net.HardwareAddr

	// EtherType is the protocol of Payload.
	// For 802.3 frames with LLC/SNAP encapsulation, this is the SNAP protocol type.
	EtherType layers.EthernetType

	// VLAN is the 802.1Q VLAN identifier, or zero if untagged.
	VLAN uint16

	// SNAP indicates the frame used 802.3 LLC/SNAP encapsulation.
	SNAP bool

	// Payload is the network layer payload.
	Payload []byte
}

type truncatedFeedback bool

func (t *truncatedFeedback) SetTruncated() {
	*t = true
}

// DecodeFrame reconstructs a frame view from frame octets.
// Returns a per-frame error kind if the frame cannot be accepted.
func DecodeFrame(data []byte) (f Frame, kind netevents.ErrorKind) {
	f.Data = data
	if len(data) < minEthernetLen {
		return f, netevents.ErrTruncated
	}

	var truncated truncatedFeedback
	var eth layers.Ethernet
	if e := eth.DecodeFromBytes(data, &truncated); e != nil {
		return f, netevents.ErrHeader
	}
	if truncated {
		return f, netevents.ErrTruncated
	}
	f.Dst, f.Src, f.EtherType, f.Payload = eth.DstMAC, eth.SrcMAC, eth.EthernetType, eth.Payload

	if eth.EthernetType == layers.EthernetTypeLLC {
		var llc layers.LLC
		if e := llc.DecodeFromBytes(eth.Payload, gopacket.NilDecodeFeedback); e != nil {
			return f, netevents.ErrHeader
		}
		if llc.DSAP != llcSAPSNAP || llc.SSAP != llcSAPSNAP || llc.Control != llcControlUI {
			return f, netevents.ErrUnsupportedFrameFormat
		}
		var snap layers.SNAP
		if e := snap.DecodeFromBytes(llc.Payload, gopacket.NilDecodeFeedback); e != nil {
			return f, netevents.ErrHeader
		}
		f.SNAP, f.EtherType, f.Payload = true, snap.Type, snap.Payload
	}

	if f.EtherType == layers.EthernetTypeDot1Q {
		var tag layers.Dot1Q
		if e := tag.DecodeFromBytes(f.Payload, gopacket.NilDecodeFeedback); e != nil {
			return f, netevents.ErrHeader
		}
		f.VLAN, f.EtherType, f.Payload = tag.VLANIdentifier, tag.Type, tag.Payload
	}
	return f, netevents.ErrNone
}

// NetBuffer is a caller-owned transmit buffer.
//
// After SendBuffer succeeds, the driver holds a reference to the buffer until the frame has been
// transmitted. The caller must not modify Frame during that time. OnRelease is invoked, in interrupt
// context, when the driver drops its reference.
type NetBuffer struct {
	Frame     []byte
	OnRelease func(nb *NetBuffer)
}

func (nb *NetBuffer) release() {
	if nb.OnRelease != nil {
		nb.OnRelease(nb)
	}
}

// serializeFrame builds an Ethernet II frame.
func serializeFrame(src, dst net.HardwareAddr, etherType layers.EthernetType, payload []byte) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	eth := layers.Ethernet{
		SrcMAC:       src,
		DstMAC:       dst,
		EthernetType: etherType,
	}
	if e := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, &eth, gopacket.Payload(payload)); e != nil {
		return nil, e
	}
	return buf.Bytes(), nil
}
