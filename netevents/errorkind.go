package netevents

import "strconv"

// ErrorKind enumerates error conditions reported by the link layer.
// It is raised within Error events and never thrown as control flow in interrupt context.
type ErrorKind int

// ErrorKind values.
const (
	ErrNone ErrorKind = iota
	ErrPhyWriteTimeout
	ErrPhyReadTimeout
	ErrPhyWaitTimeout
	ErrCRC
	ErrTooBig
	ErrTransmitError
	ErrReceive
	ErrWatchdog
	ErrLateCollision
	ErrIPHeaderChecksum
	ErrOverflow
	ErrTruncated
	ErrPayload
	ErrHeader
	ErrUnsupportedFrameFormat
	ErrBusy
	ErrTransmitProcessStopped
	ErrTransmitJabberTimeout
	ErrReceiveOverflow
	ErrTransmitUnderflow
	ErrReceiveBufferUnavailable
	ErrReceiveProcessStopped
	ErrReceiveWatchdogTimeout
	ErrFatalBusError
	ErrNoFlashData
	ErrUnspecified

	nErrorKinds
)

var errorKindStrings = [...]string{
	ErrNone:                     "ok",
	ErrPhyWriteTimeout:          "PHY write timeout",
	ErrPhyReadTimeout:           "PHY read timeout",
	ErrPhyWaitTimeout:           "PHY wait timeout",
	ErrCRC:                      "CRC error",
	ErrTooBig:                   "frame too big",
	ErrTransmitError:            "transmit error",
	ErrReceive:                  "receive error",
	ErrWatchdog:                 "watchdog",
	ErrLateCollision:            "late collision",
	ErrIPHeaderChecksum:         "IP header checksum error",
	ErrOverflow:                 "overflow",
	ErrTruncated:                "truncated frame",
	ErrPayload:                  "malformed payload",
	ErrHeader:                   "malformed header",
	ErrUnsupportedFrameFormat:   "unsupported 802.3 frame format",
	ErrBusy:                     "busy",
	ErrTransmitProcessStopped:   "transmit process stopped",
	ErrTransmitJabberTimeout:    "transmit jabber timeout",
	ErrReceiveOverflow:          "receive overflow",
	ErrTransmitUnderflow:        "transmit underflow",
	ErrReceiveBufferUnavailable: "receive buffer unavailable",
	ErrReceiveProcessStopped:    "receive process stopped",
	ErrReceiveWatchdogTimeout:   "receive watchdog timeout",
	ErrFatalBusError:            "fatal bus error",
	ErrNoFlashData:              "cannot transmit in place from non-DMA memory",
	ErrUnspecified:              "unspecified error",
}

// ListErrorKinds returns every defined ErrorKind except ErrNone.
func ListErrorKinds() (list []ErrorKind) {
	for k := ErrNone + 1; k < nErrorKinds; k++ {
		list = append(list, k)
	}
	return list
}

// Valid determines whether k is a defined ErrorKind.
func (k ErrorKind) Valid() bool {
	return k >= ErrNone && k < nErrorKinds
}

// IsPerFrame determines whether the error affects a single frame only.
// The driver continues servicing subsequent frames after a per-frame error.
func (k ErrorKind) IsPerFrame() bool {
	switch k {
	case ErrCRC, ErrTooBig, ErrReceive, ErrWatchdog, ErrLateCollision, ErrIPHeaderChecksum,
		ErrOverflow, ErrTruncated, ErrPayload, ErrHeader, ErrUnsupportedFrameFormat, ErrTransmitError:
		return true
	}
	return false
}

// IsFatal determines whether the error ends the driver session.
func (k ErrorKind) IsFatal() bool {
	return k == ErrFatalBusError
}

func (k ErrorKind) String() string {
	if !k.Valid() {
		return "ErrorKind(" + strconv.Itoa(int(k)) + ")"
	}
	return errorKindStrings[k]
}

func (k ErrorKind) Error() string {
	return k.String()
}
