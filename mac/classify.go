package mac

import (
	"github.com/usnistgov/ethmac/hw"
	"github.com/usnistgov/ethmac/netevents"
)

type statusMapping struct {
	bits uint32
	kind netevents.ErrorKind
}

// dmaStatusPriority lists DMA status conditions, most severe first.
var dmaStatusPriority = []statusMapping{
	{hw.DMAStatusFBES, netevents.ErrFatalBusError},
	{hw.DMAStatusTPS, netevents.ErrTransmitProcessStopped},
	{hw.DMAStatusTJT, netevents.ErrTransmitJabberTimeout},
	{hw.DMAStatusROS, netevents.ErrReceiveOverflow},
	{hw.DMAStatusTUS, netevents.ErrTransmitUnderflow},
	{hw.DMAStatusRBUS, netevents.ErrReceiveBufferUnavailable},
	{hw.DMAStatusRPS, netevents.ErrReceiveProcessStopped},
	{hw.DMAStatusRWT, netevents.ErrReceiveWatchdogTimeout},
}

// ClassifyStatus maps DMA status bits to exactly one error kind.
// It also returns the status bits accounted for by that kind.
//
// Normal conditions yield ErrNone along with their bits.
// Any other asserted bit that has no specific mapping yields ErrUnspecified, and so does an
// abnormal summary without an accompanying condition.
func ClassifyStatus(status uint32) (kind netevents.ErrorKind, bits uint32) {
	cond := status &^ (hw.DMAStatusSummary | hw.DMAStatusNormal)
	for _, m := range dmaStatusPriority {
		if cond&m.bits != 0 {
			return m.kind, m.bits
		}
	}
	switch {
	case cond != 0:
		return netevents.ErrUnspecified, cond
	case status&hw.DMAStatusAIS != 0:
		return netevents.ErrUnspecified, hw.DMAStatusAIS
	}
	return netevents.ErrNone, status & hw.DMAStatusNormal
}

// rxStatusPriority lists receive descriptor error conditions, in the order they are reported.
var rxStatusPriority = []statusMapping{
	{hw.RxStatusCE, netevents.ErrCRC},
	{hw.RxStatusLE, netevents.ErrTooBig},
	{hw.RxStatusOE, netevents.ErrOverflow},
	{hw.RxStatusRWT, netevents.ErrWatchdog},
	{hw.RxStatusLCO, netevents.ErrLateCollision},
	{hw.RxStatusIPHCE, netevents.ErrIPHeaderChecksum},
	{hw.RxStatusPCE, netevents.ErrPayload},
	{hw.RxStatusRE | hw.RxStatusDE, netevents.ErrReceive},
}

// ClassifyRxStatus maps receive descriptor status to a per-frame error kind.
// Returns ErrNone if the error summary bit is clear.
func ClassifyRxStatus(status uint32) netevents.ErrorKind {
	if status&hw.RxStatusES == 0 {
		return netevents.ErrNone
	}
	for _, m := range rxStatusPriority {
		if status&m.bits != 0 {
			return m.kind
		}
	}
	return netevents.ErrUnspecified
}

// ClassifyTxStatus maps transmit descriptor status to an error kind.
// Every transmit failure is reported as ErrTransmitError; the status bits are its sub-cause.
func ClassifyTxStatus(status uint32) netevents.ErrorKind {
	if status&hw.TxStatusES == 0 {
		return netevents.ErrNone
	}
	return netevents.ErrTransmitError
}
