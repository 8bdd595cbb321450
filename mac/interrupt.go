package mac

import (
	"github.com/usnistgov/ethmac/dma/descring"
	"github.com/usnistgov/ethmac/hw"
	"github.com/usnistgov/ethmac/netevents"
	"go.uber.org/zap"
)

func (ctrl *Controller) onReceive(evt netevents.Event) {
	if evt.Kind == netevents.KindReceiveReady {
		ctrl.HandleReceiveInterrupt()
	}
}

func (ctrl *Controller) onSend(evt netevents.Event) {
	switch evt.Kind {
	case netevents.KindTransferComplete, netevents.KindHalfComplete:
		ctrl.HandleTransmitInterrupt()
	}
}

func (ctrl *Controller) onError(evt netevents.Event) {
	if evt.Error.IsFatal() {
		ctrl.enterFatal(evt)
	}
}

// enterFatal stops the engine after a fatal bus error.
// Ring state is no longer trusted until the next Initialise.
func (ctrl *Controller) enterFatal(evt netevents.Event) {
	if !ctrl.state.CAS(int32(StateStarted), int32(StateFatal)) {
		return
	}
	e := ctrl.inst.Engine.Stop()
	ctrl.logger.Error("fatal bus error, engine stopped",
		zap.Stringer("event", evt),
		zap.Error(e),
	)
}

func (ctrl *Controller) raiseError(index int, kind netevents.ErrorKind, cause uint32) {
	ctrl.notifier.Raise(netevents.ErrorEvent(ctrl.inst.Channel, index, kind, cause))
}

// HandleReceiveInterrupt processes every software-owned receive descriptor in ring order, starting
// at the current index. Each frame is checked for errors, decoded, and delivered to frame consumers.
// The descriptor is passed back to hardware only after delivery returns.
// Returns number of processed descriptors.
func (ctrl *Controller) HandleReceiveInterrupt() (n int) {
	if ctrl.State() != StateStarted {
		return 0
	}

	r, size := ctrl.rxRing, ctrl.rxPool.BufferSize()
	for i := r.CurrentIndex(); !r.IsHardwareOwned(i); i = r.Advance() {
		v, e := r.Read(i)
		if e != nil {
			break
		}
		ctrl.processReceived(v)
		if e := r.Arm(i, size); e != nil {
			break
		}
		n++
	}

	if n > 0 {
		ctrl.cnt.pushBurst(n)
		ctrl.inst.Engine.ResumeReceive()
	}
	return n
}

func (ctrl *Controller) processReceived(v descring.View) {
	status := uint32(v.Status)
	switch {
	case ctrl.rxDiscard:
		if status&hw.RxStatusLS != 0 {
			ctrl.rxDiscard = false
		}
		return
	case status&hw.RxStatusFS == 0:
		ctrl.dropReceived(v.Index, netevents.ErrTruncated, status)
		return
	case status&hw.RxStatusLS == 0:
		ctrl.rxDiscard = true
		ctrl.dropReceived(v.Index, netevents.ErrTooBig, status)
		return
	}

	if kind := ClassifyRxStatus(status); kind != netevents.ErrNone {
		ctrl.dropReceived(v.Index, kind, status)
		return
	}
	if v.Length > ctrl.params.MTU {
		ctrl.dropReceived(v.Index, netevents.ErrTooBig, status)
		return
	}

	f, kind := DecodeFrame(v.Buffer)
	if kind != netevents.ErrNone {
		ctrl.dropReceived(v.Index, kind, status)
		return
	}
	f.Index = v.Index

	ctrl.cnt.rxFrames.Inc()
	ctrl.cnt.rxOctets.Add(uint64(v.Length))
	ctrl.frames.EmitSync(evtFrame, f)
}

func (ctrl *Controller) dropReceived(index int, kind netevents.ErrorKind, status uint32) {
	ctrl.cnt.rxErrors.Inc()
	ctrl.raiseError(index, kind, status)
}

// HandleTransmitInterrupt releases transmit buffers of completed descriptors, in ring order starting
// from the oldest frame in flight. It stops at the first descriptor still owned by hardware.
// Returns number of released buffers.
func (ctrl *Controller) HandleTransmitInterrupt() (n int) {
	switch ctrl.State() {
	case StateStarted, StateFatal:
	default:
		return 0
	}

	r := ctrl.txRing
	for ctrl.txDone.Load() != ctrl.txPosted.Load() && !r.IsHardwareOwned(ctrl.txDirty) {
		i := ctrl.txDirty
		v, e := r.Read(i)
		if e != nil {
			break
		}

		if kind := ClassifyTxStatus(uint32(v.Status)); kind != netevents.ErrNone {
			ctrl.cnt.txErrors.Inc()
			ctrl.raiseError(i, kind, uint32(v.Status))
		} else {
			ctrl.cnt.txFrames.Inc()
			ctrl.cnt.txOctets.Add(uint64(v.Length))
		}

		nb, ok := ctrl.txRefs.Release(i)
		ctrl.txDirty = r.Next(i)
		ctrl.txDone.Inc()
		n++
		if ok {
			nb.release()
			evt := netevents.NotificationEvent(ctrl.inst.Channel, netevents.NoticeBufferReleased)
			evt.Index = i
			ctrl.notifier.Raise(evt)
		}
	}
	return n
}

// HandleErrorInterrupt maps DMA status bits to one error kind and raises it as an error event.
// Returns the raised error kind, or ErrNone if status contains no error condition.
func (ctrl *Controller) HandleErrorInterrupt(dmaStatus uint32) netevents.ErrorKind {
	kind, _ := ClassifyStatus(dmaStatus)
	if kind != netevents.ErrNone {
		ctrl.cnt.dmaErrors.Inc()
		ctrl.raiseError(-1, kind, dmaStatus)
	}
	return kind
}

// handleErrorLine is the entry point of the abnormal interrupt line.
// Like irq.Dispatcher.Handle, it services one condition per invocation.
func (ctrl *Controller) handleErrorLine() {
	ctrl.cnt.interrupts.Inc()
	st := ctrl.inst.Error.Status
	pending := st.Pending()

	ctrl.HandleErrorInterrupt(pending)

	_, bits := ClassifyStatus(pending)
	if rest := pending &^ (bits | hw.DMAStatusSummary | hw.DMAStatusNormal); rest == 0 {
		bits |= pending & (hw.DMAStatusSummary | hw.DMAStatusNormal)
	}
	if bits != 0 {
		st.Clear(bits)
	}

	if ctrl.inst.Barrier != nil {
		ctrl.inst.Barrier()
	}
}
