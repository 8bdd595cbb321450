package mac

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/usnistgov/ethmac/core/events"
	"github.com/usnistgov/ethmac/dma/bufpool"
	"github.com/usnistgov/ethmac/dma/descring"
	"github.com/usnistgov/ethmac/hw"
	"github.com/usnistgov/ethmac/irq"
	"github.com/usnistgov/ethmac/netevents"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	evtFrame = "frame"

	// txPollInterval is the polling interval of SendBufferWait.
	txPollInterval = 100 * time.Microsecond
)

// Controller is an Ethernet MAC controller bound to one hardware channel.
//
// Initialise, Startup, SendBuffer, SendBufferWait, PrepareFrame, and Close are main-line
// operations; they must not be invoked concurrently with each other.
// HandleReceiveInterrupt, HandleTransmitInterrupt, and HandleErrorInterrupt run in interrupt
// context, normally reached through the bound vectors.
type Controller struct {
	inst     hw.Instance
	logger   *zap.Logger
	notifier *netevents.Notifier
	frames   *events.Emitter
	subs     []io.Closer
	rxIrq    irq.Dispatcher
	txIrq    irq.Dispatcher

	mu     sync.Mutex
	state  atomic.Int32
	params Parameters
	rxRing *descring.Ring
	txRing *descring.Ring
	rxPool *bufpool.RxPool
	txRefs *bufpool.TxSlots[*NetBuffer]

	// Transmit progress: txPosted is incremented by main-line after arming a descriptor,
	// txDone is incremented in interrupt context after completion processing.
	txPosted atomic.Uint32
	txDone   atomic.Uint32
	txDirty  int // oldest transmit descriptor awaiting completion processing, interrupt context only

	rxDiscard bool // discarding descriptors of an oversized frame, interrupt context only

	cnt counters
}

// New creates a Controller bound to a hardware instance.
// It registers the controller in the channel table and binds the interrupt vectors.
func New(inst hw.Instance) (ctrl *Controller, e error) {
	if e := inst.Validate(); e != nil {
		return nil, e
	}

	ctrl = &Controller{
		inst:     inst,
		logger:   logger.With(zap.Int("channel", inst.Channel)),
		notifier: netevents.NewNotifier(),
		frames:   events.NewEmitter(),
	}
	ctrl.rxIrq = irq.Dispatcher{
		Channel:   inst.Channel,
		Direction: irq.DirectionReceive,
		Status:    inst.Rx.Status,
		Barrier:   inst.Barrier,
		Sink:      ctrl.notifier,
	}
	ctrl.txIrq = irq.Dispatcher{
		Channel:   inst.Channel,
		Direction: irq.DirectionTransmit,
		Status:    inst.Tx.Status,
		Barrier:   inst.Barrier,
		Sink:      ctrl.notifier,
	}

	slot := tableSlot(inst.Channel)
	if !slot.CompareAndSwap(nil, ctrl) && !slot.CompareAndSwap((*Controller)(nil), ctrl) {
		return nil, ErrChannelInUse
	}

	if e := ctrl.bindVectors(); e != nil {
		slot.Store((*Controller)(nil))
		return nil, e
	}

	ctrl.subs = append(ctrl.subs,
		ctrl.notifier.OnReceive(ctrl.onReceive),
		ctrl.notifier.OnSend(ctrl.onSend),
		ctrl.notifier.OnError(ctrl.onError),
	)
	ctrl.logger.Info("controller created",
		zap.Int("rx-vector", int(inst.Rx.Vector)),
		zap.Int("tx-vector", int(inst.Tx.Vector)),
		zap.Int("error-vector", int(inst.Error.Vector)),
	)
	return ctrl, nil
}

func (ctrl *Controller) bindVectors() (e error) {
	handlers := []struct {
		v irq.Vector
		h irq.Handler
	}{
		{ctrl.inst.Rx.Vector, func() {
			ctrl.cnt.interrupts.Inc()
			ctrl.rxIrq.Handle()
		}},
		{ctrl.inst.Tx.Vector, func() {
			ctrl.cnt.interrupts.Inc()
			ctrl.txIrq.Handle()
		}},
		{ctrl.inst.Error.Vector, ctrl.handleErrorLine},
	}
	for i, entry := range handlers {
		if e = irq.Bind(entry.v, entry.h); e != nil {
			for _, bound := range handlers[:i] {
				irq.Unbind(bound.v)
			}
			return fmt.Errorf("irq.Bind(%d) %w", entry.v, e)
		}
	}
	return nil
}

func (ctrl *Controller) unbindVectors() {
	irq.Unbind(ctrl.inst.Rx.Vector)
	irq.Unbind(ctrl.inst.Tx.Vector)
	irq.Unbind(ctrl.inst.Error.Vector)
}

// Channel returns the hardware channel identifier.
func (ctrl *Controller) Channel() int {
	return ctrl.inst.Channel
}

// Notifier returns the event notifier.
func (ctrl *Controller) Notifier() *netevents.Notifier {
	return ctrl.notifier
}

// State returns current lifecycle state.
func (ctrl *Controller) State() State {
	return State(ctrl.state.Load())
}

// Parameters returns parameters given to the last successful Initialise.
func (ctrl *Controller) Parameters() Parameters {
	return ctrl.params
}

// Counters returns controller counters.
func (ctrl *Controller) Counters() Counters {
	return ctrl.cnt.read()
}

// DatalinkTransmitHeaderSize returns the size of headers prepended to each transmitted frame.
func (ctrl *Controller) DatalinkTransmitHeaderSize() int {
	return HeaderLen
}

// DatalinkMTU returns the configured MTU.
func (ctrl *Controller) DatalinkMTU() int {
	return ctrl.params.MTU
}

// RxRing returns the receive descriptor ring, or nil before Initialise.
func (ctrl *Controller) RxRing() *descring.Ring {
	return ctrl.rxRing
}

// TxRing returns the transmit descriptor ring, or nil before Initialise.
func (ctrl *Controller) TxRing() *descring.Ring {
	return ctrl.txRing
}

// RxPool returns the receive buffer pool, or nil before Initialise.
func (ctrl *Controller) RxPool() *bufpool.RxPool {
	return ctrl.rxPool
}

// OnFrame registers a consumer of received frames.
// The callback runs in interrupt context; the Frame is valid only until the callback returns.
// Returns an io.Closer that cancels the registration.
func (ctrl *Controller) OnFrame(cb func(f Frame)) io.Closer {
	return ctrl.frames.On(evtFrame, func(f Frame) { cb(f) })
}

// Initialise validates parameters and allocates descriptor rings and receive buffers.
// It may be invoked repeatedly before Startup, and after a fatal bus error.
func (ctrl *Controller) Initialise(p Parameters) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	switch ctrl.State() {
	case StateStarted:
		return ErrStarted
	case StateClosed:
		return ErrClosed
	}

	if e := p.Validate(); e != nil {
		ctrl.logger.Warn("invalid parameters", zap.Error(e))
		return e
	}

	rxRing, e := descring.New(p.RxBufferCount)
	if e != nil {
		return e
	}
	txRing, e := descring.New(p.TxBufferCount)
	if e != nil {
		return e
	}
	rxPool, e := bufpool.NewRxPool(p.RxBufferCount, p.RxBufferSize())
	if e != nil {
		return e
	}
	txRefs, e := bufpool.NewTxSlots[*NetBuffer](p.TxBufferCount)
	if e != nil {
		return e
	}
	for i := 0; i < rxRing.Len(); i++ {
		if e := rxRing.Bind(i, rxPool.Buffer(i)); e != nil {
			return e
		}
	}

	ctrl.releaseAll()
	p.MACAddress.HardwareAddr = append(net.HardwareAddr{}, p.MACAddress.HardwareAddr...)
	ctrl.params = p
	ctrl.rxRing, ctrl.txRing, ctrl.rxPool, ctrl.txRefs = rxRing, txRing, rxPool, txRefs
	ctrl.txPosted.Store(0)
	ctrl.txDone.Store(0)
	ctrl.txDirty, ctrl.rxDiscard = 0, false
	ctrl.state.Store(int32(StateInitialised))

	ctrl.logger.Info("controller initialised",
		zap.Int("mtu", p.MTU),
		zap.Stringer("address", p.MACAddress.HardwareAddr),
		zap.Int("rx-count", p.RxBufferCount),
		zap.Int("tx-count", p.TxBufferCount),
		zap.Int("rx-buffer-size", rxPool.BufferSize()),
	)
	return nil
}

// releaseAll drops every transmit buffer reference still held.
// The engine must be stopped.
func (ctrl *Controller) releaseAll() {
	if ctrl.txRefs == nil {
		return
	}
	for i := 0; i < ctrl.txRefs.Len(); i++ {
		if nb, ok := ctrl.txRefs.Release(i); ok {
			nb.release()
		}
	}
}

// Startup passes every receive descriptor to hardware and enables the DMA engine.
// No transmit descriptor is armed.
func (ctrl *Controller) Startup() error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	switch ctrl.State() {
	case StateInitialised:
	case StateStarted:
		return ErrStarted
	case StateClosed:
		return ErrClosed
	default:
		return ErrNotInitialised
	}

	size := ctrl.rxPool.BufferSize()
	for i := 0; i < ctrl.rxRing.Len(); i++ {
		if e := ctrl.rxRing.Arm(i, size); e != nil {
			ctrl.rxRing.Reset()
			return e
		}
	}

	// interrupts raised as soon as the engine runs must observe StateStarted
	ctrl.state.Store(int32(StateStarted))
	if e := ctrl.inst.Engine.Start(ctrl.rxRing, ctrl.txRing); e != nil {
		ctrl.state.Store(int32(StateInitialised))
		ctrl.rxRing.Reset()
		ctrl.logger.Error("engine start error", zap.Error(e))
		return fmt.Errorf("Engine.Start %w", e)
	}
	ctrl.logger.Info("controller started", zap.Int("rx-armed", ctrl.rxRing.CountArmed()))
	ctrl.notifier.Raise(netevents.NotificationEvent(ctrl.inst.Channel, netevents.NoticeEngineStarted))
	return nil
}

// PrepareFrame builds an Ethernet II frame sourced from the configured MAC address.
func (ctrl *Controller) PrepareFrame(dst net.HardwareAddr, etherType layers.EthernetType, payload []byte) (*NetBuffer, error) {
	if ctrl.State() == StateCreated {
		return nil, ErrNotInitialised
	}
	frame, e := serializeFrame(ctrl.params.MACAddress.HardwareAddr, dst, etherType, payload)
	if e != nil {
		return nil, e
	}
	if len(frame) > ctrl.params.MTU {
		return nil, ErrTooBig
	}
	return &NetBuffer{Frame: frame}, nil
}

// txBusy determines whether a previously sent frame has not completed.
func (ctrl *Controller) txBusy(i int) bool {
	return ctrl.txPosted.Load() != ctrl.txDone.Load() || ctrl.txRing.IsHardwareOwned(i) || ctrl.txRefs.InUse(i)
}

// SendBuffer passes a frame to hardware for transmission.
//
// If the previous frame has not completed, returns ErrBusy and changes nothing.
// Otherwise, the driver references nb until its transmission completes.
func (ctrl *Controller) SendBuffer(nb *NetBuffer) error {
	switch ctrl.State() {
	case StateStarted:
	case StateFatal:
		return ErrFatal
	case StateClosed:
		return ErrClosed
	default:
		return ErrNotStarted
	}

	switch {
	case nb == nil || len(nb.Frame) == 0:
		return ErrEmptyFrame
	case len(nb.Frame) > ctrl.params.MTU:
		return ErrTooBig
	case !ctrl.inst.Engine.Reachable(nb.Frame):
		return ErrNoFlashData
	}

	i := ctrl.txRing.CurrentIndex()
	if ctrl.txBusy(i) {
		ctrl.cnt.txBusy.Inc()
		return ErrBusy
	}

	if e := ctrl.txRing.Bind(i, nb.Frame); e != nil {
		return e
	}
	if e := ctrl.txRefs.Attach(i, nb); e != nil {
		return e
	}
	if e := ctrl.txRing.Arm(i, len(nb.Frame)); e != nil {
		ctrl.txRefs.Release(i)
		return e
	}
	ctrl.txPosted.Inc()
	ctrl.txRing.Advance()
	ctrl.inst.Engine.ResumeTransmit()
	return nil
}

// SendBufferWait invokes SendBuffer repeatedly while it returns ErrBusy, until it succeeds, fails
// with another error, TxWait elapses, or ctx is cancelled.
func (ctrl *Controller) SendBufferWait(ctx context.Context, nb *NetBuffer) error {
	ctx, cancel := context.WithTimeout(ctx, ctrl.params.TxWait.Duration())
	defer cancel()

	ticker := time.NewTicker(txPollInterval)
	defer ticker.Stop()
	for {
		e := ctrl.SendBuffer(nb)
		if !errors.Is(e, ErrBusy) {
			return e
		}
		select {
		case <-ctx.Done():
			return ErrBusy
		case <-ticker.C:
		}
	}
}

// Close stops the engine, unbinds interrupt vectors, and removes the controller from the channel table.
func (ctrl *Controller) Close() (e error) {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	prev := ctrl.State()
	if prev == StateClosed {
		return nil
	}
	ctrl.state.Store(int32(StateClosed))

	if prev == StateStarted || prev == StateFatal {
		e = multierr.Append(e, ctrl.inst.Engine.Stop())
	}
	ctrl.unbindVectors()
	ctrl.releaseAll()
	if ctrl.rxRing != nil {
		ctrl.rxRing.Reset()
		ctrl.txRing.Reset()
	}

	if prev == StateStarted {
		ctrl.notifier.Raise(netevents.NotificationEvent(ctrl.inst.Channel, netevents.NoticeEngineStopped))
	}
	for _, sub := range ctrl.subs {
		e = multierr.Append(e, sub.Close())
	}
	ctrl.subs = nil
	tableSlot(ctrl.inst.Channel).Store((*Controller)(nil))

	ctrl.logger.Info("controller closed", zap.Stringer("prev-state", prev), zap.Error(e))
	return e
}
