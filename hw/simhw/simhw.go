// Package simhw provides a simulated Ethernet DMA engine.
//
// The simulated engine walks descriptor rings the way hardware would, asserts interrupt causes in
// status registers, and signals bound vectors in package irq. Clear operations on its status
// registers are posted and take effect only at the completion barrier.
package simhw

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/usnistgov/ethmac/core/logging"
	"github.com/usnistgov/ethmac/dma/descring"
	"github.com/usnistgov/ethmac/hw"
	"github.com/usnistgov/ethmac/irq"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var logger = logging.New("simhw")

// Errors.
var (
	ErrStopped  = errors.New("engine is stopped")
	ErrNoBuffer = errors.New("no receive descriptor available")
	ErrNoFrame  = errors.New("no transmit descriptor armed")
)

// DefaultMaxRetrigger is the default limit of back-to-back signals on one line.
const DefaultMaxRetrigger = 64

// Config contains Engine settings.
type Config struct {
	// Channel is the hardware channel identifier.
	Channel int

	// RxVector, TxVector, ErrorVector are vector slots of the interrupt lines.
	RxVector    irq.Vector
	TxVector    irq.Vector
	ErrorVector irq.Vector

	// AutoTransmit causes ResumeTransmit to complete every armed transmit descriptor immediately.
	// Otherwise, transmit completion happens only in CompleteTransmit.
	AutoTransmit bool

	// Wire receives a copy of each transmitted frame.
	Wire func(frame []byte)

	// Unreachable reports a buffer as not readable by DMA.
	Unreachable func(buf []byte) bool

	// MaxRetrigger limits back-to-back signals on one line, while causes remain asserted.
	// Default is DefaultMaxRetrigger.
	MaxRetrigger int
}

// Counters contains engine counters.
type Counters struct {
	RxFrames  uint64
	RxDropped uint64
	TxFrames  uint64
	TxErrors  uint64
}

// Engine is a simulated DMA engine.
type Engine struct {
	cfg     Config
	mu      sync.Mutex
	rx, tx  *descring.Ring
	rxHead  int
	txHead  int
	running bool

	lines [nLines]*line

	nRxFrames  atomic.Uint64
	nRxDropped atomic.Uint64
	nTxFrames  atomic.Uint64
	nTxErrors  atomic.Uint64
}

var _ hw.Engine = (*Engine)(nil)

// New creates a simulated engine.
func New(cfg Config) *Engine {
	if cfg.MaxRetrigger <= 0 {
		cfg.MaxRetrigger = DefaultMaxRetrigger
	}
	eng := &Engine{cfg: cfg}
	eng.lines[LineRx] = newLine(cfg.RxVector, cfg.MaxRetrigger)
	eng.lines[LineTx] = newLine(cfg.TxVector, cfg.MaxRetrigger)
	eng.lines[LineError] = newLine(cfg.ErrorVector, cfg.MaxRetrigger)
	return eng
}

// Instance returns the hardware binding of this engine.
func (eng *Engine) Instance() hw.Instance {
	return hw.Instance{
		Channel: eng.cfg.Channel,
		Engine:  eng,
		Rx:      hw.Line{Vector: eng.cfg.RxVector, Status: eng.lines[LineRx].status},
		Tx:      hw.Line{Vector: eng.cfg.TxVector, Status: eng.lines[LineTx].status},
		Error:   hw.Line{Vector: eng.cfg.ErrorVector, Status: eng.lines[LineError].status},
		Barrier: eng.Barrier,
	}
}

// Status returns the status register of a line.
func (eng *Engine) Status(id LineID) *StatusRegister {
	return eng.lines[id].status
}

// Barrier retires posted clears on every line.
func (eng *Engine) Barrier() {
	for _, l := range eng.lines {
		l.status.retire()
	}
}

// Start implements hw.Engine.
func (eng *Engine) Start(rx, tx *descring.Ring) error {
	if rx == nil || tx == nil {
		return errors.New("both rings are required")
	}
	eng.mu.Lock()
	defer eng.mu.Unlock()
	eng.rx, eng.tx = rx, tx
	eng.rxHead, eng.txHead = rx.CurrentIndex(), tx.CurrentIndex()
	eng.running = true
	logger.Debug("engine started",
		zap.Int("channel", eng.cfg.Channel),
		zap.Int("rx-count", rx.Len()),
		zap.Int("tx-count", tx.Len()),
	)
	return nil
}

// Stop implements hw.Engine.
func (eng *Engine) Stop() error {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	if eng.running {
		logger.Debug("engine stopped", zap.Int("channel", eng.cfg.Channel))
	}
	eng.running = false
	eng.rx, eng.tx = nil, nil
	return nil
}

// Running determines whether the engine is started.
func (eng *Engine) Running() bool {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.running
}

// ResumeTransmit implements hw.Engine.
func (eng *Engine) ResumeTransmit() {
	if eng.cfg.AutoTransmit {
		eng.CompleteTransmit(-1)
	}
}

// ResumeReceive implements hw.Engine.
// Receive descriptors are polled on each delivery, so there is nothing to do.
func (eng *Engine) ResumeReceive() {}

// Reachable implements hw.Engine.
func (eng *Engine) Reachable(buf []byte) bool {
	return eng.cfg.Unreachable == nil || !eng.cfg.Unreachable(buf)
}

// Mask holds back signals on every line; causes are still asserted.
func (eng *Engine) Mask() {
	for _, l := range eng.lines {
		l.setMasked(true)
	}
}

// Unmask releases signals held back by Mask.
func (eng *Engine) Unmask() {
	for _, l := range eng.lines {
		l.setMasked(false)
	}
	for _, l := range eng.lines {
		l.fire()
	}
}

// Raise asserts causes on a line and signals it.
func (eng *Engine) Raise(id LineID, bits uint32) {
	l := eng.lines[id]
	l.status.assert(bits)
	l.fire()
}

// DeliverFrame receives a well-formed frame from the wire.
func (eng *Engine) DeliverFrame(frame []byte) error {
	var status uint32
	if len(frame) >= 14 && binary.BigEndian.Uint16(frame[12:]) >= 0x0600 {
		status |= hw.RxStatusFT
	}
	return eng.DeliverFrameStatus(frame, status)
}

// DeliverFrameStatus receives a frame from the wire, with additional receive status bits.
// The frame is written into one or more hardware-owned receive descriptors starting at the receive head.
func (eng *Engine) DeliverFrameStatus(frame []byte, status uint32) (e error) {
	eng.mu.Lock()
	var raiseRx, raiseErr uint32
	func() {
		if !eng.running {
			e = ErrStopped
			return
		}
		if !eng.rx.IsHardwareOwned(eng.rxHead) {
			eng.nRxDropped.Inc()
			raiseErr = hw.DMAStatusRBUS | hw.DMAStatusAIS
			e = ErrNoBuffer
			return
		}

		first := true
		for rem := frame; ; {
			buf, _ := eng.rx.HardwareBuffer(eng.rxHead)
			n := copy(buf, rem)
			rem = rem[n:]

			st := status
			if first {
				st |= hw.RxStatusFS
			}
			last := len(rem) == 0 || !eng.rx.IsHardwareOwned(eng.rx.Next(eng.rxHead))
			if last {
				st |= hw.RxStatusLS
				if len(rem) > 0 {
					st |= hw.RxStatusES | hw.RxStatusOE
				}
			}
			if st&^(hw.RxStatusFS|hw.RxStatusLS|hw.RxStatusFT) != 0 {
				st |= hw.RxStatusES
			}
			eng.rx.Writeback(eng.rxHead, n, descring.Status(st))
			eng.rxHead = eng.rx.Next(eng.rxHead)
			first = false
			if last {
				break
			}
		}
		eng.nRxFrames.Inc()
		raiseRx = uint32(irq.CauseTransferComplete)
	}()
	eng.mu.Unlock()

	if raiseErr != 0 {
		eng.Raise(LineError, raiseErr)
	}
	if raiseRx != 0 {
		eng.Raise(LineRx, raiseRx)
	}
	return e
}

// CompleteTransmit completes up to n armed transmit descriptors, or all of them if n is negative.
// Each frame is passed to the Wire callback. Returns number of completed frames.
func (eng *Engine) CompleteTransmit(n int) (count int) {
	var frames [][]byte
	eng.mu.Lock()
	if eng.running {
		for ; n < 0 || count < n; count++ {
			buf, e := eng.tx.HardwareBuffer(eng.txHead)
			if e != nil {
				break
			}
			frames = append(frames, append([]byte(nil), buf...))
			eng.tx.Writeback(eng.txHead, len(buf), 0)
			eng.txHead = eng.tx.Next(eng.txHead)
		}
	}
	eng.mu.Unlock()

	eng.nTxFrames.Add(uint64(count))
	if eng.cfg.Wire != nil {
		for _, frame := range frames {
			eng.cfg.Wire(frame)
		}
	}
	if count > 0 {
		eng.Raise(LineTx, uint32(irq.CauseTransferComplete))
	}
	return count
}

// FailTransmit completes the oldest armed transmit descriptor with error status bits.
// The frame does not reach the wire.
func (eng *Engine) FailTransmit(status uint32) error {
	eng.mu.Lock()
	e := func() error {
		if !eng.running {
			return ErrStopped
		}
		buf, e := eng.tx.HardwareBuffer(eng.txHead)
		if e != nil {
			return ErrNoFrame
		}
		eng.tx.Writeback(eng.txHead, len(buf), descring.Status(status|hw.TxStatusES))
		eng.txHead = eng.tx.Next(eng.txHead)
		return nil
	}()
	eng.mu.Unlock()
	if e != nil {
		return e
	}

	eng.nTxErrors.Inc()
	eng.Raise(LineTx, uint32(irq.CauseTransferComplete))
	return nil
}

// Counters returns engine counters.
func (eng *Engine) Counters() Counters {
	return Counters{
		RxFrames:  eng.nRxFrames.Load(),
		RxDropped: eng.nRxDropped.Load(),
		TxFrames:  eng.nTxFrames.Load(),
		TxErrors:  eng.nTxErrors.Load(),
	}
}
