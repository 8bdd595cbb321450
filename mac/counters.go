package mac

import (
	"fmt"
	"sync"

	"github.com/usnistgov/ethmac/core/runningstat"
	"go.uber.org/atomic"
)

// Counters contains controller counters.
type Counters struct {
	RxFrames   uint64 `json:"rxFrames"`   // frames delivered to consumers
	RxOctets   uint64 `json:"rxOctets"`   // octets delivered to consumers
	RxErrors   uint64 `json:"rxErrors"`   // frames dropped due to per-frame errors
	TxFrames   uint64 `json:"txFrames"`   // frames transmitted
	TxOctets   uint64 `json:"txOctets"`   // octets transmitted
	TxErrors   uint64 `json:"txErrors"`   // frames failed in hardware
	TxBusy     uint64 `json:"txBusy"`     // SendBuffer calls rejected as busy
	DMAErrors  uint64 `json:"dmaErrors"`  // abnormal DMA conditions
	Interrupts uint64 `json:"interrupts"` // interrupt handler invocations

	RxBurst runningstat.Snapshot `json:"rxBurst"` // descriptors drained per receive interrupt
}

func (cnt Counters) String() string {
	return fmt.Sprintf("RX %dfrm %db %derr TX %dfrm %db %derr %dbusy DMA %derr IRQ %d",
		cnt.RxFrames, cnt.RxOctets, cnt.RxErrors, cnt.TxFrames, cnt.TxOctets, cnt.TxErrors, cnt.TxBusy,
		cnt.DMAErrors, cnt.Interrupts)
}

type counters struct {
	rxFrames   atomic.Uint64
	rxOctets   atomic.Uint64
	rxErrors   atomic.Uint64
	txFrames   atomic.Uint64
	txOctets   atomic.Uint64
	txErrors   atomic.Uint64
	txBusy     atomic.Uint64
	dmaErrors  atomic.Uint64
	interrupts atomic.Uint64

	burstMu sync.Mutex
	rxBurst runningstat.IntStat
}

func (c *counters) pushBurst(n int) {
	c.burstMu.Lock()
	defer c.burstMu.Unlock()
	c.rxBurst.Push(uint64(n))
}

func (c *counters) read() Counters {
	return Counters{
		RxFrames:   c.rxFrames.Load(),
		RxOctets:   c.rxOctets.Load(),
		RxErrors:   c.rxErrors.Load(),
		TxFrames:   c.txFrames.Load(),
		TxOctets:   c.txOctets.Load(),
		TxErrors:   c.txErrors.Load(),
		TxBusy:     c.txBusy.Load(),
		DMAErrors:  c.dmaErrors.Load(),
		Interrupts: c.interrupts.Load(),
		RxBurst:    c.readBurst(),
	}
}

func (c *counters) readBurst() runningstat.Snapshot {
	c.burstMu.Lock()
	defer c.burstMu.Unlock()
	return c.rxBurst.Read()
}
