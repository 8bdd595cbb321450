// Package irq dispatches hardware interrupt causes as link-layer events.
//
// A Dispatcher is bound to one interrupt line of one DMA channel. Each invocation services exactly one
// asserted cause, in fixed priority order, so that the handler stays short; a line asserting several
// causes is signaled again by hardware for the remaining ones.
package irq

import (
	"fmt"

	"github.com/usnistgov/ethmac/core/logging"
	"github.com/usnistgov/ethmac/netevents"
)

var logger = logging.New("irq")

// Cause is a bit in a channel interrupt status register.
type Cause uint32

// Cause bits, laid out as per-channel GIF/TCIF/HTIF/TEIF flags.
const (
	CauseGlobal           Cause = 1 << 0
	CauseTransferComplete Cause = 1 << 1
	CauseHalfComplete     Cause = 1 << 2
	CauseTransferError    Cause = 1 << 3
)

// PriorityOrder lists serviced causes in the order they are tested.
var PriorityOrder = [...]Cause{CauseTransferComplete, CauseHalfComplete, CauseTransferError}

func (c Cause) String() string {
	switch c {
	case 0:
		return "none"
	case CauseGlobal:
		return "GIF"
	case CauseTransferComplete:
		return "TC"
	case CauseHalfComplete:
		return "HT"
	case CauseTransferError:
		return "TE"
	}
	return fmt.Sprintf("Cause(0x%X)", uint32(c))
}

// StatusRegister is the pending-cause register of an interrupt line.
type StatusRegister interface {
	// Pending returns asserted cause bits.
	Pending() uint32

	// Clear clears cause bits.
	// The write may be posted; it is guaranteed to take effect only after a completion barrier.
	Clear(bits uint32)
}

// Direction indicates whether a channel serves the receive or transmit ring.
type Direction uint8

// Direction values.
const (
	DirectionReceive Direction = iota
	DirectionTransmit
)

func (dir Direction) String() string {
	switch dir {
	case DirectionReceive:
		return "RX"
	case DirectionTransmit:
		return "TX"
	}
	return fmt.Sprintf("Direction(%d)", uint8(dir))
}

// Dispatcher services one interrupt line.
type Dispatcher struct {
	Channel   int
	Direction Direction
	Status    StatusRegister
	Barrier   func() // completion barrier; nil means none is needed
	Sink      netevents.Sink
}

// Validate checks that required fields are set.
func (d *Dispatcher) Validate() error {
	if d.Status == nil {
		return fmt.Errorf("irq.Dispatcher(ch=%d): Status is missing", d.Channel)
	}
	if d.Sink == nil {
		return fmt.Errorf("irq.Dispatcher(ch=%d): Sink is missing", d.Channel)
	}
	if d.Direction != DirectionReceive && d.Direction != DirectionTransmit {
		return fmt.Errorf("irq.Dispatcher(ch=%d): bad %s", d.Channel, d.Direction)
	}
	return nil
}

// Event returns the event raised for a serviced cause.
func (d *Dispatcher) Event(cause Cause) (evt netevents.Event) {
	evt.Channel, evt.Index, evt.Cause = d.Channel, -1, uint32(cause)
	switch cause {
	case CauseTransferComplete:
		if d.Direction == DirectionReceive {
			evt.Kind = netevents.KindReceiveReady
		} else {
			evt.Kind = netevents.KindTransferComplete
		}
	case CauseHalfComplete:
		if d.Direction == DirectionReceive {
			evt.Kind, evt.Notice = netevents.KindNotification, netevents.NoticeReceiveHalfComplete
		} else {
			evt.Kind = netevents.KindHalfComplete
		}
	case CauseTransferError:
		evt.Kind = netevents.KindTransferError
		if d.Direction == DirectionReceive {
			evt.Error = netevents.ErrReceive
		} else {
			evt.Error = netevents.ErrTransmitError
		}
	}
	return evt
}

// Handle services the highest priority asserted cause.
// It raises the matching event, clears that cause, then issues the completion barrier.
// Returns the serviced cause, or zero if no cause was pending.
func (d *Dispatcher) Handle() (serviced Cause) {
	pending := d.Status.Pending()
	for _, cause := range PriorityOrder {
		if pending&uint32(cause) != 0 {
			serviced = cause
			break
		}
	}

	if serviced != 0 {
		d.Sink.Raise(d.Event(serviced))
		d.Status.Clear(uint32(serviced))
	}

	if d.Barrier != nil {
		d.Barrier()
	}
	return serviced
}
