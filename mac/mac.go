// Package mac implements the Ethernet MAC controller.
//
// A Controller owns the receive and transmit descriptor rings of one hardware channel and the
// receive buffer pool. It turns hardware completion and error conditions into events published by
// its netevents.Notifier, and is itself an observer of that notifier: receive events drain the
// receive ring, send events release completed transmit buffers, and a fatal bus error stops the
// engine.
package mac

import (
	"errors"
	"fmt"

	"github.com/usnistgov/ethmac/core/logging"
	"github.com/usnistgov/ethmac/hw"
	"github.com/usnistgov/ethmac/netevents"
	"go.uber.org/atomic"
)

var logger = logging.New("mac")

// Errors.
var (
	ErrBusy         error = netevents.ErrBusy
	ErrTooBig       error = netevents.ErrTooBig
	ErrNoFlashData  error = netevents.ErrNoFlashData
	ErrFatal        error = netevents.ErrFatalBusError
	ErrEmptyFrame         = errors.New("frame is empty")
	ErrNotStarted         = errors.New("controller is not started")
	ErrStarted            = errors.New("controller is already started")
	ErrNotInitialised     = errors.New("controller is not initialised")
	ErrClosed             = errors.New("controller is closed")
	ErrChannelInUse       = errors.New("hardware channel is in use")
)

// State indicates controller lifecycle state.
type State int32

// State values.
const (
	StateCreated State = iota
	StateInitialised
	StateStarted
	StateFatal
	StateClosed
)

func (st State) String() string {
	switch st {
	case StateCreated:
		return "created"
	case StateInitialised:
		return "initialised"
	case StateStarted:
		return "started"
	case StateFatal:
		return "fatal"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int32(st))
}

var table [hw.MaxChannels]atomic.Value

func tableSlot(channel int) *atomic.Value {
	if channel < 0 || channel >= hw.MaxChannels {
		return nil
	}
	return &table[channel]
}

// Get returns the controller bound to a hardware channel, or nil if none.
func Get(channel int) *Controller {
	slot := tableSlot(channel)
	if slot == nil {
		return nil
	}
	ctrl, _ := slot.Load().(*Controller)
	return ctrl
}

// List returns all controllers.
func List() (list []*Controller) {
	for channel := range table {
		if ctrl := Get(channel); ctrl != nil {
			list = append(list, ctrl)
		}
	}
	return list
}
