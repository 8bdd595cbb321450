// Package hw defines the binding between the MAC controller and one Ethernet DMA instance.
//
// The controller is hardware agnostic: it reaches the DMA engine through Engine and the interrupt
// lines through irq.StatusRegister. A register-level implementation for a specific microcontroller
// family and the simulated implementation in package simhw are interchangeable.
package hw

import (
	"errors"
	"fmt"

	"github.com/usnistgov/ethmac/dma/descring"
	"github.com/usnistgov/ethmac/irq"
)

// Engine is a DMA engine serving one receive ring and one transmit ring.
type Engine interface {
	// Start points the engine at both rings and enables reception and transmission.
	// Hardware begins at the current index of each ring.
	Start(rx, tx *descring.Ring) error

	// Stop disables the engine.
	// After Stop returns, hardware no longer accesses either ring.
	Stop() error

	// ResumeTransmit requests the engine to poll the transmit ring.
	ResumeTransmit()

	// ResumeReceive requests the engine to poll the receive ring.
	ResumeReceive()

	// Reachable determines whether the engine can read a buffer in place.
	Reachable(buf []byte) bool
}

// Line is an interrupt line: a vector slot and its pending-cause register.
type Line struct {
	Vector irq.Vector
	Status irq.StatusRegister
}

func (l Line) validate(name string) error {
	if !l.Vector.Valid() {
		return fmt.Errorf("%s line: %w", name, irq.ErrVectorRange)
	}
	if l.Status == nil {
		return fmt.Errorf("%s line: Status is missing", name)
	}
	return nil
}

// MaxChannels is the number of hardware channel identifiers.
const MaxChannels = 8

// Instance describes one Ethernet controller instance.
type Instance struct {
	// Channel identifies the hardware instance, between 0 and MaxChannels-1.
	Channel int

	// Engine is the DMA engine.
	Engine Engine

	// Rx is the receive DMA channel line, with per-channel TC/HT/TE causes.
	Rx Line

	// Tx is the transmit DMA channel line, with per-channel TC/HT/TE causes.
	Tx Line

	// Error is the abnormal interrupt line, whose status register has DMAStatus bits.
	Error Line

	// Barrier is the data synchronization barrier issued at the end of each interrupt handler.
	Barrier func()
}

// Validate checks Instance fields.
func (inst Instance) Validate() error {
	if inst.Channel < 0 || inst.Channel >= MaxChannels {
		return fmt.Errorf("channel must be between 0 and %d", MaxChannels-1)
	}
	if inst.Engine == nil {
		return errors.New("Engine is missing")
	}
	if e := inst.Rx.validate("Rx"); e != nil {
		return e
	}
	if e := inst.Tx.validate("Tx"); e != nil {
		return e
	}
	if e := inst.Error.validate("Error"); e != nil {
		return e
	}
	if inst.Rx.Vector == inst.Tx.Vector || inst.Rx.Vector == inst.Error.Vector || inst.Tx.Vector == inst.Error.Vector {
		return errors.New("lines must use distinct vectors")
	}
	return nil
}
