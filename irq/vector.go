package irq

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// MaxVectors is the number of slots in the vector table.
const MaxVectors = 128

// Errors.
var (
	ErrVectorRange = fmt.Errorf("vector must be between 0 and %d", MaxVectors-1)
	ErrVectorInUse = errors.New("vector is already bound")
	ErrNilHandler  = errors.New("handler is nil")
)

// Vector is a slot in the interrupt vector table.
type Vector int

// Valid determines whether the vector is within the table.
func (v Vector) Valid() bool {
	return v >= 0 && v < MaxVectors
}

// Handler is an interrupt entry point.
// Following the hardware-vector calling convention, it takes no arguments and returns no value;
// context is captured when the handler is bound.
type Handler func()

type vectorEntry struct {
	h Handler
}

var (
	bindLock sync.Mutex
	vectors  [MaxVectors]atomic.Value
)

func load(v Vector) Handler {
	if entry, ok := vectors[v].Load().(vectorEntry); ok {
		return entry.h
	}
	return nil
}

// Bind installs a handler at a vector slot.
func Bind(v Vector, h Handler) error {
	if !v.Valid() {
		return ErrVectorRange
	}
	if h == nil {
		return ErrNilHandler
	}

	bindLock.Lock()
	defer bindLock.Unlock()
	if load(v) != nil {
		return ErrVectorInUse
	}
	vectors[v].Store(vectorEntry{h})
	logger.Debug("vector bound", zap.Int("vector", int(v)))
	return nil
}

// Unbind removes the handler at a vector slot.
func Unbind(v Vector) {
	if !v.Valid() {
		return
	}

	bindLock.Lock()
	defer bindLock.Unlock()
	vectors[v].Store(vectorEntry{})
	logger.Debug("vector unbound", zap.Int("vector", int(v)))
}

// IsBound determines whether a handler is installed at a vector slot.
func IsBound(v Vector) bool {
	return v.Valid() && load(v) != nil
}

// Signal invokes the handler at a vector slot, as the interrupt controller would.
// Returns false if no handler is bound.
func Signal(v Vector) bool {
	if !v.Valid() {
		return false
	}
	h := load(v)
	if h == nil {
		return false
	}
	h()
	return true
}

// EntryPoint returns a no-argument function that signals a vector slot.
func EntryPoint(v Vector) func() {
	return func() { Signal(v) }
}
