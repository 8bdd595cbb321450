// Package events provides a simple synchronous event emitter.
package events

import (
	"io"
	"reflect"
	"slices"
	"sync"

	"github.com/chuckpreslar/emission"
	"go.uber.org/atomic"
)

// Emitter is a simple event emitter.
// This is a thin wrapper of emission.Emitter whose On and Once methods return an io.Closer
// that cancels exactly that callback registration.
//
// emission.Emitter identifies a listener by its code pointer, which every closure created from
// the same function literal shares. Each registration is therefore stored in emission.Emitter
// under its own key, and EmitSync walks the keys of an event in registration order.
//
// Listeners are invoked on the goroutine of the caller.
type Emitter struct {
	emitter *emission.Emitter
	mu      sync.Mutex
	lastID  uint64
	keys    map[any][]listenerKey // copy-on-write
}

type listenerKey struct {
	event any
	id    uint64
}

// NewEmitter creates a simple event emitter.
func NewEmitter() *Emitter {
	return &Emitter{
		emitter: emission.NewEmitter(),
		keys:    map[any][]listenerKey{},
	}
}

// On registers a callback when an event occurs.
// Returns an io.Closer that cancels the callback registration.
func (emitter *Emitter) On(event, listener any) io.Closer {
	emitter.mu.Lock()
	defer emitter.mu.Unlock()

	emitter.lastID++
	key := listenerKey{event, emitter.lastID}
	emitter.emitter.On(key, listener)
	emitter.keys[event] = append(slices.Clip(emitter.keys[event]), key)
	return canceler{emitter, key, listener}
}

// Once registers a one-time callback when an event occurs.
// Returns an io.Closer that cancels the callback registration.
func (emitter *Emitter) Once(event, listener any) io.Closer {
	fn := reflect.ValueOf(listener)
	if fn.Kind() != reflect.Func {
		panic(emission.ErrNoneFunction)
	}

	var (
		c     io.Closer
		fired atomic.Bool
	)
	wrapper := reflect.MakeFunc(fn.Type(), func(args []reflect.Value) []reflect.Value {
		if !fired.CAS(false, true) {
			return zeroResults(fn.Type())
		}
		c.Close()
		if fn.Type().IsVariadic() {
			return fn.CallSlice(args)
		}
		return fn.Call(args)
	})
	c = emitter.On(event, wrapper.Interface())
	return c
}

func zeroResults(typ reflect.Type) (results []reflect.Value) {
	for i := 0; i < typ.NumOut(); i++ {
		results = append(results, reflect.Zero(typ.Out(i)))
	}
	return results
}

// EmitSync invokes every callback registered for an event, in registration order.
// A callback canceled during emission is not invoked afterwards.
func (emitter *Emitter) EmitSync(event any, arguments ...any) {
	emitter.mu.Lock()
	keys := emitter.keys[event]
	emitter.mu.Unlock()

	for _, key := range keys {
		emitter.emitter.EmitSync(key, arguments...)
	}
}

// ListenerCount returns number of callbacks registered for an event.
func (emitter *Emitter) ListenerCount(event any) int {
	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	return len(emitter.keys[event])
}

type canceler struct {
	emitter  *Emitter
	key      listenerKey
	listener any
}

func (c canceler) Close() error {
	e := c.emitter
	e.mu.Lock()
	defer e.mu.Unlock()

	keys := e.keys[c.key.event]
	i := slices.Index(keys, c.key)
	if i < 0 {
		return nil
	}
	if len(keys) == 1 {
		delete(e.keys, c.key.event)
	} else {
		e.keys[c.key.event] = slices.Delete(slices.Clone(keys), i, i+1)
	}
	e.emitter.Off(c.key, c.listener)
	return nil
}
