// Package netevents publishes link-layer events to registered observers.
//
// Observers register interest in one of four categories: receive, send, error, notification.
// Raise delivers an event to every current observer of its category, synchronously and in
// registration order, on the caller's execution context. When the caller is an interrupt
// dispatcher, observers run in interrupt context: they must return quickly, must not block,
// and must not re-enter the dispatcher.
package netevents

import (
	"io"

	"github.com/usnistgov/ethmac/core/events"
)

// Sink accepts events.
type Sink interface {
	Raise(evt Event)
}

// Observer receives events of one category.
type Observer func(evt Event)

// Notifier is a multi-observer publisher of Event.
// The zero value is not usable; use NewNotifier.
type Notifier struct {
	emitter *events.Emitter
}

var _ Sink = (*Notifier)(nil)

// NewNotifier creates a Notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		emitter: events.NewEmitter(),
	}
}

// On registers an observer for a category.
// Returns an io.Closer that cancels the registration.
func (n *Notifier) On(c Category, cb Observer) io.Closer {
	return n.emitter.On(c, func(evt Event) { cb(evt) })
}

// OnReceive registers an observer of receive events.
func (n *Notifier) OnReceive(cb Observer) io.Closer {
	return n.On(CategoryReceive, cb)
}

// OnSend registers an observer of send events.
func (n *Notifier) OnSend(cb Observer) io.Closer {
	return n.On(CategorySend, cb)
}

// OnError registers an observer of error events.
func (n *Notifier) OnError(cb Observer) io.Closer {
	return n.On(CategoryError, cb)
}

// OnNotification registers an observer of notification events.
func (n *Notifier) OnNotification(cb Observer) io.Closer {
	return n.On(CategoryNotification, cb)
}

// Raise delivers an event to every observer of its category.
func (n *Notifier) Raise(evt Event) {
	n.emitter.EmitSync(evt.Category(), evt)
}

// Recorder collects events raised into it.
// It is intended for tests and diagnostics, and is not safe for concurrent use.
type Recorder struct {
	Events []Event
}

var _ Sink = (*Recorder)(nil)

// Raise implements Sink.
func (r *Recorder) Raise(evt Event) {
	r.Events = append(r.Events, evt)
}

// Count returns number of recorded events of a category.
func (r *Recorder) Count(c Category) (n int) {
	for _, evt := range r.Events {
		if evt.Category() == c {
			n++
		}
	}
	return n
}

// Reset clears recorded events.
func (r *Recorder) Reset() {
	r.Events = nil
}
