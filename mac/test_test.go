package mac_test

import (
	"net"
	"sync"
	"testing"

	"github.com/usnistgov/ethmac/core/testenv"
	"github.com/usnistgov/ethmac/hw/simhw"
	"github.com/usnistgov/ethmac/mac"
	"github.com/usnistgov/ethmac/netevents"
	"go4.org/must"
)

var makeAR = testenv.MakeAR

var (
	addrLocal  = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	addrRemote = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
)

const (
	fixtureChannel   = 1
	fixtureRxVector  = 20
	fixtureTxVector  = 21
	fixtureErrVector = 22
)

type fixture struct {
	t      testing.TB
	mu     sync.Mutex // guards Events, Frames, Wire while another goroutine drives the engine
	Eng    *simhw.Engine
	Ctrl   *mac.Controller
	Events netevents.Recorder
	Frames []mac.Frame
	Wire   [][]byte
}

// ErrorEvents returns recorded error events.
func (f *fixture) ErrorEvents() (list []netevents.Event) {
	for _, evt := range f.Events.Events {
		if evt.Category() == netevents.CategoryError {
			list = append(list, evt)
		}
	}
	return list
}

// Errors returns error kinds of recorded error events.
func (f *fixture) Errors() (list []netevents.ErrorKind) {
	for _, evt := range f.ErrorEvents() {
		list = append(list, evt.Error)
	}
	return list
}

// Notices returns notices of recorded notification events.
func (f *fixture) Notices() (list []netevents.Notice) {
	for _, evt := range f.Events.Events {
		if evt.Category() == netevents.CategoryNotification {
			list = append(list, evt.Notice)
		}
	}
	return list
}

// Start initialises and starts the controller.
func (f *fixture) Start(modify func(p *mac.Parameters)) {
	_, require := makeAR(f.t)
	p := mac.DefaultParameters()
	p.MACAddress.HardwareAddr = addrLocal
	if modify != nil {
		modify(&p)
	}
	require.NoError(f.Ctrl.Initialise(p))
	require.NoError(f.Ctrl.Startup())
}

// Frame builds a frame toward the controller.
func (f *fixture) Frame(payload []byte) []byte {
	_, require := makeAR(f.t)
	nb, e := f.Ctrl.PrepareFrame(addrLocal, 0x88B5, payload)
	require.NoError(e)
	return nb.Frame
}

func newFixture(t testing.TB, modify func(cfg *simhw.Config)) *fixture {
	_, require := makeAR(t)
	f := &fixture{t: t}

	cfg := simhw.Config{
		Channel:     fixtureChannel,
		RxVector:    fixtureRxVector,
		TxVector:    fixtureTxVector,
		ErrorVector: fixtureErrVector,
		Wire: func(frame []byte) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.Wire = append(f.Wire, frame)
		},
	}
	if modify != nil {
		modify(&cfg)
	}
	f.Eng = simhw.New(cfg)

	ctrl, e := mac.New(f.Eng.Instance())
	require.NoError(e)
	f.Ctrl = ctrl
	t.Cleanup(func() { must.Close(ctrl) })

	n := ctrl.Notifier()
	n.OnReceive(f.raise)
	n.OnSend(f.raise)
	n.OnError(f.raise)
	n.OnNotification(f.raise)
	ctrl.OnFrame(func(fr mac.Frame) {
		fr.Data = append([]byte(nil), fr.Data...)
		fr.Payload = append([]byte(nil), fr.Payload...)
		fr.Dst = append(net.HardwareAddr(nil), fr.Dst...)
		fr.Src = append(net.HardwareAddr(nil), fr.Src...)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.Frames = append(f.Frames, fr)
	})
	return f
}

func (f *fixture) raise(evt netevents.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Events.Raise(evt)
}

func makePayload(seed byte, size int) []byte {
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = seed + byte(i)
	}
	return payload
}
