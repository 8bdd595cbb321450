package mac_test

import (
	"errors"
	"io"
	"testing"

	"github.com/usnistgov/ethmac/dma/descring"
	"github.com/usnistgov/ethmac/hw"
	"github.com/usnistgov/ethmac/hw/simhw"
	"github.com/usnistgov/ethmac/irq"
	"github.com/usnistgov/ethmac/mac"
	"github.com/usnistgov/ethmac/netevents"
	"go4.org/must"
)

func TestObserverClose(t *testing.T) {
	assert, require := makeAR(t)
	f := newFixture(t, nil)
	f.Start(nil)
	f.Events.Reset()

	frameCounts := make([]int, 2)
	var frameClosers []io.Closer
	for i := range frameCounts {
		i := i
		frameClosers = append(frameClosers, f.Ctrl.OnFrame(func(mac.Frame) { frameCounts[i]++ }))
	}
	require.NoError(frameClosers[0].Close())

	rxSeen := 0
	require.NoError(f.Ctrl.Notifier().OnReceive(func(netevents.Event) { rxSeen++ }).Close())

	require.NoError(f.Eng.DeliverFrame(f.Frame(makePayload(0, 64))))
	assert.Equal([]int{0, 1}, frameCounts)
	assert.Len(f.Frames, 1)
	assert.Zero(rxSeen)
	assert.Equal(5, f.Ctrl.RxRing().CountArmed())

	errorKinds := make([][]netevents.ErrorKind, 2)
	var errorClosers []io.Closer
	for i := range errorKinds {
		i := i
		errorClosers = append(errorClosers, f.Ctrl.Notifier().OnError(func(evt netevents.Event) {
			errorKinds[i] = append(errorKinds[i], evt.Error)
		}))
	}
	require.NoError(errorClosers[0].Close())

	f.Eng.Raise(simhw.LineError, hw.DMAStatusFBES|hw.DMAStatusAIS)
	assert.Empty(errorKinds[0])
	assert.Equal([]netevents.ErrorKind{netevents.ErrFatalBusError}, errorKinds[1])
	assert.Equal([]netevents.ErrorKind{netevents.ErrFatalBusError}, f.Errors())
	assert.Equal(mac.StateFatal, f.Ctrl.State())
	assert.False(f.Eng.Running())

	require.NoError(frameClosers[1].Close())
	require.NoError(errorClosers[1].Close())
}

type startHookEngine struct {
	*simhw.Engine
	start func(rx, tx *descring.Ring) error
}

func (eng startHookEngine) Start(rx, tx *descring.Ring) error {
	return eng.start(rx, tx)
}

func TestStartupState(t *testing.T) {
	assert, require := makeAR(t)
	eng := simhw.New(simhw.Config{
		Channel:     fixtureChannel,
		RxVector:    fixtureRxVector,
		TxVector:    fixtureTxVector,
		ErrorVector: fixtureErrVector,
	})

	var (
		ctrl         *mac.Controller
		stateAtStart []mac.State
	)
	errStart := errors.New("start failure")
	failStart := true
	inst := eng.Instance()
	inst.Engine = startHookEngine{
		Engine: eng,
		start: func(rx, tx *descring.Ring) error {
			stateAtStart = append(stateAtStart, ctrl.State())
			if failStart {
				return errStart
			}
			return eng.Start(rx, tx)
		},
	}

	ctrl, e := mac.New(inst)
	require.NoError(e)
	defer must.Close(ctrl)

	p := mac.DefaultParameters()
	p.MACAddress.HardwareAddr = addrLocal
	require.NoError(ctrl.Initialise(p))

	assert.ErrorIs(ctrl.Startup(), errStart)
	assert.Equal(mac.StateInitialised, ctrl.State())
	assert.Zero(ctrl.RxRing().CountArmed())
	assert.False(eng.Running())

	failStart = false
	require.NoError(ctrl.Startup())
	assert.Equal(mac.StateStarted, ctrl.State())
	assert.Equal([]mac.State{mac.StateStarted, mac.StateStarted}, stateAtStart)
	assert.True(eng.Running())
}

func TestTransmitHalfComplete(t *testing.T) {
	assert, require := makeAR(t)
	f := newFixture(t, nil)
	f.Start(nil)

	released := 0
	require.NoError(f.Ctrl.SendBuffer(&mac.NetBuffer{
		Frame:     f.Frame(makePayload(0, 64)),
		OnRelease: func(*mac.NetBuffer) { released++ },
	}))

	f.Eng.Mask()
	assert.Equal(1, f.Eng.CompleteTransmit(-1))
	f.Eng.Status(simhw.LineTx).Clear(uint32(irq.CauseTransferComplete))
	f.Eng.Barrier()
	f.Eng.Unmask()
	assert.Zero(released)

	f.Eng.Raise(simhw.LineTx, uint32(irq.CauseHalfComplete))
	assert.Equal(1, released)
	assert.Zero(f.Eng.Status(simhw.LineTx).Pending())
	assert.Len(f.Wire, 1)
}
