package simhw_test

import (
	"bytes"
	"testing"

	"github.com/usnistgov/ethmac/core/testenv"
	"github.com/usnistgov/ethmac/dma/descring"
	"github.com/usnistgov/ethmac/hw"
	"github.com/usnistgov/ethmac/hw/simhw"
	"github.com/usnistgov/ethmac/irq"
)

var makeAR = testenv.MakeAR

func bindVector(t testing.TB, v irq.Vector, h irq.Handler) {
	if e := irq.Bind(v, h); e != nil {
		t.Fatal(e)
	}
	t.Cleanup(func() { irq.Unbind(v) })
}

func makeRings(t testing.TB, rxCount, bufSize int) (rx, tx *descring.Ring) {
	rx, e := descring.New(rxCount)
	if e != nil {
		t.Fatal(e)
	}
	tx, e = descring.New(2)
	if e != nil {
		t.Fatal(e)
	}
	for i := 0; i < rxCount; i++ {
		if e := rx.Bind(i, make([]byte, bufSize)); e != nil {
			t.Fatal(e)
		}
		if e := rx.Arm(i, bufSize); e != nil {
			t.Fatal(e)
		}
	}
	return rx, tx
}

func TestLineOneCausePerSignal(t *testing.T) {
	assert, require := makeAR(t)
	eng := simhw.New(simhw.Config{RxVector: 10, TxVector: 11, ErrorVector: 12})
	status := eng.Status(simhw.LineRx)

	var seen []uint32
	bindVector(t, 10, func() {
		pending := status.Pending()
		bit := pending & -pending
		seen = append(seen, bit)
		status.Clear(bit)
		eng.Barrier()
	})

	eng.Raise(simhw.LineRx, 0b0110)
	require.Equal([]uint32{0b0010, 0b0100}, seen)
	assert.Zero(status.Pending())
	assert.Equal(2, status.NClears())

	seen = nil
	eng.Mask()
	eng.Raise(simhw.LineRx, 0b1000)
	assert.Empty(seen)
	assert.EqualValues(0b1000, status.Pending())
	eng.Unmask()
	assert.Equal([]uint32{0b1000}, seen)
}

func TestLineRetriggerLimit(t *testing.T) {
	assert, _ := makeAR(t)
	eng := simhw.New(simhw.Config{RxVector: 13, TxVector: 14, ErrorVector: 15, MaxRetrigger: 5})

	n := 0
	bindVector(t, 14, func() { n++ })
	eng.Raise(simhw.LineTx, 0b0010)
	assert.Equal(5, n)

	n = 0
	status := eng.Status(simhw.LineTx)
	status.Clear(0b0010)
	assert.EqualValues(0b0010, status.Pending(), "clear is posted until the barrier")
	eng.Barrier()
	assert.Zero(status.Pending())
	eng.Raise(simhw.LineTx, 0)
	assert.Zero(n)
}

func TestDeliverFrame(t *testing.T) {
	assert, require := makeAR(t)
	eng := simhw.New(simhw.Config{Channel: 2, RxVector: 16, TxVector: 17, ErrorVector: 18})
	inst := eng.Instance()
	require.NoError(inst.Validate())
	assert.Equal(2, inst.Channel)

	rx, tx := makeRings(t, 3, 16)
	assert.ErrorIs(eng.DeliverFrame(make([]byte, 20)), simhw.ErrStopped)
	require.NoError(eng.Start(rx, tx))
	assert.True(eng.Running())

	frame := make([]byte, 40)
	testenv.RandBytes(frame)
	frame[12], frame[13] = 0x08, 0x00
	require.NoError(eng.DeliverFrame(frame))
	assert.EqualValues(irq.CauseTransferComplete, eng.Status(simhw.LineRx).Pending())

	var joined []byte
	for i, expectLen := range []int{16, 16, 8} {
		v, e := rx.Read(i)
		require.NoError(e, i)
		assert.Equal(expectLen, v.Length, i)
		joined = append(joined, v.Buffer...)
		st := uint32(v.Status)
		assert.Equal(i == 0, st&hw.RxStatusFS != 0, i)
		assert.Equal(i == 2, st&hw.RxStatusLS != 0, i)
		assert.NotZero(st&hw.RxStatusFT, i)
		assert.Zero(st&hw.RxStatusES, i)
	}
	assert.True(bytes.Equal(frame, joined))

	assert.ErrorIs(eng.DeliverFrame(frame), simhw.ErrNoBuffer)
	errStatus := eng.Status(simhw.LineError).Pending()
	assert.NotZero(errStatus & hw.DMAStatusRBUS)
	assert.NotZero(errStatus & hw.DMAStatusAIS)

	cnt := eng.Counters()
	assert.EqualValues(1, cnt.RxFrames)
	assert.EqualValues(1, cnt.RxDropped)
}

func TestDeliverFrameOverflow(t *testing.T) {
	assert, require := makeAR(t)
	eng := simhw.New(simhw.Config{RxVector: 19, TxVector: 20, ErrorVector: 21})
	rx, tx := makeRings(t, 2, 16)
	require.NoError(eng.Start(rx, tx))

	require.NoError(eng.DeliverFrameStatus(make([]byte, 50), hw.RxStatusCE))
	v0, e := rx.Read(0)
	require.NoError(e)
	v1, e := rx.Read(1)
	require.NoError(e)
	assert.NotZero(uint32(v0.Status) & hw.RxStatusES)
	assert.NotZero(uint32(v0.Status) & hw.RxStatusCE)
	st1 := uint32(v1.Status)
	assert.NotZero(st1 & hw.RxStatusLS)
	assert.NotZero(st1 & hw.RxStatusOE)
	assert.NotZero(st1 & hw.RxStatusES)
}

func TestTransmit(t *testing.T) {
	assert, require := makeAR(t)
	var wire [][]byte
	eng := simhw.New(simhw.Config{
		RxVector: 22, TxVector: 23, ErrorVector: 24,
		Wire:        func(frame []byte) { wire = append(wire, frame) },
		Unreachable: func(buf []byte) bool { return len(buf) == 0 },
	})
	rx, tx := makeRings(t, 1, 16)
	require.NoError(eng.Start(rx, tx))
	assert.True(eng.Reachable(make([]byte, 1)))
	assert.False(eng.Reachable(nil))

	assert.Equal(0, eng.CompleteTransmit(-1))
	assert.ErrorIs(eng.FailTransmit(hw.TxStatusUF), simhw.ErrNoFrame)

	for i, payload := range [][]byte{[]byte("first"), []byte("second")} {
		require.NoError(tx.Bind(i, payload))
		require.NoError(tx.Arm(i, len(payload)))
	}
	assert.Equal(1, eng.CompleteTransmit(1))
	require.NoError(eng.FailTransmit(hw.TxStatusUF))
	require.Len(wire, 1)
	assert.Equal("first", string(wire[0]))

	v, e := tx.Read(1)
	require.NoError(e)
	assert.NotZero(uint32(v.Status) & hw.TxStatusES)
	assert.NotZero(uint32(v.Status) & hw.TxStatusUF)

	cnt := eng.Counters()
	assert.EqualValues(1, cnt.TxFrames)
	assert.EqualValues(1, cnt.TxErrors)

	require.NoError(eng.Stop())
	assert.False(eng.Running())
	assert.ErrorIs(eng.FailTransmit(0), simhw.ErrStopped)
}
