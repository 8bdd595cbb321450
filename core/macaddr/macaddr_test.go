package macaddr_test

import (
	"flag"
	"net"
	"testing"

	"github.com/usnistgov/ethmac/core/macaddr"
	"github.com/usnistgov/ethmac/core/testenv"
)

var makeAR = testenv.MakeAR

func TestMacAddr(t *testing.T) {
	assert, _ := makeAR(t)

	macZero, _ := net.ParseMAC("00:00:00:00:00:00")
	uA1, _ := net.ParseMAC("02:00:00:00:00:A1")
	uA2, _ := net.ParseMAC("02:00:00:00:00:A2")
	mA1, _ := net.ParseMAC("03:00:00:00:00:A1")
	g1, _ := net.ParseMAC("00:1B:21:00:00:01")
	mac64, _ := net.ParseMAC("02:00:00:00:00:00:00:64")

	assert.True(macaddr.Equal(uA1, uA1))
	assert.False(macaddr.Equal(uA1, uA2))
	assert.False(macaddr.Equal(uA1, mA1))

	assert.True(macaddr.IsValid(macZero))
	assert.True(macaddr.IsValid(uA1))
	assert.False(macaddr.IsValid(mac64))

	assert.False(macaddr.IsUnicast(macZero))
	assert.True(macaddr.IsUnicast(uA1))
	assert.False(macaddr.IsUnicast(mA1))
	assert.False(macaddr.IsUnicast(mac64))

	assert.True(macaddr.IsMulticast(mA1))
	assert.True(macaddr.IsMulticast(macaddr.Broadcast()))
	assert.False(macaddr.IsMulticast(uA1))

	assert.True(macaddr.IsLocal(uA1))
	assert.False(macaddr.IsLocal(g1))

	r := macaddr.MakeRandom(false)
	assert.True(macaddr.IsUnicast(r))
	assert.True(macaddr.IsLocal(r))
	assert.True(macaddr.IsMulticast(macaddr.MakeRandom(true)))
}

func TestFlag(t *testing.T) {
	assert, _ := makeAR(t)

	var f flag.FlagSet
	var m macaddr.Flag
	assert.True(m.Empty())
	f.Var(&m, "m", "")

	assert.Error(f.Parse([]string{"-m", "x"}))
	assert.NoError(f.Parse([]string{"-m", "02:00:00:00:00:A0"}))
	assert.Equal("02:00:00:00:00:a0", m.String())

	text, e := m.MarshalText()
	assert.NoError(e)
	assert.Equal("02:00:00:00:00:a0", string(text))
}
