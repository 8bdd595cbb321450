// Package macaddr contains helper functions for MAC-48 addresses.
package macaddr

import (
	"bytes"
	"math/rand"
	"net"
)

// Len is the length of a MAC-48 address.
const Len = 6

// Equal determines whether two HardwareAddrs are the same.
func Equal(a, b net.HardwareAddr) bool {
	return bytes.Equal([]byte(a), []byte(b))
}

// IsValid determines whether the HardwareAddr is a MAC-48 address.
func IsValid(a net.HardwareAddr) bool {
	return len(a) == Len
}

// IsUnicast determines whether the HardwareAddr is a non-zero unicast MAC-48 address.
func IsUnicast(a net.HardwareAddr) bool {
	return IsValid(a) && (a[0]&0x01) == 0 && (a[0]|a[1]|a[2]|a[3]|a[4]|a[5]) != 0
}

// IsMulticast determines whether the HardwareAddr is a multicast MAC-48 address.
// The broadcast address is a multicast address.
func IsMulticast(a net.HardwareAddr) bool {
	return IsValid(a) && (a[0]&0x01) != 0
}

// IsLocal determines whether the HardwareAddr has the locally-administered bit.
func IsLocal(a net.HardwareAddr) bool {
	return IsValid(a) && (a[0]&0x02) != 0
}

// Broadcast returns the broadcast address.
func Broadcast() net.HardwareAddr {
	return net.HardwareAddr{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
}

// MakeRandom generates a random locally-administered MAC-48 address.
func MakeRandom(multicast bool) (a net.HardwareAddr) {
	a = make(net.HardwareAddr, Len)
	rand.Read([]byte(a))
	a[0] |= 0x02
	if multicast {
		a[0] |= 0x01
	} else {
		a[0] &^= 0x01
	}
	return a
}
