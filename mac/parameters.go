package mac

import (
	"fmt"
	"net"
	"time"

	"github.com/usnistgov/ethmac/core/macaddr"
	"github.com/usnistgov/ethmac/core/nnduration"
	"github.com/usnistgov/ethmac/dma/bufpool"
	"github.com/usnistgov/ethmac/dma/descring"
)

// Frame size limits.
const (
	// HeaderLen is the Ethernet header length: two addresses and EtherType.
	HeaderLen = 14

	// MinMTU is the minimum MTU, which is the minimum Ethernet frame without FCS.
	MinMTU = 60

	// MaxFrameSize is the maximum MTU, limited by receive buffer size.
	MaxFrameSize = bufpool.MaxBufferSize - bufpool.FCSLen
)

// Default parameter values.
const (
	DefaultMTU           = 1518
	DefaultTxWait        = 200 * time.Millisecond
	DefaultRxBufferCount = 5
	DefaultTxBufferCount = 5
)

// DefaultMACAddress is the default MAC address 02:00:00:00:00:00.
// It has the locally administered bit set.
var DefaultMACAddress = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x00}

// Parameters contains MAC controller parameters.
// They are supplied to Controller.Initialise and cannot change afterwards.
type Parameters struct {
	// MTU is the maximum frame size excluding FCS, including Ethernet header.
	MTU int `json:"mtu"`

	// MACAddress is the unicast address of this station.
	MACAddress macaddr.Flag `json:"macAddress"`

	// TxWait is the maximum duration SendBufferWait waits for a pending frame to go.
	TxWait nnduration.Milliseconds `json:"txWait"`

	// RxBufferCount is the number of receive descriptors and buffers.
	RxBufferCount int `json:"rxBufferCount"`

	// TxBufferCount is the number of transmit descriptors.
	TxBufferCount int `json:"txBufferCount"`
}

// DefaultParameters returns Parameters with default values.
// When unmarshaling from JSON, start from these values so that omitted fields keep defaults.
func DefaultParameters() Parameters {
	return Parameters{
		MTU:           DefaultMTU,
		MACAddress:    macaddr.Flag{HardwareAddr: append(net.HardwareAddr{}, DefaultMACAddress...)},
		TxWait:        nnduration.Milliseconds(DefaultTxWait / time.Millisecond),
		RxBufferCount: DefaultRxBufferCount,
		TxBufferCount: DefaultTxBufferCount,
	}
}

// Validate checks Parameters.
// Returns *ConfigError naming the offending field.
func (p Parameters) Validate() error {
	switch {
	case p.RxBufferCount <= 0 || p.RxBufferCount > descring.MaxCount:
		return configError("rxBufferCount", p.RxBufferCount, descring.ErrCount)
	case p.TxBufferCount <= 0 || p.TxBufferCount > descring.MaxCount:
		return configError("txBufferCount", p.TxBufferCount, descring.ErrCount)
	case p.MTU < MinMTU || p.MTU > MaxFrameSize:
		return configError("mtu", p.MTU, fmt.Errorf("must be between %d and %d", MinMTU, MaxFrameSize))
	case !macaddr.IsUnicast(p.MACAddress.HardwareAddr):
		return configError("macAddress", p.MACAddress, fmt.Errorf("must be a unicast address"))
	}
	return nil
}

// RxBufferSize returns the receive buffer size for these parameters.
func (p Parameters) RxBufferSize() int {
	return bufpool.AlignSize(p.MTU)
}

// ConfigError indicates invalid Parameters.
type ConfigError struct {
	Field string
	Value any
	Err   error
}

func configError(field string, value any, e error) error {
	return &ConfigError{Field: field, Value: value, Err: e}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s=%v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
