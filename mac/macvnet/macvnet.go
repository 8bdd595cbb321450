// Package macvnet provides a simulated Ethernet subnet of MAC controllers.
//
// Each node is a mac.Controller on a simulated DMA engine in AutoTransmit mode. A bridge goroutine
// delivers every transmitted frame to every other node, in transmission order.
package macvnet

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/usnistgov/ethmac/core/logging"
	"github.com/usnistgov/ethmac/hw"
	"github.com/usnistgov/ethmac/hw/simhw"
	"github.com/usnistgov/ethmac/irq"
	"github.com/usnistgov/ethmac/mac"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go4.org/must"
)

var logger = logging.New("macvnet")

// Defaults.
const (
	DefaultFirstVector   = 64
	DefaultQueueCapacity = 64
)

// Config contains VNet configuration.
type Config struct {
	NNodes int // number of nodes

	// FirstChannel is the hardware channel of node 0.
	// Node i uses channel FirstChannel+i.
	FirstChannel int

	// FirstVector is the first interrupt vector slot.
	// Node i uses three consecutive slots starting at FirstVector+3*i.
	FirstVector irq.Vector

	// QueueCapacity is the number of transmitted frames waiting for the bridge.
	// Excess frames are dropped.
	QueueCapacity int

	// LossProbability is the probability of dropping a frame on the wire.
	LossProbability float64

	// Parameters is the parameters template.
	// Node i has MACAddress with (i+1) added to the last octet.
	Parameters mac.Parameters
}

func (cfg *Config) applyDefaults() {
	if cfg.NNodes < 1 {
		cfg.NNodes = 1
	}
	if cfg.FirstVector <= 0 {
		cfg.FirstVector = DefaultFirstVector
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.Parameters.MTU == 0 {
		cfg.Parameters = mac.DefaultParameters()
	}
}

func (cfg Config) validate() error {
	if cfg.FirstChannel < 0 || cfg.FirstChannel+cfg.NNodes > hw.MaxChannels {
		return fmt.Errorf("channels %d..%d out of range", cfg.FirstChannel, cfg.FirstChannel+cfg.NNodes-1)
	}
	if !(cfg.FirstVector + irq.Vector(3*cfg.NNodes-1)).Valid() {
		return irq.ErrVectorRange
	}
	if cfg.LossProbability < 0 || cfg.LossProbability > 1 {
		return errors.New("LossProbability must be between 0 and 1")
	}
	return nil
}

// Node is a node on the VNet.
type Node struct {
	*mac.Controller
	Engine *simhw.Engine
}

// Address returns the MAC address of this node.
func (node *Node) Address() net.HardwareAddr {
	return node.Parameters().MACAddress.HardwareAddr
}

type wireFrame struct {
	src   int
	frame []byte
}

// VNet represents a simulated Ethernet subnet.
type VNet struct {
	cfg    Config
	logger *zap.Logger
	rng    *rand.Rand
	queue  chan wireFrame
	stop   chan struct{}
	done   chan struct{}

	Nodes []*Node

	nDrops     atomic.Uint64
	nDelivered atomic.Uint64
}

// Counters contains VNet counters.
type Counters struct {
	Delivered uint64 // frames delivered to a node
	Drops     uint64 // frames dropped due to queue overflow, loss, or missing receive buffer
}

func (cnt Counters) String() string {
	return fmt.Sprintf("%d delivered, %d dropped", cnt.Delivered, cnt.Drops)
}

// Counters returns VNet counters.
func (vnet *VNet) Counters() Counters {
	return Counters{
		Delivered: vnet.nDelivered.Load(),
		Drops:     vnet.nDrops.Load(),
	}
}

func (vnet *VNet) wire(src int) func(frame []byte) {
	return func(frame []byte) {
		select {
		case vnet.queue <- wireFrame{src, frame}:
		default:
			vnet.nDrops.Inc()
		}
	}
}

func (vnet *VNet) bridge() {
	defer close(vnet.done)
	for {
		select {
		case <-vnet.stop:
			return
		case wf := <-vnet.queue:
			vnet.pass(wf)
		}
	}
}

func (vnet *VNet) pass(wf wireFrame) {
	for dst, node := range vnet.Nodes {
		if dst == wf.src {
			continue
		}
		if vnet.rng.Float64() < vnet.cfg.LossProbability {
			vnet.nDrops.Inc()
			continue
		}
		if e := node.Engine.DeliverFrame(wf.frame); e != nil {
			vnet.nDrops.Inc()
			continue
		}
		vnet.nDelivered.Inc()
	}
}

// Close stops the bridge and closes all nodes.
func (vnet *VNet) Close() (e error) {
	if vnet.stop != nil {
		close(vnet.stop)
		<-vnet.done
		vnet.stop = nil
	}
	for _, node := range vnet.Nodes {
		e = multierr.Append(e, node.Close())
	}
	vnet.Nodes = nil
	vnet.logger.Info("vnet closed", zap.Stringer("counters", vnet.Counters()))
	return e
}

// New creates a simulated Ethernet subnet.
// Every node is initialised and started.
func New(cfg Config) (vnet *VNet, e error) {
	cfg.applyDefaults()
	if e := cfg.validate(); e != nil {
		return nil, e
	}

	vnet = &VNet{
		cfg:    cfg,
		logger: logger.With(zap.Int("vnet", rand.Int())),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		queue:  make(chan wireFrame, cfg.QueueCapacity),
	}

	for i := 0; i < cfg.NNodes; i++ {
		v := cfg.FirstVector + irq.Vector(3*i)
		eng := simhw.New(simhw.Config{
			Channel:      cfg.FirstChannel + i,
			RxVector:     v,
			TxVector:     v + 1,
			ErrorVector:  v + 2,
			AutoTransmit: true,
			Wire:         vnet.wire(i),
		})

		p := cfg.Parameters
		p.MACAddress.HardwareAddr = append(net.HardwareAddr{}, cfg.Parameters.MACAddress.HardwareAddr...)
		if len(p.MACAddress.HardwareAddr) > 0 {
			p.MACAddress.HardwareAddr[len(p.MACAddress.HardwareAddr)-1] += byte(i + 1)
		}

		ctrl, e := mac.New(eng.Instance())
		if e != nil {
			must.Close(vnet)
			return nil, fmt.Errorf("mac.New(node %d) %w", i, e)
		}
		vnet.Nodes = append(vnet.Nodes, &Node{Controller: ctrl, Engine: eng})
		if e := ctrl.Initialise(p); e != nil {
			must.Close(vnet)
			return nil, fmt.Errorf("Initialise(node %d) %w", i, e)
		}
		if e := ctrl.Startup(); e != nil {
			must.Close(vnet)
			return nil, fmt.Errorf("Startup(node %d) %w", i, e)
		}
	}

	vnet.stop, vnet.done = make(chan struct{}), make(chan struct{})
	go vnet.bridge()
	vnet.logger.Info("vnet started", zap.Int("nodes", cfg.NNodes), zap.Float64("loss", cfg.LossProbability))
	return vnet, nil
}
