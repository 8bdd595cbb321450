//go:build linux

package main

import (
	"errors"
	"time"

	"github.com/songgao/water"
	"github.com/urfave/cli/v2"
	"github.com/usnistgov/ethmac/core/macaddr"
	"github.com/usnistgov/ethmac/core/subtract"
	"github.com/usnistgov/ethmac/hw/simhw"
	"github.com/usnistgov/ethmac/irq"
	"github.com/usnistgov/ethmac/mac"
	"github.com/usnistgov/ethmac/netevents"
	"github.com/vishvananda/netlink"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go4.org/must"
)

// tapBridge connects a simulated engine to a TAP network interface.
// Frames transmitted by the controller are written to the TAP interface, and frames written by
// the host into the TAP interface are delivered to the engine.
type tapBridge struct {
	intf *water.Interface
	eng  *simhw.Engine
	ctrl *mac.Controller
	done chan struct{}
}

func (tb *tapBridge) wire(frame []byte) {
	if _, e := tb.intf.Write(frame); e != nil {
		logger.Warn("TAP write error", zap.Error(e))
	}
}

func (tb *tapBridge) readLoop(mtu int) {
	defer close(tb.done)
	buf := make([]byte, mtu+64)
	for {
		n, e := tb.intf.Read(buf)
		if e != nil {
			return
		}
		if e := tb.eng.DeliverFrame(buf[:n]); e != nil && !errors.Is(e, simhw.ErrNoBuffer) {
			return
		}
	}
}

func (tb *tapBridge) Close() error {
	e := tb.intf.Close()
	<-tb.done
	return multierr.Append(e, tb.ctrl.Close())
}

func openTapBridge(ifname string, p mac.Parameters) (tb *tapBridge, e error) {
	tb = &tapBridge{done: make(chan struct{})}
	tb.intf, e = water.New(water.Config{
		DeviceType:             water.TAP,
		PlatformSpecificParams: water.PlatformSpecificParams{Name: ifname},
	})
	if e != nil {
		return nil, e
	}

	link, e := netlink.LinkByName(tb.intf.Name())
	if e == nil {
		e = netlink.LinkSetHardwareAddr(link, macaddr.MakeRandom(false))
	}
	if e == nil {
		e = netlink.LinkSetMTU(link, p.MTU-mac.HeaderLen)
	}
	if e == nil {
		e = netlink.LinkSetUp(link)
	}
	if e != nil {
		must.Close(tb.intf)
		return nil, e
	}

	tb.eng = simhw.New(simhw.Config{
		RxVector:     irq.Vector(0),
		TxVector:     irq.Vector(1),
		ErrorVector:  irq.Vector(2),
		AutoTransmit: true,
		Wire:         tb.wire,
	})
	if tb.ctrl, e = startController(tb.eng.Instance(), p); e != nil {
		return nil, multierr.Append(e, tb.intf.Close())
	}

	go tb.readLoop(p.MTU)
	return tb, nil
}

func init() {
	var ifname string
	var beacon, stats time.Duration
	defineCommand(&cli.Command{
		Name:  "tap",
		Usage: "Attach a controller to a TAP network interface.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "ifname",
				Usage:       "TAP interface `name`.",
				Value:       "ethmac0",
				Destination: &ifname,
			},
			&cli.DurationFlag{
				Name:        "beacon",
				Usage:       "Broadcast a frame at this `interval`; zero disables.",
				Destination: &beacon,
			},
			&cli.DurationFlag{
				Name:        "stats",
				Usage:       "Log counter differences at this `interval`; zero disables.",
				Destination: &stats,
			},
		},
		Action: func(c *cli.Context) error {
			tb, e := openTapBridge(ifname, params)
			if e != nil {
				return e
			}
			defer must.Close(tb)

			tb.ctrl.OnFrame(func(f mac.Frame) {
				logger.Info("frame",
					zap.Int("index", f.Index),
					zap.Stringer("src", f.Src),
					zap.Stringer("dst", f.Dst),
					zap.Stringer("ethertype", f.EtherType),
					zap.Int("len", len(f.Data)),
				)
			})
			tb.ctrl.Notifier().OnError(func(evt netevents.Event) {
				logger.Warn("error", zap.Stringer("event", evt))
			})
			logger.Info("TAP attached", zap.String("ifname", ifname), zap.Stringer("address", tb.ctrl.Parameters().MACAddress))

			var tick <-chan time.Time
			if beacon > 0 {
				ticker := time.NewTicker(beacon)
				defer ticker.Stop()
				tick = ticker.C
			}
			var statsTick <-chan time.Time
			if stats > 0 {
				ticker := time.NewTicker(stats)
				defer ticker.Stop()
				statsTick = ticker.C
			}
			prev := tb.ctrl.Counters()
			for seq := 0; ; {
				select {
				case <-interrupt:
					logger.Info("TAP detached", zap.Stringer("counters", tb.ctrl.Counters()))
					return nil
				case <-tick:
					nb, e := tb.ctrl.PrepareFrame(macaddr.Broadcast(), etherTypeExperimental, makeSequencePayload(seq))
					if e != nil {
						return e
					}
					if e := tb.ctrl.SendBufferWait(c.Context, nb); e != nil {
						logger.Warn("send error", zap.Error(e))
					}
					seq++
				case <-statsTick:
					curr := tb.ctrl.Counters()
					logger.Info("counters", zap.Stringer("diff", subtract.Sub(curr, prev)))
					prev = curr
				}
			}
		},
	})
}
