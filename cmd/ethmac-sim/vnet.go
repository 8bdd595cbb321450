package main

import (
	"sync"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/urfave/cli/v2"
	"github.com/usnistgov/ethmac/core/macaddr"
	"github.com/usnistgov/ethmac/mac"
	"github.com/usnistgov/ethmac/mac/macvnet"
	"github.com/usnistgov/ethmac/netevents"
	"go.uber.org/zap"
	"go4.org/must"
)

// etherTypeExperimental is the local experimental EtherType.
const etherTypeExperimental layers.EthernetType = 0x88B5

type vnetNodeReport struct {
	Address  string         `json:"address"`
	Counters mac.Counters   `json:"counters"`
	Errors   map[string]int `json:"errors,omitempty"`
	State    string         `json:"state"`

	mu   sync.Mutex
	errs map[netevents.ErrorKind]int
}

func (r *vnetNodeReport) onError(evt netevents.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[evt.Error]++
}

type vnetReport struct {
	Nodes     []*vnetNodeReport `json:"nodes"`
	Delivered uint64            `json:"delivered"`
	Drops     uint64            `json:"drops"`
}

func init() {
	var cfg macvnet.Config
	var count int
	var interval time.Duration
	defineCommand(&cli.Command{
		Name:  "vnet",
		Usage: "Send broadcast frames on a simulated subnet.",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "nodes",
				Usage:       "Number of `nodes`.",
				Value:       3,
				Destination: &cfg.NNodes,
			},
			&cli.Float64Flag{
				Name:        "loss",
				Usage:       "Frame loss `probability`.",
				Destination: &cfg.LossProbability,
			},
			&cli.IntFlag{
				Name:        "count",
				Usage:       "Number of frames sent by each node.",
				Value:       100,
				Destination: &count,
			},
			&cli.DurationFlag{
				Name:        "interval",
				Usage:       "Interval between frames.",
				Value:       time.Millisecond,
				Destination: &interval,
			},
		},
		Action: func(c *cli.Context) error {
			cfg.Parameters = params
			vnet, e := macvnet.New(cfg)
			if e != nil {
				return e
			}
			defer must.Close(vnet)

			var report vnetReport
			for _, node := range vnet.Nodes {
				r := &vnetNodeReport{
					Address: node.Address().String(),
					errs:    map[netevents.ErrorKind]int{},
				}
				report.Nodes = append(report.Nodes, r)
				node.Notifier().OnError(r.onError)
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
		SEND:
			for i := 0; i < count; i++ {
				for _, node := range vnet.Nodes {
					nb, e := node.PrepareFrame(macaddr.Broadcast(), etherTypeExperimental, makeSequencePayload(i))
					if e != nil {
						return e
					}
					if e := node.SendBufferWait(c.Context, nb); e != nil {
						logger.Warn("send error", zap.Stringer("node", node.Address()), zap.Error(e))
					}
				}
				select {
				case <-interrupt:
					break SEND
				case <-ticker.C:
				}
			}
			time.Sleep(10 * interval)

			cnt := vnet.Counters()
			report.Delivered, report.Drops = cnt.Delivered, cnt.Drops
			for i, node := range vnet.Nodes {
				r := report.Nodes[i]
				r.Counters, r.State = node.Counters(), node.State().String()
				r.mu.Lock()
				r.Errors = map[string]int{}
				for kind, n := range r.errs {
					r.Errors[kind.String()] = n
				}
				r.mu.Unlock()
			}
			return printJSON(report)
		},
	})
}

func makeSequencePayload(seq int) []byte {
	payload := make([]byte, 46)
	for i := range payload {
		payload[i] = byte(seq + i)
	}
	return payload
}
