package main

import (
	"strconv"

	"github.com/urfave/cli/v2"
	"github.com/usnistgov/ethmac/mac"
)

func init() {
	defineCommand(&cli.Command{
		Name:      "classify",
		Usage:     "Map DMA status register values to error kinds.",
		ArgsUsage: "STATUS...",
		Action: func(c *cli.Context) error {
			type result struct {
				Status string `json:"status"`
				Error  string `json:"error"`
				Bits   string `json:"bits"`
			}
			var results []result
			for _, arg := range c.Args().Slice() {
				status, e := strconv.ParseUint(arg, 0, 32)
				if e != nil {
					return e
				}
				kind, bits := mac.ClassifyStatus(uint32(status))
				results = append(results, result{
					Status: "0x" + strconv.FormatUint(status, 16),
					Error:  kind.String(),
					Bits:   "0x" + strconv.FormatUint(uint64(bits), 16),
				})
			}
			return printJSON(results)
		},
	})
}
