// Command ethmac-sim runs MAC controllers on simulated DMA engines.
package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/usnistgov/ethmac/core/logging"
	"github.com/usnistgov/ethmac/mac"
	"github.com/usnistgov/ethmac/mk/version"
	"go.uber.org/zap"
)

var logger = logging.New("main")

var (
	interrupt = make(chan os.Signal, 1)
	params    mac.Parameters
)

var app = &cli.App{
	Version: version.Get().String(),
	Usage:   "Run Ethernet MAC controllers on simulated DMA engines.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "params",
			Usage:   "Controller parameters JSON or YAML `file`.",
			EnvVars: []string{"ETHMAC_PARAMS"},
		},
	},
	Before: func(c *cli.Context) (e error) {
		signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)
		params, e = loadParameters(c.String("params"))
		return e
	},
}

func defineCommand(command *cli.Command) {
	app.Commands = append(app.Commands, command)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	sort.Sort(cli.CommandsByName(app.Commands))
	if e := app.Run(os.Args); e != nil {
		logger.Fatal("exit", zap.Error(e))
	}
}
