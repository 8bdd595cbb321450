package main

import (
	"github.com/usnistgov/ethmac/hw"
	"github.com/usnistgov/ethmac/mac"
	"go.uber.org/multierr"
)

// startController creates, initialises, and starts a controller.
// On failure, the controller is closed and its close error is merged into the returned error.
func startController(inst hw.Instance, p mac.Parameters) (ctrl *mac.Controller, e error) {
	if ctrl, e = mac.New(inst); e != nil {
		return nil, e
	}
	if e = ctrl.Initialise(p); e == nil {
		e = ctrl.Startup()
	}
	if e != nil {
		return nil, multierr.Append(e, ctrl.Close())
	}
	return ctrl, nil
}
