package bufpool_test

import (
	"github.com/usnistgov/ethmac/core/testenv"
)

var makeAR = testenv.MakeAR
