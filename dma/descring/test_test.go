package descring_test

import (
	"github.com/usnistgov/ethmac/core/testenv"
)

var makeAR = testenv.MakeAR
