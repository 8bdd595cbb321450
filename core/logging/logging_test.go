package logging_test

import (
	"testing"

	"github.com/usnistgov/ethmac/core/logging"
	"github.com/usnistgov/ethmac/core/testenv"
)

var makeAR = testenv.MakeAR

func TestLevel(t *testing.T) {
	assert, _ := makeAR(t)
	t.Setenv("ETHMAC_LOG", "W")
	t.Setenv("ETHMAC_LOG_LoggingTestB", "D")

	plA := logging.GetLevel("LoggingTestA")
	assert.Equal(byte('W'), plA.Level())
	assert.Equal("LoggingTestA", plA.Package())

	plB := logging.GetLevel("LoggingTestB")
	assert.Equal(byte('D'), plB.Level())
	assert.Same(plB, logging.GetLevel("LoggingTestB"))

	plB.SetLevel("bogus")
	assert.Equal(byte('I'), plB.Level())
	plB.SetLevel("Error")
	assert.Equal(byte('E'), plB.Level())

	logger := logging.New("LoggingTestA")
	assert.False(logger.Core().Enabled(-1))
	assert.True(logger.Core().Enabled(2))

	found := 0
	for _, pl := range logging.ListLevels() {
		if pl.Package() == "LoggingTestA" || pl.Package() == "LoggingTestB" {
			found++
		}
	}
	assert.Equal(2, found)
}
