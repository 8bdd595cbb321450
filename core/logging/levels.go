package logging

import (
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is the prefix of environment variables that configure log levels.
// ETHMAC_LOG sets the default level; ETHMAC_LOG_<pkg> overrides one package.
const EnvPrefix = "ETHMAC_LOG"

// PkgLevel represents log level of a package.
type PkgLevel struct {
	pkg string
	lvl byte
	al  zap.AtomicLevel
}

// Package returns package name.
func (pl *PkgLevel) Package() string {
	return pl.pkg
}

// Level returns log level as a letter.
func (pl *PkgLevel) Level() byte {
	return pl.lvl
}

// SetLevel assigns log level.
// The first letter of input selects the level: V or D for debug, I for info, W for warn,
// E for error, F or N for fatal. Anything else means info.
func (pl *PkgLevel) SetLevel(input string) {
	lvl, zl := byte('I'), zapcore.InfoLevel
	if len(input) > 0 {
		switch input[0] {
		case 'V', 'D':
			lvl, zl = input[0], zapcore.DebugLevel
		case 'I':
			lvl, zl = input[0], zapcore.InfoLevel
		case 'W':
			lvl, zl = input[0], zapcore.WarnLevel
		case 'E':
			lvl, zl = input[0], zapcore.ErrorLevel
		case 'F', 'N':
			lvl, zl = input[0], zapcore.DPanicLevel
		}
	}
	pl.lvl = lvl
	pl.al.SetLevel(zl)
}

var (
	pkgLevelsLock sync.Mutex
	pkgLevels     = map[string]*PkgLevel{}
)

// ListLevels returns all package levels, sorted by package name.
func ListLevels() (list []*PkgLevel) {
	pkgLevelsLock.Lock()
	defer pkgLevelsLock.Unlock()
	for _, pl := range pkgLevels {
		list = append(list, pl)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].pkg < list[j].pkg })
	return list
}

// GetLevel finds or creates package log level object.
func GetLevel(pkg string) *PkgLevel {
	pkgLevelsLock.Lock()
	defer pkgLevelsLock.Unlock()
	pl := pkgLevels[pkg]
	if pl == nil {
		pl = &PkgLevel{
			pkg: pkg,
			al:  zap.NewAtomicLevel(),
		}
		pl.SetLevel(envLevel(pkg))
		pkgLevels[pkg] = pl
	}
	return pl
}

func envLevel(pkg string) string {
	v, ok := os.LookupEnv(EnvPrefix + "_" + pkg)
	if !ok {
		v = os.Getenv(EnvPrefix)
	}
	return v
}
