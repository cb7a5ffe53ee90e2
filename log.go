package jose

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// logger is the package-wide structured logger. It only ever records
// algorithm names, key ids and error kinds; it never logs key
// material, plaintext or raw token bytes, since those are exactly the
// bytes an attacker watching a log stream would want.
var (
	loggerMu sync.RWMutex
	logger   = zerolog.New(io.Discard).With().Timestamp().Logger()
)

// SetLogOutput redirects the package's diagnostic logging to w. The
// default is to discard it; pass os.Stderr (or similar) to see it.
func SetLogOutput(w io.Writer) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = zerolog.New(w).With().Timestamp().Logger()
}

func init() {
	if os.Getenv("JOSE_DEBUG") != "" {
		SetLogOutput(os.Stderr)
	}
}

func log() *zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	l := logger
	return &l
}
