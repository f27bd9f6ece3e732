//go:build debug

package producer

import (
	"fmt"
	"log"
	"os"
)

var debugLogger = log.New(os.Stderr, "[PRODME DEBUG] ", log.Ltime|log.Lmicroseconds|log.Lshortfile)

// debugLog logs debug messages when built with -tags debug
func debugLog(format string, args ...interface{}) {
	debugLogger.Output(2, fmt.Sprintf(format, args...))
}
