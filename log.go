package kapytal

import "github.com/rs/zerolog"

// logger is the package-wide structured logger. It is disabled by default so
// that library consumers get no output unless they opt in via SetLogger.
var logger = zerolog.Nop()

// SetLogger installs the logger used by the package for debug-level tracing
// of mutations (rate updates, price updates, transaction commits).
func SetLogger(l zerolog.Logger) { logger = l }
