// Package logging provides scoped leveled loggers for the injector
// packages. Verbosity is controlled through the PION_LOG_* environment
// variables understood by pion/logging.
package logging

import (
	"github.com/pion/logging"
)

var loggerFactory = logging.NewDefaultLoggerFactory()

// NewLogger returns a leveled logger for the given scope, nested under
// the injector namespace.
func NewLogger(scope string) logging.LeveledLogger {
	return loggerFactory.NewLogger("injector/" + scope)
}
