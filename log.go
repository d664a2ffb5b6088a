package embeddb

import "log"

// logger is a thin wrapper over the standard library logger. Every
// other ambient concern in this engine follows a library used
// elsewhere in the corpus; structured/leveled logging is the one
// exception, since nothing in the example pool imports a logging
// library for an embedded, allocation-conscious target. See
// SPEC_FULL.md's ambient stack section for the reasoning.
type logger struct {
	*log.Logger
	verbose bool
}

func newLogger(verbose bool) *logger {
	return &logger{Logger: log.New(log.Writer(), "embeddb: ", log.LstdFlags), verbose: verbose}
}

func (l *logger) debugf(format string, args ...any) {
	if l == nil || !l.verbose {
		return
	}
	l.Printf(format, args...)
}
