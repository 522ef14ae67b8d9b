package logger

import (
	"github.com/fatih/color" // Colored console output for each log level
)

// Leveled printf-style functions backed by fatih/color.
// Callers include the level prefix themselves, e.g. logger.Info("[INFO] ...\n").

// Info prints progress messages for each phase of an install in green.
var Info = color.New(color.FgGreen).PrintfFunc()

// Warn prints recoverable problems (skipped entries, odd archive layouts) in bright magenta.
var Warn = color.New(color.FgHiMagenta).PrintfFunc()

// Error prints failures in red.
var Error = color.New(color.FgRed).PrintfFunc()

// Debug prints cyan debug messages once Init(true) has run.
// It starts out as a no-op so packages can log before (or without) Init, as tests do.
var Debug = func(format string, a ...any) {}

// Init switches debug output on or off. The root command calls it from
// PersistentPreRun with the value of --debug.
func Init(enableDebug bool) {
	if enableDebug {
		Debug = color.New(color.FgCyan).PrintfFunc()
		return
	}
	Debug = func(format string, a ...any) {}
}
