package util

// IsDebug controls debug logging across the process.
var IsDebug bool

// SetDebugMode sets the debug mode
func SetDebugMode(debug bool) {
	IsDebug = debug
}
