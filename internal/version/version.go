package version

import (
	"fmt"
	"os"
	"runtime"
)

const (
	Version = "0.3.0"
)

func HasVersionArg() bool {
	if len(os.Args) > 1 {
		arg := os.Args[1]
		return arg == "--version" || arg == "-version" || arg == "-v" || arg == "--v"
	}
	return false
}

func ShowVersion() {
	fmt.Printf("hdmirror v%s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
}
