package main

import "arcticd/internal/ctl"

// version is stamped at build time via -ldflags.
var version = "0.0.0-dev"

func main() {
	ctl.Main(version)
}
