package main

import (
	"flag"

	"github.com/hdmirror/hdmirror/internal/config"
	"github.com/hdmirror/hdmirror/internal/server"
	"github.com/hdmirror/hdmirror/internal/util"
	"github.com/hdmirror/hdmirror/internal/version"
)

func main() {
	if version.HasVersionArg() {
		version.ShowVersion()
		return
	}

	// Define all flags in one place
	configFlag := flag.String("config", "", "path to YAML config file")
	addrFlag := flag.String("addr", "", "listen address (overrides config)")
	baseURLFlag := flag.String("base-url", "", "upstream base URL (overrides config)")
	debugFlag := flag.Bool("debug", false, "enable debug mode")

	flag.Parse()

	util.SetDebugMode(*debugFlag)
	util.InitLogger()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		util.Fatal("failed to load config", "err", err)
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}
	if *baseURLFlag != "" {
		cfg.Upstream.BaseURL = *baseURLFlag
	}
	if cfg.Server.Debug {
		util.SetDebugMode(true)
	}

	util.Info("starting hdmirror", "upstream", cfg.Upstream.BaseURL)

	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		util.Fatal("server stopped", "err", err)
	}
}
