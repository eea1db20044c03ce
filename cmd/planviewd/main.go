package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fieldline/planview/internal/backend"
	"github.com/fieldline/planview/internal/config"
	"github.com/fieldline/planview/internal/server"
	"github.com/fieldline/planview/pkg/logger"
	"github.com/fieldline/planview/pkg/version"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	debug := flag.Bool("debug", false, "enable debug mode with trace logging")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetDetailedVersionInfo())
		os.Exit(0)
	}

	log := logger.New(
		logger.WithPrefix("[planviewd] "),
	)
	log.SetVerbose(*verbose)

	if *debug {
		log.SetLevel(logger.LevelTrace)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Error loading config: %v", err)
	}

	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	var client *backend.Client
	if cfg.Backend.URL != "" {
		client = backend.NewClient(cfg.Backend.URL, cfg.Backend.APIKey, cfg.Backend.Token, log)
		log.Info("Backend sync enabled: %s", cfg.Backend.URL)
	} else {
		log.Info("No backend configured, running local-only")
	}

	srv := server.New(cfg, client, log)
	defer srv.Close()

	log.Info("Serving drawings from %s on %s", cfg.DrawingsDir, cfg.Server.Addr)
	if err := srv.Router().Run(cfg.Server.Addr); err != nil {
		log.Fatal("Server error: %v", err)
	}
}
