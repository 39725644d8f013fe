package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chainsafe/bridge-analytics/pkg/app"
	"github.com/chainsafe/bridge-analytics/pkg/app/analytics"
	"github.com/chainsafe/bridge-analytics/pkg/app/reporter"
	"github.com/chainsafe/bridge-analytics/pkg/config"
)

var (
	configPath   = flag.String("config", "", "Path to configuration file (defaults are used when empty)")
	pipelineName = flag.String("pipeline", reporter.All, "Pipeline to run: stargate, across or all")
	endpoint     = flag.String("endpoint", "", "Indexer GraphQL endpoint, overrides the config file")
	serve        = flag.Bool("serve", false, "Serve reports over HTTP instead of printing once")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var runner app.Runner
	if *serve {
		runner = analytics.NewServer(cfg)
	} else {
		runner = reporter.NewReporter(cfg, *pipelineName, os.Stdout)
	}

	if err := runner.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "bridge-stats: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}
	if *endpoint != "" {
		cfg.Indexer.Endpoint = *endpoint
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid -endpoint: %w", err)
		}
	}
	return cfg, nil
}
