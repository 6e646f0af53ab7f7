// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/boxoffice-pos/boxoffice/lib/clock"
	"github.com/boxoffice-pos/boxoffice/lib/config"
	"github.com/boxoffice-pos/boxoffice/lib/process"
	"github.com/boxoffice-pos/boxoffice/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	var (
		configPath    string
		listenAddress string
		showVersion   bool
	)

	flags := pflag.NewFlagSet("boxoffice-server", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "path to the config file (default: $"+config.EnvConfigPath+", then built-in defaults)")
	flags.StringVar(&listenAddress, "listen", "", "listen address, overriding listen.address")
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("boxoffice-server %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if listenAddress != "" {
		cfg.Listen.Address = listenAddress
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	logger.Info("starting boxoffice server",
		version.LogAttr(),
		"environment", cfg.Environment,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := newServer(ctx, cfg, clock.Real(), logger)
	if err != nil {
		return err
	}
	defer server.Close()

	return server.Run(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
