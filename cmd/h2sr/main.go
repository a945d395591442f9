// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command h2sr runs the HTTP-to-SOCKS5 routing proxy.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"grimm.is/h2sr/internal/adminapi"
	"grimm.is/h2sr/internal/config"
	"grimm.is/h2sr/internal/geoip"
	"grimm.is/h2sr/internal/logging"
	"grimm.is/h2sr/internal/metrics"
	"grimm.is/h2sr/internal/paths"
	"grimm.is/h2sr/internal/policy"
	"grimm.is/h2sr/internal/proxy"
	"grimm.is/h2sr/internal/resolver"
)

func main() {
	flags := flag.NewFlagSet("h2sr", flag.ExitOnError)
	configPath := flags.String("config", "", "Path to the TOML config file (default: $H2SR_CONFIG, then ~/.h2sr/config.toml, then ~/.h2sr.toml)")
	c := flags.String("c", "", "Shorthand for -config")
	jsonLogs := flags.Bool("json-logs", false, "Emit structured logs as JSON instead of text")
	flags.Parse(os.Args[1:])

	logCfg := logging.DefaultConfig()
	logCfg.JSON = *jsonLogs
	logger := logging.New(logCfg).WithComponent("h2sr")
	logging.SetDefault(logger)

	path := *configPath
	if path == "" {
		path = *c
	}
	if path == "" {
		resolved, found := paths.ResolveConfigPath()
		if !found {
			logger.Error("no config file found", "tried", resolved)
			os.Exit(1)
		}
		path = resolved
	}

	if err := run(path); err != nil {
		logger.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	logger := logging.Default()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if errs := cfg.Validate(); errs.HasErrors() {
		return fmt.Errorf("invalid config: %w", errs)
	}

	pol, err := policy.Build(cfg, geoip.Load)
	if err != nil {
		return fmt.Errorf("building policy: %w", err)
	}

	res, err := resolver.FromResolvConf("/etc/resolv.conf", 2*time.Second)
	if err != nil {
		logger.Warn("falling back to no upstream DNS servers; host routes needing resolution will fail", "error", err)
		res = resolver.New(nil, 2*time.Second)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	server, err := proxy.NewServer(cfg.Listen, pol, res, cfg.Socks5Addr, m)
	if err != nil {
		return fmt.Errorf("building proxy server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	errCh := make(chan error, 2)
	want := 1
	go func() {
		errCh <- server.ListenAndServe(ctx)
	}()

	if cfg.AdminListen != "" {
		want++
		admin := adminapi.NewServer(cfg.AdminListen, reg)
		go func() {
			errCh <- admin.ListenAndServe(ctx)
		}()
	}

	logger.Info("h2sr started", "listen", cfg.Listen, "socks5", cfg.Socks5Addr)

	var firstErr error
	for i := 0; i < want; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
