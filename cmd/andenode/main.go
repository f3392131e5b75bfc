// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

// Command andenode is the CLI entrypoint assembling the ANDE execution
// core's components for a running node, in the idiom of luxfi/evm's
// cmd/simulator and cmd/evm-node entrypoints: urfave/cli/v2 for flag/command
// parsing, spf13/viper+pflag for environment-driven configuration, and a
// colorable/rotating logger setup via luxfi/log, mattn/go-colorable,
// mattn/go-isatty, and gopkg.in/natefinch/lumberjack.v2.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/luxfi/geth/metrics"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/AndeLabs/ande-chain/config"
	andemetrics "github.com/AndeLabs/ande-chain/metrics/prometheus"
	"github.com/AndeLabs/ande-chain/nodebuilder"
)

func main() {
	if _, err := maxprocs.Set(); err != nil {
		fmt.Fprintf(os.Stderr, "andenode: failed to set GOMAXPROCS: %v\n", err)
	}

	app := &cli.App{
		Name:  "andenode",
		Usage: "runs the ANDE execution core: precompile registry/inspector, parallel executor, consensus wrapper",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info"},
			&cli.StringFlag{Name: "log-file", Value: ""},
			&cli.StringFlag{Name: "metrics-addr", Value: ""},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "andenode: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	fs := config.BuildFlagSet()
	args := c.Args().Slice()
	// The cli app parses these flags itself; forward the ones that were set
	// so the viper-bound flag set sees them.
	for _, name := range []string{"log-level", "log-file", "metrics-addr"} {
		if c.IsSet(name) {
			args = append(args, "--"+name+"="+c.String(name))
		}
	}
	v, err := config.BuildViper(fs, args)
	if err != nil {
		return fmt.Errorf("andenode: %w", err)
	}

	cfg, err := config.Load(v)
	if err != nil {
		// ConfigError is fatal: the node refuses to start (design doc §7).
		return fmt.Errorf("andenode: config error: %w", err)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFile)
	log.SetDefault(logger)

	var collectors *andemetrics.Collectors
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		collectors = andemetrics.NewCollectors(reg)
		// metrics.DefaultRegistry carries whatever the wrapped execution
		// engine publishes through its own go-metrics-style registry;
		// andemetrics.Gatherer bridges it onto the same /metrics endpoint
		// as this module's own Collectors.
		engineGatherer := andemetrics.NewGatherer(metrics.DefaultRegistry)
		go serveMetrics(cfg.MetricsAddr, prometheus.Gatherers{reg, engineGatherer}, logger)
	}

	components, err := nodebuilder.Build(cfg, nil, logger, collectors)
	if err != nil {
		return fmt.Errorf("andenode: failed to build components: %w", err)
	}

	logger.Info("andenode: components assembled",
		"consensus_enabled", cfg.Consensus.Enabled,
		"mev_enabled", cfg.MEV.Enabled,
		"validators", len(cfg.Consensus.Validators),
		"precompile_address", cfg.Precompile.Address,
	)

	// The assembled Components are handed to the external execution
	// engine's plugin loader from here in a real deployment; this
	// entrypoint's job ends at composition, per design doc §1's scoping of
	// block import/RPC/devp2p as external collaborators.
	_ = components

	return nil
}

// serveMetrics runs the blocking Prometheus HTTP endpoint on addr; callers
// run it in its own goroutine. A listen failure is logged, not fatal, since
// metrics export is diagnostic, not a node-liveness dependency.
func serveMetrics(addr string, gatherer prometheus.Gatherer, logger log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("andenode: metrics server stopped", "addr", addr, "err", err)
	}
}

// setupLogger builds a terminal-color-aware, optionally file-rotated
// logger, matching luxfi/evm's plugin/evm logger construction.
func setupLogger(level, file string) log.Logger {
	var writer io.Writer = os.Stderr
	useColor := isatty.IsTerminal(os.Stderr.Fd())
	if useColor {
		writer = colorable.NewColorableStderr()
	}

	if file != "" {
		writer = io.MultiWriter(writer, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		})
	}

	// Level filtering is left to the handler's own verbosity convention;
	// luxfi/log's terminal handler accepts the raw level string luxfi/evm
	// passes through from its own --log-level flag.
	handler := log.NewTerminalHandler(writer, useColor)
	return log.NewLogger(handler)
}
