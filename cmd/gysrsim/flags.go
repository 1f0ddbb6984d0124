// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"runtime"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/gysr/ledger/log"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:   "data-dir",
		Usage:  "directory to persist simulated pools in, in-memory if empty",
		EnvVar: "GYSRSIM_DATA_DIR",
	}
	verbosityFlag = cli.IntFlag{
		Name:   "verbosity",
		Value:  log.LegacyLevelInfo,
		Usage:  "log verbosity (0-5)",
		EnvVar: "GYSRSIM_VERBOSITY",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	parallelFlag = cli.IntFlag{
		Name:   "parallel",
		Value:  runtime.NumCPU(),
		Usage:  "number of scenarios to run concurrently",
		EnvVar: "GYSRSIM_PARALLEL",
	}
	outputFlag = cli.StringFlag{
		Name:  "output",
		Value: "yaml",
		Usage: "report format (yaml|json)",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:   "enable-metrics",
		Usage:  "enables metrics collection",
		EnvVar: "GYSRSIM_ENABLE_METRICS",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
	apiAddrFlag = cli.StringFlag{
		Name:   "api-addr",
		Usage:  "keep serving pool views on this address once the scenarios have run",
		EnvVar: "GYSRSIM_API_ADDR",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiLogsFlag = cli.BoolFlag{
		Name:  "api-logs",
		Usage: "log every API request",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 16,
		Usage: "database cache size in MiB",
	}
)
