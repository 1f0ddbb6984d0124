// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/gysr/ledger/api"
	"github.com/gysr/ledger/cmd/gysrsim/httpserver"
	"github.com/gysr/ledger/kv"
	"github.com/gysr/ledger/log"
	"github.com/gysr/ledger/metrics"
	"github.com/gysr/ledger/rewards/store"
)

var (
	version   string
	gitCommit string

	logger = log.WithContext("pkg", "gysrsim")
)

func fullVersion() string {
	if version == "" {
		return "dev"
	}
	return fmt.Sprintf("%s-%s", version, gitCommit)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "gysrsim",
		Usage:     "Replays reward pool scenarios against a simulated clock and bank",
		ArgsUsage: "<scenario.yaml|dir>...",
		Flags: []cli.Flag{
			dataDirFlag,
			cacheFlag,
			parallelFlag,
			outputFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiLogsFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	initLogger(ctx)

	files, err := scenarioFiles(ctx.Args())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no scenario given")
	}

	enableMetrics := ctx.Bool(enableMetricsFlag.Name)
	if enableMetrics {
		metrics.InitializePrometheusMetrics()
		url, stop, err := httpserver.StartMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping metrics server..."); stop() }()
		logger.Info("metrics server listening", "url", url)
	}

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := newRegistry()
	defer reg.close()

	reports, err := runAll(exitSignal, files, ctx.Int(parallelFlag.Name), store.New(db), reg)
	if err != nil {
		return err
	}
	if err := writeReports(os.Stdout, ctx.String(outputFlag.Name), reports); err != nil {
		return err
	}

	addr := ctx.String(apiAddrFlag.Name)
	if addr == "" {
		return nil
	}
	handler := api.New(reg, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EnableMetrics:   enableMetrics,
		EnableReqLogger: ctx.Bool(apiLogsFlag.Name),
	})
	url, stop, err := httpserver.StartAPIServer(addr, handler)
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); stop() }()
	logger.Info("API server listening", "url", url)

	<-exitSignal.Done()
	return nil
}

func openDB(ctx *cli.Context) (*kv.LevelDB, error) {
	dir := ctx.String(dataDirFlag.Name)
	if dir == "" {
		return kv.NewMem()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", dir)
	}
	logger.Info("opening pool store", "dir", dir)
	return kv.New(dir, kv.Options{CacheSize: ctx.Int(cacheFlag.Name)})
}

// runAll runs every scenario, at most parallel at a time, then saves all resulting
// pools at once. Reports keep the order of files.
func runAll(ctx context.Context, files []string, parallel int, st *store.Store, reg *registry) ([]*Report, error) {
	reports := make([]*Report, len(files))

	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sc, err := LoadScenario(file)
			if err != nil {
				return errors.WithMessage(err, file)
			}
			sim, err := NewSimulation(sc)
			if err != nil {
				return errors.WithMessage(err, file)
			}
			report, err := sim.Run(ctx)
			if err != nil {
				return err
			}
			if err := reg.add(sim.Pool); err != nil {
				return errors.WithMessage(err, file)
			}
			reports[i] = report
			logger.Info("scenario done", "name", sc.Name, "steps", len(sc.Steps), "reverts", report.Reverts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := st.SaveAll(reg.all()); err != nil {
		return nil, errors.WithMessage(err, "save pools")
	}
	return reports, nil
}

func writeReports(w io.Writer, format string, reports []*Report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		for _, r := range reports {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Errorf("unknown output format %q", format)
	}
}
