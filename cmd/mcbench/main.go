// Package main is the entry point for mcbench.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"mcbench/internal/api"
	"mcbench/internal/benchmark"
	"mcbench/internal/config"
	"mcbench/internal/events"
	"mcbench/internal/history"
	"mcbench/internal/logger"
	"mcbench/internal/metrics"
	"mcbench/internal/runner"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(os.Stdout, os.Stderr, benchmark.NewRunner)
	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.Error("", "%v", err)
		_ = logger.Default.Sync()
		stop()
		os.Exit(1)
	}
}

// runnerFactory は設定からランナーを作る
type runnerFactory func(config.Config) runner.Runner

// newRootCmd はルートコマンドを作成する
func newRootCmd(stdout, stderr io.Writer, newRunner runnerFactory) *cobra.Command {
	opts := newOptions()

	cmd := &cobra.Command{
		Use:   "mcbench [flags] [dirpath]",
		Short: "Multi physical client r/w file benchmark driver",
		Long: `mcbench splits a set of files among several physical clients, makes every
client read or write its share with a configurable degree of overlap, and
prints one aggregated summary line:

  total_throughput,max_time,min_time,throughput_per_client...,time_per_client...`,
		Example: `  # 4 clients reading 1000 files, half of each client's share overlapping
  mcbench -c 4 -n 1000 -o 50 -s front /vfs0/files-4K

  # write without vectorization, printing the composed commands only
  mcbench -c 2 -w --notc --dry-run

  # run every client on this host
  mcbench -c 4 --runner local --program ./tc_rw_files2 --sudo=false`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.build(cmd.Flags(), args)
			if err != nil {
				return err
			}
			if cfg.Verbose {
				logger.Default.SetLevel(logger.LevelDebug)
			}
			defer func() { _ = logger.Default.Sync() }()

			if opts.dryRun {
				return dryRun(cfg, stdout)
			}
			return run(cmd.Context(), cfg, newRunner(cfg), stdout, stderr)
		},
	}

	opts.register(cmd.Flags())
	cmd.AddCommand(newHistoryCmd(stdout))
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

// dryRun は各クライアントのコマンドだけを表示する
func dryRun(cfg config.Config, stdout io.Writer) error {
	plan, err := benchmark.New(cfg, nil).Plan()
	if err != nil {
		return err
	}

	cmdOpts := cfg.CommandOptions()
	for _, inv := range plan.Invocations {
		_, _ = fmt.Fprintf(stdout, "client %d [%s]: %s\n", inv.Client, inv.Target, inv.CommandLine(cmdOpts))
	}
	return nil
}

// run はベンチマークを実行し、集計行を標準出力に書く
func run(ctx context.Context, cfg config.Config, r runner.Runner, stdout, stderr io.Writer) error {
	engine := benchmark.New(cfg, r)

	if cfg.MonitorAddr != "" {
		bus := events.NewBus()
		defer bus.Close()
		engine.SetEventBus(bus)

		monitorCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		defer func() {
			cancel()
			<-done
		}()

		server := api.NewServer(cfg.MonitorAddr, engine, bus)
		go func() {
			defer close(done)
			if err := server.Start(monitorCtx); err != nil {
				logger.Warn("", "Monitor server error: %v", err)
			}
		}()
	}

	result, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.Verbose {
		printOutput(stderr, result.Output)
		_, _ = fmt.Fprintln(stderr, result.Report())
	}

	_, _ = fmt.Fprintln(stderr, metrics.Header)
	_, _ = fmt.Fprintln(stdout, result.Summary.Format())

	if cfg.HistoryPath != "" {
		// 集計行は出力済みなので記録の失敗は警告に留める
		if err := record(ctx, cfg.HistoryPath, result); err != nil {
			logger.Warn("", "Failed to record run %s: %v", result.RunID, err)
		}
	}
	return nil
}

// record は実行結果を履歴データベースに追記する
func record(ctx context.Context, path string, result *benchmark.Result) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(ctx, history.NewEntry(result)); err != nil {
		return err
	}
	logger.Debug("", "Recorded run %s in %s", result.RunID, path)
	return nil
}

func printOutput(w io.Writer, out *runner.Output) {
	if out == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "stdout message:\n>>>>>>>>>>>>>>>>>>>>>>>\n%s\n<<<<<<<<<<<<<<<<<<<<<<<\n", out.Stdout)
	_, _ = fmt.Fprintf(w, "stderr message:\n>>>>>>>>>>>>>>>>>>>>>>>\n%s\n<<<<<<<<<<<<<<<<<<<<<<<\n", out.Stderr)
}
