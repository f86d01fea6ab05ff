package main

import (
	"fmt"
	"strconv"
	"strings"

	"mcbench/internal/command"
	"mcbench/internal/config"
	"mcbench/internal/task"

	"github.com/spf13/pflag"
)

// choiceFlag は同じ変数を共有する排他的なブールフラグ
// 後に指定されたものが勝つ（--read/--write, --tc/--notc）
type choiceFlag struct {
	target *string
	value  string
}

func (f *choiceFlag) String() string {
	if f.target == nil {
		return "false"
	}
	return strconv.FormatBool(*f.target == f.value)
}

func (f *choiceFlag) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if on {
		*f.target = f.value
	}
	return nil
}

func (f *choiceFlag) Type() string {
	return "bool"
}

// options はコマンドラインで受け付ける設定
type options struct {
	configFile string

	nclients int
	mode     string
	nfiles   int
	overlap  int
	style    string
	tc       string
	verbose  bool

	runner       string
	commander    string
	program      string
	sudo         bool
	targets      []string
	compactTasks bool
	seed         uint64
	monitor      string
	history      string
	dryRun       bool
}

func newOptions() *options {
	def := config.Default()
	return &options{
		nclients:  def.NClients,
		mode:      string(def.Mode),
		nfiles:    def.NFiles,
		overlap:   def.Overlap,
		style:     string(def.Style),
		tc:        "on",
		runner:    string(def.Runner),
		commander: def.Commander,
		program:   def.Program,
		sudo:      def.Sudo,
		targets:   def.Targets,
	}
}

func (o *options) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.configFile, "config", "", "config file path (YAML/JSON)")

	fs.IntVarP(&o.nclients, "nclients", "c", o.nclients, "number of physical clients")
	fs.IntVarP(&o.nfiles, "nfiles", "n", o.nfiles, "number of total files to operate")
	fs.IntVarP(&o.overlap, "overlap", "o", o.overlap, "overlap rate in percent")
	fs.StringVarP(&o.style, "overlap-style", "s", o.style, "overlap distribution style (random, rear, front)")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "print more messages")

	read := fs.VarPF(&choiceFlag{target: &o.mode, value: string(command.ModeRead)}, "read", "r", "read files (default)")
	read.NoOptDefVal = "true"
	write := fs.VarPF(&choiceFlag{target: &o.mode, value: string(command.ModeWrite)}, "write", "w", "write files")
	write.NoOptDefVal = "true"

	tc := fs.VarPF(&choiceFlag{target: &o.tc, value: "on"}, "tc", "", "use vectorized operations (default)")
	tc.NoOptDefVal = "true"
	notc := fs.VarPF(&choiceFlag{target: &o.tc, value: "off"}, "notc", "", "do not use vectorized operations")
	notc.NoOptDefVal = "true"

	fs.StringVar(&o.runner, "runner", o.runner, "task runner (commander, local)")
	fs.StringVar(&o.commander, "commander", o.commander, "remote command dispatcher")
	fs.StringVar(&o.program, "program", o.program, "benchmark program run on each client")
	fs.BoolVar(&o.sudo, "sudo", o.sudo, "run the benchmark program through sudo")
	fs.StringSliceVar(&o.targets, "targets", o.targets, "ordered physical client names")
	fs.BoolVar(&o.compactTasks, "compact-tasks", false, "encode consecutive task ids as ranges")
	fs.Uint64Var(&o.seed, "seed", 0, "seed for the random overlap style (0: nondeterministic)")
	fs.StringVar(&o.monitor, "monitor", "", "serve a monitor API on this address during the run")
	fs.StringVar(&o.history, "history", "", "append the run to this SQLite history database")
	fs.BoolVar(&o.dryRun, "dry-run", false, "print each client's command and exit")
}

// build はデフォルト、設定ファイル、明示されたフラグの順に重ねて設定を作る
func (o *options) build(fs *pflag.FlagSet, args []string) (config.Config, error) {
	cfg := config.Default()

	if o.configFile != "" {
		fc, err := config.LoadFile(o.configFile)
		if err != nil {
			return cfg, fmt.Errorf("%w: %w", config.ErrConfig, err)
		}
		if cfg, err = fc.Apply(cfg); err != nil {
			return cfg, err
		}
	}

	if fs.Changed("nclients") {
		cfg.NClients = o.nclients
	}
	if fs.Changed("read") || fs.Changed("write") {
		cfg.Mode = command.Mode(o.mode)
	}
	if fs.Changed("nfiles") {
		cfg.NFiles = o.nfiles
	}
	if fs.Changed("overlap") {
		cfg.Overlap = o.overlap
	}
	if fs.Changed("overlap-style") {
		style, err := task.ParseStyle(o.style)
		if err != nil {
			return cfg, fmt.Errorf("%w: %w", config.ErrConfig, err)
		}
		cfg.Style = style
	}
	if fs.Changed("tc") || fs.Changed("notc") {
		cfg.Vectorized = o.tc == "on"
	}
	if fs.Changed("verbose") {
		cfg.Verbose = o.verbose
	}
	if fs.Changed("runner") {
		cfg.Runner = config.RunnerKind(strings.ToLower(o.runner))
	}
	if fs.Changed("commander") {
		cfg.Commander = o.commander
	}
	if fs.Changed("program") {
		cfg.Program = o.program
	}
	if fs.Changed("sudo") {
		cfg.Sudo = o.sudo
	}
	if fs.Changed("targets") {
		cfg.Targets = o.targets
	}
	if fs.Changed("compact-tasks") {
		cfg.CompactTasks = o.compactTasks
	}
	if fs.Changed("seed") {
		cfg.Seed = o.seed
	}
	if fs.Changed("monitor") {
		cfg.MonitorAddr = o.monitor
	}
	if fs.Changed("history") {
		cfg.HistoryPath = o.history
	}
	if len(args) > 0 {
		cfg.Dir = args[0]
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
