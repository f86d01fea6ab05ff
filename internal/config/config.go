package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"mcbench/internal/command"
	"mcbench/internal/task"

	"gopkg.in/yaml.v3"
)

// ErrConfig は設定が不正な場合のエラー
var ErrConfig = errors.New("configuration error")

// RunnerKind はタスクランナーの種類
type RunnerKind string

const (
	RunnerCommander RunnerKind = "commander" // リモートディスパッチャ経由で物理クライアントに配る
	RunnerLocal     RunnerKind = "local"     // このホスト上で並列実行する
)

// DefaultTargets は負荷が均等になるよう並べた物理クライアント名
var DefaultTargets = []string{"0", "4", "1", "5", "2", "6", "3", "7"}

// Config は1回のベンチマーク実行の設定
// Validate 後は変更しない。値渡しで各コンポーネントに渡す
type Config struct {
	NClients   int          // クライアント数
	Dir        string       // データファイルのディレクトリ
	Mode       command.Mode // read / write
	NFiles     int          // 操作するファイル総数
	Overlap    int          // オーバーラップ率（%）
	Style      task.Style   // オーバーラップの配置
	Vectorized bool         // ベクトル化操作を使う
	Verbose    bool         // 詳細出力

	// ランナー設定
	Runner       RunnerKind
	Commander    string   // ディスパッチャスクリプト
	Program      string   // クライアント側のベンチマークプログラム
	Sudo         bool     // sudo 経由で起動する
	Targets      []string // クライアントiは Targets[i] で実行される
	CompactTasks bool     // タスクリストを "a-b" 形式に圧縮する
	Seed         uint64   // random スタイルのシード（0で非決定的）
	MonitorAddr  string   // 空でなければモニタサーバーを起動する
	HistoryPath  string   // 空でなければ結果を履歴データベースに追記する
}

// Default はデフォルト設定を返す
func Default() Config {
	return Config{
		NClients:   1,
		Dir:        "/vfs0/files-4K",
		Mode:       command.ModeRead,
		NFiles:     1000,
		Overlap:    0,
		Style:      task.StyleRandom,
		Vectorized: true,
		Verbose:    false,
		Runner:     RunnerCommander,
		Commander:  "./commander.sh",
		Program:    "fsl-tc-client/tc_client/release/tc/tc_rw_files2",
		Sudo:       true,
		Targets:    slices.Clone(DefaultTargets),
	}
}

// Validate は設定を検証する
// オーバーラップ率の範囲は検証しない（分割時に負の件数として検出される）
func (c Config) Validate() error {
	if c.NClients <= 0 {
		return fmt.Errorf("%w: number of clients must be positive, got %d", ErrConfig, c.NClients)
	}
	if c.NFiles < 0 {
		return fmt.Errorf("%w: number of files must be non-negative, got %d", ErrConfig, c.NFiles)
	}
	if _, err := command.ParseMode(string(c.Mode)); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if !c.Style.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrConfig, task.ErrUnknownStyle, c.Style)
	}
	if strings.TrimSpace(c.Dir) == "" {
		return fmt.Errorf("%w: directory path is required", ErrConfig)
	}
	if c.Program == "" {
		return fmt.Errorf("%w: benchmark program is required", ErrConfig)
	}

	switch c.Runner {
	case RunnerCommander:
		if c.Commander == "" {
			return fmt.Errorf("%w: commander path is required", ErrConfig)
		}
		if c.NClients > len(c.Targets) {
			return fmt.Errorf("%w: %d clients requested but only %d targets configured",
				ErrConfig, c.NClients, len(c.Targets))
		}
	case RunnerLocal:
	default:
		return fmt.Errorf("%w: unknown runner %q (choices: commander, local)", ErrConfig, c.Runner)
	}

	return nil
}

// ActiveTargets は実際に使う先頭 NClients 個のターゲットを返す
func (c Config) ActiveTargets() []string {
	n := min(c.NClients, len(c.Targets))
	if n <= 0 {
		return nil
	}
	return slices.Clone(c.Targets[:n])
}

// FileConfig は設定ファイルの構造
// 省略されたフィールドはベース設定の値を保つ
type FileConfig struct {
	Benchmark BenchmarkConfig `yaml:"benchmark" json:"benchmark"`
	Runner    RunnerConfig    `yaml:"runner" json:"runner"`
}

// BenchmarkConfig はベンチマーク本体の設定
type BenchmarkConfig struct {
	Clients      *int    `yaml:"clients" json:"clients"`
	Dir          string  `yaml:"dir" json:"dir"`
	Mode         string  `yaml:"mode" json:"mode"`
	Files        *int    `yaml:"files" json:"files"`
	Overlap      *int    `yaml:"overlap" json:"overlap"`
	OverlapStyle string  `yaml:"overlap_style" json:"overlap_style"`
	Vectorized   *bool   `yaml:"vectorized" json:"vectorized"`
	Verbose      *bool   `yaml:"verbose" json:"verbose"`
	Seed         *uint64 `yaml:"seed" json:"seed"`
	History      string  `yaml:"history" json:"history"`
}

// RunnerConfig はタスクランナーの設定
type RunnerConfig struct {
	Kind         string   `yaml:"kind" json:"kind"`
	Commander    string   `yaml:"commander" json:"commander"`
	Program      string   `yaml:"program" json:"program"`
	Sudo         *bool    `yaml:"sudo" json:"sudo"`
	Targets      []string `yaml:"targets" json:"targets"`
	CompactTasks *bool    `yaml:"compact_tasks" json:"compact_tasks"`
	Monitor      string   `yaml:"monitor" json:"monitor"`
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// Apply はファイルで指定された値を base に重ねた設定を返す
func (f *FileConfig) Apply(base Config) (Config, error) {
	cfg := base
	cfg.Targets = slices.Clone(base.Targets)
	b := f.Benchmark

	if b.Clients != nil {
		cfg.NClients = *b.Clients
	}
	if b.Dir != "" {
		cfg.Dir = b.Dir
	}
	if b.Mode != "" {
		mode, err := command.ParseMode(b.Mode)
		if err != nil {
			return base, fmt.Errorf("%w: %w", ErrConfig, err)
		}
		cfg.Mode = mode
	}
	if b.Files != nil {
		cfg.NFiles = *b.Files
	}
	if b.Overlap != nil {
		cfg.Overlap = *b.Overlap
	}
	if b.OverlapStyle != "" {
		style, err := task.ParseStyle(b.OverlapStyle)
		if err != nil {
			return base, fmt.Errorf("%w: %w", ErrConfig, err)
		}
		cfg.Style = style
	}
	if b.Vectorized != nil {
		cfg.Vectorized = *b.Vectorized
	}
	if b.Verbose != nil {
		cfg.Verbose = *b.Verbose
	}
	if b.Seed != nil {
		cfg.Seed = *b.Seed
	}
	if b.History != "" {
		cfg.HistoryPath = b.History
	}

	// Runner設定
	r := f.Runner
	if r.Kind != "" {
		cfg.Runner = RunnerKind(strings.ToLower(r.Kind))
	}
	if r.Commander != "" {
		cfg.Commander = r.Commander
	}
	if r.Program != "" {
		cfg.Program = r.Program
	}
	if r.Sudo != nil {
		cfg.Sudo = *r.Sudo
	}
	if len(r.Targets) > 0 {
		cfg.Targets = slices.Clone(r.Targets)
	}
	if r.CompactTasks != nil {
		cfg.CompactTasks = *r.CompactTasks
	}
	if r.Monitor != "" {
		cfg.MonitorAddr = r.Monitor
	}

	return cfg, nil
}

// CommandOptions はベンチマークプログラムの起動方法を返す
func (c Config) CommandOptions() command.Options {
	return command.Options{
		Program: c.Program,
		Sudo:    c.Sudo,
		Compact: c.CompactTasks,
	}
}

// Request はCommand Composer への共通設定を返す
func (c Config) Request() command.Request {
	return command.Request{
		Mode:       c.Mode,
		Vectorized: c.Vectorized,
		Verbose:    c.Verbose,
		Dir:        c.Dir,
		Targets:    c.ActiveTargets(),
	}
}
