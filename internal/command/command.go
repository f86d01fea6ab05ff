package command

import (
	"errors"
	"fmt"
	"strings"

	"mcbench/internal/task"
)

// ErrUnknownMode は未知の操作モードを表す
var ErrUnknownMode = errors.New("unknown operation mode")

// Mode は読み込みか書き込みか
type Mode string

const (
	ModeRead  Mode = "read"
	ModeWrite Mode = "write"
)

// ParseMode は文字列をModeに変換する
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRead:
		return ModeRead, nil
	case ModeWrite:
		return ModeWrite, nil
	default:
		return "", fmt.Errorf("%w: %q (choices: read, write)", ErrUnknownMode, s)
	}
}

// Invocation は1クライアント分の実行記述子
type Invocation struct {
	Client     int    `json:"client"`
	Target     string `json:"target,omitempty"`
	Mode       Mode   `json:"mode"`
	Vectorized bool   `json:"vectorized"`
	Verbose    bool   `json:"verbose"`
	Tasks      []int  `json:"tasks"`
	Dir        string `json:"dir"`
}

// Request はCompose に渡す全クライアント共通の設定
type Request struct {
	Mode       Mode
	Vectorized bool
	Verbose    bool
	Dir        string
	Targets    []string // クライアントiは Targets[i] で実行される
}

// Compose はクライアントごとのタスク列から実行記述子を作る
// 戻り値の順序は taskLists の順序（クライアント番号順）と一致する
func Compose(req Request, taskLists [][]int) []Invocation {
	invs := make([]Invocation, len(taskLists))
	for i, tasks := range taskLists {
		var target string
		if i < len(req.Targets) {
			target = req.Targets[i]
		}
		invs[i] = Invocation{
			Client:     i,
			Target:     target,
			Mode:       req.Mode,
			Vectorized: req.Vectorized,
			Verbose:    req.Verbose,
			Tasks:      tasks,
			Dir:        req.Dir,
		}
	}
	return invs
}

// Options はベンチマークプログラムの起動方法
type Options struct {
	Program string // クライアント側のベンチマークプログラム
	Sudo    bool   // sudo 経由で起動する
	Compact bool   // タスクリストを "a-b" 形式に圧縮する
}

// Args はベンチマークプログラムの引数列を返す
//
//	[sudo] <program> [--notc] [--noread] [--verbose] --tasks <list> <dir>
func (inv Invocation) Args(opts Options) []string {
	args := make([]string, 0, 8)
	if opts.Sudo {
		args = append(args, "sudo")
	}
	args = append(args, opts.Program)
	if !inv.Vectorized {
		args = append(args, "--notc")
	}
	if inv.Mode == ModeWrite {
		args = append(args, "--noread")
	}
	if inv.Verbose {
		args = append(args, "--verbose")
	}
	args = append(args, "--tasks", task.FormatList(inv.Tasks, opts.Compact), inv.Dir)
	return args
}

// CommandLine はリモートディスパッチャに渡す1行のコマンド文字列を返す
func (inv Invocation) CommandLine(opts Options) string {
	return strings.Join(inv.Args(opts), " ")
}
