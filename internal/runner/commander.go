package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"mcbench/internal/command"
	"mcbench/internal/logger"
)

// Commander はリモートディスパッチャスクリプトを1回起動して全クライアントに配る
//
//	<path> -p -q -t "<target...>" -c "<cmd for client 0>" -c "<cmd for client 1>" ...
//
// 各クライアントのターゲットは Invocation.Target を使う
type Commander struct {
	Path    string
	Options command.Options
}

// NewCommander は新しいCommanderを作成する
func NewCommander(path string, opts command.Options) *Commander {
	return &Commander{
		Path:    path,
		Options: opts,
	}
}

// Args はディスパッチャに渡す引数列を返す（先頭のパスは含まない）
func (c *Commander) Args(invs []command.Invocation) []string {
	targets := make([]string, len(invs))
	for i, inv := range invs {
		targets[i] = inv.Target
	}

	args := []string{"-p", "-q", "-t", strings.Join(targets, " ")}
	for _, inv := range invs {
		args = append(args, "-c", inv.CommandLine(c.Options))
	}
	return args
}

// Run はディスパッチャを実行し、終了まで待つ
func (c *Commander) Run(ctx context.Context, invs []command.Invocation) (*Output, error) {
	if len(invs) == 0 {
		return nil, &Failure{Client: -1, ExitCode: -1, Err: fmt.Errorf("no invocations")}
	}

	args := c.Args(invs)
	logger.Debug("", "Executing commander: %s %s", c.Path, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, c.Path, args...)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	out := &Output{Stdout: stdout.String(), Stderr: stderr.String()}

	if err != nil {
		logger.Warn("", "Commander failed after %v: %v", time.Since(start).Round(time.Millisecond), err)
		return out, newFailure(-1, err, out.Stderr)
	}

	logger.Debug("", "Commander finished in %v", time.Since(start).Round(time.Millisecond))
	return out, nil
}
