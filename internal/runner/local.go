package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"mcbench/internal/command"
	"mcbench/internal/logger"

	"golang.org/x/sync/errgroup"
)

// Local は全クライアントのベンチマークプログラムをこのホスト上で並列に実行する
// 1クライアントでも失敗すると残りをキャンセルする
type Local struct {
	Options command.Options
	Limit   int // 同時実行数の上限（0で無制限）
}

// NewLocal は新しいLocalを作成する
func NewLocal(opts command.Options) *Local {
	return &Local{Options: opts}
}

// Run は各クライアントを実行し、標準出力を投入順に連結して返す
func (l *Local) Run(ctx context.Context, invs []command.Invocation) (*Output, error) {
	if len(invs) == 0 {
		return nil, &Failure{Client: -1, ExitCode: -1, Err: fmt.Errorf("no invocations")}
	}

	stdouts := make([]string, len(invs))
	stderrs := make([]string, len(invs))

	g, gctx := errgroup.WithContext(ctx)
	if l.Limit > 0 {
		g.SetLimit(l.Limit)
	}

	for i, inv := range invs {
		g.Go(func() error {
			out, errOut, err := l.runOne(gctx, inv)
			stdouts[i] = out
			stderrs[i] = errOut
			return err
		})
	}

	err := g.Wait()
	out := &Output{
		Stdout: joinLines(stdouts),
		Stderr: strings.Join(stderrs, ""),
	}
	return out, err
}

// runOne は1クライアント分を実行する
func (l *Local) runOne(ctx context.Context, inv command.Invocation) (string, string, error) {
	clientID := strconv.Itoa(inv.Client)
	args := inv.Args(l.Options)
	logger.Debug(clientID, "Executing: %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		logger.Warn(clientID, "Client failed after %v: %v", time.Since(start).Round(time.Millisecond), err)
		return stdout.String(), stderr.String(), newFailure(inv.Client, err, stderr.String())
	}

	logger.Debug(clientID, "Client finished in %v", time.Since(start).Round(time.Millisecond))
	return stdout.String(), stderr.String(), nil
}

// joinLines は各クライアントの出力を改行で終わる行として連結する
func joinLines(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		p = strings.TrimRight(p, "\r\n")
		if p == "" {
			continue
		}
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return b.String()
}
