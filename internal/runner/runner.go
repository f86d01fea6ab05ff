package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"mcbench/internal/command"
)

// ErrRunner はタスク実行が失敗を報告した場合のエラー
var ErrRunner = errors.New("runner failure")

// Output はランナーが捕捉した出力
// Stdout は1クライアント1行で、投入順に並んでいなければならない
type Output struct {
	Stdout string
	Stderr string
}

// Runner は全クライアントの実行記述子を実行し、完了までブロックする
type Runner interface {
	Run(ctx context.Context, invs []command.Invocation) (*Output, error)
}

// Func は関数をRunnerとして使うためのアダプタ
type Func func(ctx context.Context, invs []command.Invocation) (*Output, error)

// Run は f(ctx, invs) を呼ぶ
func (f Func) Run(ctx context.Context, invs []command.Invocation) (*Output, error) {
	return f(ctx, invs)
}

// Failure は実行失敗の詳細
// Stderr は解釈せずそのまま保持する
type Failure struct {
	Client   int // 失敗したクライアント（バッチ全体なら -1）
	ExitCode int // 終了コード（取得できなければ -1）
	Stderr   string
	Err      error
}

func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString("runner failure")
	if f.Client >= 0 {
		fmt.Fprintf(&b, " (client %d)", f.Client)
	}
	if f.ExitCode >= 0 {
		fmt.Fprintf(&b, ": exit status %d", f.ExitCode)
	} else if f.Err != nil {
		fmt.Fprintf(&b, ": %v", f.Err)
	}
	if msg := strings.TrimSpace(f.Stderr); msg != "" {
		fmt.Fprintf(&b, ": %s", msg)
	}
	return b.String()
}

// Unwrap は errors.Is(err, ErrRunner) と元のエラーの両方を辿れるようにする
func (f *Failure) Unwrap() []error {
	if f.Err == nil {
		return []error{ErrRunner}
	}
	return []error{ErrRunner, f.Err}
}

// newFailure は exec のエラーから Failure を作る
func newFailure(client int, err error, stderr string) *Failure {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &Failure{
		Client:   client,
		ExitCode: code,
		Stderr:   stderr,
		Err:      err,
	}
}
