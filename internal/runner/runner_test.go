package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mcbench/internal/command"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// writeScript はテスト用のシェルスクリプトを作成する
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("failed to create script: %v", err)
	}
	return path
}

func testInvocations(targets ...string) []command.Invocation {
	lists := make([][]int, len(targets))
	for i := range lists {
		lists[i] = []int{i + 1}
	}
	return command.Compose(command.Request{
		Mode:       command.ModeRead,
		Vectorized: true,
		Dir:        "/data",
		Targets:    targets,
	}, lists)
}

func TestFunc(t *testing.T) {
	var r Runner = Func(func(ctx context.Context, invs []command.Invocation) (*Output, error) {
		return &Output{Stdout: strings.Repeat("1 sec, 1 MB/s\n", len(invs))}, nil
	})

	out, err := r.Run(context.Background(), testInvocations("0", "4"))
	require.NoError(t, err)
	assert.Equal(t, "1 sec, 1 MB/s\n1 sec, 1 MB/s\n", out.Stdout)
}

func TestFailureError(t *testing.T) {
	f := &Failure{Client: 2, ExitCode: 3, Stderr: "permission denied\n"}
	assert.Equal(t, "runner failure (client 2): exit status 3: permission denied", f.Error())
	assert.ErrorIs(t, f, ErrRunner)

	cause := errors.New("boom")
	f = &Failure{Client: -1, ExitCode: -1, Err: cause}
	assert.Equal(t, "runner failure: boom", f.Error())
	assert.ErrorIs(t, f, cause)
}

func TestCommanderArgs(t *testing.T) {
	c := NewCommander("./commander.sh", command.Options{Program: "prog", Sudo: true})
	args := c.Args(testInvocations("0", "4"))

	want := []string{
		"-p", "-q", "-t", "0 4",
		"-c", "sudo prog --tasks 1 /data",
		"-c", "sudo prog --tasks 2 /data",
	}
	assert.Equal(t, want, args)
}

func TestCommanderRun(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	script := writeScript(t, `
for a in "$@"; do echo "$a" >> "`+argsFile+`"; done
echo "1.000000 secs, 2.00 MB/s"
echo "2.000000 secs, 3.00 MB/s"
echo "diagnostic" >&2
`)

	c := NewCommander(script, command.Options{Program: "prog"})
	out, err := c.Run(context.Background(), testInvocations("0", "4"))
	require.NoError(t, err)

	assert.Equal(t, "1.000000 secs, 2.00 MB/s\n2.000000 secs, 3.00 MB/s\n", out.Stdout)
	assert.Equal(t, "diagnostic\n", out.Stderr)

	recorded, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "-p\n-q\n-t\n0 4\n-c\nprog --tasks 1 /data\n-c\nprog --tasks 2 /data\n", string(recorded))
}

func TestCommanderFailure(t *testing.T) {
	script := writeScript(t, `
echo "ssh: connect to host 4: Connection refused" >&2
exit 3
`)

	c := NewCommander(script, command.Options{Program: "prog"})
	out, err := c.Run(context.Background(), testInvocations("0", "4"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunner)

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, -1, f.Client)
	assert.Equal(t, 3, f.ExitCode)
	assert.Equal(t, "ssh: connect to host 4: Connection refused\n", f.Stderr)
	assert.Equal(t, f.Stderr, out.Stderr)
}

func TestCommanderNoInvocations(t *testing.T) {
	c := NewCommander("/bin/true", command.Options{Program: "prog"})
	_, err := c.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrRunner)
}

func TestCommanderMissingBinary(t *testing.T) {
	c := NewCommander(filepath.Join(t.TempDir(), "missing"), command.Options{Program: "prog"})
	_, err := c.Run(context.Background(), testInvocations("0"))

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, -1, f.ExitCode)
}

func TestLocalRunPreservesOrder(t *testing.T) {
	// 引数: --tasks <id> <dir>。後のクライアントほど早く終わる
	script := writeScript(t, `
sleep "0.$((5 - $2))"
echo "$2.000000 secs, 1.00 MB/s"
`)

	l := NewLocal(command.Options{Program: script})
	out, err := l.Run(context.Background(), testInvocations("", "", ""))
	require.NoError(t, err)

	assert.Equal(t, "1.000000 secs, 1.00 MB/s\n2.000000 secs, 1.00 MB/s\n3.000000 secs, 1.00 MB/s\n", out.Stdout)
}

func TestLocalRunLimit(t *testing.T) {
	script := writeScript(t, `echo "0.5 secs, 4.00 MB/s"`)

	l := NewLocal(command.Options{Program: script})
	l.Limit = 1
	out, err := l.Run(context.Background(), testInvocations("", "", "", ""))
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out.Stdout, "\n"))
}

func TestLocalRunFailure(t *testing.T) {
	script := writeScript(t, `
if [ "$2" = "2" ]; then
  echo "cannot open /data/0002" >&2
  exit 1
fi
echo "1.0 secs, 1.00 MB/s"
`)

	l := NewLocal(command.Options{Program: script})
	_, err := l.Run(context.Background(), testInvocations("", "", ""))
	require.Error(t, err)

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, 1, f.Client)
	assert.Equal(t, 1, f.ExitCode)
	assert.Contains(t, f.Stderr, "cannot open /data/0002")
}

func TestLocalRunCanceled(t *testing.T) {
	script := writeScript(t, `exec sleep 10`)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	l := NewLocal(command.Options{Program: script})
	_, err := l.Run(ctx, testInvocations("", ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunner)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestJoinLines(t *testing.T) {
	got := joinLines([]string{"a\n", "b", "", "c\r\n"})
	assert.Equal(t, "a\nb\nc\n", got)
}
