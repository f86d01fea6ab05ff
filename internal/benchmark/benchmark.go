package benchmark

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"mcbench/internal/command"
	"mcbench/internal/config"
	"mcbench/internal/events"
	"mcbench/internal/logger"
	"mcbench/internal/metrics"
	"mcbench/internal/runner"
	"mcbench/internal/task"

	"github.com/google/uuid"
)

// Plan は1回の実行で各クライアントに配る作業
type Plan struct {
	RunID       string               `json:"run_id"`
	Layout      task.Layout          `json:"layout"`
	Assignments []task.Assignment    `json:"assignments"`
	Invocations []command.Invocation `json:"invocations"`
}

// Result はベンチマーク実行結果
type Result struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Config  config.Config
	Plan    *Plan
	Output  *runner.Output
	Summary metrics.Summary
}

// Engine はベンチマーク実行エンジン
type Engine struct {
	config   config.Config
	runner   runner.Runner
	eventBus *events.Bus

	mu      sync.RWMutex
	running bool
	plan    *Plan
	result  *Result
}

// New は新しいEngineを作成する
func New(cfg config.Config, r runner.Runner) *Engine {
	return &Engine{
		config: cfg,
		runner: r,
	}
}

// NewRunner は設定に応じたランナーを返す
func NewRunner(cfg config.Config) runner.Runner {
	if cfg.Runner == config.RunnerLocal {
		return runner.NewLocal(cfg.CommandOptions())
	}
	return runner.NewCommander(cfg.Commander, cfg.CommandOptions())
}

// SetEventBus はイベントバスを設定する
func (e *Engine) SetEventBus(bus *events.Bus) {
	e.eventBus = bus
}

// Config は実行設定を返す
func (e *Engine) Config() config.Config {
	return e.config
}

func (e *Engine) publish(event events.Event) {
	if e.eventBus != nil {
		e.eventBus.Publish(event)
	}
}

// Plan は設定を検証し、分割・並べ替え・コマンド組み立てを行う
// ランナーは呼ばない
func (e *Engine) Plan() (*Plan, error) {
	return e.buildPlan(uuid.NewString())
}

func (e *Engine) buildPlan(runID string) (*Plan, error) {
	cfg := e.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	layout, err := task.NewLayout(cfg.NFiles, cfg.NClients, cfg.Overlap)
	if err != nil {
		return nil, err
	}
	if dropped := layout.Dropped(); dropped > 0 {
		logger.Warn("", "%d of %d files are not assigned to any client", dropped, cfg.NFiles)
	}

	assignments := layout.Assignments()
	lists := make([][]int, len(assignments))
	for i, a := range assignments {
		var src task.Source
		if cfg.Seed != 0 {
			src = rand.New(rand.NewPCG(cfg.Seed, uint64(i)))
		}
		tasks, err := task.Arrange(a.Private, a.Shared, cfg.Style, src)
		if err != nil {
			return nil, fmt.Errorf("client %d: %w", i, err)
		}
		lists[i] = tasks

		logger.Debug(strconv.Itoa(i), "private %s shared %s tasks: %s",
			a.Private, a.Shared, task.FormatList(tasks, cfg.CompactTasks))
	}

	return &Plan{
		RunID:       runID,
		Layout:      layout,
		Assignments: assignments,
		Invocations: command.Compose(cfg.Request(), lists),
	}, nil
}

// Run はベンチマークを実行する
// 設定・分割のエラーはランナー起動前に返す。リトライはしない
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, fmt.Errorf("benchmark is already running")
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	runID := uuid.NewString()
	result, err := e.run(ctx, runID)
	if err != nil {
		e.publish(events.NewRunFailedEvent(runID, err))
		return nil, err
	}

	e.mu.Lock()
	e.result = result
	e.mu.Unlock()

	return result, nil
}

func (e *Engine) run(ctx context.Context, runID string) (*Result, error) {
	cfg := e.config
	if cfg.Verbose {
		logger.Info("", "Number of clients: %d", cfg.NClients)
		logger.Info("", "Path to files to %s: %s", cfg.Mode, cfg.Dir)
		logger.Info("", "Number of files to operate: %d", cfg.NFiles)
		logger.Info("", "Overlap rate: %d%%, in the form of %s", cfg.Overlap, cfg.Style)
		logger.Info("", "Use vectorization? %v", cfg.Vectorized)
	}

	plan, err := e.buildPlan(runID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.plan = plan
	e.mu.Unlock()

	e.publish(events.NewPlanReadyEvent(runID, cfg.NClients, cfg.NFiles, cfg.Overlap,
		string(cfg.Style), string(cfg.Mode)))

	result := &Result{
		RunID:     runID,
		StartTime: time.Now(),
		Config:    cfg,
		Plan:      plan,
	}

	logger.Info("", "Run %s started (%d clients, %s)", runID, cfg.NClients, cfg.Runner)
	e.publish(events.NewRunStartedEvent(runID, cfg.NClients))

	out, err := e.runner.Run(ctx, plan.Invocations)
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Output = out
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if out == nil {
		return nil, fmt.Errorf("run %s: %w: no output", runID, runner.ErrRunner)
	}

	records, err := metrics.ParseRecords(out.Stdout)
	if err != nil {
		return nil, err
	}
	if len(records) != cfg.NClients {
		return nil, fmt.Errorf("%w: expected %d result lines, got %d", metrics.ErrParse, cfg.NClients, len(records))
	}

	summary, err := metrics.Summarize(records)
	if err != nil {
		return nil, err
	}
	result.Summary = summary

	logger.Info("", "Run %s completed in %v: %.2f MB/s total", runID,
		result.Duration.Round(time.Millisecond), summary.TotalThroughput)
	e.publish(events.NewRunCompletedEvent(runID, summary.Clients(),
		summary.TotalThroughput, summary.MaxTime, summary.MinTime))

	return result, nil
}

// Report は結果をフォーマットして返す
func (r *Result) Report() string {
	report := fmt.Sprintf(`
================================================================================
                         BENCHMARK REPORT: %s
================================================================================

EXECUTION SUMMARY
-----------------
  Start Time:     %s
  End Time:       %s
  Duration:       %v

WORKLOAD
--------
  Clients:          %d
  Mode:             %s
  Files:            %d (%d per client, %d unassigned)
  Overlap:          %d%% (%d shared per client, %s)
  Vectorized:       %v

THROUGHPUT
----------
  Total:            %.6f MB/s
  Max Time:         %.6f sec
  Min Time:         %.6f sec

PER CLIENT
----------
`,
		r.RunID,
		r.StartTime.Format("2006-01-02 15:04:05"),
		r.EndTime.Format("2006-01-02 15:04:05"),
		r.Duration.Round(time.Millisecond),
		r.Config.NClients,
		r.Config.Mode,
		r.Config.NFiles, r.Plan.Layout.FilesPerClient, r.Plan.Layout.Dropped(),
		r.Config.Overlap, r.Plan.Layout.Commons, r.Config.Style,
		r.Config.Vectorized,
		r.Summary.TotalThroughput,
		r.Summary.MaxTime,
		r.Summary.MinTime,
	)

	var b strings.Builder
	b.WriteString(report)
	for i := range r.Summary.Clients() {
		target := ""
		if i < len(r.Plan.Invocations) {
			target = r.Plan.Invocations[i].Target
		}
		fmt.Fprintf(&b, "  client %-3d %-8s %12.6f sec %12.6f MB/s\n",
			i, target, r.Summary.Times[i], r.Summary.Throughputs[i])
	}
	b.WriteString("\n================================================================================")

	return b.String()
}

// IsRunning は実行中かどうかを返す
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// LastPlan は直近の実行計画を返す
func (e *Engine) LastPlan() *Plan {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.plan
}

// LastResult は直近の成功した実行結果を返す
func (e *Engine) LastResult() *Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.result
}
