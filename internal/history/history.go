package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mcbench/internal/benchmark"
	"mcbench/internal/metrics"

	_ "modernc.org/sqlite"
)

// ErrNotFound は指定した実行IDが存在しない場合のエラー
var ErrNotFound = errors.New("run not found")

// Entry は保存された1回分の実行
type Entry struct {
	RunID     string          `json:"run_id"`
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
	Clients   int             `json:"clients"`
	Files     int             `json:"files"`
	Overlap   int             `json:"overlap"`
	Style     string          `json:"style"`
	Mode      string          `json:"mode"`
	Summary   metrics.Summary `json:"summary"`
}

// NewEntry は実行結果から Entry を作る
func NewEntry(r *benchmark.Result) Entry {
	return Entry{
		RunID:     r.RunID,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Clients:   r.Config.NClients,
		Files:     r.Config.NFiles,
		Overlap:   r.Config.Overlap,
		Style:     string(r.Config.Style),
		Mode:      string(r.Config.Mode),
		Summary:   r.Summary,
	}
}

// Store は実行履歴のデータベース
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open は履歴データベースを開く。なければ作成する
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite は書き込みが直列なので接続は1本に絞る
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close はデータベースを閉じる
func (s *Store) Close() error {
	return s.db.Close()
}

// Path はデータベースファイルのパスを返す
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		clients INTEGER NOT NULL,
		files INTEGER NOT NULL,
		overlap INTEGER NOT NULL,
		style TEXT NOT NULL,
		mode TEXT NOT NULL,
		total_throughput REAL NOT NULL,
		max_time REAL NOT NULL,
		min_time REAL NOT NULL,
		throughputs_json TEXT NOT NULL,
		times_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`)
	return err
}

// Save は実行を1件追記する
func (s *Store) Save(ctx context.Context, e Entry) error {
	throughputs, err := json.Marshal(nonNil(e.Summary.Throughputs))
	if err != nil {
		return fmt.Errorf("failed to encode throughputs: %w", err)
	}
	times, err := json.Marshal(nonNil(e.Summary.Times))
	if err != nil {
		return fmt.Errorf("failed to encode times: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, started_at, finished_at, clients, files, overlap, style, mode,
			total_throughput, max_time, min_time, throughputs_json, times_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, formatTime(e.StartTime), formatTime(e.EndTime),
		e.Clients, e.Files, e.Overlap, e.Style, e.Mode,
		e.Summary.TotalThroughput, e.Summary.MaxTime, e.Summary.MinTime,
		string(throughputs), string(times),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", e.RunID, err)
	}
	return nil
}

const selectColumns = `SELECT run_id, started_at, finished_at, clients, files, overlap, style, mode,
	total_throughput, max_time, min_time, throughputs_json, times_json FROM runs`

// List は新しい順に最大 limit 件を返す。limit が0以下なら全件
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := selectColumns + ` ORDER BY started_at DESC, run_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get は実行IDで1件を返す
func (s *Store) Get(ctx context.Context, runID string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE run_id = ?`, runID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e                     Entry
		started, finished     string
		throughputs, timesRaw string
	)
	err := sc.Scan(&e.RunID, &started, &finished, &e.Clients, &e.Files, &e.Overlap, &e.Style, &e.Mode,
		&e.Summary.TotalThroughput, &e.Summary.MaxTime, &e.Summary.MinTime, &throughputs, &timesRaw)
	if err != nil {
		return Entry{}, err
	}

	if e.StartTime, err = parseTime(started); err != nil {
		return Entry{}, err
	}
	if e.EndTime, err = parseTime(finished); err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal([]byte(throughputs), &e.Summary.Throughputs); err != nil {
		return Entry{}, fmt.Errorf("failed to decode throughputs of %s: %w", e.RunID, err)
	}
	if err := json.Unmarshal([]byte(timesRaw), &e.Summary.Times); err != nil {
		return Entry{}, fmt.Errorf("failed to decode times of %s: %w", e.RunID, err)
	}
	return e, nil
}

// timeLayout は文字列比較で時刻順に並ぶ固定幅の形式
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}
