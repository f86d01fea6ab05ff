package metrics

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrParse は結果行を解釈できない場合のエラー
var ErrParse = errors.New("parse error")

// Header は集計行の列順を説明する凡例
const Header = "#total_throughput(MB/s),max_time(sec),min_time(sec),throughput_per_client(MB/s)...,time_per_client(sec)"

// ParseError は解釈できなかった結果行
type ParseError struct {
	Line   int    // 1始まりの行番号
	Text   string // 問題の行
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: line %d %q: %s", e.Line, e.Text, e.Reason)
}

// Unwrap は errors.Is(err, ErrParse) を成立させる
func (e *ParseError) Unwrap() error {
	return ErrParse
}

// Record は1クライアント分の結果
type Record struct {
	Time       float64 `json:"time"`       // 秒
	Throughput float64 `json:"throughput"` // MB/s
}

// ParseRecord は "<time> secs, <throughput> MB/s" 形式の1行を解釈する
// 各フィールドの先頭トークンを数値として読み、残りは単位として無視する
func ParseRecord(line string) (Record, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 2 {
		return Record{}, fmt.Errorf("expected 2 comma-separated fields, got %d", len(fields))
	}

	t, err := leadingFloat(fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("time: %w", err)
	}
	tp, err := leadingFloat(fields[1])
	if err != nil {
		return Record{}, fmt.Errorf("throughput: %w", err)
	}

	return Record{Time: t, Throughput: tp}, nil
}

func leadingFloat(field string) (float64, error) {
	tokens := strings.Fields(field)
	if len(tokens) == 0 {
		return 0, fmt.Errorf("empty field")
	}
	v, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", tokens[0])
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", tokens[0])
	}
	return v, nil
}

// ParseRecords はランナーの標準出力全体を1行1クライアントとして解釈する
// 1行でも解釈できなければ全体をエラーにする
func ParseRecords(raw string) ([]Record, error) {
	raw = strings.TrimRight(raw, "\r\n")
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: no result records", ErrParse)
	}

	lines := strings.Split(raw, "\n")
	records := make([]Record, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		rec, err := ParseRecord(line)
		if err != nil {
			return nil, &ParseError{Line: i + 1, Text: line, Reason: err.Error()}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Summary は全クライアントの集計結果
type Summary struct {
	TotalThroughput float64   `json:"total_throughput"`
	MaxTime         float64   `json:"max_time"`
	MinTime         float64   `json:"min_time"`
	Throughputs     []float64 `json:"throughputs"`
	Times           []float64 `json:"times"`
}

// Summarize はクライアント順の結果から集計を作る
func Summarize(records []Record) (Summary, error) {
	if len(records) == 0 {
		return Summary{}, fmt.Errorf("%w: no result records", ErrParse)
	}

	s := Summary{
		MaxTime:     records[0].Time,
		MinTime:     records[0].Time,
		Throughputs: make([]float64, len(records)),
		Times:       make([]float64, len(records)),
	}
	for i, r := range records {
		s.Throughputs[i] = r.Throughput
		s.Times[i] = r.Time
		s.MaxTime = max(s.MaxTime, r.Time)
		s.MinTime = min(s.MinTime, r.Time)
	}
	s.TotalThroughput = Sum(s.Throughputs)

	return s, nil
}

// Aggregate は ParseRecords と Summarize をまとめて実行する
func Aggregate(raw string) (Summary, error) {
	records, err := ParseRecords(raw)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(records)
}

// Clients は集計対象のクライアント数を返す
func (s Summary) Clients() int {
	return len(s.Times)
}

// Format は Header の列順で小数6桁のカンマ区切り1行を返す
func (s Summary) Format() string {
	fields := make([]string, 0, 3+2*len(s.Times))
	fields = append(fields, f6(s.TotalThroughput), f6(s.MaxTime), f6(s.MinTime))
	for _, tp := range s.Throughputs {
		fields = append(fields, f6(tp))
	}
	for _, t := range s.Times {
		fields = append(fields, f6(t))
	}
	return strings.Join(fields, ",")
}

func f6(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// Sum は補償付き加算（Neumaier法）で合計を返す
func Sum(xs []float64) float64 {
	var sum, c float64
	for _, x := range xs {
		t := sum + x
		if math.Abs(sum) >= math.Abs(x) {
			c += (sum - t) + x
		} else {
			c += (x - t) + sum
		}
		sum = t
	}
	return sum + c
}
