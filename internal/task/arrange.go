package task

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// ErrUnknownStyle は未知のオーバーラップスタイルを表す
var ErrUnknownStyle = errors.New("unknown overlap style")

// Style はプライベートタスクと共有タスクの発行順序
type Style string

const (
	StyleRandom Style = "random"
	StyleRear   Style = "rear"
	StyleFront  Style = "front"
)

// Styles は有効なスタイルの一覧
var Styles = []Style{StyleRandom, StyleRear, StyleFront}

// ParseStyle は文字列をStyleに変換する
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case StyleRandom:
		return StyleRandom, nil
	case StyleRear:
		return StyleRear, nil
	case StyleFront:
		return StyleFront, nil
	default:
		return "", fmt.Errorf("%w: %q (choices: random, rear, front)", ErrUnknownStyle, s)
	}
}

// Valid はスタイルが既知かどうかを返す
func (s Style) Valid() bool {
	_, err := ParseStyle(string(s))
	return err == nil
}

// Source は [0,1) の一様乱数を返す
// *rand.Rand はこのインターフェースを満たす
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Arrange はプライベート範囲と共有範囲をstyleに従って1本のタスク列にまとめる
// src が nil の場合はグローバルな乱数源を使う（StyleRandom のみ参照）
func Arrange(private, shared Range, style Style, src Source) ([]int, error) {
	if private.Len() < 0 || shared.Len() < 0 {
		return nil, fmt.Errorf("%w: negative range private=%s shared=%s", ErrPartition, private, shared)
	}

	tasks := make([]int, 0, private.Len()+shared.Len())

	switch style {
	case StyleFront:
		tasks = appendRange(tasks, shared.Start, shared.End)
		tasks = appendRange(tasks, private.Start, private.End)
	case StyleRear:
		tasks = appendRange(tasks, private.Start, private.End)
		tasks = appendRange(tasks, shared.Start, shared.End)
	case StyleRandom:
		if src == nil {
			src = globalSource{}
		}
		tasks = interleave(tasks, private, shared, src)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}

	return tasks, nil
}

// interleave は共有タスクを共有比率の確率で選びながら両範囲を消費する
func interleave(tasks []int, private, shared Range, src Source) []int {
	total := private.Len() + shared.Len()
	if total == 0 {
		return tasks
	}
	commonProb := float64(shared.Len()) / float64(total)

	p1, p2 := private.Start, shared.Start
	for p1 < private.End && p2 < shared.End {
		if src.Float64() <= commonProb {
			tasks = append(tasks, p2)
			p2++
		} else {
			tasks = append(tasks, p1)
			p1++
		}
	}

	// 残りを昇順で追加
	tasks = appendRange(tasks, p1, private.End)
	tasks = appendRange(tasks, p2, shared.End)
	return tasks
}

func appendRange(tasks []int, start, end int) []int {
	for i := start; i < end; i++ {
		tasks = append(tasks, i)
	}
	return tasks
}
