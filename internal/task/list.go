package task

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrTaskList はタスクリスト文字列が不正な場合のエラー
var ErrTaskList = errors.New("invalid task list")

// FormatList はタスク列をカンマ区切りの文字列にする
// compact が true の場合、3個以上連続する昇順IDを "a-b"（両端含む）にまとめる
func FormatList(tasks []int, compact bool) string {
	var b strings.Builder
	for i := 0; i < len(tasks); {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		j := i
		if compact {
			for j+1 < len(tasks) && tasks[j+1] == tasks[j]+1 {
				j++
			}
		}
		if j-i >= 2 {
			b.WriteString(strconv.Itoa(tasks[i]))
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(tasks[j]))
			i = j + 1
			continue
		}
		b.WriteString(strconv.Itoa(tasks[i]))
		i++
	}
	return b.String()
}

// ParseList は FormatList の出力（どちらの形式でも）をタスク列に戻す
// 空の要素は無視する
func ParseList(s string) ([]int, error) {
	var tasks []int
	for _, el := range strings.Split(s, ",") {
		el = strings.TrimSpace(el)
		if el == "" {
			continue
		}

		bounds := strings.Split(el, "-")
		switch len(bounds) {
		case 1:
			n, err := parseID(bounds[0])
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, n)
		case 2:
			begin, err := parseID(bounds[0])
			if err != nil {
				return nil, err
			}
			end, err := parseID(bounds[1])
			if err != nil {
				return nil, err
			}
			if begin > end {
				return nil, fmt.Errorf("%w: descending range %q", ErrTaskList, el)
			}
			tasks = appendRange(tasks, begin, end+1)
		default:
			return nil, fmt.Errorf("%w: malformed element %q", ErrTaskList, el)
		}
	}
	return tasks, nil
}

func parseID(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad task id %q", ErrTaskList, s)
	}
	return n, nil
}
