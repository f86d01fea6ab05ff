package task

import (
	"errors"
	"fmt"
)

// ErrPartition は分割パラメータから有効な範囲を作れない場合のエラー
var ErrPartition = errors.New("partition error")

// Range は半開区間 [Start, End) のタスクID範囲
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len は範囲に含まれるID数を返す
func (r Range) Len() int {
	return r.End - r.Start
}

// Contains はidが範囲内かどうかを返す
func (r Range) Contains(id int) bool {
	return id >= r.Start && id < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Layout は全クライアント共通の分割パラメータ
type Layout struct {
	NFiles   int
	NClients int
	Overlap  int

	FilesPerClient int // floor(NFiles / NClients)
	Commons        int // floor(FilesPerClient * Overlap / 100)
	Independents   int // FilesPerClient - Commons
}

// NewLayout は分割パラメータを計算する
//
// NFiles % NClients 個の余りファイルはどのクライアントにも割り当てない。
// プライベート範囲の刻み幅は FilesPerClient ではなく Independents なので、
// オーバーラップ率が大きいほど前方の狭い範囲に寄る。
func NewLayout(nfiles, nclients, overlap int) (Layout, error) {
	if nclients <= 0 {
		return Layout{}, fmt.Errorf("%w: number of clients must be positive, got %d", ErrPartition, nclients)
	}
	if nfiles < 0 {
		return Layout{}, fmt.Errorf("%w: number of files must be non-negative, got %d", ErrPartition, nfiles)
	}
	if nclients > nfiles {
		return Layout{}, fmt.Errorf("%w: %d clients cannot share %d files", ErrPartition, nclients, nfiles)
	}

	perClient := nfiles / nclients
	commons := floorDiv(perClient*overlap, 100)
	independents := perClient - commons

	if commons < 0 || independents < 0 {
		return Layout{}, fmt.Errorf("%w: overlap %d%% yields %d shared and %d private files per client",
			ErrPartition, overlap, commons, independents)
	}

	return Layout{
		NFiles:         nfiles,
		NClients:       nclients,
		Overlap:        overlap,
		FilesPerClient: perClient,
		Commons:        commons,
		Independents:   independents,
	}, nil
}

// Shared は全クライアントが共有する末尾の範囲を返す
func (l Layout) Shared() Range {
	return Range{Start: l.NFiles - l.Commons, End: l.NFiles}
}

// Private はクライアントiのプライベート範囲を返す
func (l Layout) Private(i int) Range {
	return Range{Start: i * l.Independents, End: (i + 1) * l.Independents}
}

// Dropped はどのクライアントにも割り当てられない余りファイル数を返す
func (l Layout) Dropped() int {
	return l.NFiles - l.FilesPerClient*l.NClients
}

// Assignment は1クライアント分の割り当て
type Assignment struct {
	Client  int   `json:"client"`
	Private Range `json:"private"`
	Shared  Range `json:"shared"`
}

// Assignments は全クライアントの割り当てをクライアント順に返す
func (l Layout) Assignments() []Assignment {
	out := make([]Assignment, l.NClients)
	shared := l.Shared()
	for i := range l.NClients {
		out[i] = Assignment{
			Client:  i,
			Private: l.Private(i),
			Shared:  shared,
		}
	}
	return out
}

// Partition は NewLayout と Assignments をまとめて実行する
func Partition(nfiles, nclients, overlap int) ([]Assignment, error) {
	layout, err := NewLayout(nfiles, nclients, overlap)
	if err != nil {
		return nil, err
	}
	return layout.Assignments(), nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
