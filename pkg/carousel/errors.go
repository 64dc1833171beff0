package carousel

import (
	"errors"
	"fmt"
)

const (
	OpExportCurrent = "exportCurrent"
	OpExportAll     = "exportAll"
	OpPreview       = "preview"
)

var (
	// ErrBusy は書き出し処理が実行中のため新しい書き出しを受け付けられないことを表します。
	ErrBusy = errors.New("書き出し処理を実行中です")
	// ErrEmpty はスライドが1枚もないことを表します。
	ErrEmpty = errors.New("スライドがありません")
	// ErrIndexOutOfRange は存在しないスライド番号が指定されたことを表します。
	ErrIndexOutOfRange = errors.New("スライド番号が範囲外です")
)

// ExportError はラスタライズまたはアーカイブ作成の失敗を表すのだ。
// Index はアーカイブ作成自体の失敗では -1 になります。
type ExportError struct {
	Op    string
	Index int
	Err   error
}

func (e *ExportError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: アーカイブの作成に失敗しました: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: スライド %d の書き出しに失敗しました: %v", e.Op, e.Index+1, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
