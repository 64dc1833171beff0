package archive

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zip"
)

// Entry はアーカイブに格納する1ファイルです。
type Entry struct {
	Name string
	Data []byte
}

// ZipBuilder はエントリ群を1つの ZIP アーカイブにまとめます。
type ZipBuilder struct {
	now func() time.Time
}

// NewZipBuilder は ZipBuilder を生成します。
func NewZipBuilder() *ZipBuilder {
	return &ZipBuilder{now: time.Now}
}

// Build は渡された順番どおりにエントリを書き込んだ ZIP のバイト列を返すのだ。
func (b *ZipBuilder) Build(entries []Entry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, errors.New("アーカイブに格納するエントリがありません")
	}

	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("エントリ %d の名前が空です", i)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("エントリ名が重複しています: %s", e.Name)
		}
		seen[e.Name] = struct{}{}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := b.now()

	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.Name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("アーカイブエントリ %s の作成に失敗しました: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("アーカイブエントリ %s の書き込みに失敗しました: %w", e.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("アーカイブのクローズに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}
