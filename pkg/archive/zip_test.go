package archive

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zip"
)

func TestZipBuilder_Build(t *testing.T) {
	b := NewZipBuilder()

	t.Run("渡した順番と中身がそのまま格納されるのだ", func(t *testing.T) {
		entries := []Entry{
			{Name: "slide-1.png", Data: []byte("one")},
			{Name: "slide-2.png", Data: []byte("two")},
			{Name: "slide-3.png", Data: []byte("three")},
		}
		data, err := b.Build(entries)
		if err != nil {
			t.Fatalf("Build失敗なのだ: %v", err)
		}

		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			t.Fatalf("ZIP の読み込みに失敗したのだ: %v", err)
		}
		if len(zr.File) != len(entries) {
			t.Fatalf("期待値 %d, 実際の値 %d", len(entries), len(zr.File))
		}
		for i, f := range zr.File {
			if f.Name != entries[i].Name {
				t.Errorf("index %d: 期待値 %s, 実際の値 %s", i, entries[i].Name, f.Name)
			}
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("エントリを開けないのだ: %v", err)
			}
			got, _ := io.ReadAll(rc)
			_ = rc.Close()
			if !bytes.Equal(got, entries[i].Data) {
				t.Errorf("%s: 期待値 %q, 実際の値 %q", f.Name, entries[i].Data, got)
			}
		}
	})

	errorCases := []struct {
		name    string
		entries []Entry
	}{
		{name: "空", entries: nil},
		{name: "名前なし", entries: []Entry{{Name: "", Data: []byte("x")}}},
		{name: "重複", entries: []Entry{{Name: "a.png"}, {Name: "a.png"}}},
	}
	for _, tc := range errorCases {
		t.Run("エラー: "+tc.name, func(t *testing.T) {
			if _, err := b.Build(tc.entries); err == nil {
				t.Error("エラーを期待したのに nil だったのだ")
			}
		})
	}
}
