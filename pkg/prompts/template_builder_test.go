package prompts

import (
	"strings"
	"testing"
)

func TestTextPromptBuilder_Build(t *testing.T) {
	pb, err := NewTextPromptBuilder()
	if err != nil {
		t.Fatalf("ビルダーの初期化に失敗したのだ: %v", err)
	}

	t.Run("本文が引用符付きで末尾に入るのだ", func(t *testing.T) {
		got, err := pb.Build(ModeSegment, TemplateData{InputText: "Once upon a time."})
		if err != nil {
			t.Fatalf("Build失敗なのだ: %v", err)
		}
		if !strings.HasSuffix(strings.TrimSpace(got), `"Once upon a time."`) {
			t.Errorf("本文が末尾に埋め込まれていないのだ: %q", got)
		}
		if !strings.Contains(got, "no more than 280 characters") {
			t.Errorf("デフォルトの文字数上限が入っていないのだ: %q", got)
		}
		if !strings.Contains(got, "JSON array of strings") {
			t.Errorf("出力形式の指示がないのだ: %q", got)
		}
	})

	t.Run("文字数上限を上書きできるのだ", func(t *testing.T) {
		got, err := pb.Build(ModeSegment, TemplateData{InputText: "x", MaxChunkChars: 150})
		if err != nil {
			t.Fatalf("Build失敗なのだ: %v", err)
		}
		if !strings.Contains(got, "no more than 150 characters") {
			t.Errorf("期待値 150, 実際の値 %q", got)
		}
	})

	t.Run("不明なモードはエラーになるのだ", func(t *testing.T) {
		if _, err := pb.Build("unknown", TemplateData{}); err == nil {
			t.Error("エラーを期待したのに nil だったのだ")
		}
	})
}
