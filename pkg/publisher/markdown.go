package publisher

import (
	"fmt"
	"strings"

	"github.com/shouni/go-carousel-kit/pkg/asset"
	"github.com/shouni/go-carousel-kit/pkg/domain"
)

// BuildCaptionMarkdown はスライド一覧を投稿用の Markdown にまとめます。
// 各スライドは単体ダウンロード時のファイル名を見出しに持ちます。
func BuildCaptionMarkdown(slides domain.Slides) string {
	var sb strings.Builder

	for i, slide := range slides {
		switch slide.Kind {
		case domain.SlideKindCover:
			// 1. タイトルの出力
			sb.WriteString(fmt.Sprintf("# %s\n\n", strings.TrimSpace(slide.Title)))
			sb.WriteString(fmt.Sprintf("- cover: %s\n\n", asset.SlideFileName(i)))
		case domain.SlideKindProse:
			// 2. 本文スライドの見出しと本文
			sb.WriteString(fmt.Sprintf("## Slide: %s\n", asset.SlideFileName(i)))
			sb.WriteString(fmt.Sprintf("%s\n\n", strings.TrimSpace(slide.Text)))
		}
	}

	return sb.String()
}
