package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/go-carousel-kit/pkg/asset"
	"github.com/shouni/go-carousel-kit/pkg/domain"
)

const (
	defaultCaptionName = "carousel.md"
	mimeTypeMarkdown   = "text/markdown; charset=utf-8"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
	// WithCaption が true の場合、スライドの本文をまとめた Markdown も書き出すのだ。
	WithCaption bool
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	ArtifactPaths []string
	CaptionPath   string
}

// CarouselPublisher は成果物を OutputWriter 経由で永続化します。
type CarouselPublisher struct {
	writer OutputWriter
}

// NewCarouselPublisher は CarouselPublisher を生成します。
func NewCarouselPublisher(writer OutputWriter) (*CarouselPublisher, error) {
	if writer == nil {
		return nil, errors.New("OutputWriter は必須です")
	}
	return &CarouselPublisher{writer: writer}, nil
}

// Publish は成果物（スライド画像またはアーカイブ）を出力先に保存するのだ。
func (p *CarouselPublisher) Publish(ctx context.Context, slides domain.Slides, artifacts []*domain.Artifact, opts Options) (PublishResult, error) {
	result := PublishResult{}
	if len(artifacts) == 0 {
		return result, errors.New("保存する成果物がありません")
	}

	for _, art := range artifacts {
		if art == nil || len(art.Data) == 0 {
			continue
		}
		fullPath, err := asset.ResolveOutputPath(opts.OutputDir, art.Name)
		if err != nil {
			return result, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
		}
		if err := p.writer.Write(ctx, fullPath, art.Data, art.MimeType); err != nil {
			return result, fmt.Errorf("成果物の書き込みに失敗しました %s: %w", fullPath, err)
		}
		result.ArtifactPaths = append(result.ArtifactPaths, fullPath)
		slog.Info("成果物を保存したのだ", "path", fullPath, "bytes", len(art.Data))
	}

	if opts.WithCaption && len(slides) > 0 {
		captionPath, err := asset.ResolveOutputPath(opts.OutputDir, defaultCaptionName)
		if err != nil {
			return result, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
		}
		content := BuildCaptionMarkdown(slides)
		if err := p.writer.Write(ctx, captionPath, []byte(content), mimeTypeMarkdown); err != nil {
			return result, fmt.Errorf("markdownファイルの書き込みに失敗しました: %w", err)
		}
		result.CaptionPath = captionPath
	}

	return result, nil
}
