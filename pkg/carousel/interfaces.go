package carousel

import (
	"context"

	"github.com/shouni/go-carousel-kit/pkg/archive"
	"github.com/shouni/go-carousel-kit/pkg/domain"
	"github.com/shouni/go-carousel-kit/pkg/raster"
	"github.com/shouni/go-carousel-kit/pkg/render"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// Renderer はスライドを描画パネルに変換する契約です。
type Renderer interface {
	Render(slide domain.SlideContent) (*render.Panel, error)
}

// Rasterizer は描画パネルを画像に変換する契約です。
type Rasterizer interface {
	Rasterize(ctx context.Context, panel *render.Panel, opts raster.Options) (*imagedom.ImageResponse, error)
}

// ArchiveBuilder は複数ファイルを1つのアーカイブにまとめる契約です。
type ArchiveBuilder interface {
	Build(entries []archive.Entry) ([]byte, error)
}
