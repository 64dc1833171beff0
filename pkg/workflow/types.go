package workflow

import (
	"context"
	"time"

	"github.com/shouni/go-carousel-kit/pkg/app"
	"github.com/shouni/go-carousel-kit/pkg/carousel"
	"github.com/shouni/go-carousel-kit/pkg/config"
	"github.com/shouni/go-carousel-kit/pkg/raster"
	"github.com/shouni/go-carousel-kit/pkg/render"
)

// ManagerArgs は Manager の初期化に必要な引数です。
// Segmenter と ImageLoader は省略でき、その場合は標準の実装を生成するのだ。
type ManagerArgs struct {
	Config      config.Config
	Segmenter   app.Segmenter
	ImageLoader raster.ImageLoader
	Style       *render.Style
}

// Session は1つの入力フォームと、そこから生成されたカルーセルの組です。
type Session struct {
	ID         string
	Shell      *app.Shell
	Controller *carousel.Controller
	CreatedAt  time.Time
}

// GenerateInput は1回分の生成リクエストです。ImageData と ImageURL はどちらか一方を指定します。
type GenerateInput struct {
	ImageData []byte
	ImageURL  string
	Title     string
	Prose     string
}

// Generator は入力からカルーセルを生成する責務を持ちます。
type Generator interface {
	Generate(ctx context.Context, in GenerateInput) (*Session, error)
}
