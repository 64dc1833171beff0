package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shouni/go-carousel-kit/pkg/app"
	"github.com/shouni/go-carousel-kit/pkg/archive"
	"github.com/shouni/go-carousel-kit/pkg/carousel"
	"github.com/shouni/go-carousel-kit/pkg/config"
	"github.com/shouni/go-carousel-kit/pkg/raster"
	"github.com/shouni/go-carousel-kit/pkg/render"
	"github.com/shouni/go-carousel-kit/pkg/segmenter"

	"github.com/google/uuid"
)

// Manager は、分割・描画・ラスタライズ・アーカイブの各コンポーネントを構築し、
// セッションごとの Shell と Controller を組み立てます。
type Manager struct {
	cfg        config.Config
	segmenter  app.Segmenter
	renderer   *render.Renderer
	rasterizer *raster.CanvasRasterizer
	archiver   *archive.ZipBuilder
}

// New は設定を基に新しい Manager を初期化します。
func New(ctx context.Context, args ManagerArgs) (*Manager, error) {
	seg, err := initializeSegmenter(ctx, args.Config, args.Segmenter)
	if err != nil {
		return nil, err
	}

	style := render.DefaultStyle()
	if args.Style != nil {
		style = *args.Style
	}
	rd, err := render.NewRenderer(style)
	if err != nil {
		return nil, fmt.Errorf("Renderer の初期化に失敗しました: %w", err)
	}

	loader := args.ImageLoader
	if loader == nil {
		loader = raster.NewURLImageLoader(nil)
	}
	rz, err := raster.NewCanvasRasterizer(loader)
	if err != nil {
		return nil, fmt.Errorf("Rasterizer の初期化に失敗しました: %w", err)
	}

	return &Manager{
		cfg:        args.Config,
		segmenter:  seg,
		renderer:   rd,
		rasterizer: rz,
		archiver:   archive.NewZipBuilder(),
	}, nil
}

// initializeSegmenter は Segmenter を初期化します。
// 引数として既存の Segmenter が渡された場合はそれを返し、nil の場合は Gemini クライアントから新規作成します。
func initializeSegmenter(ctx context.Context, cfg config.Config, seg app.Segmenter) (app.Segmenter, error) {
	if seg != nil {
		return seg, nil
	}
	s, err := segmenter.NewGeminiSegmenter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("Segmenter の初期化に失敗しました: %w", err)
	}
	return s, nil
}

// NewSession は空のカルーセルを持つ新しいセッションを生成するのだ。
// Segmenter や Rasterizer は全セッションで共有します。
func (m *Manager) NewSession() (*Session, error) {
	ctrl, err := carousel.NewController(m.renderer, m.rasterizer, m.archiver)
	if err != nil {
		return nil, fmt.Errorf("Controller の初期化に失敗しました: %w", err)
	}
	shell, err := app.NewShell(m.segmenter, ctrl)
	if err != nil {
		return nil, fmt.Errorf("Shell の初期化に失敗しました: %w", err)
	}
	return &Session{
		ID:         uuid.NewString(),
		Shell:      shell,
		Controller: ctrl,
		CreatedAt:  time.Now(),
	}, nil
}

// Generate は新しいセッションに入力を設定し、カルーセルを生成します。
func (m *Manager) Generate(ctx context.Context, in GenerateInput) (*Session, error) {
	sess, err := m.NewSession()
	if err != nil {
		return nil, err
	}
	if err := ApplyInput(sess.Shell, in); err != nil {
		return sess, err
	}
	if err := sess.Shell.Generate(ctx); err != nil {
		return sess, err
	}
	return sess, nil
}

// ApplyInput は入力値を Shell に設定します。画像が指定されていない場合は何もしないのだ。
func ApplyInput(shell *app.Shell, in GenerateInput) error {
	if shell == nil {
		return errors.New("Shell は必須です")
	}
	switch {
	case len(in.ImageData) > 0:
		if err := shell.SetImage(in.ImageData); err != nil {
			return err
		}
	case in.ImageURL != "":
		shell.SetImageURL(in.ImageURL)
	}
	shell.SetTitle(in.Title)
	shell.SetProse(in.Prose)
	return nil
}
