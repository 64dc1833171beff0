package carousel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shouni/go-carousel-kit/pkg/archive"
	"github.com/shouni/go-carousel-kit/pkg/asset"
	"github.com/shouni/go-carousel-kit/pkg/domain"
	"github.com/shouni/go-carousel-kit/pkg/raster"
	"github.com/shouni/go-carousel-kit/pkg/render"
)

const (
	mimeTypePNG = "image/png"
	mimeTypeZip = "application/zip"
)

// Controller はカルーセルのスライド一覧・表示位置・書き出しを管理します。
// スライド一覧と index -> パネルの対応表は SetSlides でまとめて差し替わるのだ。
type Controller struct {
	renderer   Renderer
	rasterizer Rasterizer
	archiver   ArchiveBuilder
	exportOpts raster.Options

	mu        sync.Mutex
	slides    domain.Slides
	panels    map[int]*render.Panel
	current   int
	exporting bool
}

// NewController は依存コンポーネントを注入して Controller を生成します。
func NewController(renderer Renderer, rasterizer Rasterizer, archiver ArchiveBuilder) (*Controller, error) {
	if renderer == nil {
		return nil, errors.New("Renderer は必須です")
	}
	if rasterizer == nil {
		return nil, errors.New("Rasterizer は必須です")
	}
	if archiver == nil {
		return nil, errors.New("ArchiveBuilder は必須です")
	}
	return &Controller{
		renderer:   renderer,
		rasterizer: rasterizer,
		archiver:   archiver,
		exportOpts: raster.ExportOptions(),
		panels:     make(map[int]*render.Panel),
	}, nil
}

// SetSlides はスライド一覧を検証・描画し、成功した場合だけ状態を差し替えます。
// 表示位置は先頭に戻ります。
func (c *Controller) SetSlides(slides domain.Slides) error {
	if err := slides.Validate(); err != nil {
		return fmt.Errorf("スライド一覧が不正です: %w", err)
	}

	panels := make(map[int]*render.Panel, len(slides))
	for i, slide := range slides {
		p, err := c.renderer.Render(slide)
		if err != nil {
			return fmt.Errorf("スライド %d の描画に失敗しました: %w", i+1, err)
		}
		panels[i] = p
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.slides = slides.Clone()
	c.panels = panels
	c.current = 0
	return nil
}

// Next は次のスライドへ進みます。末尾の次は先頭に戻るのだ。
func (c *Controller) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.slides); n > 0 {
		c.current = (c.current + 1) % n
	}
	return c.current
}

// Previous は前のスライドへ戻ります。先頭の前は末尾になるのだ。
func (c *Controller) Previous() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.slides); n > 0 {
		c.current = (c.current - 1 + n) % n
	}
	return c.current
}

// CurrentIndex は表示中のスライド番号（0 始まり）を返します。
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Len はスライド枚数を返します。
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slides)
}

// Counter は "<n> / <total>" 形式の表示用カウンターを返します。
func (c *Controller) Counter() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.slides) == 0 {
		return "0 / 0"
	}
	return fmt.Sprintf("%d / %d", c.current+1, len(c.slides))
}

// Slides はスライド一覧のコピーを返します。
func (c *Controller) Slides() domain.Slides {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slides.Clone()
}

// Current は表示中のスライドを返します。
func (c *Controller) Current() (domain.SlideContent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.slides) == 0 {
		return domain.SlideContent{}, false
	}
	return c.slides[c.current], true
}

// Exporting は書き出し処理が実行中かどうかを返します。
func (c *Controller) Exporting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exporting
}

// Panel は指定番号の描画パネルを返します。
func (c *Controller) Panel(index int) (*render.Panel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.panels[index]
	if !ok {
		return nil, ErrIndexOutOfRange
	}
	return p, nil
}

// Preview は指定番号のスライドをプレビュー用の設定でラスタライズします。
// 書き出し中フラグの影響は受けません。
func (c *Controller) Preview(ctx context.Context, index int) (*domain.Artifact, error) {
	p, err := c.Panel(index)
	if err != nil {
		return nil, err
	}
	res, err := c.rasterizer.Rasterize(ctx, p, raster.PreviewOptions())
	if err != nil {
		return nil, &ExportError{Op: OpPreview, Index: index, Err: err}
	}
	return &domain.Artifact{Name: asset.ArchiveEntryName(index), MimeType: res.MimeType, Data: res.Data}, nil
}

// ExportCurrent は表示中のスライドを書き出し設定でラスタライズし、
// carousel-slide-<n>.png という名前の成果物として返します。
func (c *Controller) ExportCurrent(ctx context.Context) (*domain.Artifact, error) {
	c.mu.Lock()
	if len(c.slides) == 0 {
		c.mu.Unlock()
		return nil, ErrEmpty
	}
	if c.exporting {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.exporting = true
	index := c.current
	panel := c.panels[index]
	c.mu.Unlock()
	defer c.finishExport()

	res, err := c.rasterizer.Rasterize(ctx, panel, c.exportOpts)
	if err != nil {
		slog.Error("Could not download image", "slide", index+1, "error", err)
		return nil, &ExportError{Op: OpExportCurrent, Index: index, Err: err}
	}

	slog.Info("スライドを書き出したのだ", "slide", index+1, "bytes", len(res.Data))
	return &domain.Artifact{
		Name:     asset.SlideFileName(index),
		MimeType: mimeTypePNG,
		Data:     res.Data,
	}, nil
}

// ExportAll は全スライドを順番に1枚ずつラスタライズし、1つのアーカイブにまとめます。
// 途中で1枚でも失敗した場合はアーカイブを作らずに中断するのだ。
func (c *Controller) ExportAll(ctx context.Context) (*domain.Artifact, error) {
	c.mu.Lock()
	if len(c.slides) == 0 {
		c.mu.Unlock()
		return nil, ErrEmpty
	}
	if c.exporting {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.exporting = true
	panels := make([]*render.Panel, len(c.slides))
	for i := range panels {
		panels[i] = c.panels[i]
	}
	c.mu.Unlock()
	defer c.finishExport()

	entries := make([]archive.Entry, 0, len(panels))
	for i, p := range panels {
		res, err := c.rasterizer.Rasterize(ctx, p, c.exportOpts)
		if err != nil {
			slog.Error("Failed to zip and download slides", "slide", i+1, "error", err)
			return nil, &ExportError{Op: OpExportAll, Index: i, Err: err}
		}
		entries = append(entries, archive.Entry{Name: asset.ArchiveEntryName(i), Data: res.Data})
	}

	data, err := c.archiver.Build(entries)
	if err != nil {
		slog.Error("Failed to zip and download slides", "error", err)
		return nil, &ExportError{Op: OpExportAll, Index: -1, Err: err}
	}

	slog.Info("全スライドをアーカイブにまとめたのだ", "slides", len(entries), "bytes", len(data))
	return &domain.Artifact{
		Name:     asset.ArchiveFileName,
		MimeType: mimeTypeZip,
		Data:     data,
	}, nil
}

func (c *Controller) finishExport() {
	c.mu.Lock()
	c.exporting = false
	c.mu.Unlock()
}
