package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/shouni/go-carousel-kit/pkg/render"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

const (
	mimeTypePNG  = "image/png"
	fontSizeStep = 2.0
)

// CanvasRasterizer はパネルを PNG 画像に変換します。
type CanvasRasterizer struct {
	loader ImageLoader
}

// NewCanvasRasterizer は CanvasRasterizer を生成します。
func NewCanvasRasterizer(loader ImageLoader) (*CanvasRasterizer, error) {
	if loader == nil {
		return nil, errors.New("ImageLoader は必須です")
	}
	if err := loadFonts(); err != nil {
		return nil, err
	}
	return &CanvasRasterizer{loader: loader}, nil
}

// Rasterize はパネルのレイヤーを順に描画し、ロスレスな PNG として返すのだ。
// 出力サイズは論理サイズ x Scale になります。
func (r *CanvasRasterizer) Rasterize(ctx context.Context, panel *render.Panel, opts Options) (*imagedom.ImageResponse, error) {
	if panel == nil {
		return nil, errors.New("パネルが nil です")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.normalized()

	w := int(math.Round(panel.Width * opts.Scale))
	h := int(math.Round(panel.Height * opts.Scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("出力サイズが不正です (%dx%d)", w, h)
	}

	dc := gg.NewContext(w, h)
	if !opts.Transparent {
		dc.SetColor(opts.Backing)
		dc.Clear()
	}

	dc.DrawRoundedRectangle(0, 0, float64(w), float64(h), panel.CornerRadius*opts.Scale)
	dc.Clip()

	if panel.Background != nil {
		dc.SetColor(panel.Background)
		dc.DrawRectangle(0, 0, float64(w), float64(h))
		dc.Fill()
	}

	for i, layer := range panel.Layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		switch l := layer.(type) {
		case render.ImageLayer:
			err = r.drawImage(ctx, dc, l, opts)
		case render.GradientLayer:
			drawGradient(dc, l)
		case render.TextLayer:
			err = drawText(dc, l, opts.Scale)
		default:
			err = fmt.Errorf("不明なレイヤーです: %T", layer)
		}
		if err != nil {
			return nil, fmt.Errorf("レイヤー %d の描画に失敗しました: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("PNG エンコードに失敗しました: %w", err)
	}

	slog.Debug("Rasterizer: パネルを書き出したのだ", "width", w, "height", h, "bytes", buf.Len())
	return &imagedom.ImageResponse{
		Data:     buf.Bytes(),
		MimeType: mimeTypePNG,
	}, nil
}

func (r *CanvasRasterizer) drawImage(ctx context.Context, dc *gg.Context, l render.ImageLayer, opts Options) error {
	src, err := r.loader.Load(ctx, l.URL, opts.AllowCrossOrigin)
	if err != nil {
		return err
	}
	w, h := dc.Width(), dc.Height()

	img := imaging.Fill(src, w, h, imaging.Center, imaging.Lanczos)
	if l.BlurSigma > 0 {
		img = imaging.Blur(img, l.BlurSigma*opts.Scale)
	}
	if l.Opacity < 1 {
		canvas := imaging.New(w, h, color.Transparent)
		img = imaging.Overlay(canvas, img, image.Pt(0, 0), clamp01(l.Opacity))
	}

	dc.DrawImage(img, 0, 0)
	return nil
}

func drawGradient(dc *gg.Context, l render.GradientLayer) {
	w, h := float64(dc.Width()), float64(dc.Height())
	grad := gg.NewLinearGradient(l.X0*w, l.Y0*h, l.X1*w, l.Y1*h)
	for _, stop := range l.Stops {
		grad.AddColorStop(stop.Offset, stop.Color)
	}
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()
}

// drawText はテキストを中央揃えで描画します。収まらない場合は MinFontSize までフォントを縮小するのだ。
func drawText(dc *gg.Context, l render.TextLayer, scale float64) error {
	if l.Text == "" {
		return nil
	}
	w, h := float64(dc.Width()), float64(dc.Height())
	pad := l.Padding * scale
	maxW, maxH := w-2*pad, h-2*pad
	if maxW <= 0 || maxH <= 0 {
		return fmt.Errorf("余白がパネルより大きいです (padding=%v)", l.Padding)
	}
	spacing := l.LineSpacing
	if spacing <= 0 {
		spacing = 1
	}

	lines, lineHeight, err := fitText(dc, l, scale, maxW, maxH, spacing)
	if err != nil {
		return err
	}

	top := h/2 - lineHeight*float64(len(lines))/2
	for i, line := range lines {
		y := top + lineHeight*(float64(i)+0.5)
		if l.Shadow != nil {
			dc.SetColor(l.Shadow.Color)
			dc.DrawStringAnchored(line, w/2+l.Shadow.OffsetX*scale, y+l.Shadow.OffsetY*scale, 0.5, 0.5)
		}
		dc.SetColor(textColor(l.Color))
		dc.DrawStringAnchored(line, w/2, y, 0.5, 0.5)
	}
	return nil
}

func fitText(dc *gg.Context, l render.TextLayer, scale, maxW, maxH, spacing float64) ([]string, float64, error) {
	minSize := l.MinFontSize
	if minSize <= 0 || minSize > l.FontSize {
		minSize = l.FontSize
	}

	var lines []string
	var lineHeight float64
	for size := l.FontSize; ; size -= fontSizeStep {
		if size < minSize {
			size = minSize
		}
		face, err := newFace(l.Weight, size*scale)
		if err != nil {
			return nil, 0, err
		}
		dc.SetFontFace(face)

		lines = dc.WordWrap(l.Text, maxW)
		lineHeight = dc.FontHeight() * spacing
		if lineHeight*float64(len(lines)) <= maxH || size <= minSize {
			return lines, lineHeight, nil
		}
	}
}

func textColor(c color.Color) color.Color {
	if c == nil {
		return color.White
	}
	return c
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
