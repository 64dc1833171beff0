package render

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/shouni/go-carousel-kit/pkg/domain"
)

// Style はパネルの見た目を決める定数群です。
type Style struct {
	Width        float64
	Height       float64
	CornerRadius float64
	Padding      float64

	CoverBackground    color.Color
	CoverImageOpacity  float64
	CoverImageBlur     float64
	CoverOverlayTop    color.Color
	CoverOverlayBottom color.Color
	CoverTitleSize     float64
	CoverTitleMinSize  float64
	CoverTitleColor    color.Color
	CoverTitleShadow   TextShadow

	ProseGradientFrom color.Color
	ProseGradientTo   color.Color
	ProseTextSize     float64
	ProseTextMinSize  float64
	ProseTextColor    color.Color
	LineSpacing       float64
}

// DefaultStyle は 4:5 縦長（Instagram カルーセル）向けの標準スタイルを返すのだ。
func DefaultStyle() Style {
	return Style{
		Width:        540,
		Height:       675,
		CornerRadius: 8,
		Padding:      32,

		CoverBackground:    color.Black,
		CoverImageOpacity:  0.4,
		CoverImageBlur:     4,
		CoverOverlayTop:    color.NRGBA{A: 153},
		CoverOverlayBottom: color.NRGBA{},
		CoverTitleSize:     48,
		CoverTitleMinSize:  20,
		CoverTitleColor:    color.White,
		CoverTitleShadow:   TextShadow{OffsetX: 0, OffsetY: 4, Color: color.NRGBA{A: 160}},

		ProseGradientFrom: color.NRGBA{R: 0x1e, G: 0x29, B: 0x3b, A: 0xff}, // slate-800
		ProseGradientTo:   color.NRGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff}, // slate-900
		ProseTextSize:     20,
		ProseTextMinSize:  12,
		ProseTextColor:    color.White,
		LineSpacing:       1.625,
	}
}

// Renderer はスライドからパネルを組み立てます。状態は持ちません。
type Renderer struct {
	style Style
}

// NewRenderer は Renderer を生成します。
func NewRenderer(style Style) (*Renderer, error) {
	if style.Width <= 0 || style.Height <= 0 {
		return nil, fmt.Errorf("パネルサイズが不正です (width=%v, height=%v)", style.Width, style.Height)
	}
	return &Renderer{style: style}, nil
}

// Render はスライドの種別に応じたパネルを返すのだ。
func (r *Renderer) Render(slide domain.SlideContent) (*Panel, error) {
	switch slide.Kind {
	case domain.SlideKindCover:
		return r.renderCover(slide)
	case domain.SlideKindProse:
		return r.renderProse(slide), nil
	default:
		return nil, fmt.Errorf("不明なスライド種別です: %q", slide.Kind)
	}
}

func (r *Renderer) renderCover(slide domain.SlideContent) (*Panel, error) {
	if slide.ImageURL == "" {
		return nil, errors.New("表紙スライドの画像URLが空です")
	}
	s := r.style
	shadow := s.CoverTitleShadow

	return &Panel{
		Width:        s.Width,
		Height:       s.Height,
		CornerRadius: s.CornerRadius,
		Background:   s.CoverBackground,
		Layers: []Layer{
			ImageLayer{
				URL:       slide.ImageURL,
				Opacity:   s.CoverImageOpacity,
				BlurSigma: s.CoverImageBlur,
			},
			// 下端は透明、上端に向かって暗くなるのだ
			GradientLayer{
				X0: 0, Y0: 1,
				X1: 0, Y1: 0,
				Stops: []GradientStop{
					{Offset: 0, Color: s.CoverOverlayBottom},
					{Offset: 1, Color: s.CoverOverlayTop},
				},
			},
			TextLayer{
				Text:        slide.Title,
				Weight:      FontWeightBold,
				FontSize:    s.CoverTitleSize,
				MinFontSize: s.CoverTitleMinSize,
				LineSpacing: 1.1,
				Color:       s.CoverTitleColor,
				Shadow:      &shadow,
				Padding:     s.Padding,
			},
		},
	}, nil
}

func (r *Renderer) renderProse(slide domain.SlideContent) *Panel {
	s := r.style
	return &Panel{
		Width:        s.Width,
		Height:       s.Height,
		CornerRadius: s.CornerRadius,
		Background:   s.ProseGradientTo,
		Layers: []Layer{
			// 左上から右下へのグラデーション
			GradientLayer{
				X0: 0, Y0: 0,
				X1: 1, Y1: 1,
				Stops: []GradientStop{
					{Offset: 0, Color: s.ProseGradientFrom},
					{Offset: 1, Color: s.ProseGradientTo},
				},
			},
			TextLayer{
				Text:        slide.Text,
				Weight:      FontWeightMedium,
				FontSize:    s.ProseTextSize,
				MinFontSize: s.ProseTextMinSize,
				LineSpacing: s.LineSpacing,
				Color:       s.ProseTextColor,
				Padding:     s.Padding,
			},
		},
	}
}
