package render

import "image/color"

// Panel はスライド1枚分の描画内容です。
// 論理サイズ（Width x Height）上に Layers を先頭から順に重ねて描きます。
type Panel struct {
	Width        float64
	Height       float64
	CornerRadius float64
	Background   color.Color
	Layers       []Layer
}

// Layer はパネル上の描画レイヤーなのだ。
type Layer interface {
	layer()
}

// ImageLayer はパネル全体を覆う（object-cover）背景画像です。
type ImageLayer struct {
	URL       string
	Opacity   float64 // 0.0 - 1.0
	BlurSigma float64 // 論理ピクセル単位、0 ならぼかしなし
}

// GradientStop はグラデーションの1点です。
type GradientStop struct {
	Offset float64
	Color  color.Color
}

// GradientLayer はパネル全体を塗る線形グラデーションです。
// 始点と終点はパネルに対する相対座標 (0.0 - 1.0) で指定します。
type GradientLayer struct {
	X0, Y0 float64
	X1, Y1 float64
	Stops  []GradientStop
}

// FontWeight は文字の太さです。
type FontWeight int

const (
	FontWeightMedium FontWeight = iota
	FontWeightBold
)

// TextLayer はパネル中央に配置するテキストブロックです。
type TextLayer struct {
	Text        string
	Weight      FontWeight
	FontSize    float64 // 論理ピクセル
	MinFontSize float64 // 収まらない場合に縮小する下限
	LineSpacing float64
	Color       color.Color
	Shadow      *TextShadow
	Padding     float64
}

// TextShadow は文字のドロップシャドウです。
type TextShadow struct {
	OffsetX, OffsetY float64
	Color            color.Color
}

func (ImageLayer) layer()    {}
func (GradientLayer) layer() {}
func (TextLayer) layer()     {}
