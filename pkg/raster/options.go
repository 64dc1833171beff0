package raster

import "image/color"

// Options はラスタライズの挙動を制御します。
type Options struct {
	// Scale は論理ピクセルに対する出力ピクセル密度です。
	Scale float64
	// Transparent が true の場合、角丸の外側は透明のまま残すのだ。
	Transparent bool
	// Backing は Transparent が false の場合に下地として塗る色です。
	Backing color.Color
	// AllowCrossOrigin が true の場合のみ http(s) の画像を取得します。
	AllowCrossOrigin bool
}

// ExportOptions はダウンロード用の書き出し設定（2倍密度、透明な下地、外部画像の取得許可）を返します。
func ExportOptions() Options {
	return Options{
		Scale:            2,
		Transparent:      true,
		AllowCrossOrigin: true,
	}
}

// PreviewOptions はプレビュー表示用の等倍設定を返します。
func PreviewOptions() Options {
	return Options{
		Scale:            1,
		Transparent:      true,
		AllowCrossOrigin: true,
	}
}

func (o Options) normalized() Options {
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Backing == nil {
		o.Backing = color.White
	}
	return o
}
