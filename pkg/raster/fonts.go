package raster

import (
	"fmt"
	"sync"

	"github.com/shouni/go-carousel-kit/pkg/render"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/opentype"
)

var (
	fontsOnce sync.Once
	fontsErr  error
	boldFont  *opentype.Font
	medFont   *opentype.Font
)

func loadFonts() error {
	fontsOnce.Do(func() {
		boldFont, fontsErr = opentype.Parse(gobold.TTF)
		if fontsErr != nil {
			fontsErr = fmt.Errorf("太字フォントの解析に失敗しました: %w", fontsErr)
			return
		}
		medFont, fontsErr = opentype.Parse(gomedium.TTF)
		if fontsErr != nil {
			fontsErr = fmt.Errorf("中太フォントの解析に失敗しました: %w", fontsErr)
		}
	})
	return fontsErr
}

// newFace は指定ウェイト・サイズ（出力ピクセル）のフォントフェイスを生成します。
// font.Face は並行利用できないので、ラスタライズごとに生成するのだ。
func newFace(weight render.FontWeight, size float64) (font.Face, error) {
	if err := loadFonts(); err != nil {
		return nil, err
	}
	f := medFont
	if weight == render.FontWeightBold {
		f = boldFont
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("フォントフェイスの生成に失敗しました: %w", err)
	}
	return face, nil
}
