package render

import (
	"image/color"
	"reflect"
	"testing"

	"github.com/shouni/go-carousel-kit/pkg/domain"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(DefaultStyle())
	if err != nil {
		t.Fatalf("Renderer の初期化に失敗したのだ: %v", err)
	}
	return r
}

func TestRenderer_Render_Cover(t *testing.T) {
	r := newTestRenderer(t)
	panel, err := r.Render(domain.NewCoverSlide("data:image/png;base64,AAAA", "Hello"))
	if err != nil {
		t.Fatalf("Render失敗なのだ: %v", err)
	}

	t.Run("4:5 の縦長パネルなのだ", func(t *testing.T) {
		if panel.Width*5 != panel.Height*4 {
			t.Errorf("期待値 4:5, 実際の値 %vx%v", panel.Width, panel.Height)
		}
	})

	t.Run("画像、グラデーション、タイトルの順に重なるのだ", func(t *testing.T) {
		if len(panel.Layers) != 3 {
			t.Fatalf("期待値 3, 実際の値 %d", len(panel.Layers))
		}
		img, ok := panel.Layers[0].(ImageLayer)
		if !ok {
			t.Fatalf("最下層が画像ではないのだ: %T", panel.Layers[0])
		}
		if img.Opacity != 0.4 || img.BlurSigma <= 0 {
			t.Errorf("背景画像は不透明度40%%でぼかし付きのはずなのだ: %+v", img)
		}

		grad, ok := panel.Layers[1].(GradientLayer)
		if !ok {
			t.Fatalf("2層目がグラデーションではないのだ: %T", panel.Layers[1])
		}
		if grad.Y0 != 1 || grad.Y1 != 0 {
			t.Errorf("グラデーションは下から上に向かうのだ: %+v", grad)
		}
		_, _, _, a0 := grad.Stops[0].Color.RGBA()
		_, _, _, a1 := grad.Stops[len(grad.Stops)-1].Color.RGBA()
		if a0 != 0 || a1 == 0 {
			t.Errorf("下端は透明、上端は暗いはずなのだ: a0=%d a1=%d", a0, a1)
		}

		title, ok := panel.Layers[2].(TextLayer)
		if !ok {
			t.Fatalf("最上層がテキストではないのだ: %T", panel.Layers[2])
		}
		if title.Text != "Hello" || title.Weight != FontWeightBold || title.Shadow == nil {
			t.Errorf("タイトルは太字でシャドウ付きのはずなのだ: %+v", title)
		}
	})
}

func TestRenderer_Render_Prose(t *testing.T) {
	r := newTestRenderer(t)
	panel, err := r.Render(domain.NewProseSlide("Some text."))
	if err != nil {
		t.Fatalf("Render失敗なのだ: %v", err)
	}

	grad := panel.Layers[0].(GradientLayer)
	if grad.X0 != 0 || grad.Y0 != 0 || grad.X1 != 1 || grad.Y1 != 1 {
		t.Errorf("左上から右下へのグラデーションのはずなのだ: %+v", grad)
	}
	want := color.NRGBA{R: 0x1e, G: 0x29, B: 0x3b, A: 0xff}
	if grad.Stops[0].Color != want {
		t.Errorf("期待値 %v, 実際の値 %v", want, grad.Stops[0].Color)
	}

	text := panel.Layers[1].(TextLayer)
	if text.Text != "Some text." || text.Weight != FontWeightMedium {
		t.Errorf("本文は中太のはずなのだ: %+v", text)
	}
}

func TestRenderer_Render_Errors(t *testing.T) {
	r := newTestRenderer(t)

	t.Run("画像のない表紙はエラーなのだ", func(t *testing.T) {
		if _, err := r.Render(domain.NewCoverSlide("", "T")); err == nil {
			t.Error("エラーを期待したのに nil だったのだ")
		}
	})

	t.Run("不明な種別はエラーなのだ", func(t *testing.T) {
		if _, err := r.Render(domain.SlideContent{Kind: "video"}); err == nil {
			t.Error("エラーを期待したのに nil だったのだ")
		}
	})
}

func TestRenderer_Render_Pure(t *testing.T) {
	r := newTestRenderer(t)
	slide := domain.NewProseSlide("same")
	a, _ := r.Render(slide)
	b, _ := r.Render(slide)
	if !reflect.DeepEqual(a, b) {
		t.Error("同じ入力から同じパネルが得られないのだ")
	}
}

func TestNewRenderer_InvalidSize(t *testing.T) {
	style := DefaultStyle()
	style.Height = 0
	if _, err := NewRenderer(style); err == nil {
		t.Error("エラーを期待したのに nil だったのだ")
	}
}
