package carousel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shouni/go-carousel-kit/pkg/archive"
	"github.com/shouni/go-carousel-kit/pkg/domain"
	"github.com/shouni/go-carousel-kit/pkg/raster"
	"github.com/shouni/go-carousel-kit/pkg/render"

	"github.com/klauspost/compress/zip"
	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// recordingRasterizer は呼び出し順を記録するラスタライザーなのだ。
type recordingRasterizer struct {
	mu      sync.Mutex
	panels  []*render.Panel
	opts    []raster.Options
	failAt  int // この回数目 (0 始まり) で失敗する。-1 なら失敗しない
	block   chan struct{}
	started chan struct{}
}

func newRecordingRasterizer() *recordingRasterizer {
	return &recordingRasterizer{failAt: -1}
}

func (r *recordingRasterizer) Rasterize(ctx context.Context, panel *render.Panel, opts raster.Options) (*imagedom.ImageResponse, error) {
	r.mu.Lock()
	n := len(r.panels)
	r.panels = append(r.panels, panel)
	r.opts = append(r.opts, opts)
	r.mu.Unlock()

	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	if n == r.failAt {
		return nil, errors.New("canvas exploded")
	}
	return &imagedom.ImageResponse{Data: []byte(fmt.Sprintf("png-%d", n)), MimeType: "image/png"}, nil
}

func (r *recordingRasterizer) calls() []*render.Panel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*render.Panel(nil), r.panels...)
}

type failingArchiver struct{}

func (failingArchiver) Build([]archive.Entry) ([]byte, error) {
	return nil, errors.New("disk full")
}

func newTestController(t *testing.T, rz Rasterizer, ab ArchiveBuilder) *Controller {
	t.Helper()
	rd, err := render.NewRenderer(render.DefaultStyle())
	if err != nil {
		t.Fatalf("Renderer の初期化に失敗したのだ: %v", err)
	}
	c, err := NewController(rd, rz, ab)
	if err != nil {
		t.Fatalf("Controller の初期化に失敗したのだ: %v", err)
	}
	return c
}

func sampleSlides(n int) domain.Slides {
	chunks := make([]string, n-1)
	for i := range chunks {
		chunks[i] = fmt.Sprintf("chunk %d", i+1)
	}
	return domain.BuildSlides("data:image/png;base64,AAAA", "Hello", chunks)
}

func TestNewController_RequiresDependencies(t *testing.T) {
	rd, _ := render.NewRenderer(render.DefaultStyle())
	rz := newRecordingRasterizer()
	ab := archive.NewZipBuilder()

	cases := []struct {
		name string
		rd   Renderer
		rz   Rasterizer
		ab   ArchiveBuilder
	}{
		{"Renderer なし", nil, rz, ab},
		{"Rasterizer なし", rd, nil, ab},
		{"ArchiveBuilder なし", rd, rz, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewController(tc.rd, tc.rz, tc.ab); err == nil {
				t.Error("構築時にエラーになるはずなのだ")
			}
		})
	}
}

func TestController_Navigation(t *testing.T) {
	c := newTestController(t, newRecordingRasterizer(), archive.NewZipBuilder())

	t.Run("空のカルーセルでは何も起きないのだ", func(t *testing.T) {
		if c.Next() != 0 || c.Previous() != 0 {
			t.Error("空なのに位置が動いたのだ")
		}
		if c.Counter() != "0 / 0" {
			t.Errorf("期待値 0 / 0, 実際の値 %s", c.Counter())
		}
	})

	if err := c.SetSlides(sampleSlides(4)); err != nil {
		t.Fatalf("SetSlides失敗なのだ: %v", err)
	}

	t.Run("next を枚数回呼ぶと元の位置に戻るのだ", func(t *testing.T) {
		start := c.CurrentIndex()
		for i := 0; i < c.Len(); i++ {
			c.Next()
		}
		if c.CurrentIndex() != start {
			t.Errorf("期待値 %d, 実際の値 %d", start, c.CurrentIndex())
		}
	})

	t.Run("previous を枚数回呼ぶと元の位置に戻るのだ", func(t *testing.T) {
		c.Next()
		start := c.CurrentIndex()
		for i := 0; i < c.Len(); i++ {
			c.Previous()
		}
		if c.CurrentIndex() != start {
			t.Errorf("期待値 %d, 実際の値 %d", start, c.CurrentIndex())
		}
	})

	t.Run("先頭の前は末尾、末尾の次は先頭なのだ", func(t *testing.T) {
		_ = c.SetSlides(sampleSlides(4))
		if got := c.Previous(); got != 3 {
			t.Errorf("期待値 3, 実際の値 %d", got)
		}
		if c.Counter() != "4 / 4" {
			t.Errorf("期待値 4 / 4, 実際の値 %s", c.Counter())
		}
		if got := c.Next(); got != 0 {
			t.Errorf("期待値 0, 実際の値 %d", got)
		}
	})
}

func TestController_SetSlides(t *testing.T) {
	c := newTestController(t, newRecordingRasterizer(), archive.NewZipBuilder())
	if err := c.SetSlides(sampleSlides(3)); err != nil {
		t.Fatalf("SetSlides失敗なのだ: %v", err)
	}
	c.Next()

	t.Run("全スライドのパネルが用意されるのだ", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			if _, err := c.Panel(i); err != nil {
				t.Errorf("index %d のパネルがないのだ: %v", i, err)
			}
		}
		if _, err := c.Panel(3); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("期待値 ErrIndexOutOfRange, 実際の値 %v", err)
		}
	})

	t.Run("不正な一覧では以前の状態が残るのだ", func(t *testing.T) {
		bad := domain.Slides{domain.NewProseSlide("no cover")}
		if err := c.SetSlides(bad); err == nil {
			t.Fatal("エラーを期待したのに nil だったのだ")
		}
		if c.Len() != 3 || c.CurrentIndex() != 1 {
			t.Errorf("状態が変わってしまったのだ: len=%d index=%d", c.Len(), c.CurrentIndex())
		}
	})

	t.Run("描画に失敗する一覧でも以前の状態が残るのだ", func(t *testing.T) {
		bad := domain.Slides{domain.NewCoverSlide("", "No image")}
		if err := c.SetSlides(bad); err == nil {
			t.Fatal("エラーを期待したのに nil だったのだ")
		}
		if c.Len() != 3 {
			t.Errorf("期待値 3, 実際の値 %d", c.Len())
		}
	})

	t.Run("新しい一覧で先頭に戻り、パネルも差し替わるのだ", func(t *testing.T) {
		if err := c.SetSlides(sampleSlides(2)); err != nil {
			t.Fatalf("SetSlides失敗なのだ: %v", err)
		}
		if c.CurrentIndex() != 0 || c.Counter() != "1 / 2" {
			t.Errorf("期待値 1 / 2, 実際の値 %s", c.Counter())
		}
		if _, err := c.Panel(2); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("古いパネルが残っているのだ: %v", err)
		}
	})

	t.Run("返されたスライド一覧を書き換えても内部状態は変わらないのだ", func(t *testing.T) {
		s := c.Slides()
		s[0].Title = "changed"
		if cur, _ := c.Current(); cur.Title != "Hello" {
			t.Errorf("期待値 Hello, 実際の値 %s", cur.Title)
		}
	})
}

func TestController_ExportCurrent(t *testing.T) {
	ctx := context.Background()

	t.Run("表示中のスライドを carousel-slide-<n>.png として書き出すのだ", func(t *testing.T) {
		rz := newRecordingRasterizer()
		c := newTestController(t, rz, archive.NewZipBuilder())
		_ = c.SetSlides(sampleSlides(3))
		c.Next()

		art, err := c.ExportCurrent(ctx)
		if err != nil {
			t.Fatalf("ExportCurrent失敗なのだ: %v", err)
		}
		if art.Name != "carousel-slide-2.png" || art.MimeType != "image/png" {
			t.Errorf("期待値 carousel-slide-2.png, 実際の値 %+v", art)
		}
		want, _ := c.Panel(1)
		if calls := rz.calls(); len(calls) != 1 || calls[0] != want {
			t.Errorf("表示中のパネルがラスタライズされていないのだ")
		}
		if rz.opts[0] != raster.ExportOptions() {
			t.Errorf("書き出し設定が違うのだ: %+v", rz.opts[0])
		}
	})

	t.Run("空のカルーセルは ErrEmpty なのだ", func(t *testing.T) {
		c := newTestController(t, newRecordingRasterizer(), archive.NewZipBuilder())
		if _, err := c.ExportCurrent(ctx); !errors.Is(err, ErrEmpty) {
			t.Errorf("期待値 ErrEmpty, 実際の値 %v", err)
		}
	})

	t.Run("ラスタライズ失敗は ExportError になり、フラグは戻るのだ", func(t *testing.T) {
		rz := newRecordingRasterizer()
		rz.failAt = 0
		c := newTestController(t, rz, archive.NewZipBuilder())
		_ = c.SetSlides(sampleSlides(2))

		_, err := c.ExportCurrent(ctx)
		var exportErr *ExportError
		if !errors.As(err, &exportErr) || exportErr.Op != OpExportCurrent || exportErr.Index != 0 {
			t.Fatalf("期待値 ExportError, 実際の値 %v", err)
		}
		if c.Exporting() {
			t.Error("失敗後も書き出し中フラグが残っているのだ")
		}
	})
}

func TestController_ExportAll(t *testing.T) {
	ctx := context.Background()

	t.Run("N 枚のスライドが順番どおりに slide-1..N.png として格納されるのだ", func(t *testing.T) {
		rz := newRecordingRasterizer()
		c := newTestController(t, rz, archive.NewZipBuilder())
		_ = c.SetSlides(sampleSlides(4))
		c.Next()
		c.Next()

		art, err := c.ExportAll(ctx)
		if err != nil {
			t.Fatalf("ExportAll失敗なのだ: %v", err)
		}
		if art.Name != "carousel-slides.zip" || art.MimeType != "application/zip" {
			t.Errorf("期待値 carousel-slides.zip, 実際の値 %s (%s)", art.Name, art.MimeType)
		}

		calls := rz.calls()
		if len(calls) != 4 {
			t.Fatalf("期待値 4回, 実際の値 %d回", len(calls))
		}
		for i, p := range calls {
			want, _ := c.Panel(i)
			if p != want {
				t.Errorf("%d 回目のラスタライズが index %d のパネルではないのだ", i+1, i)
			}
		}

		zr, err := zip.NewReader(bytes.NewReader(art.Data), int64(len(art.Data)))
		if err != nil {
			t.Fatalf("ZIP の読み込みに失敗したのだ: %v", err)
		}
		if len(zr.File) != 4 {
			t.Fatalf("期待値 4, 実際の値 %d", len(zr.File))
		}
		for i, f := range zr.File {
			if want := fmt.Sprintf("slide-%d.png", i+1); f.Name != want {
				t.Errorf("期待値 %s, 実際の値 %s", want, f.Name)
			}
		}
		if c.Exporting() {
			t.Error("成功後も書き出し中フラグが残っているのだ")
		}
	})

	t.Run("途中で失敗したらアーカイブは作らずに中断するのだ", func(t *testing.T) {
		rz := newRecordingRasterizer()
		rz.failAt = 1
		c := newTestController(t, rz, archive.NewZipBuilder())
		_ = c.SetSlides(sampleSlides(4))

		art, err := c.ExportAll(ctx)
		if art != nil {
			t.Error("失敗時に成果物が返されたのだ")
		}
		var exportErr *ExportError
		if !errors.As(err, &exportErr) || exportErr.Index != 1 {
			t.Fatalf("期待値 index 1 の ExportError, 実際の値 %v", err)
		}
		if n := len(rz.calls()); n != 2 {
			t.Errorf("失敗したスライドの後はラスタライズしないはずなのだ: %d回", n)
		}
		if c.Exporting() {
			t.Error("失敗後も書き出し中フラグが残っているのだ")
		}
	})

	t.Run("アーカイブ作成の失敗も ExportError なのだ", func(t *testing.T) {
		c := newTestController(t, newRecordingRasterizer(), failingArchiver{})
		_ = c.SetSlides(sampleSlides(2))

		_, err := c.ExportAll(ctx)
		var exportErr *ExportError
		if !errors.As(err, &exportErr) || exportErr.Index != -1 {
			t.Fatalf("期待値 index -1 の ExportError, 実際の値 %v", err)
		}
		if c.Exporting() {
			t.Error("失敗後も書き出し中フラグが残っているのだ")
		}
	})

	t.Run("書き出し中は次の書き出しを受け付けないのだ", func(t *testing.T) {
		rz := newRecordingRasterizer()
		rz.block = make(chan struct{})
		rz.started = make(chan struct{}, 8)
		c := newTestController(t, rz, archive.NewZipBuilder())
		_ = c.SetSlides(sampleSlides(2))

		done := make(chan error, 1)
		go func() {
			_, err := c.ExportAll(ctx)
			done <- err
		}()

		select {
		case <-rz.started:
		case <-time.After(time.Second):
			t.Fatal("書き出しが始まらないのだ")
		}

		if !c.Exporting() {
			t.Error("書き出し中フラグが立っていないのだ")
		}
		if _, err := c.ExportAll(ctx); !errors.Is(err, ErrBusy) {
			t.Errorf("期待値 ErrBusy, 実際の値 %v", err)
		}
		if _, err := c.ExportCurrent(ctx); !errors.Is(err, ErrBusy) {
			t.Errorf("期待値 ErrBusy, 実際の値 %v", err)
		}

		close(rz.block)
		if err := <-done; err != nil {
			t.Errorf("ExportAll失敗なのだ: %v", err)
		}
		if c.Exporting() {
			t.Error("完了後も書き出し中フラグが残っているのだ")
		}
	})
}

func TestController_Preview(t *testing.T) {
	rz := newRecordingRasterizer()
	c := newTestController(t, rz, archive.NewZipBuilder())
	_ = c.SetSlides(sampleSlides(2))

	art, err := c.Preview(context.Background(), 1)
	if err != nil {
		t.Fatalf("Preview失敗なのだ: %v", err)
	}
	if art.MimeType != "image/png" {
		t.Errorf("期待値 image/png, 実際の値 %s", art.MimeType)
	}
	if rz.opts[0].Scale != 1 {
		t.Errorf("プレビューは等倍のはずなのだ: %+v", rz.opts[0])
	}
	if _, err := c.Preview(context.Background(), 5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("期待値 ErrIndexOutOfRange, 実際の値 %v", err)
	}
}
