package publisher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shouni/go-carousel-kit/pkg/domain"
)

func TestCarouselPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	p, err := NewCarouselPublisher(NewLocalWriter())
	if err != nil {
		t.Fatalf("初期化失敗なのだ: %v", err)
	}

	slides := domain.BuildSlides("data:image/png;base64,AAAA", "Hello", []string{"A.", "B."})
	artifacts := []*domain.Artifact{
		{Name: "carousel-slide-1.png", MimeType: "image/png", Data: []byte("1")},
		{Name: "carousel-slide-2.png", MimeType: "image/png", Data: []byte("2")},
		nil,
	}

	res, err := p.Publish(ctx, slides, artifacts, Options{OutputDir: dir, WithCaption: true})
	if err != nil {
		t.Fatalf("Publish失敗なのだ: %v", err)
	}

	if len(res.ArtifactPaths) != 2 {
		t.Fatalf("期待値 2, 実際の値 %d", len(res.ArtifactPaths))
	}
	got, err := os.ReadFile(filepath.Join(dir, "carousel-slide-2.png"))
	if err != nil || string(got) != "2" {
		t.Errorf("書き込まれた内容が違うのだ: %q (err=%v)", got, err)
	}

	caption, err := os.ReadFile(res.CaptionPath)
	if err != nil {
		t.Fatalf("キャプションが読めないのだ: %v", err)
	}
	if !strings.HasPrefix(string(caption), "# Hello") || !strings.Contains(string(caption), "## Slide: carousel-slide-3.png\nB.") {
		t.Errorf("キャプションの内容が違うのだ: %s", caption)
	}
}

func TestCarouselPublisher_Errors(t *testing.T) {
	if _, err := NewCarouselPublisher(nil); err == nil {
		t.Error("エラーを期待したのに nil だったのだ")
	}

	p, _ := NewCarouselPublisher(NewLocalWriter())
	if _, err := p.Publish(context.Background(), nil, nil, Options{OutputDir: t.TempDir()}); err == nil {
		t.Error("成果物なしはエラーのはずなのだ")
	}
}

func TestLocalWriter_RejectsRemotePath(t *testing.T) {
	w := NewLocalWriter()
	if err := w.Write(context.Background(), "gs://bucket/x.png", []byte("x"), "image/png"); err == nil {
		t.Error("エラーを期待したのに nil だったのだ")
	}
}
