package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/vincent-petithory/dataurl"
	_ "golang.org/x/image/webp"
)

const (
	defaultFetchTimeout = 30 * time.Second
	maxRemoteImageBytes = 20 << 20
)

// ErrCrossOriginDenied は外部画像の取得が許可されていない場合のエラーです。
var ErrCrossOriginDenied = errors.New("外部オリジンの画像の読み込みは許可されていません")

// ImageLoader は画像 URL をデコード済みの画像に解決する契約です。
type ImageLoader interface {
	Load(ctx context.Context, url string, allowCrossOrigin bool) (image.Image, error)
}

// URLImageLoader は data URL と http(s) URL に対応した ImageLoader です。
type URLImageLoader struct {
	client *http.Client
}

// NewURLImageLoader は URLImageLoader を生成します。client が nil の場合はタイムアウト付きのクライアントを使うのだ。
func NewURLImageLoader(client *http.Client) *URLImageLoader {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &URLImageLoader{client: client}
}

// Load は URL のスキームに応じて画像を取得・デコードします。
func (l *URLImageLoader) Load(ctx context.Context, url string, allowCrossOrigin bool) (image.Image, error) {
	switch {
	case strings.HasPrefix(url, "data:"):
		du, err := dataurl.DecodeString(url)
		if err != nil {
			return nil, fmt.Errorf("data URL のデコードに失敗しました: %w", err)
		}
		return decodeImage(du.Data)
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		if !allowCrossOrigin {
			return nil, ErrCrossOriginDenied
		}
		data, err := l.fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		return decodeImage(data)
	default:
		return nil, fmt.Errorf("対応していない画像URLです: %q", truncate(url, 32))
	}
}

func (l *URLImageLoader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("画像の取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("画像の取得に失敗しました: status=%d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("画像の読み込みに失敗しました: %w", err)
	}
	if len(data) > maxRemoteImageBytes {
		return nil, fmt.Errorf("画像サイズが上限 (%d bytes) を超えています", maxRemoteImageBytes)
	}
	return data, nil
}

func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}
	return img, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
