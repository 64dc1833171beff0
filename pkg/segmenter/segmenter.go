package segmenter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/shouni/go-carousel-kit/pkg/config"
	"github.com/shouni/go-carousel-kit/pkg/prompts"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	// ReasonUnexpectedFormat は応答が文字列の JSON 配列でなかったことを表します。
	ReasonUnexpectedFormat = "unexpected format"
	// ReasonRequestFailed は通信・認証・クォータ・タイムアウトなど、リクエスト自体の失敗を表します。
	ReasonRequestFailed = "request failed"

	chunkDescription = "A chunk of prose for a single carousel slide."
	rateBurst        = 2
)

// SegmentationError は本文分割の失敗を表すのだ。
// 根本原因はログにだけ出力し、呼び出し側には Reason のみを返します。
type SegmentationError struct {
	Reason string
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("Gemini API による本文の分割に失敗しました: %s", e.Reason)
}

// ContentGenerator は Gemini のコンテンツ生成 API の契約です。
// *genai.Models がこれを満たします。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ProseSegmenter は本文をスライド単位のチャンクに分割する契約です。
type ProseSegmenter interface {
	Segment(ctx context.Context, prose string) ([]string, error)
}

// Segmenter は Gemini を使って本文をチャンクに分割します。
type Segmenter struct {
	cfg           config.Config
	generator     ContentGenerator
	promptBuilder prompts.PromptBuilder
	limiter       *rate.Limiter
	cache         *cache.Cache
	group         singleflight.Group
}

// New は設定と生成クライアントから Segmenter を初期化します。
// API キーが空の場合は構築自体を失敗させるのだ。
func New(cfg config.Config, gen ContentGenerator) (*Segmenter, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GeminiAPIKey は必須です")
	}
	if gen == nil {
		return nil, errors.New("ContentGenerator は必須です")
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = config.DefaultGeminiModel
	}

	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("TextPromptBuilder の新規作成に失敗しました: %w", err)
	}

	s := &Segmenter{
		cfg:           cfg,
		generator:     gen,
		promptBuilder: pb,
	}
	if cfg.RateInterval > 0 {
		s.limiter = rate.NewLimiter(rate.Every(cfg.RateInterval), rateBurst)
	}
	if cfg.CacheTTL > 0 {
		s.cache = cache.New(cfg.CacheTTL, cfg.CacheTTL*2)
	}
	return s, nil
}

// NewGeminiSegmenter は Gemini API クライアントを生成し、それを使う Segmenter を返します。
func NewGeminiSegmenter(ctx context.Context, cfg config.Config) (*Segmenter, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GeminiAPIKey は必須です")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return New(cfg, client.Models)
}

// Segment は本文をチャンクの順序付きリストに分割します。
// 同じ本文への同時リクエストは1回の API 呼び出しにまとめ、結果は CacheTTL の間再利用するのだ。
func (s *Segmenter) Segment(ctx context.Context, prose string) ([]string, error) {
	key := s.cacheKey(prose)
	if chunks, ok := s.cached(key); ok {
		slog.Debug("Segmenter: キャッシュヒット", "key", key[:12])
		return chunks, nil
	}

	// API 呼び出しは呼び出し元のキャンセルから切り離すのだ。
	// 各呼び出し元は自分の ctx でだけ待ちを打ち切ります。
	callCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		if chunks, ok := s.cached(key); ok {
			return chunks, nil
		}
		chunks, err := s.request(callCtx, prose)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.Set(key, chunks, cache.DefaultExpiration)
		}
		return chunks, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		slog.Warn("Segmenter: 呼び出し元がキャンセルされました", "error", ctx.Err())
		return nil, &SegmentationError{Reason: ReasonRequestFailed}
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	val, shared := res.Val, res.Shared

	chunks, ok := val.([]string)
	if !ok {
		slog.Error("Segmenter: singleflight から想定外の型が返されました", "type", fmt.Sprintf("%T", val))
		return nil, &SegmentationError{Reason: ReasonUnexpectedFormat}
	}
	if shared {
		slog.Debug("Segmenter: 同時リクエストの結果を共有したのだ", "chunks", len(chunks))
	}
	return append([]string(nil), chunks...), nil
}

func (s *Segmenter) cached(key string) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	chunks, ok := v.([]string)
	if !ok {
		return nil, false
	}
	return append([]string(nil), chunks...), true
}

func (s *Segmenter) request(ctx context.Context, prose string) ([]string, error) {
	finalPrompt, err := s.promptBuilder.Build(prompts.ModeSegment, prompts.TemplateData{
		InputText:     prose,
		MaxChunkChars: s.cfg.MaxChunkChars,
	})
	if err != nil {
		slog.Error("Segmenter: プロンプト生成に失敗しました", "error", err)
		return nil, &SegmentationError{Reason: ReasonRequestFailed}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			slog.Error("Segmenter: レートリミッターの待機中にエラーが発生しました", "error", err)
			return nil, &SegmentationError{Reason: ReasonRequestFailed}
		}
	}

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	slog.Info("Segmenter: Calling Gemini API", "model", s.cfg.GeminiModel, "prose_len", len(prose))
	resp, err := s.generator.GenerateContent(ctx, s.cfg.GeminiModel, genai.Text(finalPrompt), s.generateConfig())
	if err != nil {
		slog.Error("Error calling Gemini API", "model", s.cfg.GeminiModel, "error", err)
		return nil, &SegmentationError{Reason: ReasonRequestFailed}
	}
	if resp == nil {
		slog.Error("Error calling Gemini API", "model", s.cfg.GeminiModel, "error", "empty response")
		return nil, &SegmentationError{Reason: ReasonRequestFailed}
	}

	raw := resp.Text()
	chunks, err := ParseChunks(raw)
	if err != nil {
		slog.Error("Segmenter: AIの応答が想定外の形式です",
			"error", err,
			"response", truncateString(raw, 200))
		return nil, &SegmentationError{Reason: ReasonUnexpectedFormat}
	}

	slog.Info("Segmenter: 本文の分割が完了したのだ", "chunks", len(chunks), "elapsed", time.Since(start))
	return chunks, nil
}

func (s *Segmenter) generateConfig() *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type:        genai.TypeString,
				Description: chunkDescription,
			},
		},
	}
	if s.cfg.Temperature > 0 {
		gc.Temperature = genai.Ptr(s.cfg.Temperature)
	}
	return gc
}

func (s *Segmenter) cacheKey(prose string) string {
	sum := sha256.Sum256([]byte(s.cfg.GeminiModel + "\x00" + prose))
	return hex.EncodeToString(sum[:])
}

// truncateString は maxLen 文字（rune）を超える部分を切り詰めます。
func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
