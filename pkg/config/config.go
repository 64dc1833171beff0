package config

import (
	"time"
)

// デフォルト値の定義
const (
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultTemperature    = float32(0.2)
	DefaultRateInterval   = 2 * time.Second
	DefaultRequestTimeout = 60 * time.Second
	DefaultCacheTTL       = 30 * time.Minute
	DefaultMaxChunkChars  = 280
)

// Config は Go Carousel Kit の各コンポーネントを動作させるための基本設定です。
type Config struct {
	// --- Google AI (Gemini API) Settings ---
	GeminiAPIKey string
	GeminiModel  string
	Temperature  float32

	// --- Segmentation Settings ---
	MaxChunkChars int
	RateInterval  time.Duration // 0 ならレート制限なし
	CacheTTL      time.Duration // 0 ならキャッシュなし

	// --- Timeout ---
	RequestTimeout time.Duration
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		GeminiModel:    DefaultGeminiModel,
		Temperature:    DefaultTemperature,
		MaxChunkChars:  DefaultMaxChunkChars,
		RateInterval:   DefaultRateInterval,
		CacheTTL:       DefaultCacheTTL,
		RequestTimeout: DefaultRequestTimeout,
	}
}
