package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shouni/go-carousel-kit/pkg/asset"
	kitconfig "github.com/shouni/go-carousel-kit/pkg/config"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultAddr           = ":8080"
	DefaultSessionTTL     = 2 * time.Hour
	DefaultMaxUploadBytes = 10 << 20 // 10MB
	DefaultShutdownWait   = 10 * time.Second
	DefaultLogLevel       = "info"
	DefaultOutputDir      = asset.DefaultOutputDir
)

// Config はアプリケーション全体の環境設定を保持する構造体なのだ。
type Config struct {
	Kit      kitconfig.Config
	LogLevel string
	Server   ServerOptions
}

// ServerOptions は Web サーバーの設定です。
type ServerOptions struct {
	Addr           string
	SessionTTL     time.Duration
	MaxUploadBytes int64
	ShutdownWait   time.Duration
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	ImageFile string // --image
	ImageURL  string // --image-url
	Title     string // --title
	ProseFile string // --prose-file（'-' で標準入力）
	OutputDir string // --output-dir
	Zip       bool   // --zip
	Caption   bool   // --caption
}

// LoadConfig は .env と環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn(".env の読み込みに失敗しました", "error", err)
	}

	kit := kitconfig.DefaultConfig()
	kit.GeminiAPIKey = envutil.GetEnv("GEMINI_API_KEY", "")
	kit.GeminiModel = envutil.GetEnv("GEMINI_MODEL", kitconfig.DefaultGeminiModel)
	kit.Temperature = float32(getFloat("GEMINI_TEMPERATURE", float64(kitconfig.DefaultTemperature)))
	kit.MaxChunkChars = getInt("SEGMENT_MAX_CHARS", kitconfig.DefaultMaxChunkChars)
	kit.RateInterval = getDuration("GEMINI_RATE_INTERVAL", kitconfig.DefaultRateInterval)
	kit.RequestTimeout = getDuration("GEMINI_REQUEST_TIMEOUT", kitconfig.DefaultRequestTimeout)
	kit.CacheTTL = getDuration("SEGMENT_CACHE_TTL", kitconfig.DefaultCacheTTL)

	return &Config{
		Kit:      kit,
		LogLevel: envutil.GetEnv("LOG_LEVEL", DefaultLogLevel),
		Server: ServerOptions{
			Addr:           envutil.GetEnv("SERVER_ADDR", DefaultAddr),
			SessionTTL:     getDuration("SESSION_TTL", DefaultSessionTTL),
			MaxUploadBytes: int64(getInt("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)),
			ShutdownWait:   DefaultShutdownWait,
		},
	}
}

// Validate は起動に必須な設定が揃っているか確認します。
func (c *Config) Validate() error {
	if c.Kit.GeminiAPIKey == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}
	return nil
}

// SlogLevel は LogLevel を slog.Level に変換します。
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("環境変数の値が不正なのでデフォルト値を使います", "key", key, "value", raw, "default", def)
		return def
	}
	return d
}

func getInt(key string, def int) int {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("環境変数の値が不正なのでデフォルト値を使います", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		slog.Warn("環境変数の値が不正なのでデフォルト値を使います", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}
