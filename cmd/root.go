package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/go-carousel-kit/internal/config"

	"github.com/spf13/cobra"
)

const appName = "carousel-kit"

// cfg は環境変数から読み込んだ設定で、各サブコマンドから参照するのだ。
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "文章と表紙画像から Instagram 用のカルーセル画像を作るのだ。",
	Long: `タイトルと表紙画像、本文を受け取り、Gemini で本文をスライド単位に分割して
1080x1350 の PNG スライドを生成するのだ。Web 画面（serve）とコマンドライン（generate）の両方で使えるのだよ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// preRunAppE は、コマンド実行前に設定の読み込みと必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	cfg = config.LoadConfig()
	setupLogger(cfg.SlogLevel())

	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	return cfg.Validate()
}

// setupLogger は標準エラーに出力するデフォルトの slog ロガーを設定します。
func setupLogger(level slog.Level) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// SIGINT / SIGTERM を受け取るとコンテキストがキャンセルされるのだよ。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.AddCommand(serveCmd, generateCmd)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("コマンドの実行に失敗しました", "error", err)
		stop()
		os.Exit(1)
	}
}
