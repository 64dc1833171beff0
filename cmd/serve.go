package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/go-carousel-kit/internal/server"
	"github.com/shouni/go-carousel-kit/pkg/workflow"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveAddr string

// serveCmd は、ブラウザから使うカルーセル生成画面を起動するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Web 画面を起動するのだ。",
	RunE:  serveCommand,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "待ち受けアドレスなのだ（未指定なら SERVER_ADDR）。")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	manager, err := workflow.New(ctx, workflow.ManagerArgs{Config: cfg.Kit})
	if err != nil {
		return fmt.Errorf("ワークフローの初期化に失敗しました: %w", err)
	}
	srv, err := server.New(manager, cfg.Server)
	if err != nil {
		return fmt.Errorf("サーバーの初期化に失敗しました: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("HTTPサーバーを起動するのだ！", "addr", cfg.Server.Addr, "model", cfg.Kit.GeminiModel)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTPサーバーが異常終了しました: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("HTTPサーバーを停止します", "wait", cfg.Server.ShutdownWait)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownWait)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			_ = httpServer.Close()
			return fmt.Errorf("HTTPサーバーの停止に失敗しました: %w", err)
		}
		return nil
	})

	return g.Wait()
}
