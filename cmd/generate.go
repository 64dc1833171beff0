package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shouni/go-carousel-kit/internal/config"
	"github.com/shouni/go-carousel-kit/pkg/domain"
	"github.com/shouni/go-carousel-kit/pkg/publisher"
	"github.com/shouni/go-carousel-kit/pkg/workflow"

	"github.com/spf13/cobra"
)

var opts config.GenerateOptions

// generateCmd は、画面を使わずにカルーセル画像を生成してディスクに保存するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "カルーセル画像を生成して保存するのだ。",
	Long: `表紙画像・タイトル・本文からスライドを生成し、PNG（または ZIP）として書き出すのだ。
本文は --prose-file で指定し、'-' なら標準入力から読み込むのだよ。`,
	RunE: generateCommand,
}

func init() {
	generateCmd.Flags().StringVar(&opts.ImageFile, "image", "", "表紙に使う画像ファイルのパスなのだ。")
	generateCmd.Flags().StringVar(&opts.ImageURL, "image-url", "", "表紙に使う画像の URL なのだ（--image と排他）。")
	generateCmd.Flags().StringVarP(&opts.Title, "title", "t", "", "表紙のタイトルなのだ。")
	generateCmd.Flags().StringVarP(&opts.ProseFile, "prose-file", "f", "", "本文ファイルのパス（'-'で標準入力なのだ）。")
	generateCmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "スライドを保存するディレクトリなのだ。")
	generateCmd.Flags().BoolVar(&opts.Zip, "zip", false, "個別の PNG ではなく ZIP にまとめて保存するのだ。")
	generateCmd.Flags().BoolVar(&opts.Caption, "caption", false, "本文をまとめた Markdown も保存するのだ。")
	generateCmd.MarkFlagsMutuallyExclusive("image", "image-url")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 入力の読み込み
	in, err := readGenerateInput(cmd.InOrStdin(), opts)
	if err != nil {
		return err
	}

	manager, err := workflow.New(ctx, workflow.ManagerArgs{Config: cfg.Kit})
	if err != nil {
		return fmt.Errorf("ワークフローの初期化に失敗しました: %w", err)
	}

	slog.Info("カルーセル生成を開始するのだ！",
		"model", cfg.Kit.GeminiModel,
		"title", opts.Title,
		"output_dir", opts.OutputDir,
		"zip", opts.Zip)

	// 2. スライドの生成
	sess, err := manager.Generate(ctx, in)
	if err != nil {
		if sess != nil && sess.Shell.Status().Error != "" {
			return fmt.Errorf("%s: %w", sess.Shell.Status().Error, err)
		}
		return fmt.Errorf("スライドの生成に失敗しました: %w", err)
	}

	// 3. 書き出し
	artifacts, err := exportSession(ctx, sess, opts.Zip)
	if err != nil {
		return err
	}

	pub, err := publisher.NewCarouselPublisher(publisher.NewLocalWriter())
	if err != nil {
		return err
	}
	result, err := pub.Publish(ctx, sess.Controller.Slides(), artifacts, publisher.Options{
		OutputDir:   opts.OutputDir,
		WithCaption: opts.Caption,
	})
	if err != nil {
		return fmt.Errorf("成果物の保存に失敗しました: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！",
		"slides", sess.Controller.Len(),
		"files", result.ArtifactPaths,
		"caption", result.CaptionPath)
	return nil
}

// readGenerateInput はフラグで指定された画像と本文を読み込みます。
func readGenerateInput(stdin io.Reader, o config.GenerateOptions) (workflow.GenerateInput, error) {
	in := workflow.GenerateInput{Title: o.Title, ImageURL: o.ImageURL}

	if o.ImageFile != "" {
		data, err := os.ReadFile(o.ImageFile)
		if err != nil {
			return in, fmt.Errorf("画像ファイルの読み込みに失敗しました: %w", err)
		}
		in.ImageData = data
	}

	switch o.ProseFile {
	case "":
		return in, fmt.Errorf("本文（--prose-file）を指定してほしいのだ")
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return in, fmt.Errorf("標準入力の読み込みに失敗しました: %w", err)
		}
		in.Prose = string(data)
	default:
		data, err := os.ReadFile(o.ProseFile)
		if err != nil {
			return in, fmt.Errorf("本文ファイルの読み込みに失敗しました: %w", err)
		}
		in.Prose = string(data)
	}
	return in, nil
}

// exportSession は生成済みのスライドを書き出し用の成果物に変換するのだ。
// asZip が false の場合は先頭から順に1枚ずつ PNG にします。
func exportSession(ctx context.Context, sess *workflow.Session, asZip bool) ([]*domain.Artifact, error) {
	if asZip {
		art, err := sess.Shell.ExportAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("ZIP の作成に失敗しました: %w", err)
		}
		return []*domain.Artifact{art}, nil
	}

	n := sess.Controller.Len()
	artifacts := make([]*domain.Artifact, 0, n)
	for i := 0; i < n; i++ {
		art, err := sess.Shell.ExportCurrent(ctx)
		if err != nil {
			return nil, fmt.Errorf("スライド %d の書き出しに失敗しました: %w", i+1, err)
		}
		artifacts = append(artifacts, art)
		sess.Controller.Next()
	}
	return artifacts, nil
}
