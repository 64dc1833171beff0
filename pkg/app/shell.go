package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shouni/go-carousel-kit/pkg/carousel"
	"github.com/shouni/go-carousel-kit/pkg/domain"

	"github.com/gabriel-vasile/mimetype"
	"github.com/vincent-petithory/dataurl"
)

// 画面に表示するメッセージ
const (
	MsgMissingInput      = "Please provide a cover image, title, and prose."
	MsgGenerationFailed  = "Failed to generate carousel slides. Please check your API key and try again."
	MsgDownloadFailed    = "Could not download image. See the server log for details."
	MsgArchiveFailed     = "Could not build the slide archive. See the server log for details."
	MsgUnsupportedUpload = "Please choose a PNG, JPG, GIF or WebP image."
)

// ErrBusy は生成リクエストが処理中のため再送信を受け付けられないことを表します。
var ErrBusy = errors.New("カルーセルを生成中です")

// InputValidationError は生成に必要な入力が揃っていないことを表すのだ。
type InputValidationError struct {
	Message string
}

func (e *InputValidationError) Error() string {
	return e.Message
}

// Segmenter は本文をチャンクに分割する契約です。
type Segmenter interface {
	Segment(ctx context.Context, prose string) ([]string, error)
}

// Carousel は Shell が生成結果を渡し、書き出しを依頼する先の契約です。
type Carousel interface {
	SetSlides(slides domain.Slides) error
	Slides() domain.Slides
	Counter() string
	ExportCurrent(ctx context.Context) (*domain.Artifact, error)
	ExportAll(ctx context.Context) (*domain.Artifact, error)
}

// Status は画面に表示する状態です。
type Status struct {
	Generating      bool
	Error           string
	ScrollToResults bool
}

// Shell は入力の受け付け、生成、書き出しをまとめる画面単位の状態なのだ。
type Shell struct {
	segmenter Segmenter
	carousel  Carousel

	mu       sync.Mutex
	imageURL string
	title    string
	prose    string
	status   Status
}

// NewShell は Shell を生成します。
func NewShell(seg Segmenter, c Carousel) (*Shell, error) {
	if seg == nil {
		return nil, errors.New("Segmenter は必須です")
	}
	if c == nil {
		return nil, errors.New("Carousel は必須です")
	}
	return &Shell{segmenter: seg, carousel: c}, nil
}

// SetImage は画像ファイルの中身を受け取り、data URL として保持します。
// 画像以外のファイルはエラーにするのだ。
func (s *Shell) SetImage(data []byte) error {
	if len(data) == 0 {
		return &InputValidationError{Message: MsgMissingInput}
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		slog.Warn("画像ではないファイルがアップロードされました", "mime", mt.String())
		s.setError(MsgUnsupportedUpload)
		return &InputValidationError{Message: MsgUnsupportedUpload}
	}

	url := dataurl.New(data, mt.String()).String()
	s.mu.Lock()
	s.imageURL = url
	s.mu.Unlock()
	return nil
}

// SetImageURL は既に解決済みの画像 URL（data URL や http URL）を保持します。
func (s *Shell) SetImageURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imageURL = url
}

// SetTitle はタイトルを保持します。
func (s *Shell) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
}

// SetProse は本文を保持します。
func (s *Shell) SetProse(prose string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prose = prose
}

// ImageURL は保持している画像 URL を返します。
func (s *Shell) ImageURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imageURL
}

// Title は保持しているタイトルを返します。
func (s *Shell) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// Prose は保持している本文を返します。
func (s *Shell) Prose() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prose
}

// Status は現在の表示状態を返します。
func (s *Shell) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Carousel は生成結果を保持しているカルーセルを返します。
func (s *Shell) Carousel() Carousel {
	return s.carousel
}

// Generate は入力を検証し、本文を分割してカルーセルを作り直します。
// 失敗した場合、以前のスライドはそのまま残るのだ。
func (s *Shell) Generate(ctx context.Context) error {
	s.mu.Lock()
	if s.status.Generating {
		s.mu.Unlock()
		return ErrBusy
	}
	imageURL, title, prose := s.imageURL, s.title, s.prose
	if imageURL == "" || strings.TrimSpace(title) == "" || strings.TrimSpace(prose) == "" {
		s.status.Error = MsgMissingInput
		s.status.ScrollToResults = false
		s.mu.Unlock()
		return &InputValidationError{Message: MsgMissingInput}
	}
	s.status = Status{Generating: true}
	s.mu.Unlock()

	err := s.generate(ctx, imageURL, title, prose)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Generating = false
	if err != nil {
		slog.Error("カルーセルの生成に失敗しました", "error", err)
		s.status.Error = MsgGenerationFailed
		return err
	}
	s.status.ScrollToResults = true
	return nil
}

func (s *Shell) generate(ctx context.Context, imageURL, title, prose string) error {
	chunks, err := s.segmenter.Segment(ctx, prose)
	if err != nil {
		return err
	}

	slides := domain.BuildSlides(imageURL, title, chunks)
	if err := s.carousel.SetSlides(slides); err != nil {
		return fmt.Errorf("スライドの設定に失敗しました: %w", err)
	}

	slog.Info("カルーセルを生成したのだ", "slides", len(slides), "title", title)
	return nil
}

// ExportCurrent は表示中のスライドを書き出します。
// ラスタライズ等の失敗時は画面用のメッセージを Status に設定するのだ。
func (s *Shell) ExportCurrent(ctx context.Context) (*domain.Artifact, error) {
	art, err := s.carousel.ExportCurrent(ctx)
	if err != nil {
		s.reportExportError(err, MsgDownloadFailed)
		return nil, err
	}
	s.clearExportError()
	return art, nil
}

// ExportAll は全スライドをアーカイブとして書き出します。
func (s *Shell) ExportAll(ctx context.Context) (*domain.Artifact, error) {
	art, err := s.carousel.ExportAll(ctx)
	if err != nil {
		s.reportExportError(err, MsgArchiveFailed)
		return nil, err
	}
	s.clearExportError()
	return art, nil
}

// ClearError は表示中のエラーメッセージを消します。
func (s *Shell) ClearError() {
	s.setError("")
}

// reportExportError は ExportError の場合だけ画面用のメッセージを設定します。
// 書き出し中や空のカルーセルは呼び出し側で扱います。
func (s *Shell) reportExportError(err error, msg string) {
	var exportErr *carousel.ExportError
	if errors.As(err, &exportErr) {
		s.setError(msg)
	}
}

// clearExportError は書き出し成功時に以前の書き出し失敗メッセージだけを消すのだ。
func (s *Shell) clearExportError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Error == MsgDownloadFailed || s.status.Error == MsgArchiveFailed {
		s.status.Error = ""
	}
}

func (s *Shell) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Error = msg
}
