package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/shouni/go-carousel-kit/pkg/app"
	"github.com/shouni/go-carousel-kit/pkg/carousel"
	"github.com/shouni/go-carousel-kit/pkg/domain"
	"github.com/shouni/go-carousel-kit/pkg/segmenter"
	"github.com/shouni/go-carousel-kit/pkg/workflow"

	"github.com/go-chi/chi/v5"
)

const (
	pageTemplate   = "page.html"
	formFieldImage = "image"
	formFieldTitle = "title"
	formFieldProse = "prose"

	msgUploadTooLarge = "The upload is too large. Please choose an image up to %dMB."
)

// slideView はテンプレートに渡す1スライド分の表示データです。
type slideView struct {
	Index  int
	Kind   domain.SlideKind
	Title  string
	Text   string
	Active bool
}

// pageData はページテンプレートに渡すデータです。
type pageData struct {
	SessionID   string
	Title       string
	Prose       string
	HasImage    bool
	Error       string
	Generating  bool
	Exporting   bool
	Counter     string
	Slides      []slideView
	MaxUploadMB int64
}

// slidesResponse は slides.json のレスポンスです。
type slidesResponse struct {
	ID           string        `json:"id"`
	Counter      string        `json:"counter"`
	CurrentIndex int           `json:"currentIndex"`
	Slides       domain.Slides `json:"slides"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, pageData{MaxUploadMB: s.maxUploadMB()})
}

// handleCreate はフォームの入力から新しいカルーセルを生成するのだ。
// 生成に失敗してもセッションは保存し、同じフォームから入力を直して再送できるようにします。
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, err := s.readForm(w, r)
	if err != nil {
		slog.Warn("フォームの読み込みに失敗しました", "error", err)
		status, msg := s.formError(err)
		s.render(w, status, pageData{Error: msg, MaxUploadMB: s.maxUploadMB()})
		return
	}

	sess, err := s.factory.NewSession()
	if err != nil {
		slog.Error("セッションの作成に失敗しました", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	s.sessions.Put(sess)

	if status, ok := s.generate(r, sess, in); !ok {
		s.render(w, status, s.pageFor(sess))
		return
	}
	http.Redirect(w, r, resultsURL(sess.ID), http.StatusSeeOther)
}

// handleRegenerate は既存のセッションで生成をやり直します。
// 画像が送られてこなかった場合は以前の画像を使い続けるのだ。
func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	in, err := s.readForm(w, r)
	if err != nil {
		slog.Warn("フォームの読み込みに失敗しました", "session", sess.ID, "error", err)
		status, msg := s.formError(err)
		page := s.pageFor(sess)
		page.Error = msg
		s.render(w, status, page)
		return
	}

	if status, ok := s.generate(r, sess, in); !ok {
		s.render(w, status, s.pageFor(sess))
		return
	}
	http.Redirect(w, r, resultsURL(sess.ID), http.StatusSeeOther)
}

// formError はフォーム読み込みエラーをステータスコードと画面用メッセージに変換します。
func (s *Server) formError(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, fmt.Sprintf(msgUploadTooLarge, s.maxUploadMB())
	}
	return http.StatusBadRequest, app.MsgMissingInput
}

func (s *Server) generate(r *http.Request, sess *workflow.Session, in workflow.GenerateInput) (int, bool) {
	if err := workflow.ApplyInput(sess.Shell, in); err != nil {
		return http.StatusBadRequest, false
	}

	err := sess.Shell.Generate(r.Context())
	var vErr *app.InputValidationError
	var segErr *segmenter.SegmentationError
	switch {
	case err == nil:
		return http.StatusSeeOther, true
	case errors.As(err, &vErr):
		return http.StatusBadRequest, false
	case errors.Is(err, app.ErrBusy):
		return http.StatusConflict, false
	case errors.As(err, &segErr):
		return http.StatusBadGateway, false
	default:
		return http.StatusInternalServerError, false
	}
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.render(w, http.StatusOK, s.pageFor(sess))
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Controller.Next()
	http.Redirect(w, r, resultsURL(sess.ID), http.StatusSeeOther)
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Controller.Previous()
	http.Redirect(w, r, resultsURL(sess.ID), http.StatusSeeOther)
}

func (s *Server) handleSlidesJSON(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	resp := slidesResponse{
		ID:           sess.ID,
		Counter:      sess.Controller.Counter(),
		CurrentIndex: sess.Controller.CurrentIndex(),
		Slides:       sess.Controller.Slides(),
	}
	if resp.Slides == nil {
		resp.Slides = domain.Slides{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("JSONの書き込みに失敗しました", "error", err)
	}
}

// handlePreview は 1 始まりの番号で指定されたスライドを等倍の PNG で返します。
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		http.NotFound(w, r)
		return
	}

	art, err := sess.Controller.Preview(r.Context(), n-1)
	if err != nil {
		if errors.Is(err, carousel.ErrIndexOutOfRange) {
			http.NotFound(w, r)
			return
		}
		slog.Error("プレビューの生成に失敗しました", "session", sess.ID, "slide", n, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeArtifact(w, art, false)
}

func (s *Server) handleExportCurrent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	art, err := sess.Shell.ExportCurrent(r.Context())
	s.respondExport(w, r, sess, art, err)
}

func (s *Server) handleExportAll(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	art, err := sess.Shell.ExportAll(r.Context())
	s.respondExport(w, r, sess, art, err)
}

func (s *Server) respondExport(w http.ResponseWriter, r *http.Request, sess *workflow.Session, art *domain.Artifact, err error) {
	switch {
	case err == nil:
		writeArtifact(w, art, true)
	case errors.Is(err, carousel.ErrEmpty):
		http.Error(w, "No slides to download yet.", http.StatusNotFound)
	case errors.Is(err, carousel.ErrBusy):
		http.Error(w, "A download is already in progress.", http.StatusConflict)
	default:
		msg := sess.Shell.Status().Error
		if msg == "" {
			msg = app.MsgDownloadFailed
		}
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*workflow.Session, bool) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	return sess, true
}

// readForm は multipart フォームを読み込みます。画像は任意で、未指定なら空のままなのだ。
func (s *Server) readForm(w http.ResponseWriter, r *http.Request) (workflow.GenerateInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return workflow.GenerateInput{}, fmt.Errorf("フォームの解析に失敗しました: %w", err)
	}

	in := workflow.GenerateInput{
		Title: r.FormValue(formFieldTitle),
		Prose: r.FormValue(formFieldProse),
	}

	file, _, err := r.FormFile(formFieldImage)
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return in, nil
	case err != nil:
		return in, fmt.Errorf("画像の読み込みに失敗しました: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return in, fmt.Errorf("画像の読み込みに失敗しました: %w", err)
	}
	in.ImageData = data
	return in, nil
}

func (s *Server) pageFor(sess *workflow.Session) pageData {
	st := sess.Shell.Status()
	current := sess.Controller.CurrentIndex()
	slides := sess.Controller.Slides()

	views := make([]slideView, 0, len(slides))
	for i, slide := range slides {
		views = append(views, slideView{
			Index:  i,
			Kind:   slide.Kind,
			Title:  slide.Title,
			Text:   slide.Text,
			Active: i == current,
		})
	}

	return pageData{
		SessionID:   sess.ID,
		Title:       sess.Shell.Title(),
		Prose:       sess.Shell.Prose(),
		HasImage:    sess.Shell.ImageURL() != "",
		Error:       st.Error,
		Generating:  st.Generating,
		Exporting:   sess.Controller.Exporting(),
		Counter:     sess.Controller.Counter(),
		Slides:      views,
		MaxUploadMB: s.maxUploadMB(),
	}
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, pageTemplate, data); err != nil {
		slog.Error("テンプレートの描画に失敗しました", "error", err)
	}
}

func (s *Server) maxUploadMB() int64 {
	return s.opts.MaxUploadBytes >> 20
}

func writeArtifact(w http.ResponseWriter, art *domain.Artifact, attachment bool) {
	w.Header().Set("Content-Type", art.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	if attachment {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.Name}))
	}
	if _, err := w.Write(art.Data); err != nil {
		slog.Warn("レスポンスの書き込みに失敗しました", "name", art.Name, "error", err)
	}
}

func resultsURL(id string) string {
	return "/carousels/" + id + "#results"
}
