package server

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/go-carousel-kit/internal/config"
	"github.com/shouni/go-carousel-kit/pkg/workflow"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

// SessionFactory は空のセッションを生成する契約です。*workflow.Manager がこれを満たします。
type SessionFactory interface {
	NewSession() (*workflow.Session, error)
}

// Server はカルーセル生成の Web 画面を提供します。
type Server struct {
	factory  SessionFactory
	sessions *SessionStore
	opts     config.ServerOptions
	tmpl     *template.Template
}

// New は Server を生成します。
func New(factory SessionFactory, opts config.ServerOptions) (*Server, error) {
	if factory == nil {
		return nil, errors.New("SessionFactory は必須です")
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = config.DefaultSessionTTL
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = config.DefaultMaxUploadBytes
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("HTMLテンプレートの解析に失敗しました: %w", err)
	}

	return &Server{
		factory:  factory,
		sessions: NewSessionStore(opts.SessionTTL),
		opts:     opts,
		tmpl:     tmpl,
	}, nil
}

// Handler はルーティング済みの http.Handler を返すのだ。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Post("/carousels", s.handleCreate)

	r.Route("/carousels/{id}", func(r chi.Router) {
		r.Get("/", s.handleShow)
		r.Post("/generate", s.handleRegenerate)
		r.Post("/next", s.handleNext)
		r.Post("/previous", s.handlePrevious)
		r.Get("/slides.json", s.handleSlidesJSON)
		r.Get("/slides/{n}", s.handlePreview)
		r.Get("/export/current", s.handleExportCurrent)
		r.Get("/export/all", s.handleExportAll)
	})

	return r
}

// requestLogger は slog でアクセスログを出力するミドルウェアです。
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
