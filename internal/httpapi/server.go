// Package httpapi serves the browser upload form, the results page and report
// downloads on top of the analysis service.
package httpapi

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-wers-reader/internal/analysis"
	"github.com/a3tai/mcp-wers-reader/internal/document"
	"github.com/a3tai/mcp-wers-reader/internal/reconcile"
	"github.com/a3tai/mcp-wers-reader/internal/report"
)

const (
	// formOverhead is the allowance for the text fields and multipart framing
	formOverhead = 1 << 20
	// memoryLimit is how much of a multipart form is held in memory
	memoryLimit = 8 << 20

	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

//go:embed templates/*.html
var templateFS embed.FS

// Server is the HTTP front end
type Server struct {
	service   *analysis.Service
	logger    *zap.Logger
	templates *template.Template
	router    chi.Router
}

// NewServer builds the router
func NewServer(service *analysis.Service, logger *zap.Logger) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("analysis service cannot be nil")
	}
	if service.Reports() == nil {
		return nil, fmt.Errorf("analysis service needs a report writer")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := template.New("pages").Funcs(template.FuncMap{
		"decimal": report.FormatDecimal,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		service:   service,
		logger:    logger,
		templates: tmpl,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	r.Get("/", s.handleForm)
	r.Post("/", s.handleAnalyze)
	r.Get("/reports/{id}", s.handleReport)

	return r
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          zap.NewStdLog(s.logger),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		s.logger.Info("http server stopped")
		return nil
	})
	return g.Wait()
}

// ListenAndServe listens on addr and calls Serve
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

type formView struct {
	Error         string
	InputCodes    string
	VociCodes     string
	MaxFileSizeMB int64
}

type resultRow struct {
	Index       int
	Code        string
	Description string
	Label       string
	Class       string
}

type resultsView struct {
	Results   []resultRow
	Metrics   reconcile.Metrics
	ReportURL string
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "upload.html", s.formView(""))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.service.MaxFileSize()+formOverhead)

	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.renderFormError(w, r, http.StatusBadRequest, "Upload too large: the limit is %d MB per document",
				s.service.MaxFileSize()/(1024*1024))
			return
		}
		s.renderFormError(w, r, http.StatusBadRequest, "Could not read the upload: %v", err)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	doc1, err := formSource(r, "file")
	if err != nil {
		s.renderFormError(w, r, http.StatusBadRequest, "Please choose WERS document 1")
		return
	}
	defer closeSource(doc1)

	doc2, err := formSource(r, "file2")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		s.renderFormError(w, r, http.StatusBadRequest, "Could not read WERS document 2: %v", err)
		return
	}
	defer closeSource(doc2)

	req := analysis.Request{
		Doc1:       doc1.Source,
		InputCodes: r.FormValue("input_codes"),
		VociCodes:  r.FormValue("voci_codes"),
	}
	if doc2 != nil {
		req.Doc2 = &doc2.Source
	}

	result, err := s.service.Analyze(r.Context(), req)
	if err != nil {
		s.logger.Warn("analysis failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		s.renderFormError(w, r, statusFor(err), "%v", err)
		return
	}

	view := resultsView{
		Results:   make([]resultRow, len(result.Results)),
		Metrics:   result.Metrics,
		ReportURL: "/reports/" + result.Artifact.ID,
	}
	for i, res := range result.Results {
		view.Results[i] = resultRow{
			Index:       i + 1,
			Code:        res.Code,
			Description: res.Description,
			Label:       res.Label.String(),
			Class:       labelClass(res.Label),
		}
	}
	s.render(w, http.StatusOK, "results.html", view)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	f, err := s.service.Reports().Open(id)
	if errors.Is(err, report.ErrArtifactNotFound) || errors.Is(err, report.ErrInvalidArtifactID) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("failed to open report", zap.String("id", id), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="wers-report-%s.txt"`, id))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) formView(errMsg string) formView {
	return formView{
		Error:         errMsg,
		MaxFileSizeMB: s.service.MaxFileSize() / (1024 * 1024),
	}
}

func (s *Server) renderFormError(w http.ResponseWriter, r *http.Request, status int, format string, args ...any) {
	view := s.formView(fmt.Sprintf(format, args...))
	if r.MultipartForm != nil {
		view.InputCodes = r.FormValue("input_codes")
		view.VociCodes = r.FormValue("voci_codes")
	}
	s.render(w, status, "upload.html", view)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("failed to render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// uploadedFile is a multipart file viewed as an analysis source
type uploadedFile struct {
	analysis.Source
	file multipart.File
}

func formSource(r *http.Request, field string) (*uploadedFile, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	return &uploadedFile{
		Source: analysis.Source{Name: header.Filename, Content: file, Size: header.Size},
		file:   file,
	}, nil
}

func closeSource(u *uploadedFile) {
	if u != nil {
		_ = u.file.Close()
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, document.ErrMalformed), errors.Is(err, document.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, document.ErrInvalidFile):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func labelClass(l reconcile.Label) string {
	switch l {
	case reconcile.LabelVociOnly:
		return "voci-only"
	case reconcile.LabelVociDoc1Doc2, reconcile.LabelVociDoc1, reconcile.LabelVociDoc2:
		return "common-voci-doc"
	case reconcile.LabelDoc1Only:
		return "doc1"
	case reconcile.LabelDoc2Only:
		return "doc2"
	}
	return ""
}
