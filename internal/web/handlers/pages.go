package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/PabloViniegra/how-are-u/internal/analysis"
	"github.com/PabloViniegra/how-are-u/internal/beautyapi"
	"github.com/PabloViniegra/how-are-u/internal/config"
	"github.com/PabloViniegra/how-are-u/internal/constants"
	"github.com/PabloViniegra/how-are-u/internal/labels"
	"github.com/PabloViniegra/how-are-u/internal/logging"
	"github.com/PabloViniegra/how-are-u/internal/render"
	"github.com/PabloViniegra/how-are-u/internal/web/static"
)

// PagesHandler renders the HTML pages: home, upload and summary.
type PagesHandler struct {
	config    *config.Config
	client    analysis.Client
	templates *template.Template
}

// NewPagesHandler parses the embedded templates.
func NewPagesHandler(cfg *config.Config, client analysis.Client) (*PagesHandler, error) {
	tmpl, err := template.New("pages").Funcs(templateFuncs()).ParseFS(static.Templates(), "*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing page templates: %w", err)
	}
	return &PagesHandler{config: cfg, client: client, templates: tmpl}, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"field":        labels.Field,
		"percent":      render.Percent,
		"band":         labels.ScoreBand,
		"status":       func(s beautyapi.Status) string { return labels.Status(string(s)) },
		"statusDetail": func(s beautyapi.Status) string { return labels.StatusDetail(string(s)) },
	}
}

type pageData struct {
	Title string
}

type uploadPageData struct {
	pageData
	Accept    string
	MaxSize   int
	MaxSizeMB int
}

type summaryPageData struct {
	pageData
	ID       string
	Analysis *beautyapi.Analysis
	Error    string
}

// Home renders the landing page.
func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "home.html", pageData{Title: "Inicio"})
}

// MakeBeauty renders the upload page.
func (h *PagesHandler) MakeBeauty(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "make_beauty.html", uploadPageData{
		pageData:  pageData{Title: "Analizar"},
		Accept:    strings.Join(constants.AcceptedImageTypes, ","),
		MaxSize:   constants.MaxFileSize,
		MaxSizeMB: constants.MaxFileSize / 1024 / 1024,
	})
}

// Summary renders a stored analysis. Failures render the page with the
// error and a retry link.
func (h *PagesHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data := summaryPageData{pageData: pageData{Title: "Resumen"}, ID: id}

	result, err := analysis.New(h.client, nil, nil).LoadSummary(r.Context(), id)
	if err != nil {
		status, message := summaryError(err)
		if status >= http.StatusInternalServerError {
			logging.FromContext(r.Context()).Error("failed to load summary", "id", sanitizeForLog(id), "error", err)
		}
		data.Error = message
		h.render(w, r, status, "summary.html", data)
		return
	}

	data.Analysis = result
	h.render(w, r, http.StatusOK, "summary.html", data)
}

// render executes into a buffer first so a template error still yields a
// clean 500.
func (h *PagesHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logging.FromContext(r.Context()).Error("failed to render page", "page", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
