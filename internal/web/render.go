package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/localwire/portal/internal/content"
	"github.com/localwire/portal/internal/middleware"
	"github.com/localwire/portal/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

type templateData struct {
	PageTitle string
	User      *model.User
	Flashes   []middleware.Flash
	Error     string
	Form      map[string]string
	Next      string
	Page      *content.Page
	Services  []Service
	Ref       string
	Messages  []model.Message
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, tmpl string, td *templateData) {
	if td == nil {
		td = &templateData{}
	}
	if td.User == nil {
		td.User = s.store(r).Snapshot().User
	}
	if td.Flashes == nil {
		td.Flashes = s.sessions.PopFlashes(r.Context())
	}

	t, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+tmpl)
	if err != nil {
		s.renderError(w, err)
		return
	}

	buf := &bytes.Buffer{}
	if err := t.ExecuteTemplate(buf, "base.html", td); err != nil {
		s.renderError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	if err != nil {
		s.log.Error("failed writing response", zap.Error(err))
	}
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	s.log.Error("template render failed", zap.Error(err))
	http.Error(w, "something went wrong", http.StatusInternalServerError)
}
