// Package web serves the browser views of the dashboard.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

//go:embed templates/*.html static/*
var assets embed.FS

type page struct {
	name  string
	title string
}

var pages = map[string]page{
	"/":              {name: "overview", title: "Overview"},
	"/analytics":     {name: "analytics", title: "Analytics"},
	"/threads":       {name: "threads", title: "Conversations"},
	"/conversation":  {name: "conversation", title: "Conversation"},
	"/consultations": {name: "consultations", title: "Consultations"},
	"/feedback":      {name: "feedback", title: "Feedback"},
}

type viewData struct {
	Title      string
	Page       string
	BasePath   string
	PollMillis int64
	Nav        []navItem
}

type navItem struct {
	Path   string
	Title  string
	Active bool
}

var navOrder = []string{"/", "/analytics", "/threads", "/consultations", "/feedback"}

// Handler renders the pages. Paths are relative to the UI mount point.
type Handler struct {
	templates map[string]*template.Template
	static    http.Handler
	basePath  string
	poll      time.Duration
	logger    *slog.Logger
}

// New parses the embedded templates. basePath prefixes every API call the
// pages make; poll is the overview refresh period.
func New(basePath string, poll time.Duration, logger *slog.Logger) (*Handler, error) {
	layout, err := template.ParseFS(assets, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	h := &Handler{
		templates: make(map[string]*template.Template, len(pages)),
		basePath:  cleanBase(basePath),
		poll:      poll,
		logger:    logger.With("component", "web"),
	}
	for _, p := range pages {
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout: %w", err)
		}
		if _, err := t.ParseFS(assets, "templates/"+p.name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p.name, err)
		}
		h.templates[p.name] = t
	}

	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}
	h.static = http.StripPrefix("/static", http.FileServer(http.FS(static)))
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/static/") {
		h.static.ServeHTTP(w, r)
		return
	}
	p, ok := pages[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}

	data := viewData{
		Title:      p.title,
		Page:       p.name,
		BasePath:   h.basePath,
		PollMillis: h.poll.Milliseconds(),
	}
	for _, path := range navOrder {
		data.Nav = append(data.Nav, navItem{Path: path, Title: pages[path].title, Active: path == r.URL.Path})
	}

	var buf bytes.Buffer
	if err := h.templates[p.name].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("render page", "page", p.name, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func cleanBase(base string) string {
	base = strings.Trim(strings.TrimSpace(base), "/")
	if base == "" {
		return ""
	}
	return "/" + base
}
