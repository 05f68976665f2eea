package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"petcare-dashboard/internal/logging"
)

func TestPagesRender(t *testing.T) {
	h, err := New("/dash", 15*time.Second, logging.Discard())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	for path, p := range pages {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, `data-page="`+p.name+`"`) {
			t.Fatalf("%s: missing page marker", path)
		}
		if !strings.Contains(body, `data-base="/dash"`) || !strings.Contains(body, `data-poll="15000"`) {
			t.Fatalf("%s: missing runtime settings", path)
		}
	}
}

func TestStaticAndUnknown(t *testing.T) {
	h, err := New("", time.Second, logging.Discard())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "DEBOUNCE_MS") {
		t.Fatalf("expected script, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "/export?") {
		t.Fatal("export link must not page the conversation")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
