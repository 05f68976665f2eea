package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"petcare-dashboard/internal/consult"
	"petcare-dashboard/internal/dashboard"
	"petcare-dashboard/internal/logging"
	"petcare-dashboard/internal/repo"
	"petcare-dashboard/internal/repo/repotest"
)

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details string          `json:"details"`
	Message string          `json:"message"`
}

func newTestHandler(t *testing.T, fake *repotest.Fake, production bool, basePath string) http.Handler {
	t.Helper()
	logger := logging.Discard()
	svc := dashboard.New(fake, dashboard.Options{
		Location:          time.FixedZone("UTC+05:30", 19800),
		StrictTransitions: true,
	}, logger)
	ui := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("page " + r.URL.Path))
	})
	server := New(":0", logger, nil, Handlers{API: NewAPI(svc, production, nil, logger), UI: ui}, basePath)
	return server.Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s: %v", method, target, err)
		}
	}
	return rec, out
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t, &repotest.Fake{}, false, "")
	rec, _ := do(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected request id header")
	}

	down := newTestHandler(t, &repotest.Fake{Err: errors.New("connection refused")}, false, "")
	rec, _ = do(t, down, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with the store down, got %d", rec.Code)
	}
}

func TestAnalyticsEnvelope(t *testing.T) {
	fake := &repotest.Fake{Activity: &repo.ActivityReport{PeriodActive: 4}}
	h := newTestHandler(t, fake, false, "")

	rec, body := do(t, h, http.MethodGet, "/analytics?days=7", "")
	if rec.Code != http.StatusOK || !body.Success {
		t.Fatalf("expected success, got %d %+v", rec.Code, body)
	}
	var data dashboard.Analytics
	if err := json.Unmarshal(body.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Summary.PeriodActiveUsers != 4 || data.Meta.PeriodDays != 7 {
		t.Fatalf("unexpected analytics %+v", data)
	}
}

func TestInvalidParamsAreBadRequests(t *testing.T) {
	h := newTestHandler(t, &repotest.Fake{}, false, "")
	for _, target := range []string{
		"/analytics?start_date=2024-03-01",
		"/analytics?start_date=2024-03-01&end_date=March",
		"/analytics?days=0",
		"/analytics/users?range=abc",
		"/threads?limit=0",
		"/threads?offset=-1",
		"/threads?sort=score",
		"/threads?filter=vip",
		"/consultations?status=archived",
	} {
		rec, body := do(t, h, http.MethodGet, target, "")
		if rec.Code != http.StatusBadRequest || body.Success || body.Error == "" {
			t.Fatalf("%s: expected 400 envelope, got %d %+v", target, rec.Code, body)
		}
	}
}

func TestConsultationNotFound(t *testing.T) {
	h := newTestHandler(t, &repotest.Fake{}, false, "")
	rec, body := do(t, h, http.MethodGet, "/consultations/99", "")
	if rec.Code != http.StatusNotFound || body.Error != "Consultation not found" {
		t.Fatalf("expected 404, got %d %+v", rec.Code, body)
	}

	rec, _ = do(t, h, http.MethodPost, "/consultations/99", `{"action":"reject","vetNotes":"n/a"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rec.Code)
	}
}

func TestConsultationActions(t *testing.T) {
	fake := &repotest.Fake{ConsultationRows: []repo.Consultation{
		{ID: "5", Status: consult.StatusPending},
		{ID: "6", Status: consult.StatusCompleted},
	}}
	h := newTestHandler(t, fake, false, "")

	rec, body := do(t, h, http.MethodPost, "/consultations/5", `{"action":"approve","vetNotes":"bring records","appointmentDate":"2024-03-12T10:30"}`)
	if rec.Code != http.StatusOK || body.Message != "Consultation approved successfully" {
		t.Fatalf("expected approval, got %d %+v", rec.Code, body)
	}
	var c dashboard.ConsultationItem
	if err := json.Unmarshal(body.Data, &c); err != nil {
		t.Fatalf("decode consultation: %v", err)
	}
	if c.Status != consult.StatusApproved || c.AppointmentDate == nil || *c.AppointmentDate != "2024-03-12T05:00:00.000Z" {
		t.Fatalf("unexpected consultation %+v", c)
	}

	for _, tc := range []struct {
		id, body string
	}{
		{"5", `{"action":"escalate"}`},
		{"5", `{"vetNotes":"missing action"}`},
		{"5", `not json`},
		{"6", `{"action":"reject","vetNotes":"too late"}`},
		{"5", `{"action":"approve","appointmentDate":"soon"}`},
	} {
		rec, body := do(t, h, http.MethodPost, "/consultations/"+tc.id, tc.body)
		if rec.Code != http.StatusBadRequest || body.Success {
			t.Fatalf("%s: expected 400, got %d %+v", tc.body, rec.Code, body)
		}
	}
}

func TestConsultationStatsRouteWinsOverID(t *testing.T) {
	fake := &repotest.Fake{Stats: &repo.ConsultationStats{Counts: repo.ConsultationCounts{Total: 8}}}
	h := newTestHandler(t, fake, false, "")

	rec, body := do(t, h, http.MethodGet, "/consultations/stats", "")
	if rec.Code != http.StatusOK || fake.StatsCalls != 1 {
		t.Fatalf("expected stats handler, got %d %+v", rec.Code, body)
	}
}

func TestServerErrorDetailsByEnvironment(t *testing.T) {
	boom := errors.New("relation whatsapp_messages does not exist")

	dev := newTestHandler(t, &repotest.Fake{Err: boom}, false, "")
	rec, body := do(t, dev, http.MethodGet, "/overview", "")
	if rec.Code != http.StatusInternalServerError || body.Error != "Failed to fetch overview" {
		t.Fatalf("expected 500, got %d %+v", rec.Code, body)
	}
	if !strings.Contains(body.Details, "does not exist") {
		t.Fatalf("expected details outside production, got %q", body.Details)
	}

	prod := newTestHandler(t, &repotest.Fake{Err: boom}, true, "")
	_, body = do(t, prod, http.MethodGet, "/overview", "")
	if body.Details != "" {
		t.Fatalf("details must be withheld in production, got %q", body.Details)
	}
}

func TestDebugTablesOnlyOutsideProduction(t *testing.T) {
	fake := &repotest.Fake{TableRows: []repo.Table{{Name: "whatsapp_messages", Schema: "public"}}}

	rec, _ := do(t, newTestHandler(t, fake, false, ""), http.MethodGet, "/debug/tables", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected tables in development, got %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/debug/tables", nil)
	prod := httptest.NewRecorder()
	newTestHandler(t, fake, true, "").ServeHTTP(prod, req)
	if prod.Code != http.StatusNotFound {
		t.Fatalf("expected 404 in production, got %d", prod.Code)
	}
}

func TestConversationExportAttachment(t *testing.T) {
	fake := &repotest.Fake{Conversations: map[string]*repo.Conversation{
		"7": {Profile: repo.UserProfile{ID: "7"}, Messages: make([]repo.Message, 750)},
	}}
	h := newTestHandler(t, fake, false, "")

	for _, target := range []string{"/messages/7/export", "/messages/7/export?limit=1000"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", target, rec.Code)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, `attachment; filename="conversation-7-`) {
			t.Fatalf("%s: unexpected disposition %q", target, cd)
		}
		var doc dashboard.ConversationExport
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			t.Fatalf("%s: decode export: %v", target, err)
		}
		if doc.UserProfile.ID != "7" || doc.ExportedAt == "" {
			t.Fatalf("%s: unexpected export %+v", target, doc)
		}
		if len(doc.Messages) != 750 {
			t.Fatalf("%s: expected every message exported, got %d", target, len(doc.Messages))
		}
	}

	rec, body := do(t, h, http.MethodGet, "/messages/8", "")
	if rec.Code != http.StatusNotFound || body.Error != "User not found" {
		t.Fatalf("expected 404, got %d %+v", rec.Code, body)
	}
}

func TestBasePathAndUI(t *testing.T) {
	h := newTestHandler(t, &repotest.Fake{}, false, "/dash/")

	rec, _ := do(t, h, http.MethodGet, "/dash/overview", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected overview under base path, got %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/overview", nil)
	outside := httptest.NewRecorder()
	h.ServeHTTP(outside, req)
	if outside.Code != http.StatusNotFound {
		t.Fatalf("expected 404 outside base path, got %d", outside.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/dash/", nil)
	root := httptest.NewRecorder()
	h.ServeHTTP(root, req)
	if root.Code != http.StatusFound || root.Header().Get("Location") != "/dash/ui/" {
		t.Fatalf("expected redirect to ui, got %d %q", root.Code, root.Header().Get("Location"))
	}

	req = httptest.NewRequest(http.MethodGet, "/dash/ui/threads", nil)
	page := httptest.NewRecorder()
	h.ServeHTTP(page, req)
	if page.Body.String() != "page /threads" {
		t.Fatalf("unexpected ui response %q", page.Body.String())
	}
}

func TestNormaliseBasePath(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{"", ""},
		{"/", ""},
		{"dash", "/dash"},
		{" /dash/ ", "/dash"},
	} {
		if got := normaliseBasePath(tc.in); got != tc.want {
			t.Fatalf("normaliseBasePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
