package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"petcare-dashboard/internal/consult"
	"petcare-dashboard/internal/dashboard"
	"petcare-dashboard/internal/metrics"
)

const (
	maxActionBody = 64 << 10
	healthTimeout = 3 * time.Second
)

// Service is the dashboard behaviour the API exposes.
type Service interface {
	Analytics(ctx context.Context, p dashboard.AnalyticsParams) (*dashboard.Analytics, error)
	UserAnalytics(ctx context.Context, days int) (*dashboard.UserAnalytics, error)
	Overview(ctx context.Context) (*dashboard.Overview, error)
	Threads(ctx context.Context, p dashboard.ThreadParams) (*dashboard.ThreadList, error)
	Conversation(ctx context.Context, userID string, limit, offset int) (*dashboard.Conversation, error)
	ExportConversation(ctx context.Context, userID string) (*dashboard.ConversationExport, string, error)
	Consultations(ctx context.Context, status string, limit, offset int) (*dashboard.ConsultationList, error)
	Consultation(ctx context.Context, id string) (*dashboard.ConsultationItem, error)
	ApplyAction(ctx context.Context, id string, req consult.Request) (*dashboard.ActionResult, error)
	History(ctx context.Context, id string) (*dashboard.ConsultationHistory, error)
	ConsultationStats(ctx context.Context) (*dashboard.ConsultationStats, error)
	Feedbacks(ctx context.Context, feedbackType string) (*dashboard.FeedbackList, error)
	Tables(ctx context.Context) (*dashboard.TableList, error)
	Ping(ctx context.Context) error
}

var _ Service = (*dashboard.Service)(nil)

// API serves the dashboard JSON endpoints.
type API struct {
	svc        Service
	logger     *slog.Logger
	metrics    *metrics.Metrics
	production bool
}

// NewAPI builds the API. In production error details are withheld and the
// debug routes are not mounted.
func NewAPI(svc Service, production bool, m *metrics.Metrics, logger *slog.Logger) *API {
	return &API{
		svc:        svc,
		logger:     logger.With("component", "api"),
		metrics:    m,
		production: production,
	}
}

// Register mounts every API route on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /analytics", a.handleAnalytics)
	mux.HandleFunc("GET /analytics/users", a.handleUserAnalytics)
	mux.HandleFunc("GET /overview", a.handleOverview)
	mux.HandleFunc("GET /threads", a.handleThreads)
	mux.HandleFunc("GET /messages/{user_id}", a.handleConversation)
	mux.HandleFunc("GET /messages/{user_id}/export", a.handleExport)
	mux.HandleFunc("GET /consultations", a.handleConsultations)
	mux.HandleFunc("GET /consultations/stats", a.handleConsultationStats)
	mux.HandleFunc("GET /consultations/{id}", a.handleConsultation)
	mux.HandleFunc("POST /consultations/{id}", a.handleConsultationAction)
	mux.HandleFunc("GET /consultations/{id}/history", a.handleConsultationHistory)
	mux.HandleFunc("GET /feedbacks", a.handleFeedbacks)
	if !a.production {
		mux.HandleFunc("GET /debug/tables", a.handleTables)
	}
}

// handleHealth reports 503 when a store is unreachable.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := a.svc.Ping(ctx); err != nil {
		a.logger.Warn("health check failed", "error", err)
		a.metrics.CountError("health")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end, err := dateRange(q)
	if err != nil {
		a.fail(w, r, "analytics", "", err)
		return
	}
	days, err := intParam(q, "days", dashboard.DefaultDays, 1, maxDays)
	if err != nil {
		a.fail(w, r, "analytics", "", err)
		return
	}
	out, err := a.svc.Analytics(r.Context(), dashboard.AnalyticsParams{StartDate: start, EndDate: end, Days: days})
	if err != nil {
		a.fail(w, r, "analytics", "", err)
		return
	}
	a.ok(w, out)
}

func (a *API) handleUserAnalytics(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r.URL.Query(), "range", dashboard.DefaultDays, 1, maxDays)
	if err != nil {
		a.fail(w, r, "user analytics", "", err)
		return
	}
	out, err := a.svc.UserAnalytics(r.Context(), days)
	if err != nil {
		a.fail(w, r, "user analytics", "", err)
		return
	}
	a.ok(w, out)
}

func (a *API) handleOverview(w http.ResponseWriter, r *http.Request) {
	out, err := a.svc.Overview(r.Context())
	if err != nil {
		a.fail(w, r, "overview", "", err)
		return
	}
	a.ok(w, out)
}

func (a *API) handleThreads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := pageParams(q)
	if err != nil {
		a.fail(w, r, "threads", "", err)
		return
	}
	out, err := a.svc.Threads(r.Context(), dashboard.ThreadParams{
		Search: q.Get("search"),
		Filter: q.Get("filter"),
		Sort:   q.Get("sort"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		a.fail(w, r, "threads", "", err)
		return
	}
	a.ok(w, out)
}

func (a *API) handleConversation(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r.URL.Query())
	if err != nil {
		a.fail(w, r, "messages", "", err)
		return
	}
	out, err := a.svc.Conversation(r.Context(), r.PathValue("user_id"), limit, offset)
	if err != nil {
		a.fail(w, r, "messages", "User not found", err)
		return
	}
	a.ok(w, out)
}

func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, name, err := a.svc.ExportConversation(r.Context(), r.PathValue("user_id"))
	if err != nil {
		a.fail(w, r, "conversation export", "User not found", err)
		return
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		a.fail(w, r, "conversation export", "", fmt.Errorf("encode export: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (a *API) handleConsultations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := pageParams(q)
	if err != nil {
		a.fail(w, r, "consultations", "", err)
		return
	}
	out, err := a.svc.Consultations(r.Context(), q.Get("status"), limit, offset)
	if err != nil {
		a.fail(w, r, "consultations", "", err)
		return
	}
	a.ok(w, out)
}

func (a *API) handleConsultationStats(w http.ResponseWriter, r *http.Request) {
	out, err := a.svc.ConsultationStats(r.Context())
	if err != nil {
		a.fail(w, r, "consultation stats", "", err)
		return
	}
	a.ok(w, out)
}

func (a *API) handleConsultation(w http.ResponseWriter, r *http.Request) {
	out, err := a.svc.Consultation(r.Context(), r.PathValue("id"))
	if err != nil {
		a.fail(w, r, "consultation", "Consultation not found", err)
		return
	}
	a.ok(w, out)
}

func (a *API) handleConsultationAction(w http.ResponseWriter, r *http.Request) {
	var req consult.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionBody))
	if err := dec.Decode(&req); err != nil {
		a.fail(w, r, "consultation update", "", fmt.Errorf("%w: request body: %v", errInvalidParam, err))
		return
	}
	if strings.TrimSpace(req.Action) == "" {
		a.fail(w, r, "consultation update", "", fmt.Errorf("%w: action is required", consult.ErrInvalidAction))
		return
	}

	res, err := a.svc.ApplyAction(r.Context(), r.PathValue("id"), req)
	if err != nil {
		a.fail(w, r, "consultation update", "Consultation not found", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: res.Consultation, Message: res.Message})
}

func (a *API) handleConsultationHistory(w http.ResponseWriter, r *http.Request) {
	out, err := a.svc.History(r.Context(), r.PathValue("id"))
	if err != nil {
		a.fail(w, r, "consultation history", "Consultation not found", err)
		return
	}
	a.ok(w, out)
}

func (a *API) handleFeedbacks(w http.ResponseWriter, r *http.Request) {
	out, err := a.svc.Feedbacks(r.Context(), strings.TrimSpace(r.URL.Query().Get("type")))
	if err != nil {
		a.fail(w, r, "feedbacks", "", err)
		return
	}
	a.ok(w, out)
}

func (a *API) handleTables(w http.ResponseWriter, r *http.Request) {
	out, err := a.svc.Tables(r.Context())
	if err != nil {
		a.fail(w, r, "tables", "", err)
		return
	}
	a.ok(w, out)
}
