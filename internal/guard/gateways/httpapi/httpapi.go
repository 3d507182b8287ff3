// Package httpapi exposes the engine to the host app over a local HTTP
// surface: the synchronous decision endpoint for the browser shell, the
// read-only audit queries for the parent dashboard, and the parent-side
// rule administration endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/amanahapps/guardian/internal/guard/common/log"
	"github.com/amanahapps/guardian/internal/guard/domain"
	"github.com/amanahapps/guardian/internal/guard/repos/audit"
)

// Decider is the decision surface the browser shell calls.
type Decider interface {
	ShouldAllowNavigation(url string) domain.BlockVerdict
	NoteTitle(url, title string)
	SnapshotAge() time.Duration
}

// AuditQueries is the read-only audit surface for the parent dashboard.
type AuditQueries interface {
	List(ctx context.Context, f audit.Filter, limit int) ([]domain.AuditEntry, error)
	GroupByDay(ctx context.Context) ([]domain.DayActivity, error)
	ClearAll(ctx context.Context) error
}

// RuleAdmin is the parent-side rule configuration surface.
type RuleAdmin interface {
	Settings(ctx context.Context) (domain.Settings, error)
	PutSettings(ctx context.Context, v domain.Settings) error
	Schedule(ctx context.Context) (domain.ScheduleConfig, error)
	PutSchedule(ctx context.Context, v domain.ScheduleConfig) error
	SetBlockedDomains(ctx context.Context, domains []string) error
	SetBlockedKeywords(ctx context.Context, keywords []string) error
	SetWhitelistDomains(ctx context.Context, domains []string) error
	AddBlockedDomain(ctx context.Context, d string) error
	RemoveBlockedDomain(ctx context.Context, d string) error
	AddWhitelistDomain(ctx context.Context, d string) error
	RemoveWhitelistDomain(ctx context.Context, d string) error
}

// PauseReporter answers the current prayer-pause status for /v1/status.
type PauseReporter interface {
	PauseStatus(now time.Time, pauseMinutes int) domain.PrayerPauseWindow
}

// Handler bundles the API dependencies.
type Handler struct {
	decider      Decider
	audits       AuditQueries
	rules        RuleAdmin
	pause        PauseReporter
	pauseMinutes func() int
	logger       log.Logger
}

// Options configures NewRouter.
type Options struct {
	Decider Decider
	Audits  AuditQueries
	Rules   RuleAdmin
	Pause   PauseReporter
	// PauseMinutes reports the currently configured pause duration.
	PauseMinutes func() int
	Logger       log.Logger
}

// NewRouter builds the mux router with all routes registered.
func NewRouter(opts Options) *mux.Router {
	h := &Handler{
		decider:      opts.Decider,
		audits:       opts.Audits,
		rules:        opts.Rules,
		pause:        opts.Pause,
		pauseMinutes: opts.PauseMinutes,
		logger:       opts.Logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/v1/check", h.handleCheck).Methods("POST")
	r.HandleFunc("/v1/title", h.handleTitle).Methods("POST")
	r.HandleFunc("/v1/status", h.handleStatus).Methods("GET")

	r.HandleFunc("/v1/audit", h.handleAuditList).Methods("GET")
	r.HandleFunc("/v1/audit/days", h.handleAuditDays).Methods("GET")
	r.HandleFunc("/v1/audit", h.handleAuditClear).Methods("DELETE")

	r.HandleFunc("/v1/settings", h.handleGetSettings).Methods("GET")
	r.HandleFunc("/v1/settings", h.handlePutSettings).Methods("PUT")
	r.HandleFunc("/v1/schedule", h.handleGetSchedule).Methods("GET")
	r.HandleFunc("/v1/schedule", h.handlePutSchedule).Methods("PUT")

	r.HandleFunc("/v1/rules/domains", h.handlePutDomains).Methods("PUT")
	r.HandleFunc("/v1/rules/domains", h.handleAddDomain).Methods("POST")
	r.HandleFunc("/v1/rules/domains/{domain}", h.handleRemoveDomain).Methods("DELETE")
	r.HandleFunc("/v1/rules/keywords", h.handlePutKeywords).Methods("PUT")
	r.HandleFunc("/v1/rules/whitelist", h.handlePutWhitelist).Methods("PUT")
	r.HandleFunc("/v1/rules/whitelist", h.handleAddWhitelist).Methods("POST")
	r.HandleFunc("/v1/rules/whitelist/{domain}", h.handleRemoveWhitelist).Methods("DELETE")

	return r
}

// JSON sends a JSON response.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type checkRequest struct {
	URL string `json:"url"`
}

type verdictResponse struct {
	Blocked   bool   `json:"blocked"`
	Reason    string `json:"reason,omitempty"`
	BlockedBy string `json:"blocked_by,omitempty"`
}

func toVerdictResponse(v domain.BlockVerdict) verdictResponse {
	out := verdictResponse{Blocked: v.Blocked, BlockedBy: v.BlockedBy}
	if v.Blocked {
		out.Reason = v.Reason.String()
	}
	return out
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		Error(w, http.StatusBadRequest, "url is required")
		return
	}
	v := h.decider.ShouldAllowNavigation(req.URL)
	JSON(w, http.StatusOK, toVerdictResponse(v))
}

type titleRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

func (h *Handler) handleTitle(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		Error(w, http.StatusBadRequest, "url is required")
		return
	}
	h.decider.NoteTitle(req.URL, req.Title)
	w.WriteHeader(http.StatusAccepted)
}

type statusResponse struct {
	SnapshotAgeSeconds int    `json:"snapshot_age_seconds"`
	Paused             bool   `json:"paused"`
	Prayer             string `json:"prayer,omitempty"`
	MinutesRemaining   int    `json:"minutes_remaining,omitempty"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		SnapshotAgeSeconds: int(h.decider.SnapshotAge().Seconds()),
	}
	if win := h.pause.PauseStatus(time.Now(), h.pauseMinutes()); win.Paused {
		resp.Paused = true
		resp.Prayer = win.Prayer.String()
		resp.MinutesRemaining = win.MinutesRemaining
	}
	JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAuditList(w http.ResponseWriter, r *http.Request) {
	f := audit.FilterAll
	switch r.URL.Query().Get("filter") {
	case "blocked":
		f = audit.FilterBlocked
	case "allowed":
		f = audit.FilterAllowed
	case "", "all":
	default:
		Error(w, http.StatusBadRequest, "filter must be all, blocked, or allowed")
		return
	}
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.audits.List(r.Context(), f, limit)
	if err != nil {
		h.logger.Error(map[string]any{"error": err.Error()}, "audit list failed")
		Error(w, http.StatusInternalServerError, "audit query failed")
		return
	}
	JSON(w, http.StatusOK, toEntryResponses(entries))
}

type entryResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Timestamp string `json:"timestamp"`
	Blocked   bool   `json:"blocked"`
	Reason    string `json:"reason,omitempty"`
	BlockedBy string `json:"blocked_by,omitempty"`
}

func toEntryResponses(entries []domain.AuditEntry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		resp := entryResponse{
			ID:        e.ID,
			URL:       e.URL,
			Title:     e.Title,
			Timestamp: e.Timestamp.Format(time.RFC3339),
			Blocked:   e.WasBlocked,
			BlockedBy: e.BlockedBy,
		}
		if e.WasBlocked {
			resp.Reason = e.BlockReason.String()
		}
		out = append(out, resp)
	}
	return out
}

func (h *Handler) handleAuditDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.audits.GroupByDay(r.Context())
	if err != nil {
		h.logger.Error(map[string]any{"error": err.Error()}, "audit day grouping failed")
		Error(w, http.StatusInternalServerError, "audit query failed")
		return
	}
	if days == nil {
		days = []domain.DayActivity{}
	}
	JSON(w, http.StatusOK, days)
}

func (h *Handler) handleAuditClear(w http.ResponseWriter, r *http.Request) {
	if err := h.audits.ClearAll(r.Context()); err != nil {
		h.logger.Error(map[string]any{"error": err.Error()}, "audit clear failed")
		Error(w, http.StatusInternalServerError, "audit clear failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	v, err := h.rules.Settings(r.Context())
	if err != nil {
		Error(w, http.StatusInternalServerError, "settings read failed")
		return
	}
	JSON(w, http.StatusOK, v)
}

func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var v domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		Error(w, http.StatusBadRequest, "invalid settings payload")
		return
	}
	if err := h.rules.PutSettings(r.Context(), v); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	v, err := h.rules.Schedule(r.Context())
	if err != nil {
		Error(w, http.StatusInternalServerError, "schedule read failed")
		return
	}
	JSON(w, http.StatusOK, v)
}

func (h *Handler) handlePutSchedule(w http.ResponseWriter, r *http.Request) {
	var v domain.ScheduleConfig
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		Error(w, http.StatusBadRequest, "invalid schedule payload")
		return
	}
	if err := h.rules.PutSchedule(r.Context(), v); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type listRequest struct {
	Entries []string `json:"entries"`
}

type singleRequest struct {
	Entry string `json:"entry"`
}

func (h *Handler) putList(w http.ResponseWriter, r *http.Request, set func(context.Context, []string) error) {
	var req listRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := set(r.Context(), req.Entries); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addOne(w http.ResponseWriter, r *http.Request, add func(context.Context, string) error) {
	var req singleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Entry == "" {
		Error(w, http.StatusBadRequest, "entry is required")
		return
	}
	if err := add(r.Context(), req.Entry); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeOne(w http.ResponseWriter, r *http.Request, remove func(context.Context, string) error) {
	d := mux.Vars(r)["domain"]
	if d == "" {
		Error(w, http.StatusBadRequest, "domain is required")
		return
	}
	if err := remove(r.Context(), d); err != nil {
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePutDomains(w http.ResponseWriter, r *http.Request) {
	h.putList(w, r, h.rules.SetBlockedDomains)
}

func (h *Handler) handleAddDomain(w http.ResponseWriter, r *http.Request) {
	h.addOne(w, r, h.rules.AddBlockedDomain)
}

func (h *Handler) handleRemoveDomain(w http.ResponseWriter, r *http.Request) {
	h.removeOne(w, r, h.rules.RemoveBlockedDomain)
}

func (h *Handler) handlePutKeywords(w http.ResponseWriter, r *http.Request) {
	h.putList(w, r, h.rules.SetBlockedKeywords)
}

func (h *Handler) handlePutWhitelist(w http.ResponseWriter, r *http.Request) {
	h.putList(w, r, h.rules.SetWhitelistDomains)
}

func (h *Handler) handleAddWhitelist(w http.ResponseWriter, r *http.Request) {
	h.addOne(w, r, h.rules.AddWhitelistDomain)
}

func (h *Handler) handleRemoveWhitelist(w http.ResponseWriter, r *http.Request) {
	h.removeOne(w, r, h.rules.RemoveWhitelistDomain)
}
