package handlers

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/swelljoe/wxlookup/internal/db"
	"github.com/swelljoe/wxlookup/internal/display"
	"github.com/swelljoe/wxlookup/internal/lookup"
	"github.com/swelljoe/wxlookup/internal/observability"
	"github.com/swelljoe/wxlookup/internal/session"
	"github.com/swelljoe/wxlookup/internal/weather"
)

//go:embed templates/*.html
var templateFS embed.FS

const historyLimit = 5

// History defines the lookup history operations needed by handlers
type History interface {
	RecordLookup(ctx context.Context, rec db.LookupRecord) (int64, error)
	RecentLookups(ctx context.Context, sessionID string, limit int) ([]db.LookupRecord, error)
	Ping() error
}

// Handlers holds dependencies for HTTP handlers
type Handlers struct {
	sessions  *session.Store
	fetcher   weather.Fetcher
	history   History
	metrics   *observability.Metrics
	templates *template.Template
}

// New creates a new Handlers instance. history may be nil.
func New(sessions *session.Store, fetcher weather.Fetcher, history History, metrics *observability.Metrics) *Handlers {
	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"weatherDisplay": display.HTML,
	}).ParseFS(templateFS, "templates/*.html"))

	return &Handlers{
		sessions:  sessions,
		fetcher:   fetcher,
		history:   history,
		metrics:   metrics,
		templates: tmpl,
	}
}

// RegisterRoutes mounts the page routes on r.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleIndex)
	r.Post("/lookup", h.HandleLookup)
	r.Get("/health", h.HandleHealth)
}

// RegisterAPIRoutes mounts the JSON API on r.
func (h *Handlers) RegisterAPIRoutes(r chi.Router) {
	r.Get("/lookup/{id}", h.HandleAPILookup)
}

type pageData struct {
	State   lookup.State
	History []db.LookupRecord
}

// HandleIndex renders the lookup page for the caller's session
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	sid := h.sessionID(w, r)
	h.renderPage(w, r, sid, h.sessions.Get(sid).State())
}

// HandleLookup applies the posted form fields and submits the lookup
func (h *Handlers) HandleLookup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	sid := h.sessionID(w, r)
	l := h.sessions.Get(sid)
	for name, values := range r.PostForm {
		if len(values) > 0 {
			l.SetField(name, values[0])
		}
	}

	res := h.submit(r.Context(), l)
	if !res.Stale {
		h.record(r.Context(), sid, res)
	}

	h.renderPage(w, r, sid, l.State())
}

type apiResponse struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	Data    json.RawMessage            `json:"data,omitempty"`
	View    *display.WeatherAtLocation `json:"view,omitempty"`
}

// HandleAPILookup runs a one-off lookup and returns the result as JSON.
// Every produced result, failed or not, is a 200.
func (h *Handlers) HandleAPILookup(w http.ResponseWriter, r *http.Request) {
	l := lookup.New(h.fetcher)
	l.SetField(lookup.FieldID, chi.URLParam(r, "id"))
	res := h.submit(r.Context(), l)

	resp := apiResponse{
		Success: res.Success,
		Message: res.Message,
		View:    lookup.ViewModel(res),
	}
	if res.Success && res.Data != nil {
		resp.Data = res.Data.Raw
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleHealth handles health check endpoint
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if h.history != nil {
		if err := h.history.Ping(); err != nil {
			status = "degraded"
		}
	} else {
		status = "no_database"
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (h *Handlers) submit(ctx context.Context, l *lookup.Lookup) lookup.Result {
	start := time.Now()
	res := l.Submit(ctx)
	if h.metrics != nil {
		h.metrics.ObserveLookup(res.Success, time.Since(start))
	}
	return res
}

func (h *Handlers) record(ctx context.Context, sid string, res lookup.Result) {
	if h.history == nil {
		return
	}
	_, err := h.history.RecordLookup(ctx, db.LookupRecord{
		SessionID: sid,
		ReportID:  res.ReportID,
		Success:   res.Success,
		Message:   res.Message,
	})
	if err != nil {
		slog.Error("failed to record lookup", "error", err)
	}
}

func (h *Handlers) renderPage(w http.ResponseWriter, r *http.Request, sid string, st lookup.State) {
	data := pageData{State: st}
	if h.history != nil {
		recent, err := h.history.RecentLookups(r.Context(), sid, historyLimit)
		if err != nil {
			slog.Error("failed to load lookup history", "error", err)
		}
		data.History = recent
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.Error("error executing template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// sessionID returns the caller's session id, issuing a cookie if needed.
func (h *Handlers) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(session.CookieName); err == nil && session.Valid(c.Value) {
		return c.Value
	}

	sid := session.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("response write error", "error", err)
	}
}
