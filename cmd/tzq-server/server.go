package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/tzq/pkg/briefing"
	"github.com/codeGROOVE-dev/tzq/pkg/settings"
	"github.com/codeGROOVE-dev/tzq/pkg/tzconvert"
	"github.com/codeGROOVE-dev/tzq/pkg/tzq"
	"github.com/codeGROOVE-dev/tzq/pkg/zones"
	"github.com/google/uuid"
	"github.com/maypok86/otter"
	"github.com/samber/lo"
	"golang.org/x/time/rate"
)

const (
	askTimeout    = 20 * time.Second
	maxBodyBytes  = 16 << 10
	maxZoneResult = 50
)

// limiterIdle is how long a client's limiter is kept after its last request.
const limiterIdle = 10 * time.Minute

type clientLimiter struct {
	limiter *rate.Limiter
	seen    time.Time
}

type rateLimiter struct {
	limiters  map[string]*clientLimiter
	now       func() time.Time
	lastSweep time.Time
	limit     rate.Limit
	burst     int
	mu        sync.Mutex
}

func newRateLimiter(perMinute int) *rateLimiter {
	perMinute = max(perMinute, 1)
	return &rateLimiter{
		limiters: make(map[string]*clientLimiter),
		now:      time.Now,
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	now := rl.now()
	if now.Sub(rl.lastSweep) > time.Minute {
		for k, c := range rl.limiters {
			if now.Sub(c.seen) > limiterIdle {
				delete(rl.limiters, k)
			}
		}
		rl.lastSweep = now
	}
	c, ok := rl.limiters[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[ip] = c
	}
	c.seen = now
	rl.mu.Unlock()
	return c.limiter.AllowN(now, 1)
}

func (rl *rateLimiter) clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

type server struct {
	engine   *tzq.Engine
	settings *settings.Service
	cache    otter.Cache[string, []byte]
	limiter  *rateLimiter
	logger   *slog.Logger
}

func newServer(engine *tzq.Engine, prefs *settings.Service, logger *slog.Logger, perMinute int) (*server, error) {
	cache, err := otter.MustBuilder[string, []byte](10_000).
		WithTTL(time.Minute).
		Build()
	if err != nil {
		return nil, fmt.Errorf("building response cache: %w", err)
	}
	return &server{
		engine:   engine,
		settings: prefs,
		cache:    cache,
		limiter:  newRateLimiter(perMinute),
		logger:   logger,
	}, nil
}

func (s *server) close() {
	s.cache.Close()
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/ask", s.handleAsk)
	mux.HandleFunc("GET /api/v1/zones", s.handleZones)
	mux.HandleFunc("GET /api/v1/hours", s.handleHours)
	mux.HandleFunc("GET /api/v1/overlap", s.handleOverlap)
	mux.HandleFunc("GET /api/v1/context", s.handleContext)
	mux.HandleFunc("GET /api/v1/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/v1/settings", s.handlePutSettings)

	antiCSRF := http.NewCrossOriginProtection()
	return s.wrap(antiCSRF.Handler(mux))
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *server) wrap(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		defer func() {
			if err := recover(); err != nil {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]

				s.logger.Error("PANIC: Request handler crashed",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", requestID,
					"client_ip", clientIP(r),
					"user_agent", r.Header.Get("User-Agent"),
					"stack", string(buf))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=(), usb=(), bluetooth=()")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
			if !s.limiter.allow(clientIP(r)) {
				s.logger.Warn("Rate limit exceeded",
					"request_id", requestID,
					"client_ip", clientIP(r),
					"path", r.URL.Path)
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded", "")
				return
			}
		}

		handler.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Error       string   `json:"error"`
	Details     string   `json:"details,omitempty"`
	Code        string   `json:"code,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck,errchkjson // client went away
}

func writeError(w http.ResponseWriter, status int, code, msg, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details, Code: code})
}

// zoneParam resolves a free-text query parameter ("tokyo", "EST") to a record.
func (s *server) zoneParam(w http.ResponseWriter, r *http.Request, name string) (zones.Record, bool) {
	text := strings.TrimSpace(r.URL.Query().Get(name))
	if text == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMETER", "Missing parameter", fmt.Sprintf("%q is required", name))
		return zones.Record{}, false
	}
	registry := s.engine.Registry()
	if id, ok := registry.Resolve(text); ok {
		if rec, ok := registry.ByID(id); ok {
			return rec, true
		}
	}
	writeError(w, http.StatusNotFound, "ZONE_NOT_FOUND", "Timezone not found", fmt.Sprintf("No timezone matches %q", text))
	return zones.Record{}, false
}

// dateParam parses ?date=YYYY-MM-DD, defaulting to today in rec's zone.
func (s *server) dateParam(w http.ResponseWriter, r *http.Request, rec zones.Record) (time.Time, bool) {
	text := r.URL.Query().Get("date")
	if text == "" {
		now := s.engine.Now()
		if loc, err := rec.Location(); err == nil {
			now = now.In(loc)
		}
		return now, true
	}
	d, err := time.Parse(time.DateOnly, text)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_DATE", "Invalid date", "Use YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

type askRequest struct {
	Query   string `json:"query"`
	Context bool   `json:"context"`
}

type askResponse struct {
	*tzq.Answer

	Context *briefing.Panel `json:"context,omitempty"`
}

func (s *server) handleAsk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := w.Header().Get("X-Request-ID")

	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.logger.Info("Invalid request body", "request_id", requestID, "error", err)
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request", "Send {\"query\": \"3pm EST to Tokyo\"}")
		return
	}
	req.Query = strings.TrimSpace(req.Query)

	cacheKey := "ask:" + strconv.FormatBool(req.Context) + ":" + strings.ToLower(req.Query)
	if data, found := s.cache.Get(cacheKey); found {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "memory-hit")
		if _, err := w.Write(data); err != nil {
			s.logger.Debug("Failed to write cached response", "request_id", requestID, "error", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), askTimeout)
	defer cancel()

	answer, err := s.engine.Ask(ctx, req.Query)
	if err != nil {
		s.askError(w, requestID, req.Query, err)
		return
	}
	resp := askResponse{Answer: answer}
	if req.Context {
		if resp.Context, err = s.engine.Panel(ctx, answer); err != nil {
			s.logger.Warn("Context panel failed", "request_id", requestID, "error", err)
		}
	}

	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("JSON encoding failed", "request_id", requestID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Encoding failed", "")
		return
	}
	s.cache.Set(cacheKey, data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "miss")
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("Failed to write response", "request_id", requestID, "error", err)
		return
	}
	s.logger.Info("Ask request completed",
		"request_id", requestID,
		"from", answer.Result.From.ID,
		"to", answer.Result.To.ID,
		"source", answer.Source,
		"duration_ms", time.Since(start).Milliseconds())
}

func (s *server) askError(w http.ResponseWriter, requestID, text string, err error) {
	var qerr *tzq.QueryError
	switch {
	case errors.As(err, &qerr):
		s.logger.Info("Unanswerable query", "request_id", requestID, "query", text)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:       "Could not understand the query",
			Details:     qerr.Error(),
			Code:        "INVALID_QUERY",
			Suggestions: qerr.Suggestions,
		})
	case errors.Is(err, zones.ErrNotFound):
		s.logger.Info("Unknown timezone", "request_id", requestID, "query", text, "error", err)
		writeError(w, http.StatusNotFound, "ZONE_NOT_FOUND", "Timezone not found", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Error("Ask timeout", "request_id", requestID, "query", text, "error", err)
		writeError(w, http.StatusGatewayTimeout, "TIMEOUT", "Query took too long", "Please try again.")
	default:
		s.logger.Error("Ask failed", "request_id", requestID, "query", text, "error", err, "error_type", fmt.Sprintf("%T", err))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Query failed", "")
	}
}

type zoneEntry struct {
	zones.Record

	Favorite bool `json:"favorite"`
}

func (s *server) handleZones(w http.ResponseWriter, r *http.Request) {
	limit := maxZoneResult
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "Invalid limit", "")
			return
		}
		limit = n
	}

	q := r.URL.Query().Get("q")
	var records []zones.Record
	if strings.TrimSpace(q) == "" {
		records = s.engine.Registry().All()
	} else {
		records = s.engine.Registry().Search(q, limit)
	}

	prefs := s.settings.Snapshot()
	out := make([]zoneEntry, len(records))
	for i, rec := range records {
		out[i] = zoneEntry{Record: rec, Favorite: prefs.IsFavorite(rec.ID)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleHours(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.zoneParam(w, r, "zone")
	if !ok {
		return
	}
	date, ok := s.dateParam(w, r, rec)
	if !ok {
		return
	}
	hours, err := s.engine.Hours(rec.ID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Hours failed", "")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Zone  zones.Record     `json:"zone"`
		Hours []tzconvert.Hour `json:"hours"`
	}{rec, hours})
}

func (s *server) handleOverlap(w http.ResponseWriter, r *http.Request) {
	from, ok := s.zoneParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := s.zoneParam(w, r, "to")
	if !ok {
		return
	}
	date, ok := s.dateParam(w, r, from)
	if !ok {
		return
	}
	slots, err := s.engine.Overlap(from.ID, to.ID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Overlap failed", "")
		return
	}
	if slots == nil {
		slots = []tzconvert.OverlapSlot{}
	}
	writeJSON(w, http.StatusOK, struct {
		From    zones.Record            `json:"from"`
		To      zones.Record            `json:"to"`
		Overlap []tzconvert.OverlapSlot `json:"overlap"`
	}{from, to, slots})
}

func (s *server) handleContext(w http.ResponseWriter, r *http.Request) {
	from, ok := s.zoneParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := s.zoneParam(w, r, "to")
	if !ok {
		return
	}
	panel, err := s.engine.PanelFor(r.Context(), from.ID, to.ID)
	if err != nil {
		s.logger.Warn("Context panel failed", "request_id", w.Header().Get("X-Request-ID"), "error", err)
		writeError(w, http.StatusBadGateway, "CONTEXT_UNAVAILABLE", "Context unavailable", "")
		return
	}
	writeJSON(w, http.StatusOK, panel)
}

func (s *server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Snapshot())
}

// settingsPatch holds the fields of a PUT body. Missing fields are unchanged;
// favoriteTimezones replaces the whole list.
type settingsPatch struct {
	Theme              *string   `json:"theme"`
	TimeFormat         *string   `json:"timeFormat"`
	FavoriteTimezones  *[]string `json:"favoriteTimezones"`
	VoiceInputDuration *int      `json:"voiceInputDuration"`
}

func (s *server) applyPatch(p settingsPatch) error {
	if p.Theme != nil {
		if err := s.settings.SetTheme(*p.Theme); err != nil {
			return err
		}
	}
	if p.TimeFormat != nil {
		if err := s.settings.SetTimeFormat(*p.TimeFormat); err != nil {
			return err
		}
	}
	if p.VoiceInputDuration != nil {
		if err := s.settings.SetVoiceInputDuration(*p.VoiceInputDuration); err != nil {
			return err
		}
	}
	if p.FavoriteTimezones != nil {
		for _, id := range *p.FavoriteTimezones {
			if err := s.settings.AddFavorite(id); err != nil {
				return err
			}
		}
		for _, id := range s.settings.Snapshot().FavoriteTimezones {
			if !lo.Contains(*p.FavoriteTimezones, id) {
				if err := s.settings.RemoveFavorite(id); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	requestID := w.Header().Get("X-Request-ID")

	var p settingsPatch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request", err.Error())
		return
	}

	if err := s.applyPatch(p); err != nil {
		// Drop the partial edit.
		if loadErr := s.settings.Load(r.Context()); loadErr != nil {
			s.logger.Warn("Failed to reload settings", "request_id", requestID, "error", loadErr)
		}
		if errors.Is(err, settings.ErrInvalidValue) {
			writeError(w, http.StatusBadRequest, "INVALID_SETTING", "Invalid setting", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Update failed", "")
		return
	}

	if err := s.settings.Save(r.Context()); err != nil {
		s.logger.Error("Failed to save settings", "request_id", requestID, "error", err)
		writeError(w, http.StatusInternalServerError, "SAVE_FAILED", "Could not save settings", "")
		return
	}
	writeJSON(w, http.StatusOK, s.settings.Snapshot())
}
