package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/absolute-link/yt-chat-viewer/stats"
	"github.com/absolute-link/yt-chat-viewer/telemetry"
)

var startTime = time.Now()

// HandleHealthz responds to liveness probe requests.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleStatus reports service uptime and the live session count.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds": int(time.Since(startTime).Seconds()),
		"sessions":       h.sessionCount(),
	})
}

// HandleSessions creates a session (POST) or lists session ids (GET).
func (h *Handlers) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		id := h.createSession()
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	case http.MethodGet:
		h.mu.Lock()
		ids := make([]string, 0, len(h.sessions))
		for id := range h.sessions {
			ids = append(ids, id)
		}
		h.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"sessions": ids})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSessionDispatcher routes /sessions/{id} and /sessions/{id}/{op}.
func (h *Handlers) HandleSessionDispatcher(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)
	id := parts[0]
	if id == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	rs := h.lookupSession(id)

	op := ""
	if len(parts) == 2 {
		op = parts[1]
	}

	if op == "" && r.Method == http.MethodDelete {
		if !h.dropSession(id) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if rs == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	switch op {
	case "events":
		h.handleEvents(w, r, rs)
	case "reset":
		h.handleReset(w, r, rs)
	case "timeline":
		h.handleTimeline(w, r, rs)
	case "stats":
		h.handleStats(w, r, rs)
	case "currency":
		h.handleCurrency(w, r, rs)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// handleEvents feeds one chunk of replay bytes into the session. Chunks may
// split lines arbitrarily; pass ?final=1 with (or after) the last chunk to
// flush a trailing unterminated line.
func (h *Handlers) handleEvents(w http.ResponseWriter, r *http.Request, rs *replaySession) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}

	rs.mu.Lock()
	counts := rs.session.FeedChunk(body)
	if r.URL.Query().Get("final") == "1" {
		counts = rs.session.Finish()
	}
	rs.mu.Unlock()

	writeJSON(w, http.StatusOK, counts)
}

// handleReset discards all session state at once; nothing from the previous
// source survives, including any loaded currency table.
func (h *Handlers) handleReset(w http.ResponseWriter, r *http.Request, rs *replaySession) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rs.mu.Lock()
	rs.session.Reset()
	rs.rates = nil
	rs.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// timelineEntry is the wire shape of one timeline row.
type timelineEntry struct {
	ID         string  `json:"id,omitempty"`
	Kind       string  `json:"kind"`
	OffsetMsec int64   `json:"offsetMsec"`
	ChannelID  string  `json:"channelId,omitempty"`
	UserName   string  `json:"userName,omitempty"`
	IsDeleted  bool    `json:"isDeleted"`
	IsTimedOut bool    `json:"isTimedOut"`
	IsMember   bool    `json:"isMember"`
	IsMod      bool    `json:"isMod"`
	IsOwner    bool    `json:"isOwner"`
	Colour     string  `json:"colour,omitempty"`
	Currency   string  `json:"currency,omitempty"`
	Amount     float64 `json:"amount,omitempty"`
	GiftCount  int     `json:"giftCount,omitempty"`
	PollID     string  `json:"pollId,omitempty"`
	Text       string  `json:"text"`
	HTML       string  `json:"html"`
}

// handleTimeline serves a filtered, paginated view of the timeline.
// Params: filter (all|moderators|monetized), q (search), page (1-based), limit.
func (h *Handlers) handleTimeline(w http.ResponseWriter, r *http.Request, rs *replaySession) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	opts := stats.FilterOptions{
		Kind:   r.URL.Query().Get("filter"),
		Search: r.URL.Query().Get("q"),
	}
	page := parseIntQuery(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := parseIntQuery(r, "limit", h.cfg.PageLimit)
	if limit <= 0 || limit > h.cfg.PageLimit {
		limit = h.cfg.PageLimit
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	filtered := stats.Filter(rs.session.Timeline(), opts)
	total := len(filtered)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	out := make([]timelineEntry, 0, end-start)
	for _, e := range filtered[start:end] {
		out = append(out, timelineEntry{
			ID:         e.ID,
			Kind:       e.Kind.String(),
			OffsetMsec: e.OffsetMsec,
			ChannelID:  e.ChannelID,
			UserName:   e.UserName,
			IsDeleted:  e.IsDeleted,
			IsTimedOut: e.IsTimedOut,
			IsMember:   e.IsMember,
			IsMod:      e.IsMod,
			IsOwner:    e.IsOwner,
			Colour:     e.Colour,
			Currency:   e.CurrencyLabel,
			Amount:     e.Amount,
			GiftCount:  e.GiftCount,
			PollID:     e.PollID,
			Text:       e.TextContent,
			HTML:       rs.session.RenderHTML(e),
		})
	}

	pages := (total + limit - 1) / limit
	if pages == 0 {
		pages = 1
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": out,
		"page":    page,
		"pages":   pages,
		"total":   total,
	})
}

// handleStats serves aggregate statistics over the full timeline and over the
// filtered view defined by the same filter params the timeline accepts.
func (h *Handlers) handleStats(w http.ResponseWriter, r *http.Request, rs *replaySession) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	opts := stats.FilterOptions{
		Kind:   r.URL.Query().Get("filter"),
		Search: r.URL.Query().Get("q"),
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	timeline := rs.session.Timeline()
	all := stats.Calculate(timeline)
	filtered := stats.Calculate(stats.Filter(timeline, opts))

	writeJSON(w, http.StatusOK, map[string]any{
		"all":      all,
		"filtered": filtered,
	})
}

// handleCurrency runs the one-shot currency enrichment: loads the USD rate
// table on first call (later calls reuse it) and prices the session's
// per-label currency totals in US dollars. Failure leaves the session's
// table untouched.
func (h *Handlers) handleCurrency(w http.ResponseWriter, r *http.Request, rs *replaySession) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.rates == nil {
		table, err := h.rates.LoadUSDRates(r.Context())
		if err != nil {
			telemetry.LoggerWithCorr(r.Context()).Warn("currency lookup failed", "err", err)
			http.Error(w, "failed to load currency conversions", http.StatusBadGateway)
			return
		}
		rs.rates = table
	}

	report := stats.Calculate(rs.session.Timeline())
	priced, totalUSD, unpriced := rs.rates.ConvertTotals(report.Totals.CurrencyTotals)

	writeJSON(w, http.StatusOK, map[string]any{
		"totalUsd": totalUSD,
		"priced":   priced,
		"unpriced": unpriced,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
