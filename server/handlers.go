package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/absolute-link/yt-chat-viewer/chat"
	"github.com/absolute-link/yt-chat-viewer/config"
	"github.com/absolute-link/yt-chat-viewer/currency"
	"github.com/absolute-link/yt-chat-viewer/telemetry"
)

// replaySession pairs a classifier session with its one-shot currency table.
// The mutex serializes all access: records are classified strictly one at a
// time, and readers never observe a half-applied record.
type replaySession struct {
	mu       sync.Mutex
	session  *chat.Session
	rates    currency.Table
	lastUsed time.Time
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	cfg      *config.Config
	rates    *currency.Client
	mu       sync.Mutex
	sessions map[string]*replaySession
}

// NewHandlers creates a Handlers instance and starts the session expiry loop
// bound to ctx.
func NewHandlers(ctx context.Context, cfg *config.Config) *Handlers {
	h := &Handlers{
		cfg:      cfg,
		rates:    currency.NewClient(cfg.CurrencyAPIURL, cfg.CurrencyTimeout),
		sessions: make(map[string]*replaySession),
	}
	go h.expireLoop(ctx)
	return h
}

// createSession registers a fresh session and returns its id.
func (h *Handlers) createSession() string {
	id := uuid.New().String()
	h.mu.Lock()
	h.sessions[id] = &replaySession{session: chat.NewSession(), lastUsed: time.Now()}
	n := len(h.sessions)
	h.mu.Unlock()
	telemetry.SetActiveSessions(n)
	slog.Info("session created", slog.String("session_id", id), slog.String("component", "http"))
	return id
}

// lookupSession fetches a session by id, refreshing its last-used time.
func (h *Handlers) lookupSession(id string) *replaySession {
	h.mu.Lock()
	defer h.mu.Unlock()
	rs, ok := h.sessions[id]
	if !ok {
		return nil
	}
	rs.lastUsed = time.Now()
	return rs
}

// dropSession removes a session; reports whether it existed.
func (h *Handlers) dropSession(id string) bool {
	h.mu.Lock()
	_, ok := h.sessions[id]
	delete(h.sessions, id)
	n := len(h.sessions)
	h.mu.Unlock()
	telemetry.SetActiveSessions(n)
	return ok
}

func (h *Handlers) sessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// expireLoop drops sessions idle past the configured TTL.
func (h *Handlers) expireLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-h.cfg.SessionTTL)
			h.mu.Lock()
			for id, rs := range h.sessions {
				if rs.lastUsed.Before(cutoff) {
					delete(h.sessions, id)
					slog.Info("session expired", slog.String("session_id", id), slog.String("component", "http"))
				}
			}
			n := len(h.sessions)
			h.mu.Unlock()
			telemetry.SetActiveSessions(n)
		}
	}
}
