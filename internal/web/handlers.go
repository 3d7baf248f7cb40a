package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jaminalder/tictactoe-atlas/internal/app"
	"github.com/jaminalder/tictactoe-atlas/internal/domain"
)

type handlers struct {
	svc       *app.Service
	tpl       *templates
	log       *slog.Logger
	heartbeat time.Duration
	limiter   *claimLimiter
}

func (h *handlers) renderCard(e app.Entry, errMsg string) []byte {
	return renderTemplate(h.tpl.card, "", cardData{Entry: e, Error: errMsg})
}

// renderBroadcast is the service renderer for claim events.
func (h *handlers) renderBroadcast(e app.Entry) []byte {
	return renderTemplate(h.tpl.card, "", cardData{Entry: e, OOB: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Gallery(r.Context(), app.Filter{})
	if err != nil {
		h.log.Error("gallery failed", "err", err)
		http.Error(w, "failed to load gallery", http.StatusInternalServerError)
		return
	}
	claimed := 0
	for _, e := range entries {
		if e.Claimed() {
			claimed++
		}
	}
	data := struct {
		Entries []app.Entry
		Claimed int
	}{Entries: entries, Claimed: claimed}

	ensurePlayerCookie(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderTemplate(h.tpl.index, "base", data))
}

// parseFilter reads the turn, terminal and claimed query parameters.
func parseFilter(r *http.Request) (app.Filter, error) {
	var f app.Filter
	q := r.URL.Query()
	if v := q.Get("turn"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 9 {
			return f, fmt.Errorf("turn must be 0-9, got %q", v)
		}
		f.TurnCount = &n
	}
	if v := q.Get("terminal"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("terminal must be a boolean, got %q", v)
		}
		f.Terminal = &b
	}
	if v := q.Get("claimed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("claimed must be a boolean, got %q", v)
		}
		f.Claimed = &b
	}
	return f, nil
}

func (h *handlers) listStates(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entries, err := h.svc.Gallery(r.Context(), f)
	if err != nil {
		h.log.Error("gallery failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []app.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handlers) getState(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, e)
	}
}

func (h *handlers) claim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)
	if !h.limiter.allow(pid) {
		claimsTotal.WithLabelValues("throttled").Inc()
		cur, err := h.svc.Get(r.Context(), id)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write(h.renderCard(cur, "Too many claims, slow down"))
		return
	}
	e, err := h.svc.Claim(r.Context(), id, pid)
	var errMsg string
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNotFound):
			claimsTotal.WithLabelValues("not_found").Inc()
			http.NotFound(w, r)
			return
		case errors.Is(err, app.ErrAlreadyClaimed):
			claimsTotal.WithLabelValues("already_claimed").Inc()
			errMsg = "Already claimed"
		case errors.Is(err, app.ErrNotAPlayer):
			claimsTotal.WithLabelValues("not_a_player").Inc()
			errMsg = "You are not a player"
		default:
			claimsTotal.WithLabelValues("error").Inc()
			h.log.Error("claim failed", "state", id, "err", err)
			errMsg = "Claim failed"
		}
		// show the current owner alongside the error
		cur, gerr := h.svc.Get(r.Context(), id)
		if gerr != nil {
			http.NotFound(w, r)
			return
		}
		e = cur
	} else {
		claimsTotal.WithLabelValues("ok").Inc()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.renderCard(e, errMsg))
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// Non-EventSource requests only get the headers
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub := h.svc.Subscribe(ctx)
	defer unsub()
	sseClients.Inc()
	defer sseClients.Dec()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			_, _ = fmt.Fprintf(w, "event: claim\n")
			_, _ = fmt.Fprintf(w, "data: %s\n\n", singleLine(b))
			flusher.Flush()
		}
	}
}

// singleLine folds a fragment onto one line so it fits a single SSE data
// field.
func singleLine(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c == '\n' || c == '\r' {
			continue
		}
		out = append(out, c)
	}
	return out
}

type gameResponse struct {
	Moves        []int           `json:"moves"`
	States       []domain.Record `json:"states"`
	Winner       string          `json:"winner"`
	WinningLines [][3]int        `json:"winning_lines"`
}

func (h *handlers) randomGame(w http.ResponseWriter, r *http.Request) {
	g := h.svc.RandomGame()
	resp := gameResponse{Moves: g.Moves(), Winner: "draw"}
	for _, st := range g.History() {
		resp.States = append(resp.States, st.Record())
	}
	final := g.State().Record()
	resp.WinningLines = final.WinningLines
	if winner := g.Winner(); winner != domain.Empty {
		resp.Winner = winner.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) path(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Path(chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, rows)
	}
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Statistics())
}
