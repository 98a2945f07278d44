package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-lessons/internal/embed"
	syncx "github.com/mind-engage/mindengage-lessons/internal/sync"
)

// EmbedHandler resolves a YouTube watch link to its embed URL.
func EmbedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := embed.EmbedURLForWatchLink(strings.TrimSpace(r.URL.Query().Get("url")))
		if !ok {
			http.Error(w, "not a video link", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"embed_url": u})
	}
}

// RevalidationsHandler lists revalidate events after ?since=, oldest first.
// Clients resume from next_since.
func RevalidationsHandler(repo *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var since int64
		if v := r.URL.Query().Get("since"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				http.Error(w, "bad since", http.StatusBadRequest)
				return
			}
			since = n
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		events, err := repo.Since(r.Context(), since, limit)
		if err != nil {
			writeErr(w, err)
			return
		}
		next := since
		if len(events) > 0 {
			next = events[len(events)-1].Offset
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": events, "next_since": next})
	}
}
