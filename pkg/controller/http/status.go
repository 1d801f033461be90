package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
)

const defaultJournalLimit = 50

// handleStatus returns the report of the last finished cycle
func handleStatus(status StatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := status.LastReport()
		if report == nil {
			writeError(w, goerr.New("no cycle has finished yet"), http.StatusNotFound)
			return
		}
		writeJSON(w, r, report)
	}
}

// handleJournal returns the most recent journal entries, newest first
func handleJournal(journal interfaces.Journal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultJournalLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, goerr.New("limit must be a positive integer", goerr.V("limit", v)), http.StatusBadRequest)
				return
			}
			limit = n
		}

		entries, err := journal.List(r.Context(), limit)
		if err != nil {
			ctxlog.From(r.Context()).Error("Failed to list journal", "error", err)
			writeError(w, goerr.Wrap(err, "failed to list journal"), http.StatusInternalServerError)
			return
		}
		writeJSON(w, r, entries)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctxlog.From(r.Context()).Error("Failed to encode response", "error", err)
	}
}
