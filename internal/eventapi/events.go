package eventapi

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/logtriage/internal/event"
)

// handleIngest accepts a raw batch for one log type and inserts the records
// that normalize cleanly and are not already stored. A malformed record
// skips that record only; the batch always completes.
func (a *API) handleIngest(w http.ResponseWriter, r *http.Request) {
	lt := event.LogType(chi.URLParam(r, "logType"))
	if lt == "" {
		writeError(w, http.StatusBadRequest, "log type is required")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	p := a.parsers.Get()
	raws, err := event.ParseBatch(p, body)
	a.parsers.Put(p)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records := make([]event.Record, 0, len(raws))
	for i := range raws {
		rec, err := event.Normalize(lt, &raws[i])
		if err != nil {
			a.logger.Warn(r.Context(), "dropping malformed record",
				"log_type", lt, "record_number", raws[i].Record, "error", err)
			continue
		}
		records = append(records, rec)
	}

	inserted, err := a.store.Ingest(r.Context(), lt, records)
	if err != nil {
		a.logger.Error(r.Context(), err, "ingest failed", "log_type", lt)
		writeError(w, http.StatusInternalServerError, "ingest failed")
		return
	}

	if a.metrics != nil {
		a.metrics.IngestBatches.WithLabelValues(string(lt)).Inc()
		a.metrics.EventsIngested.WithLabelValues(string(lt)).Add(float64(inserted))
		a.metrics.EventsSkipped.WithLabelValues(string(lt)).Add(float64(len(raws) - inserted))
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"received": len(raws),
		"inserted": inserted,
	})
}

// handleLatest serves the newest events, optionally filtered by log types
// and event id. Filters are conjunctive.
func (a *API) handleLatest(w http.ResponseWriter, r *http.Request) {
	q := event.LatestQuery{Limit: event.DefaultLimit}

	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		q.Limit = n
	}

	if s := r.URL.Query().Get("log_types"); s != "" {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				q.LogTypes = append(q.LogTypes, event.LogType(part))
			}
		}
	}

	if s := r.URL.Query().Get("event_id"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid event_id")
			return
		}
		q.EventID = &id
	}

	rows, err := a.store.Latest(r.Context(), q)
	if err != nil {
		a.logger.Error(r.Context(), err, "latest query failed")
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": rows,
		"count":  len(rows),
	})
}

// handleStats serves per-log-type aggregates and the grand total.
func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := a.store.Stats(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "stats query failed")
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
