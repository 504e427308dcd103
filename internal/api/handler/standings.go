package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/scoracle-standings/internal/api/respond"
	"github.com/albapepper/scoracle-standings/internal/cache"
	"github.com/albapepper/scoracle-standings/internal/persist"
)

const csvContentType = "text/csv; charset=utf-8"

// ListStandings returns the dates that have a persisted result, newest first.
// @Summary List available dates
// @Tags standings
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/standings [get]
func (h *Handler) ListStandings(w http.ResponseWriter, r *http.Request) {
	const cacheKey = "standings:index"

	// The directory's own mtime moves whenever a document is renamed in.
	dirInfo, _ := os.Stat(h.dir)
	if data, etag, ok := h.cache.Get(cacheKey, dirInfo); ok {
		h.writeBody(w, r, "application/json", data, etag, cache.TTLIndex, true)
		return
	}

	dates, err := persist.ListDates(h.dir)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "READ_FAILED", "Could not list results")
		return
	}
	data, err := json.Marshal(map[string]interface{}{
		"league": h.cfg.League(),
		"dates":  dates,
		"count":  len(dates),
	})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_FAILED", "Could not encode response")
		return
	}

	etag := h.cache.Set(cacheKey, dirInfo, data, cache.TTLIndex)
	h.writeBody(w, r, "application/json", data, etag, cache.TTLIndex, false)
}

// GetLatestStandings returns the newest persisted result.
// @Summary Latest standings
// @Tags standings
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/standings/latest [get]
func (h *Handler) GetLatestStandings(w http.ResponseWriter, r *http.Request) {
	date, err := persist.LatestDate(h.dir)
	if err != nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "No standings have been extracted yet")
		return
	}
	h.serveArtifact(w, r, "standings:json:"+date, persist.JSONPath(h.dir, date), "application/json", cache.TTLLatest,
		func() (persist.Artifact, error) { return persist.LoadDocument(h.dir, date) })
}

// GetStandings returns the result persisted for one date.
// @Summary Standings for a date
// @Tags standings
// @Produce json
// @Param date path string true "ISO date (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/standings/{date} [get]
func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	h.serveArtifact(w, r, "standings:json:"+date, persist.JSONPath(h.dir, date), "application/json", cache.TTLDated,
		func() (persist.Artifact, error) { return persist.LoadDocument(h.dir, date) })
}

// GetStandingsCSV returns the tabular document persisted for one date.
// @Summary Standings CSV for a date
// @Tags standings
// @Produce text/csv
// @Param date path string true "ISO date (YYYY-MM-DD)"
// @Success 200 {string} string
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/standings/{date}/csv [get]
func (h *Handler) GetStandingsCSV(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	h.serveArtifact(w, r, "standings:csv:"+date, persist.CSVPath(h.dir, date), csvContentType, cache.TTLDated,
		func() (persist.Artifact, error) { return persist.LoadTabular(h.dir, date) })
}

func (h *Handler) dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := chi.URLParam(r, "date")
	if !persist.ValidDate(date) {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_DATE", "Date must be formatted YYYY-MM-DD")
		return "", false
	}
	return date, true
}

// serveArtifact answers from the cache while the file at path is the one the
// entry was built from, and reloads it otherwise.
func (h *Handler) serveArtifact(w http.ResponseWriter, r *http.Request, key, path, contentType string, ttl time.Duration, load func() (persist.Artifact, error)) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "No standings for that date")
		return
	}
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "READ_FAILED", "Could not read result")
		return
	}
	if data, etag, ok := h.cache.Get(key, info); ok {
		h.writeBody(w, r, contentType, data, etag, ttl, true)
		return
	}

	a, err := load()
	if errors.Is(err, os.ErrNotExist) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "No standings for that date")
		return
	}
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "READ_FAILED", "Could not read result")
		return
	}
	etag := h.cache.Set(key, a.Info, a.Data, ttl)
	h.writeBody(w, r, contentType, a.Data, etag, ttl, false)
}

// writeBody sends data, or a 304 when the client already holds etag.
func (h *Handler) writeBody(w http.ResponseWriter, r *http.Request, contentType string, data []byte, etag string, ttl time.Duration, cacheHit bool) {
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteBody(w, contentType, data, etag, ttl, cacheHit)
}
