package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cozy-corner/y-junctions/pkg/db"
	"github.com/cozy-corner/y-junctions/pkg/importer"
	"github.com/cozy-corner/y-junctions/pkg/junction"
)

// Repository is the read surface the handlers need from the store.
type Repository interface {
	FindByBBox(ctx context.Context, f db.FilterParams) ([]junction.Junction, int64, error)
	FindByID(ctx context.Context, id int64) (*junction.Junction, error)
	CountTotal(ctx context.Context) (int64, error)
	CountByType(ctx context.Context) (map[string]int64, error)
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	repo Repository
}

// NewHandlers creates handlers backed by the given repository.
func NewHandlers(repo Repository) *Handlers {
	return &Handlers{repo: repo}
}

// HandleJunctions handles GET /api/junctions.
func (h *Handlers) HandleJunctions(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	junctions, totalCount, err := h.repo.FindByBBox(r.Context(), filters)
	if err != nil {
		slog.Error("junction query failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	writeJSON(w, http.StatusOK, toFeatureCollection(junctions, totalCount))
}

// HandleJunctionByID handles GET /api/junctions/{id}.
func (h *Handlers) HandleJunctionByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid junction id")
		return
	}

	j, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("junction lookup failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	if j == nil {
		writeError(w, http.StatusNotFound, "junction not found")
		return
	}

	writeJSON(w, http.StatusOK, toGeoJSON(j))
}

// HandleStats handles GET /api/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	totalCount, err := h.repo.CountTotal(r.Context())
	if err != nil {
		slog.Error("stats query failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	byType, err := h.repo.CountByType(r.Context())
	if err != nil {
		slog.Error("stats query failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{TotalCount: totalCount, ByType: byType})
}

// HandleHealth handles GET /api/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

type paramError string

func (e paramError) Error() string { return string(e) }

func parseFilters(r *http.Request) (db.FilterParams, error) {
	q := r.URL.Query()
	var f db.FilterParams

	bboxParam := q.Get("bbox")
	if bboxParam == "" {
		return f, paramError("bbox query parameter is required")
	}
	bbox, err := importer.ParseBBox(bboxParam)
	if err != nil {
		return f, paramError("invalid bbox: " + err.Error())
	}
	f.MinLon, f.MinLat = bbox.MinLon, bbox.MinLat
	f.MaxLon, f.MaxLat = bbox.MaxLon, bbox.MaxLat

	if v := q.Get("angle_type"); v != "" {
		for _, part := range strings.Split(v, ",") {
			at, err := junction.ParseAngleType(strings.TrimSpace(part))
			if err != nil {
				return f, paramError("invalid angle_type")
			}
			f.AngleTypes = append(f.AngleTypes, at)
		}
	}

	if v := q.Get("min_angle_lt"); v != "" {
		n, err := strconv.ParseInt(v, 10, 16)
		if err != nil {
			return f, paramError("invalid min_angle_lt")
		}
		lt := int16(n)
		f.MinAngleLT = &lt
	}
	if v := q.Get("min_angle_gt"); v != "" {
		n, err := strconv.ParseInt(v, 10, 16)
		if err != nil {
			return f, paramError("invalid min_angle_gt")
		}
		gt := int16(n)
		f.MinAngleGT = &gt
	}

	if v := q.Get("min_elevation_diff"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, paramError("invalid min_elevation_diff")
		}
		f.MinElevationDiff = &d
	}
	if v := q.Get("max_elevation_diff"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, paramError("invalid max_elevation_diff")
		}
		f.MaxElevationDiff = &d
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return f, paramError("limit must be a positive integer")
		}
		f.Limit = &n
	}

	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
