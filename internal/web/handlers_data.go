package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/restaurant-etl/internal/core"
	"github.com/JonMunkholm/restaurant-etl/internal/database"
	"github.com/JonMunkholm/restaurant-etl/internal/logging"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	defaultRunLimit = 20
	healthTimeout   = 2 * time.Second
)

// RestaurantResponse is the JSON form of a stored restaurant.
type RestaurantResponse struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Address          string  `json:"address"`
	Phone            *string `json:"phone"`
	Email            *string `json:"email"`
	OpeningDate      string  `json:"opening_date"`
	SeatsCount       int32   `json:"seats_count"`
	RestaurantTypeID int32   `json:"restaurant_type_id"`
	IsActive         bool    `json:"is_active"`
	CreatedAt        string  `json:"created_at"`
}

func toRestaurantResponse(r core.Restaurant) RestaurantResponse {
	resp := RestaurantResponse{
		ID:               r.ID,
		Name:             r.Name,
		Address:          r.Address,
		OpeningDate:      r.OpeningDate.Format(time.DateOnly),
		SeatsCount:       r.SeatsCount,
		RestaurantTypeID: r.RestaurantTypeID,
		IsActive:         r.IsActive,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
	if r.Phone.Valid {
		resp.Phone = &r.Phone.String
	}
	if r.Email.Valid {
		resp.Email = &r.Email.String
	}
	return resp
}

// ImportRunResponse is the JSON form of a recorded run.
type ImportRunResponse struct {
	ID         string `json:"id"`
	FileName   string `json:"file_name"`
	Entity     string `json:"entity"`
	Total      int    `json:"total_records"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
	FatalError string `json:"fatal_error,omitempty"`
	StartedAt  string `json:"started_at"`
	DurationMS int64  `json:"duration_ms"`
}

func toImportRunResponse(run core.ImportRun) ImportRunResponse {
	return ImportRunResponse{
		ID:         run.ID,
		FileName:   run.FileName,
		Entity:     string(run.Entity),
		Total:      run.Total,
		Successful: run.Successful,
		Failed:     run.Failed,
		Skipped:    run.Skipped,
		FatalError: run.FatalError,
		StartedAt:  run.StartedAt.Format(time.RFC3339),
		DurationMS: run.Duration.Milliseconds(),
	}
}

// handleDashboard renders the landing page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := dashboardData{Limiter: s.importer.LimiterStatus()}

	runs, err := s.catalog.ListImportRuns(r.Context(), defaultRunLimit)
	if err != nil {
		logging.FromContext(r.Context()).Error("dashboard: list runs", "error", err)
		data.RunsErr = core.MapError(err).Message
	}
	data.Runs = runs

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardPage(data).Render(r.Context(), w); err != nil {
		respondErrorLogOnly(r, err)
	}
}

// handleHealth pings the database and reports slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	body := map[string]any{
		"status":  "ok",
		"imports": s.importer.LimiterStatus(),
	}
	status := http.StatusOK
	if err := s.catalog.Ping(ctx); err != nil {
		logging.FromContext(r.Context()).Warn("health: database ping failed", "error", err)
		body["status"] = "degraded"
		body["database"] = core.MapError(err).Message
		status = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, status, body)
}

// handleListRuns returns recent import runs.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultRunLimit, maxPageSize)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	runs, err := s.catalog.ListImportRuns(r.Context(), int32(limit))
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	out := make([]ImportRunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, toImportRunResponse(run))
	}
	writeJSON(w, out)
}

// handleListRestaurants lists restaurants with optional name and active filters.
func (s *Server) handleListRestaurants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := queryInt(r, "limit", defaultPageSize, maxPageSize)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	offset, err := queryInt(r, "offset", 0, -1)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	filter := database.ListRestaurantsParams{
		NameContains: q.Get("name"),
		Limit:        uint64(limit),
		Offset:       uint64(offset),
	}
	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, r, fmt.Errorf("%w: active=%q", core.ErrInvalidParameter, raw), nil)
			return
		}
		filter.Active = &active
	}

	rows, err := s.catalog.ListRestaurants(r.Context(), filter)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	out := make([]RestaurantResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRestaurantResponse(row))
	}
	writeJSON(w, out)
}

// handleGetRestaurant returns one restaurant.
func (s *Server) handleGetRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	row, err := s.catalog.GetRestaurant(r.Context(), id)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	writeJSON(w, toRestaurantResponse(row))
}

// handleDeleteRestaurant removes one restaurant.
func (s *Server) handleDeleteRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	if err := s.catalog.DeleteRestaurant(r.Context(), id); err != nil {
		respondError(w, r, err, nil)
		return
	}
	logging.FromContext(r.Context()).Info("restaurant deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// queryInt parses a non-negative integer query parameter. upper < 0
// disables the upper bound.
func queryInt(r *http.Request, name string, def, upper int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || (upper >= 0 && n > upper) {
		return 0, fmt.Errorf("%w: %s=%q", core.ErrInvalidParameter, name, raw)
	}
	return n, nil
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id=%q", core.ErrInvalidParameter, raw)
	}
	return id, nil
}
