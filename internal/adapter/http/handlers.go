package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/hyperlocal-weather-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds request bodies; a field boundary is a few KB at most.
const maxBodyBytes = 1 << 20

// ForecastService is the engine surface the API serves.
type ForecastService interface {
	GetFieldForecast(ctx context.Context, req domain.FieldRequest) (domain.HyperlocalForecast, error)
	GetCropSpecificForecast(ctx context.Context, req domain.CropRequest) (domain.CropForecast, error)
	GetWeatherTrends(ctx context.Context, req domain.TrendsRequest) (domain.WeatherTrends, error)
	AnalyzeFieldMicroclimate(ctx context.Context, req domain.MicroclimateRequest) (domain.GridPrediction, error)
	PredictGrid(ctx context.Context, req domain.GridRequest) (domain.GridPrediction, error)
}

type handler struct {
	svc    ForecastService
	logger *slog.Logger
}

// RegisterRoutes mounts the forecast endpoints.
func (h *handler) RegisterRoutes(r chi.Router) {
	r.Get("/forecasts/field", h.handleFieldForecast)
	r.Get("/forecasts/crop", h.handleCropForecast)
	r.Get("/trends", h.handleTrends)
	r.Post("/microclimate", h.handleMicroclimate)
	r.Post("/grid", h.handleGrid)
}

func (h *handler) handleFieldForecast(w http.ResponseWriter, r *http.Request) {
	req, err := parseFieldRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	f, err := h.svc.GetFieldForecast(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, f)
}

func (h *handler) handleCropForecast(w http.ResponseWriter, r *http.Request) {
	field, err := parseFieldRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	req := domain.CropRequest{
		FieldRequest: field,
		Crop:         domain.CropType(q.Get("crop")),
		Stage:        domain.GrowthStage(q.Get("stage")),
	}
	f, err := h.svc.GetCropSpecificForecast(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, f)
}

func (h *handler) handleTrends(w http.ResponseWriter, r *http.Request) {
	c, err := parseCoordinate(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	start, err := parseDate(r, "start")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	end, err := parseDate(r, "end")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	t, err := h.svc.GetWeatherTrends(r.Context(), domain.TrendsRequest{Coordinate: c, Start: start, End: end})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, t)
}

// microclimateBody accepts either a point list or a GeoJSON polygon.
type microclimateBody struct {
	FieldID  string              `json:"field_id"`
	Boundary []domain.Coordinate `json:"boundary"`
	Geometry json.RawMessage     `json:"geometry"`
}

func (h *handler) handleMicroclimate(w http.ResponseWriter, r *http.Request) {
	var body microclimateBody
	if err := decodeBody(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	boundary := body.Boundary
	if len(body.Geometry) > 0 {
		var err error
		if boundary, err = boundaryFromGeoJSON(body.Geometry); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	g, err := h.svc.AnalyzeFieldMicroclimate(r.Context(), domain.MicroclimateRequest{FieldID: body.FieldID, Boundary: boundary})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, g)
}

func (h *handler) handleGrid(w http.ResponseWriter, r *http.Request) {
	var req domain.GridRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	g, err := h.svc.PredictGrid(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, g)
}

func parseFieldRequest(r *http.Request) (domain.FieldRequest, error) {
	c, err := parseCoordinate(r)
	if err != nil {
		return domain.FieldRequest{}, err
	}
	return domain.FieldRequest{Coordinate: c, FieldID: r.URL.Query().Get("field_id")}, nil
}

func parseCoordinate(r *http.Request) (domain.Coordinate, error) {
	q := r.URL.Query()
	lat, err := parseFloat(q.Get("lat"), "lat")
	if err != nil {
		return domain.Coordinate{}, err
	}
	lon, err := parseFloat(q.Get("lon"), "lon")
	if err != nil {
		return domain.Coordinate{}, err
	}
	c := domain.Coordinate{Latitude: lat, Longitude: lon}
	if raw := q.Get("elevation"); raw != "" {
		elev, err := parseFloat(raw, "elevation")
		if err != nil {
			return domain.Coordinate{}, err
		}
		c.ElevationMeters = &elev
	}
	return c, nil
}

func parseFloat(raw, name string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: missing query parameter %q", domain.ErrInvalidInput, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: query parameter %q is not a number", domain.ErrInvalidInput, name)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: query parameter %q must be finite", domain.ErrInvalidInput, name)
	}
	return v, nil
}

func parseDate(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: query parameter %q must be YYYY-MM-DD", domain.ErrInvalidInput, name)
	}
	return t, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %w", domain.ErrInvalidInput, err)
	}
	return nil
}

// writeError maps domain errors to status codes: invalid input is the
// caller's fault, no predictions means nothing could be produced for the
// area, and everything else is an upstream failure.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNoPredictions):
		status = http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
