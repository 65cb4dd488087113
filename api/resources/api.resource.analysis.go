// FilePath: api/resources/api.resource.analysis.go
package resources

import (
	"context"
	stderrors "errors"

	"github.com/zekarki/WeatherAPI/internal/auth"
	"github.com/zekarki/WeatherAPI/internal/errors"
	"github.com/zekarki/WeatherAPI/internal/gateway"
	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/policy"
	"github.com/zekarki/WeatherAPI/internal/repository"
	"github.com/zekarki/WeatherAPI/internal/service"
	"github.com/zekarki/WeatherAPI/internal/validation"
)

// AnalysisHandlers builds the read-only aggregate operations
type AnalysisHandlers struct {
	service *service.Service
	scheme  auth.Scheme
}

// @Summary Peak precipitation
// @Description Highest precipitation reading of a sensor over the last 150 days
// @Tags analysis
// @Produce json
// @Param sensor query string true "Device name"
// @Success 200 {array} models.PrecipitationPeakView
// @Failure 400 {object} errors.APIError
// @Router /analysis [get]
// @Security BasicAuth
func (h *AnalysisHandlers) MaxPrecipitation() gateway.Operation {
	return gateway.Operation{
		Name:   policy.AnalysisMaxPrecipitation,
		Scheme: h.scheme,
		Validate: func(ex *gateway.Exchange) (any, error) {
			var q models.PrecipitationQuery
			if err := gateway.DecodeQuery(ex, &q); err != nil {
				return nil, err
			}
			if q.Sensor == "" {
				return nil, &validation.ValidationError{Field: "sensor", Reason: "sensor is required"}
			}
			return q, nil
		},
		Invoke: func(ctx context.Context, ex *gateway.Exchange) (*gateway.Response, error) {
			reading, err := h.service.MaxPrecipitation(ctx, ex.Input.(models.PrecipitationQuery).Sensor)
			if stderrors.Is(err, repository.ErrNotFound) {
				return gateway.OK([]models.PrecipitationPeakView{}), nil
			}
			if err != nil {
				return nil, err
			}
			return gateway.OK([]models.PrecipitationPeakView{models.PrecipitationView(reading)}), nil
		},
	}
}

type temperatureBounds struct {
	low, high float64
}

// @Summary Temperature range
// @Description Readings whose temperature lies between low and high, both included
// @Tags analysis
// @Produce json
// @Param low query number true "Lower bound"
// @Param high query number true "Upper bound"
// @Success 200 {array} object
// @Failure 400 {object} errors.APIError
// @Router /analysis/temp [get]
// @Security BasicAuth
func (h *AnalysisHandlers) TemperatureRange() gateway.Operation {
	return gateway.Operation{
		Name:   policy.AnalysisTemperatureRange,
		Scheme: h.scheme,
		Validate: func(ex *gateway.Exchange) (any, error) {
			var q models.TemperatureQuery
			if err := gateway.DecodeQuery(ex, &q); err != nil {
				return nil, err
			}
			low, high, err := validation.TemperatureBounds(q)
			if err != nil {
				return nil, err
			}
			return temperatureBounds{low: low, high: high}, nil
		},
		Invoke: func(ctx context.Context, ex *gateway.Exchange) (*gateway.Response, error) {
			b := ex.Input.(temperatureBounds)
			readings, err := h.service.TemperatureRange(ctx, b.low, b.high)
			if err != nil {
				return nil, err
			}
			return gateway.OK(readings), nil
		},
	}
}

// @Summary Max temperature per sensor
// @Description Highest temperature of every sensor between two dates
// @Tags analysis
// @Produce json
// @Param start query string true "YYYY-MM-DD"
// @Param end query string true "YYYY-MM-DD"
// @Success 200 {array} models.TemperaturePeakView
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /analysis/max-temp [get]
// @Security BasicAuth
func (h *AnalysisHandlers) MaxTemperature() gateway.Operation {
	return gateway.Operation{
		Name:   policy.AnalysisMaxTemperature,
		Scheme: h.scheme,
		Validate: func(ex *gateway.Exchange) (any, error) {
			var q models.DateRangeQuery
			if err := gateway.DecodeQuery(ex, &q); err != nil {
				return nil, err
			}
			return validation.DateRange("start", q.Start, "end", q.End)
		},
		Invoke: func(ctx context.Context, ex *gateway.Exchange) (*gateway.Response, error) {
			peaks, err := h.service.MaxTemperatureByDevice(ctx, ex.Input.(models.TimeRange))
			if err != nil {
				return nil, err
			}
			if len(peaks) == 0 {
				return nil, errors.NewNotFoundError("No records found", nil)
			}
			views := make([]models.TemperaturePeakView, 0, len(peaks))
			for _, p := range peaks {
				views = append(views, models.TemperatureView(p))
			}
			return gateway.OK(views), nil
		},
	}
}
