// FilePath: api/resources/api.resource.readings.go
package resources

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/zekarki/WeatherAPI/internal/auth"
	"github.com/zekarki/WeatherAPI/internal/errors"
	"github.com/zekarki/WeatherAPI/internal/gateway"
	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/policy"
	"github.com/zekarki/WeatherAPI/internal/repository"
	"github.com/zekarki/WeatherAPI/internal/service"
	"github.com/zekarki/WeatherAPI/internal/validation"
)

// ReadingHandlers builds the operations behind /reading and /readings
type ReadingHandlers struct {
	service *service.Service
	scheme  auth.Scheme
}

func (h *ReadingHandlers) validID(id string) bool {
	return h.service.ReadingIDs().ValidID(id)
}

// @Summary Insert a reading
// @Description Store one sensor reading. The server assigns Time.
// @Tags readings
// @Accept json
// @Produce json
// @Param reading body object true "Reading document"
// @Success 201 {object} map[string]string
// @Failure 400 {object} errors.APIError
// @Failure 401 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Router /reading [post]
// @Security BasicAuth
func (h *ReadingHandlers) Insert() gateway.Operation {
	return gateway.Operation{
		Name:   policy.ReadingInsert,
		Scheme: h.scheme,
		Validate: func(ex *gateway.Exchange) (any, error) {
			doc, err := gateway.DecodeObject(ex)
			if err != nil {
				return nil, err
			}
			return doc, validation.ReadingInsert(doc)
		},
		Invoke: func(ctx context.Context, ex *gateway.Exchange) (*gateway.Response, error) {
			id, err := h.service.InsertReading(ctx, ex.Input.(map[string]any))
			if err != nil {
				return nil, err
			}
			return gateway.Created(map[string]string{"inserted_id": id}), nil
		},
	}
}

// @Summary Update a reading
// @Description Set fields on one reading
// @Tags readings
// @Accept json
// @Produce json
// @Param update body object true "{_id, update_fields}"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.APIError
// @Router /reading [put]
// @Router /reading [patch]
// @Security BasicAuth
func (h *ReadingHandlers) Update() gateway.Operation {
	return gateway.Operation{
		Name:   policy.ReadingUpdate,
		Scheme: h.scheme,
		Validate: func(ex *gateway.Exchange) (any, error) {
			body, err := gateway.DecodeObject(ex)
			if err != nil {
				return nil, err
			}
			return validation.ReadingUpdate(body, h.validID)
		},
		Invoke: func(ctx context.Context, ex *gateway.Exchange) (*gateway.Response, error) {
			n, err := h.service.UpdateReading(ctx, ex.Input.(validation.UpdateItem))
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return gateway.OK(message("No change")), nil
			}
			return gateway.OK(message("Updated")), nil
		},
	}
}

// lookupInput reads the id from the body or the query and the range from the query
func (h *ReadingHandlers) lookupInput(ex *gateway.Exchange, requireDevice bool) (service.ReadingLookup, error) {
	var q models.ReadingQuery
	if err := gateway.DecodeQuery(ex, &q); err != nil {
		return service.ReadingLookup{}, err
	}
	// an unparsable body is treated as empty
	if body, err := gateway.DecodeObject(ex); err == nil {
		if id, ok := body[models.FieldID].(string); ok && id != "" {
			q.ID = id
		}
	}
	lookup := service.ReadingLookup{ID: q.ID, DeviceName: q.Sensor}
	if q.ID != "" {
		if !h.validID(q.ID) {
			return lookup, &validation.ValidationError{Field: models.FieldID, Reason: fmt.Sprintf("'%s' is not a valid identifier", q.ID)}
		}
		return lookup, nil
	}
	if q.Start == "" || q.End == "" || (requireDevice && q.Sensor == "") {
		return lookup, nil
	}
	tr, err := validation.LookupRange(q.Start, q.End)
	if err != nil {
		return lookup, err
	}
	lookup.Range = &tr
	return lookup, nil
}

// @Summary Find a reading
// @Description Lookup by _id (body or query), else by sensor with start/end, else the hottest reading between start and end
// @Tags readings
// @Produce json
// @Param _id query string false "Reading id"
// @Param sensor query string false "Device name"
// @Param start query string false "YYYY-MM-DDTHH:MM"
// @Param end query string false "YYYY-MM-DDTHH:MM"
// @Success 200 {object} object
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /reading [get]
// @Security BasicAuth
func (h *ReadingHandlers) Get() gateway.Operation {
	return gateway.Operation{
		Name:   policy.ReadingGet,
		Scheme: h.scheme,
		Validate: func(ex *gateway.Exchange) (any, error) {
			lookup, err := h.lookupInput(ex, false)
			if err != nil {
				return nil, err
			}
			if lookup.ID == "" && lookup.Range == nil {
				return nil, &validation.ValidationError{Field: models.FieldID, Reason: "Missing _id in body or start/end in URL"}
			}
			return lookup, nil
		},
		Invoke: func(ctx context.Context, ex *gateway.Exchange) (*gateway.Response, error) {
			reading, kind, err := h.service.LookupReading(ctx, ex.Input.(service.ReadingLookup))
			if kind == service.LookupMaxTemperature {
				if stderrors.Is(err, repository.ErrNotFound) {
					return gateway.OK([]*models.Reading{}), nil
				}
				if err != nil {
					return nil, err
				}
				return gateway.OK([]*models.Reading{reading}), nil
			}
			if err != nil {
				return nil, notFound(err, kind, "No record found with this ID", "No matching record found by Sensor/Time")
			}
			return gateway.OK(reading), nil
		},
	}
}

// @Summary Delete a reading
// @Description Copy the reading into the deletion log, then remove it
// @Tags readings
// @Accept json
// @Produce json
// @Param reading body object true "{_id}"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errors.APIError
// @Router /reading [delete]
// @Security BasicAuth
func (h *ReadingHandlers) Delete() gateway.Operation {
	return gateway.Operation{
		Name:   policy.ReadingDelete,
		Scheme: h.scheme,
		Validate: func(ex *gateway.Exchange) (any, error) {
			body, err := gateway.DecodeObject(ex)
			if err != nil {
				return nil, err
			}
			return validation.ReadingID(body, h.validID, "Missing _id for deletion")
		},
		Invoke: func(ctx context.Context, ex *gateway.Exchange) (*gateway.Response, error) {
			if err := h.service.DeleteReading(ctx, ex.Input.(string)); err != nil {
				return nil, err
			}
			return gateway.OK(message("Reading deleted and logged successfully")), nil
		},
	}
}

// @Summary Insert readings
// @Description Store a list of readings. Any invalid item rejects the whole list.
// @Tags readings
// @Accept json
// @Produce json
// @Param readings body []object true "Reading documents"
// @Success 201 {object} map[string][]string
// @Failure 400 {object} errors.APIError
// @Router /readings [post]
// @Security BasicAuth
func (h *ReadingHandlers) InsertMany() gateway.Operation {
	return gateway.Operation{
		Name:   policy.ReadingsInsert,
		Scheme: h.scheme,
		Validate: func(ex *gateway.Exchange) (any, error) {
			body, err := gateway.DecodeAny(ex)
			if err != nil {
				return nil, err
			}
			return validation.ReadingsInsert(body)
		},
		Invoke: func(ctx context.Context, ex *gateway.Exchange) (*gateway.Response, error) {
			ids, err := h.service.InsertReadings(ctx, ex.Input.([]map[string]any))
			if err != nil {
				return nil, err
			}
			return gateway.Created(map[string][]string{"inserted_ids": ids}), nil
		},
	}
}

// @Summary Display a reading
// @Description Lookup by _id or by sensor with start/end, shaped for display
// @Tags readings
// @Produce json
// @Param _id query string false "Reading id"
// @Param sensor query string false "Device name"
// @Param start query string false "YYYY-MM-DDTHH:MM"
// @Param end query string false "YYYY-MM-DDTHH:MM"
// @Success 200 {object} object
// @Failure 404 {object} errors.APIError
// @Router /readings [get]
// @Security BasicAuth
func (h *ReadingHandlers) GetMany() gateway.Operation {
	return gateway.Operation{
		Name:   policy.ReadingsGet,
		Scheme: h.scheme,
		Validate: func(ex *gateway.Exchange) (any, error) {
			lookup, err := h.lookupInput(ex, true)
			if err != nil {
				return nil, err
			}
			if lookup.ID == "" && lookup.Range == nil {
				return nil, &validation.ValidationError{Field: "sensor", Reason: "Missing parameters"}
			}
			return lookup, nil
		},
		Invoke: func(ctx context.Context, ex *gateway.Exchange) (*gateway.Response, error) {
			reading, kind, err := h.service.LookupReading(ctx, ex.Input.(service.ReadingLookup))
			if err != nil {
				return nil, notFound(err, kind, "No matching record found by ID", "No matching record found by Sensor/Time")
			}
			return gateway.OK(models.DisplayReading(reading)), nil
		},
	}
}

// @Summary Update readings
// @Description Apply {id, update_fields} items. Incomplete items are skipped; an invalid item rejects the batch.
// @Tags readings
// @Accept json
// @Produce json
// @Param updates body object true "{updates: [{id, update_fields}]}"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.APIError
// @Router /readings [put]
// @Router /readings [patch]
// @Security BasicAuth
func (h *ReadingHandlers) UpdateMany() gateway.Operation {
	return gateway.Operation{
		Name:   policy.ReadingsUpdate,
		Scheme: h.scheme,
		Validate: func(ex *gateway.Exchange) (any, error) {
			body, err := gateway.DecodeObject(ex)
			if err != nil {
				return nil, err
			}
			return validation.ReadingsUpdate(body, h.validID)
		},
		Invoke: func(ctx context.Context, ex *gateway.Exchange) (*gateway.Response, error) {
			n, err := h.service.UpdateReadings(ctx, ex.Input.([]validation.UpdateItem))
			if err != nil {
				return nil, err
			}
			return gateway.OK(message(fmt.Sprintf("Updated %d record(s)", n))), nil
		},
	}
}

// @Summary Delete readings
// @Description Log and remove every listed reading that exists
// @Tags readings
// @Accept json
// @Produce json
// @Param ids body object true "{ids: []}"
// @Success 200 {object} map[string]string
// @Router /readings [delete]
// @Security BasicAuth
func (h *ReadingHandlers) DeleteMany() gateway.Operation {
	return gateway.Operation{
		Name:   policy.ReadingsDelete,
		Scheme: h.scheme,
		Validate: func(ex *gateway.Exchange) (any, error) {
			body, err := gateway.DecodeObject(ex)
			if err != nil {
				return nil, err
			}
			return validation.ReadingsDelete(body, h.validID)
		},
		Invoke: func(ctx context.Context, ex *gateway.Exchange) (*gateway.Response, error) {
			n, err := h.service.DeleteReadings(ctx, ex.Input.([]string))
			if err != nil {
				return nil, err
			}
			return gateway.OK(message(fmt.Sprintf("Deleted and logged %d record(s)", n))), nil
		},
	}
}

func notFound(err error, kind service.LookupKind, byID, byRange string) error {
	if !stderrors.Is(err, repository.ErrNotFound) {
		return err
	}
	if kind == service.LookupByID {
		return errors.NewNotFoundError(byID, err)
	}
	return errors.NewNotFoundError(byRange, err)
}
