package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gorilla/schema"
	"github.com/zekarki/WeatherAPI/internal/errors"
)

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// DecodeQuery fills dst from the URL query using its schema tags
func DecodeQuery(ex *Exchange, dst any) error {
	if err := queryDecoder.Decode(dst, ex.Request.URL.Query()); err != nil {
		return errors.NewValidationError(fmt.Sprintf("invalid query parameters: %v", err), err)
	}
	return nil
}

// DecodeObject parses the body as a JSON object. An empty body yields an empty object.
func DecodeObject(ex *Exchange) (map[string]any, error) {
	raw, err := ex.ReadBody()
	if err != nil {
		return nil, err
	}
	body := bytes.TrimSpace(raw)
	if len(body) == 0 {
		return map[string]any{}, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, errors.NewValidationError("request body must be a JSON object", err)
	}
	if obj == nil {
		obj = map[string]any{}
	}
	return obj, nil
}

// DecodeAny parses the body as any JSON value
func DecodeAny(ex *Exchange) (any, error) {
	raw, err := ex.ReadBody()
	if err != nil {
		return nil, err
	}
	body := bytes.TrimSpace(raw)
	if len(body) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, errors.NewValidationError("request body must be valid JSON", err)
	}
	return v, nil
}
