// FilePath: internal/models/models.document.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Document is a schemaless record as stored by the document backends
type Document map[string]any

// Value implements the driver.Valuer interface
func (d Document) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface
func (d *Document) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*d = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Document", value)
	}
	return json.Unmarshal(data, d)
}
