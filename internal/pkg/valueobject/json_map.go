// Package valueobject holds small value types shared by storage adapters.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

var ErrScanValueNotBytes = errors.New("valueobject: jsonmap scan value is not []byte")

// JSONMap is a JSON object stored in a jsonb column.
type JSONMap map[string]any

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value any) error {
	var raw []byte

	switch v := value.(type) {
	case nil:
		*j = JSONMap{}
		return nil
	case map[string]any:
		*j = JSONMap(v)
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return ErrScanValueNotBytes
	}

	out := JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*j = out
	return nil
}

func (j JSONMap) GetString(key string) string {
	v, _ := j[key].(string)
	return v
}

// GetInt64 also accepts float64, which is what encoding/json produces for numbers.
func (j JSONMap) GetInt64(key string) int64 {
	switch v := j[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
