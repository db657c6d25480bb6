package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONB holds an arbitrary JSON value stored in a jsonb column.
type JSONB json.RawMessage

func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return []byte(j), nil
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = JSONB(v)
	case string:
		*j = JSONB(v)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
	return nil
}

func (j JSONB) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

func (j *JSONB) UnmarshalJSON(data []byte) error {
	*j = JSONB(data)
	return nil
}

// NewJSONB marshals v into a JSONB value.
func NewJSONB(v interface{}) (JSONB, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return JSONB(data), nil
}

// AsMap decodes the value into a generic map. Nil and non-object values
// decode to an empty map.
func (j JSONB) AsMap() map[string]interface{} {
	out := map[string]interface{}{}
	if len(j) == 0 {
		return out
	}
	_ = json.Unmarshal(j, &out)
	return out
}

// StringList is a []string stored as jsonb.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
}

// IntList is a []int stored as jsonb. Used for completed onboarding steps.
type IntList []int

func (l IntList) Value() (driver.Value, error) {
	if l == nil {
		l = IntList{}
	}
	return json.Marshal(l)
}

func (l *IntList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
}

func (l IntList) Contains(n int) bool {
	for _, v := range l {
		if v == n {
			return true
		}
	}
	return false
}

// Add appends n if absent and returns the list.
func (l IntList) Add(n int) IntList {
	if l.Contains(n) {
		return l
	}
	return append(l, n)
}

// PresetProgressEntry tracks installation progress for one preset kind.
type PresetProgressEntry struct {
	Status         string    `json:"status"`
	RecordsCreated int       `json:"records_created"`
	TotalExpected  int       `json:"total_expected"`
	Percentage     int       `json:"percentage"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PresetProgressMap maps preset kind to its progress, stored as jsonb.
type PresetProgressMap map[string]PresetProgressEntry

func (m PresetProgressMap) Value() (driver.Value, error) {
	if m == nil {
		m = PresetProgressMap{}
	}
	return json.Marshal(m)
}

func (m *PresetProgressMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
}
