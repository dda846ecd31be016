package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Grades is the ordered grade list of a material. Duplicates are kept.
type Grades []string

// ParseGrades decodes the stored JSON array. Empty input yields an empty list.
func ParseGrades(raw string) (Grades, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return Grades{}, nil
	}
	var g Grades
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, fmt.Errorf("parse grades: %w", err)
	}
	if g == nil {
		g = Grades{}
	}
	return g, nil
}

// Serialize encodes the list as the stored JSON array.
func (g Grades) Serialize() string {
	if g == nil {
		return "[]"
	}
	b, _ := json.Marshal([]string(g))
	return string(b)
}

// Clean trims entries and drops blanks, keeping order.
func (g Grades) Clean() Grades {
	out := make(Grades, 0, len(g))
	for _, s := range g {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (g *Grades) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*g = Grades{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("grades: unsupported type %T", src)
	}
	parsed, err := ParseGrades(raw)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

func (g Grades) Value() (driver.Value, error) {
	return g.Serialize(), nil
}
