// JSON-backed column types. SQLite and Postgres both store these as text;
// GORM uses the Valuer/Scanner pair for (de)serialization.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a []string persisted as a JSON array column.
type StringList []string

// Value implements driver.Valuer. A nil or empty list is stored as SQL NULL
// so optional columns stay empty instead of holding "[]".
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	return scanJSON(src, (*[]string)(l))
}

// ExpertSummaryList is a []ExpertSummary persisted as a JSON array column.
type ExpertSummaryList []ExpertSummary

// Value implements driver.Valuer.
func (l ExpertSummaryList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	b, err := json.Marshal([]ExpertSummary(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *ExpertSummaryList) Scan(src any) error {
	return scanJSON(src, (*[]ExpertSummary)(l))
}

func scanJSON(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON column source type %T", src)
	}
}
