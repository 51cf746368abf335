package schema

import (
	"encoding/json"
	"strings"
	"time"
)

// dateFormats is the ordered list of layouts tried when parsing a date
// from model output. First success wins; exhaustion yields absence.
var dateFormats = []string{
	"2006-01-02",
	"02.Jan.2006",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
}

// Date is a calendar date parsed leniently from model output. A zero
// Date means the field was absent or unreadable; it marshals as null.
type Date struct {
	time.Time
}

// ParseDate attempts each known layout in order. Unparseable values are
// reported as absent rather than errors.
func ParseDate(value string) (Date, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Date{}, false
	}
	for _, layout := range dateFormats {
		candidate := value
		if strings.Contains(layout, "Jan") {
			candidate = normalizeMonthCase(candidate)
		}
		if t, err := time.Parse(layout, candidate); err == nil {
			return Date{t}, true
		}
	}
	return Date{}, false
}

// normalizeMonthCase rewrites "17.JAN.1706" as "17.Jan.1706" so the
// month-name layout matches regardless of the model's casing.
func normalizeMonthCase(value string) string {
	parts := strings.Split(value, ".")
	if len(parts) != 3 || parts[1] == "" {
		return value
	}
	month := strings.ToLower(parts[1])
	parts[1] = strings.ToUpper(month[:1]) + month[1:]
	return strings.Join(parts, ".")
}

// UnmarshalJSON accepts null, empty strings, and any known date layout.
// Values that cannot be parsed become the zero Date, never an error.
func (d *Date) UnmarshalJSON(data []byte) error {
	*d = Date{}
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	if parsed, ok := ParseDate(raw); ok {
		*d = parsed
	}
	return nil
}

// MarshalJSON renders the date as an ISO string, or null when absent.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format("2006-01-02"))
}
