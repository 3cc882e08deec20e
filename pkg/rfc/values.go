package rfc

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// Values is a caller-supplied mapping of parameter name to value.
// Scalars are strings, numbers or booleans; tables are lists of records.
type Values map[string]any

// String returns the scalar at key as SAP text. Missing keys, nil and
// blank strings all yield "". Booleans map to the ABAP flag convention
// ("X" for true, "" for false).
func (v Values) String(key string) string {
	return scalarString(v[key])
}

func scalarString(raw any) string {
	switch x := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "X"
		}
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// Rows returns the records stored at key. A missing or nil key yields no
// rows. Anything else that is not a list of records is an error, as is a
// list element that is not a record: a create call must never go out with
// lines silently dropped.
func (v Values) Rows(key string) ([]Values, error) {
	switch x := v[key].(type) {
	case nil:
		return nil, nil
	case []Values:
		return x, nil
	case []map[string]any:
		rows := make([]Values, 0, len(x))
		for _, r := range x {
			rows = append(rows, Values(r))
		}
		return rows, nil
	case []any:
		rows := make([]Values, 0, len(x))
		for i, r := range x {
			switch m := r.(type) {
			case map[string]any:
				rows = append(rows, Values(m))
			case Values:
				rows = append(rows, m)
			default:
				return nil, &InvalidRowError{Table: key, Row: i + 1}
			}
		}
		return rows, nil
	}
	return nil, &InvalidRowError{Table: key}
}

// InvalidRowError reports a table parameter that is not a list of records.
type InvalidRowError struct {
	Operation string
	Table     string
	// Row is the 1-based offending element, 0 when the value is not a list.
	Row int
}

func (e *InvalidRowError) Error() string {
	var msg string
	if e.Row > 0 {
		msg = fmt.Sprintf("item %d of %s is not an object", e.Row, e.Table)
	} else {
		msg = fmt.Sprintf("%s must be a list of objects", e.Table)
	}
	if e.Operation != "" {
		msg += " for operation " + e.Operation
	}
	return msg
}

// Clone returns a shallow copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	maps.Copy(out, v)
	return out
}

// ParseAssignments builds Values from KEY=VALUE pairs.
func ParseAssignments(pairs []string) (Values, error) {
	v := make(Values, len(pairs))
	for _, p := range pairs {
		key, val, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, want KEY=VALUE", p)
		}
		v[key] = val
	}
	return v, nil
}
