package scoring

import (
	"encoding/json"
	"strings"
)

// ParseBool is the lenient truthiness check used for every boolean-like
// applicant flag. Only true, numeric 1 and the strings "true", "1", "yes",
// "y" (any case, surrounding space ignored) count as set.
func ParseBool(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case *bool:
		return t != nil && *t
	case int:
		return t == 1
	case int32:
		return t == 1
	case int64:
		return t == 1
	case float32:
		return t == 1
	case float64:
		return t == 1
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 1
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "y":
			return true
		}
	}
	return false
}
