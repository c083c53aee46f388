package domain

// FormValues holds the live values of a form keyed by field name.
type FormValues map[string]any

func (v FormValues) Clone() FormValues {
	out := make(FormValues, len(v))
	for key, value := range v {
		out[key] = value
	}
	return out
}

// IsEmptyValue reports whether a form value counts as missing for required
// validation: nil, empty string, or an empty sequence. Zero numbers and false
// booleans are present values.
func IsEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}
