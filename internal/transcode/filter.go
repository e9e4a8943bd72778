package transcode

import "strings"

// Comparison suffixes recognized on filter keys.
const (
	suffixGte      = "_gte"
	suffixLte      = "_lte"
	suffixNeq      = "_neq"
	suffixContains = "_q"
)

// TranslateFilter converts a flat filter expression into the backend's
// operator-object syntax. Keys carrying a comparison suffix map to the
// corresponding operator, the id key maps to a $in batch match, nested
// objects recurse, and everything else becomes an exact match. A nil
// filter yields nil.
func TranslateFilter(filter map[string]interface{}) map[string]interface{} {
	if filter == nil {
		return nil
	}

	out := make(map[string]interface{}, len(filter))
	for key, value := range filter {
		if nested, ok := value.(map[string]interface{}); ok {
			out[key] = TranslateFilter(nested)
			continue
		}

		switch {
		case key == "id":
			out[key] = operator("$in", value)
		case strings.HasSuffix(key, suffixGte):
			out[strings.TrimSuffix(key, suffixGte)] = operator("$gte", value)
		case strings.HasSuffix(key, suffixLte):
			out[strings.TrimSuffix(key, suffixLte)] = operator("$lte", value)
		case strings.HasSuffix(key, suffixNeq):
			out[strings.TrimSuffix(key, suffixNeq)] = operator("$ne", value)
		case strings.HasSuffix(key, suffixContains):
			out[strings.TrimSuffix(key, suffixContains)] = operator("$containsi", value)
		default:
			out[key] = operator("$eq", value)
		}
	}
	return out
}

func operator(op string, value interface{}) map[string]interface{} {
	return map[string]interface{}{op: value}
}
