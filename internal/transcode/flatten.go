package transcode

// Flatten converts a backend envelope tree (one object or an array of
// objects) into the flat frontend shape. The output never contains a
// data or attributes nesting: relations become bare ids or id arrays,
// media and components become fully expanded objects, and null relations
// become the empty string.
func Flatten(v interface{}) interface{} {
	switch val := v.(type) {
	case []interface{}:
		return FlattenList(val)
	case map[string]interface{}:
		return FlattenRecord(val)
	default:
		return v
	}
}

// FlattenList flattens each element of an envelope or attribute-level
// array. Resource envelopes unwrap to id plus attributes; elements already
// at attribute level (components, flat file objects) flatten in place.
func FlattenList(items []interface{}) []interface{} {
	out := make([]interface{}, 0, len(items))
	for _, item := range items {
		out = append(out, Flatten(item))
	}
	return out
}

// FlattenRecord flattens one object. An {id, attributes} envelope merges
// the id into the flattened attributes; anything else is treated as an
// attribute-level object and flattened field by field.
func FlattenRecord(obj map[string]interface{}) map[string]interface{} {
	if attrs, ok := obj["attributes"].(map[string]interface{}); ok {
		flat := flattenAttributes(attrs)
		if id, ok := obj["id"]; ok {
			flat["id"] = id
		}
		return flat
	}
	return flattenAttributes(obj)
}

func flattenAttributes(attrs map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(attrs))
	for key, value := range attrs {
		out[key] = flattenValue(value)
	}
	return out
}

func flattenValue(v interface{}) interface{} {
	switch Classify(v) {
	case KindComponentList:
		return FlattenList(v.([]interface{}))
	case KindMediaCollection:
		return flattenMediaCollection(refData(v).([]interface{}))
	case KindManyRelation:
		return flattenManyRelation(refData(v).([]interface{}))
	case KindMedia:
		// A single file keeps its full shape, id plus attributes.
		return Flatten(refData(v))
	case KindSingleRelation:
		return flattenSingleRelation(refData(v))
	case KindComponent:
		return FlattenRecord(v.(map[string]interface{}))
	default:
		return v
	}
}

func refData(v interface{}) interface{} {
	return v.(map[string]interface{})["data"]
}

func flattenMediaCollection(items []interface{}) []interface{} {
	out := make([]interface{}, 0, len(items))
	for _, item := range items {
		out = append(out, Flatten(item))
	}
	return out
}

func flattenManyRelation(items []interface{}) []interface{} {
	ids := make([]interface{}, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			ids = append(ids, m["id"])
		}
	}
	return ids
}

// flattenSingleRelation reduces {data: {id, ...}} to the bare id. A null
// data value, or one without an id to reference, becomes the empty string.
func flattenSingleRelation(data interface{}) interface{} {
	if m, ok := data.(map[string]interface{}); ok {
		if id, ok := m["id"]; ok {
			return id
		}
	}
	return ""
}
