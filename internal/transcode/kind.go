// Package transcode converts between the CMS backend's nested response
// envelope and the flat record shape the admin surface consumes.
//
// The backend wraps every resource in {id, attributes} and every relation
// in {data: ...}; media items additionally carry a mime marker inside their
// attributes. Classification is shape-driven, not schema-driven: each
// attribute value is classified structurally once, then rewritten per kind.
// The write direction splits a flat record back into plain JSON fields and
// pending file uploads.
package transcode

// FieldKind is the structural classification of one attribute value.
type FieldKind int

const (
	// KindScalar covers primitives, null, and plain objects carrying
	// neither an id nor a data wrapper.
	KindScalar FieldKind = iota
	// KindSingleRelation is {data: {id, ...}} without a mime marker, or
	// {data: null}.
	KindSingleRelation
	// KindManyRelation is {data: [...]} whose first element carries no
	// mime marker.
	KindManyRelation
	// KindMedia is {data: {id, attributes}} where the attributes carry a
	// mime marker (a single file).
	KindMedia
	// KindMediaCollection is {data: [...]} whose first element carries a
	// mime marker (a file collection).
	KindMediaCollection
	// KindComponent is an object with an id but no data wrapper (an
	// embedded component, or an already-flat file object).
	KindComponent
	// KindComponentList is a plain array, already at attribute level.
	KindComponentList
)

// String returns the kind name for logs and test output.
func (k FieldKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSingleRelation:
		return "singleRelation"
	case KindManyRelation:
		return "manyRelation"
	case KindMedia:
		return "media"
	case KindMediaCollection:
		return "mediaCollection"
	case KindComponent:
		return "component"
	case KindComponentList:
		return "componentList"
	default:
		return "unknown"
	}
}

// Classify inspects one attribute value and returns its structural kind.
// The decision uses only the presence of data, id, mime, and array-ness.
func Classify(v interface{}) FieldKind {
	switch val := v.(type) {
	case []interface{}:
		return KindComponentList
	case map[string]interface{}:
		if data, present := val["data"]; present {
			return classifyRef(data)
		}
		if _, ok := val["id"]; ok {
			return KindComponent
		}
		return KindScalar
	default:
		return KindScalar
	}
}

func classifyRef(data interface{}) FieldKind {
	switch d := data.(type) {
	case []interface{}:
		if len(d) > 0 && carriesMime(d[0]) {
			return KindMediaCollection
		}
		return KindManyRelation
	case map[string]interface{}:
		if carriesMime(d) {
			return KindMedia
		}
		return KindSingleRelation
	default:
		// data: null
		return KindSingleRelation
	}
}

// carriesMime reports whether an envelope element is a media item. The
// marker lives inside attributes for enveloped items and at the top level
// for already-flat file objects.
func carriesMime(v interface{}) bool {
	m, ok := v.(map[string]interface{})
	if !ok {
		return false
	}
	if attrs, ok := m["attributes"].(map[string]interface{}); ok {
		if _, ok := attrs["mime"]; ok {
			return true
		}
	}
	_, ok = m["mime"]
	return ok
}
