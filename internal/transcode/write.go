package transcode

import "io"

// File is a pending binary attachment on a flat record. It appears as a
// field value either directly or under the rawFile key of an upload
// descriptor object.
type File struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// FilePart is one pending upload bound to the record field it belongs to.
type FilePart struct {
	Field string
	File  *File
}

// WriteBody is the backend-bound form of a flat record: the plain data
// fields plus any pending file attachments. Multipart reports whether the
// record carried multimedia fields and therefore needs multipart encoding
// even when every attachment turned out to be already persisted.
type WriteBody struct {
	Data      map[string]interface{}
	Files     []FilePart
	Multipart bool
}

// HasFiles reports whether any upload is pending.
func (b *WriteBody) HasFiles() bool {
	return len(b.Files) > 0
}

// BuildWriteBody splits a flat record into plain fields and pending
// uploads. Plain fields keep their values with the empty string mapped to
// null (a cleared relation). Multimedia fields lose their pending uploads
// to the Files list and degenerate to id arrays for elements that are
// already persisted; a field with a pending upload is never also emitted
// as an id reference.
func BuildWriteBody(record map[string]interface{}) *WriteBody {
	body := &WriteBody{Data: make(map[string]interface{}, len(record))}

	for key, value := range record {
		if !isMultimediaValue(value) {
			if value == "" {
				body.Data[key] = nil
			} else {
				body.Data[key] = value
			}
			continue
		}

		body.Multipart = true
		switch val := value.(type) {
		case []interface{}:
			body.writeMediaList(key, val)
		default:
			body.writeMediaScalar(key, value)
		}
	}

	return body
}

// writeMediaList partitions array elements into pending uploads and
// persisted references. Persisted elements contribute their ids to a plain
// id-array field.
func (b *WriteBody) writeMediaList(field string, items []interface{}) {
	ids := make([]interface{}, 0, len(items))
	for _, item := range items {
		if f := pendingFile(item); f != nil {
			b.Files = append(b.Files, FilePart{Field: field, File: f})
			continue
		}
		ids = append(ids, persistedID(item))
	}
	b.Data[field] = ids
}

// writeMediaScalar appends a pending upload as a file part, omitting the
// field from the plain data, or replaces a persisted reference with a
// singleton id array.
func (b *WriteBody) writeMediaScalar(field string, value interface{}) {
	if f := pendingFile(value); f != nil {
		b.Files = append(b.Files, FilePart{Field: field, File: f})
		return
	}
	b.Data[field] = []interface{}{persistedID(value)}
}

// isMultimediaValue classifies a top-level field as multimedia: a pending
// upload, a persisted media object, or an array whose first element is
// either of those.
func isMultimediaValue(v interface{}) bool {
	if arr, ok := v.([]interface{}); ok {
		return len(arr) > 0 && isMediaElement(arr[0])
	}
	return isMediaElement(v)
}

func isMediaElement(v interface{}) bool {
	if _, ok := v.(*File); ok {
		return true
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return false
	}
	if _, ok := m["rawFile"]; ok {
		return true
	}
	return carriesMime(m)
}

// pendingFile extracts the local file handle from a field value, either a
// bare *File or an upload descriptor carrying one under rawFile.
func pendingFile(v interface{}) *File {
	if f, ok := v.(*File); ok {
		return f
	}
	if m, ok := v.(map[string]interface{}); ok {
		if f, ok := m["rawFile"].(*File); ok {
			return f
		}
	}
	return nil
}

// persistedID resolves the id of an already-persisted reference: the id
// field of a media object, or the value itself when it is already a bare
// id.
func persistedID(v interface{}) interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m["id"]
	}
	return v
}
