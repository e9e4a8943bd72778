package transcode

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeJSON parses a response fragment the way the client does, with
// UseNumber so numeric scalars keep their exact representation.
func decodeJSON(t *testing.T, s string) interface{} {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v interface{}
	require.NoError(t, dec.Decode(&v))
	return v
}

func TestFlattenRecord(t *testing.T) {
	envelope := decodeJSON(t, `{
		"id": 1,
		"attributes": {
			"title": "First post",
			"views": 1200,
			"published": true,
			"author": {"data": {"id": 7, "attributes": {"name": "Ann"}}},
			"category": {"data": null},
			"tags": {"data": [{"id": 3}, {"id": 5}]},
			"cover": {"data": {"id": 9, "attributes": {"mime": "image/png", "url": "/uploads/c.png"}}},
			"gallery": {"data": [
				{"id": 11, "attributes": {"mime": "image/jpeg", "url": "/uploads/g1.jpg"}},
				{"id": 12, "attributes": {"mime": "image/jpeg", "url": "/uploads/g2.jpg"}}
			]},
			"seo": {"id": 4, "metaTitle": "first", "og": {"data": {"id": 21}}}
		}
	}`)

	flat := Flatten(envelope)
	record, ok := flat.(map[string]interface{})
	require.True(t, ok)

	assert.Equal(t, json.Number("1"), record["id"])
	assert.Equal(t, "First post", record["title"])
	assert.Equal(t, json.Number("1200"), record["views"])
	assert.Equal(t, true, record["published"])
	assert.Equal(t, json.Number("7"), record["author"])
	assert.Equal(t, "", record["category"])
	assert.Equal(t, []interface{}{json.Number("3"), json.Number("5")}, record["tags"])

	cover, ok := record["cover"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, json.Number("9"), cover["id"])
	assert.Equal(t, "image/png", cover["mime"])
	assert.Equal(t, "/uploads/c.png", cover["url"])
	assert.NotContains(t, cover, "attributes")

	gallery, ok := record["gallery"].([]interface{})
	require.True(t, ok)
	require.Len(t, gallery, 2)
	first := gallery[0].(map[string]interface{})
	assert.Equal(t, json.Number("11"), first["id"])
	assert.Equal(t, "image/jpeg", first["mime"])

	seo, ok := record["seo"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, json.Number("4"), seo["id"])
	assert.Equal(t, "first", seo["metaTitle"])
	assert.Equal(t, json.Number("21"), seo["og"])
}

func TestFlattenList(t *testing.T) {
	envelopes := decodeJSON(t, `[
		{"id": 1, "attributes": {"title": "a", "link": {"data": {"id": 2}}}},
		{"id": 2, "attributes": {"title": "b", "link": {"data": null}}}
	]`)

	flat := Flatten(envelopes)
	list, ok := flat.([]interface{})
	require.True(t, ok)
	require.Len(t, list, 2)

	first := list[0].(map[string]interface{})
	assert.Equal(t, json.Number("1"), first["id"])
	assert.Equal(t, "a", first["title"])
	assert.Equal(t, json.Number("2"), first["link"])

	second := list[1].(map[string]interface{})
	assert.Equal(t, "", second["link"])
}

// A file-collection response lists flat file objects without the envelope.
// They must keep their full shape rather than degenerate to bare ids.
func TestFlattenFlatFileCollection(t *testing.T) {
	files := decodeJSON(t, `[
		{"id": 5, "name": "a.png", "mime": "image/png", "url": "/uploads/a.png"},
		{"id": 6, "name": "b.png", "mime": "image/png", "url": "/uploads/b.png"}
	]`)

	flat := Flatten(files)
	list, ok := flat.([]interface{})
	require.True(t, ok)
	require.Len(t, list, 2)

	first, ok := list[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, json.Number("5"), first["id"])
	assert.Equal(t, "image/png", first["mime"])
	assert.Equal(t, "/uploads/a.png", first["url"])
}

func TestFlattenComponentList(t *testing.T) {
	envelope := decodeJSON(t, `{
		"id": 1,
		"attributes": {
			"blocks": [
				{"id": 10, "text": "intro", "image": {"data": {"id": 30, "attributes": {"mime": "image/gif", "url": "/u/x.gif"}}}},
				{"id": 11, "text": "body", "image": {"data": null}}
			]
		}
	}`)

	record := Flatten(envelope).(map[string]interface{})
	blocks, ok := record["blocks"].([]interface{})
	require.True(t, ok)
	require.Len(t, blocks, 2)

	intro := blocks[0].(map[string]interface{})
	assert.Equal(t, json.Number("10"), intro["id"])
	image := intro["image"].(map[string]interface{})
	assert.Equal(t, json.Number("30"), image["id"])
	assert.Equal(t, "image/gif", image["mime"])

	body := blocks[1].(map[string]interface{})
	assert.Equal(t, "", body["image"])
}

func TestFlattenEdgeShapes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected interface{}
	}{
		{
			name:     "empty relation list",
			input:    `{"id": 1, "attributes": {"tags": {"data": []}}}`,
			expected: []interface{}{},
		},
		{
			name:     "relation without id",
			input:    `{"id": 1, "attributes": {"tags": {"data": {}}}}`,
			expected: "",
		},
		{
			name:     "plain object passes through",
			input:    `{"id": 1, "attributes": {"tags": {"lat": 1.5}}}`,
			expected: map[string]interface{}{"lat": json.Number("1.5")},
		},
		{
			name:     "scalar array",
			input:    `{"id": 1, "attributes": {"tags": ["a", "b"]}}`,
			expected: []interface{}{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := Flatten(decodeJSON(t, tt.input)).(map[string]interface{})
			assert.Equal(t, tt.expected, record["tags"])
		})
	}
}

// Flattening then rebuilding a write body must hand scalar fields back
// unchanged, and a cleared relation must re-nest as null.
func TestFlattenWriteRoundTrip(t *testing.T) {
	envelope := decodeJSON(t, `{
		"id": 1,
		"attributes": {
			"title": "Round trip",
			"views": 987654321987654321,
			"rating": 4.75,
			"published": false,
			"category": {"data": null}
		}
	}`)

	record := Flatten(envelope).(map[string]interface{})
	body := BuildWriteBody(record)

	assert.False(t, body.Multipart)
	assert.Empty(t, body.Files)
	assert.Equal(t, "Round trip", body.Data["title"])
	assert.Equal(t, json.Number("987654321987654321"), body.Data["views"])
	assert.Equal(t, json.Number("4.75"), body.Data["rating"])
	assert.Equal(t, false, body.Data["published"])
	assert.Nil(t, body.Data["category"])

	encoded, err := json.Marshal(body.Data)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), "987654321987654321")
	assert.Contains(t, string(encoded), `"category":null`)
}
