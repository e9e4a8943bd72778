package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected FieldKind
	}{
		{
			name:     "string scalar",
			value:    "hello",
			expected: KindScalar,
		},
		{
			name:     "number scalar",
			value:    float64(42),
			expected: KindScalar,
		},
		{
			name:     "bool scalar",
			value:    true,
			expected: KindScalar,
		},
		{
			name:     "null scalar",
			value:    nil,
			expected: KindScalar,
		},
		{
			name:     "plain object without id or data",
			value:    map[string]interface{}{"lat": 1.5, "lng": 2.5},
			expected: KindScalar,
		},
		{
			name:     "single relation",
			value:    map[string]interface{}{"data": map[string]interface{}{"id": float64(7)}},
			expected: KindSingleRelation,
		},
		{
			name:     "null relation",
			value:    map[string]interface{}{"data": nil},
			expected: KindSingleRelation,
		},
		{
			name: "many relation",
			value: map[string]interface{}{"data": []interface{}{
				map[string]interface{}{"id": float64(1)},
				map[string]interface{}{"id": float64(2)},
			}},
			expected: KindManyRelation,
		},
		{
			name:     "empty relation list",
			value:    map[string]interface{}{"data": []interface{}{}},
			expected: KindManyRelation,
		},
		{
			name: "single media",
			value: map[string]interface{}{"data": map[string]interface{}{
				"id":         float64(9),
				"attributes": map[string]interface{}{"mime": "image/png", "url": "/u/a.png"},
			}},
			expected: KindMedia,
		},
		{
			name: "media collection",
			value: map[string]interface{}{"data": []interface{}{
				map[string]interface{}{
					"id":         float64(9),
					"attributes": map[string]interface{}{"mime": "image/png"},
				},
			}},
			expected: KindMediaCollection,
		},
		{
			name: "media collection of flat file objects",
			value: map[string]interface{}{"data": []interface{}{
				map[string]interface{}{"id": float64(9), "mime": "image/png"},
			}},
			expected: KindMediaCollection,
		},
		{
			name:     "embedded component",
			value:    map[string]interface{}{"id": float64(3), "caption": "x"},
			expected: KindComponent,
		},
		{
			name:     "plain array",
			value:    []interface{}{"a", "b"},
			expected: KindComponentList,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.value))
		})
	}
}

func TestFieldKindString(t *testing.T) {
	assert.Equal(t, "scalar", KindScalar.String())
	assert.Equal(t, "singleRelation", KindSingleRelation.String())
	assert.Equal(t, "manyRelation", KindManyRelation.String())
	assert.Equal(t, "media", KindMedia.String())
	assert.Equal(t, "mediaCollection", KindMediaCollection.String())
	assert.Equal(t, "component", KindComponent.String())
	assert.Equal(t, "componentList", KindComponentList.String())
	assert.Equal(t, "unknown", FieldKind(99).String())
}
