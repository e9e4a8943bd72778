package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateFilter(t *testing.T) {
	tests := []struct {
		name     string
		filter   map[string]interface{}
		expected map[string]interface{}
	}{
		{
			name:     "nil filter",
			filter:   nil,
			expected: nil,
		},
		{
			name:     "empty filter",
			filter:   map[string]interface{}{},
			expected: map[string]interface{}{},
		},
		{
			name:   "id batch match",
			filter: map[string]interface{}{"id": []interface{}{1, 2, 3}},
			expected: map[string]interface{}{
				"id": map[string]interface{}{"$in": []interface{}{1, 2, 3}},
			},
		},
		{
			name:   "greater or equal",
			filter: map[string]interface{}{"views_gte": 100},
			expected: map[string]interface{}{
				"views": map[string]interface{}{"$gte": 100},
			},
		},
		{
			name:   "less or equal",
			filter: map[string]interface{}{"views_lte": 100},
			expected: map[string]interface{}{
				"views": map[string]interface{}{"$lte": 100},
			},
		},
		{
			name:   "not equal",
			filter: map[string]interface{}{"status_neq": "draft"},
			expected: map[string]interface{}{
				"status": map[string]interface{}{"$ne": "draft"},
			},
		},
		{
			name:   "case insensitive contains",
			filter: map[string]interface{}{"title_q": "cat"},
			expected: map[string]interface{}{
				"title": map[string]interface{}{"$containsi": "cat"},
			},
		},
		{
			name:   "plain key exact match",
			filter: map[string]interface{}{"status": "published"},
			expected: map[string]interface{}{
				"status": map[string]interface{}{"$eq": "published"},
			},
		},
		{
			name:   "suffix strips only the suffix",
			filter: map[string]interface{}{"created_at_gte": "2024-01-01"},
			expected: map[string]interface{}{
				"created_at": map[string]interface{}{"$gte": "2024-01-01"},
			},
		},
		{
			name:   "nested object recurses",
			filter: map[string]interface{}{"author": map[string]interface{}{"name_q": "bob"}},
			expected: map[string]interface{}{
				"author": map[string]interface{}{
					"name": map[string]interface{}{"$containsi": "bob"},
				},
			},
		},
		{
			name: "mixed keys",
			filter: map[string]interface{}{
				"title_q":   "go",
				"views_gte": 10,
				"status":    "published",
			},
			expected: map[string]interface{}{
				"title":  map[string]interface{}{"$containsi": "go"},
				"views":  map[string]interface{}{"$gte": 10},
				"status": map[string]interface{}{"$eq": "published"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TranslateFilter(tt.filter))
		})
	}
}
