package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid http", "http://cms.internal:1337", false},
		{"valid https", "https://cms.example.com/api", false},
		{"empty", "", true},
		{"missing scheme", "cms.internal:1337", true},
		{"wrong scheme", "ftp://cms.internal", true},
		{"missing host", "http://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateResourceName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		resource string
		wantErr  bool
	}{
		{"simple", "posts", false},
		{"with dash", "blog-posts", false},
		{"with underscore", "blog_posts", false},
		{"empty", "", true},
		{"path separator", "posts/7", true},
		{"traversal", "..", true},
		{"leading dash", "-posts", true},
		{"query characters", "posts?x=1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateResourceName(tt.resource)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
