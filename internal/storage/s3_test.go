package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var _ ObjectStore = (*S3Store)(nil)

func TestNewImageKey(t *testing.T) {
	t.Parallel()

	key := NewImageKey(42, "sunset.JPG")
	assert.True(t, len(key) > len("trips/42/"))
	assert.Contains(t, key, "trips/42/")
	assert.Equal(t, ".JPG", key[len(key)-4:])

	// Keys are unique per upload even for the same filename.
	assert.NotEqual(t, key, NewImageKey(42, "sunset.JPG"))
}

func TestKeyFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		baseURL string
		url     string
		want    string
	}{
		{
			name: "plain s3 url",
			url:  "https://triplog-images.s3.amazonaws.com/trips/1/abc.jpg",
			want: "trips/1/abc.jpg",
		},
		{
			name:    "cdn base url",
			baseURL: "https://cdn.triplog.dev",
			url:     "https://cdn.triplog.dev/trips/1/abc.jpg",
			want:    "trips/1/abc.jpg",
		},
		{
			name: "foreign url",
			url:  "https://elsewhere.example.com/trips/1/abc.jpg",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &S3Store{bucket: "triplog-images", baseURL: tt.baseURL}
			assert.Equal(t, tt.want, s.keyFromURL(tt.url))
		})
	}
}
