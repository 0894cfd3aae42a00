package storage

import (
	"io"
	"time"
)

// Provider defines the behavior for any storage backend.
type Provider interface {
	List(bucket, prefix string) ([]string, error)
	Get(bucket, key string) (*FileObject, error)
	Exists(bucket, key string) (bool, error)
	// ResolveURL turns a key into something a playback deck can load
	// directly: a file:// URL for local storage, a time-limited
	// presigned GET for object storage.
	ResolveURL(bucket, key string, ttl time.Duration) (string, error)
}

// FileObject is the provider-agnostic representation of a file.
type FileObject struct {
	Body          io.ReadCloser
	ContentLength int64
	ContentType   string
	LastModified  time.Time
}
