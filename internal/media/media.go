// Package media defines the object storage the event images are uploaded to
package media

import (
	"golang.org/x/net/context"
)

// Object is an image to upload, completely buffered in memory
type Object struct {
	// Original file name as sent by the client - may be empty
	Filename string
	// The raw image data
	Data []byte
	// The folder (namespace) to store the image in
	Folder string
}

// Upload describes a successfully stored image
type Upload struct {
	// ID of the stored object inside the store - needed for reconciling orphaned uploads
	PublicID string
	// Canonical public URL of the stored image
	URL string
}

// Store is an object storage service accepting images and returning durable public URLs for them
type Store interface {
	// Upload stores the given image in one synchronous round trip
	Upload(ctx context.Context, obj Object) (*Upload, error)
}
