// Package cloudinary provides a media store that uploads the images to Cloudinary
package cloudinary

import (
	"bytes"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/derWhity/devevent/internal/log"
	"github.com/derWhity/devevent/internal/media"
)

const resourceTypeImage = "image"

// ErrNoURL is returned when Cloudinary accepted an upload without reporting where it is stored
var ErrNoURL = errors.New("cloudinary did not return a secure URL")

// Store uploads images to a Cloudinary account
type Store struct {
	cld    *cloudinary.Cloudinary
	logger *logrus.Entry
}

// New creates a Cloudinary media store from a cloudinary://<key>:<secret>@<cloud> URL
func New(cloudinaryURL string, logger *logrus.Entry) (*Store, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, errors.Wrap(err, "New: Invalid Cloudinary URL")
	}
	return &Store{
		cld:    cld,
		logger: logger,
	}, nil
}

// Upload sends the whole buffered image to Cloudinary as an image resource inside the given folder
func (s *Store) Upload(ctx context.Context, obj media.Object) (*media.Upload, error) {
	s.logger.WithFields(logrus.Fields{
		log.FldFolder: obj.Folder,
		log.FldSize:   len(obj.Data),
	}).Debug("Uploading image to Cloudinary")
	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(obj.Data), uploader.UploadParams{
		Folder:       obj.Folder,
		ResourceType: resourceTypeImage,
	})
	if err != nil {
		return nil, errors.Wrap(err, "Upload: Cloudinary request failed")
	}
	if res.Error.Message != "" {
		return nil, errors.Errorf("Upload: Cloudinary rejected the upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return nil, ErrNoURL
	}
	return &media.Upload{
		PublicID: res.PublicID,
		URL:      res.SecureURL,
	}, nil
}
