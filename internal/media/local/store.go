// Package local provides a media store that keeps the uploaded images on the local disk
package local

import (
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/derWhity/devevent/internal/log"
	"github.com/derWhity/devevent/internal/media"
)

// URLPrefix is the path prefix the stored files are served at
const URLPrefix = "/media/"

var (
	// ErrNotAnImage is returned when the uploaded data is not recognized as an image
	ErrNotAnImage = errors.New("uploaded file is not an image")

	// File extensions by detected content type
	extensions = map[string]string{
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"image/gif":  ".gif",
		"image/webp": ".webp",
		"image/bmp":  ".bmp",
	}
)

// Store writes images into a directory that is served by the application itself
type Store struct {
	dir     string
	baseURL string
	logger  *logrus.Entry
}

// New creates a new local media store writing to dir and building URLs starting at baseURL
func New(dir, baseURL string, logger *logrus.Entry) *Store {
	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Dir returns the directory the files are stored in
func (s *Store) Dir() string {
	return s.dir
}

// Upload stores the image as <dir>/<folder>/<uuid><ext> and returns its public URL
func (s *Store) Upload(ctx context.Context, obj media.Object) (*media.Upload, error) {
	contentType := http.DetectContentType(obj.Data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, errors.Wrapf(ErrNotAnImage, "Upload: detected content type %s", contentType)
	}
	// Cleaning the rooted path keeps the folder inside the media directory
	folder := path.Clean("/" + obj.Folder)[1:]
	ext, ok := extensions[contentType]
	if !ok {
		ext = strings.ToLower(filepath.Ext(obj.Filename))
	}
	targetDir := filepath.Join(s.dir, filepath.FromSlash(folder))
	if err := os.MkdirAll(targetDir, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "Upload: Failed to create media folder")
	}
	name := uuid.New().String() + ext
	fileName := filepath.Join(targetDir, name)
	if err := os.WriteFile(fileName, obj.Data, 0644); err != nil {
		return nil, errors.Wrap(err, "Upload: Failed to write media file")
	}
	publicID := path.Join(folder, name)
	s.logger.WithFields(logrus.Fields{
		log.FldMedia: publicID,
		log.FldSize:  len(obj.Data),
	}).Debug("Stored media file")
	return &media.Upload{
		PublicID: publicID,
		URL:      s.baseURL + URLPrefix + (&url.URL{Path: publicID}).EscapedPath(),
	}, nil
}
