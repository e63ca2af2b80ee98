package models

import (
	"path"
	"path/filepath"

	"github.com/kardianos/osext"
)

const (
	sqliteFile = "devevent.db"

	// StorageSQLite stores events inside a SQLite database file in the data directory
	StorageSQLite = "sqlite"
	// StorageMongoDB stores events inside a MongoDB collection
	StorageMongoDB = "mongodb"
	// StoragePostgres stores events inside a PostgreSQL table
	StoragePostgres = "postgres"
	// StorageMemory keeps events in memory only - everything is lost on restart
	StorageMemory = "memory"

	// MediaCloudinary uploads event images to Cloudinary
	MediaCloudinary = "cloudinary"
	// MediaLocal stores event images inside the data directory and serves them itself
	MediaLocal = "local"

	// SourceAPI lets the listing page fetch the events from the event API
	SourceAPI = "api"
	// SourceStatic lets the listing page show a fixed set of sample events
	SourceStatic = "static"
	// SourcePlaceholder lets the listing page show numbered placeholders only
	SourcePlaceholder = "placeholder"
)

// AppConfig is the application's main configuration structure
type AppConfig struct {
	// The directory where DevEvent stores all of its data - defaults to the /data subdirectory of the folder, the
	// executable resides in
	DataDir string `json:"dataDir" yaml:"dataDir"`
	// The IP address to listen at - including the port number
	ListenAddress string `json:"listenAddress" yaml:"listenAddress"`
	// The URL this service can be reached at from the outside. Used for locally stored media and for the listing
	// page calling the event API
	PublicURL string `json:"publicURL" yaml:"publicURL"`
	// Where the events are persisted
	Storage StorageConfig `json:"storage" yaml:"storage"`
	// Where the event images go
	Media MediaConfig `json:"media" yaml:"media"`
	// How the listing page gets its events
	Listing ListingConfig `json:"listing" yaml:"listing"`
}

// StorageConfig configures the event storage backend
type StorageConfig struct {
	// One of the Storage* constants
	Driver string `json:"driver" yaml:"driver"`
	// Connection URI for MongoDB and PostgreSQL. Ignored by the SQLite and memory drivers
	URI string `json:"uri,omitempty" yaml:"uri,omitempty"`
	// SQLite database file. Defaults to devevent.db inside the data directory
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// MongoDB database name
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
	// MongoDB collection name
	Collection string `json:"collection,omitempty" yaml:"collection,omitempty"`
}

// MediaConfig configures the media store the event images are uploaded to
type MediaConfig struct {
	// One of the Media* constants
	Provider string `json:"provider" yaml:"provider"`
	// The folder (namespace) all event images are stored in
	Folder string `json:"folder" yaml:"folder"`
	// Cloudinary connection URL in the form cloudinary://<key>:<secret>@<cloud>
	CloudinaryURL string `json:"cloudinaryURL,omitempty" yaml:"cloudinaryURL,omitempty"`
	// Maximum accepted size of a create request in bytes
	MaxUploadBytes int64 `json:"maxUploadBytes" yaml:"maxUploadBytes"`
}

// ListingConfig configures the event listing page
type ListingConfig struct {
	// One of the Source* constants
	Source string `json:"source" yaml:"source"`
	// Timeout for calling the event API in seconds
	TimeoutSeconds uint `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

// GetDefaultConfig returns the default configuration values for the application
func GetDefaultConfig() (*AppConfig, error) {
	execDir, err := osext.ExecutableFolder()
	if err != nil {
		return nil, err
	}
	return &AppConfig{
		DataDir:       path.Join(execDir, "data"),
		ListenAddress: ":3000",
		PublicURL:     "http://127.0.0.1:3000",
		Storage: StorageConfig{
			Driver:     StorageSQLite,
			Database:   "devevent",
			Collection: "events",
		},
		Media: MediaConfig{
			Provider:       MediaLocal,
			Folder:         "DevEvent",
			MaxUploadBytes: 10 << 20,
		},
		Listing: ListingConfig{
			Source:         SourceAPI,
			TimeoutSeconds: 10,
		},
	}, nil
}

// SQLitePath returns the database file used by the SQLite driver
func (c AppConfig) SQLitePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return filepath.Join(c.DataDir, sqliteFile)
}
