package internal

import (
	"encoding/json"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"golang.org/x/net/context"
	"gopkg.in/yaml.v3"

	"github.com/derWhity/devevent/internal/ctxhelper"
	"github.com/derWhity/devevent/internal/log"
	"github.com/derWhity/devevent/internal/models"
)

// Environment variables overriding the configuration file
const (
	EnvListenAddress  = "DEVEVENT_LISTEN_ADDRESS"
	EnvPublicURL      = "DEVEVENT_PUBLIC_URL"
	EnvStorageDriver  = "DEVEVENT_STORAGE_DRIVER"
	EnvStorageURI     = "DEVEVENT_STORAGE_URI"
	EnvMongoDBURI     = "MONGODB_URI"
	EnvCloudinaryURL  = "CLOUDINARY_URL"
	EnvListingSource  = "DEVEVENT_LISTING_SOURCE"
	EnvMediaProvider  = "DEVEVENT_MEDIA_PROVIDER"
	defaultDotEnvFile = ".env"
)

// ConfigService provides access to the application's configuration
type ConfigService interface {
	// Load loads the application config from its default file location
	Load(ctx context.Context) error
	// LoadFromFile loads the configuration from the given JSON or YAML file
	LoadFromFile(ctx context.Context, filename string) error
	// ApplyEnv overrides the loaded configuration with the values of the environment (and an optional .env file)
	ApplyEnv(ctx context.Context, dotEnvFiles ...string) error
	// Write writes the current application configuration to the default file name
	Write(ctx context.Context) error
	// WriteToFile writes the current application configuration to a JSON or YAML file
	WriteToFile(ctx context.Context, filename string) error
	// GetConfig retuns the current application configuration
	GetConfig(ctx context.Context) models.AppConfig
}

// -- ConfigService implementation -------------------------------------------------------------------------------------

type configService struct {
	configFilename string
	config         *models.AppConfig
}

// NewConfigService creates a new configuration service instance with the given default file name
func NewConfigService(configFilename string) ConfigService {
	return &configService{
		configFilename: configFilename,
	}
}

// isYAML checks if the given file name denotes a YAML file
func isYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

// Load loads the application config from its default file location
func (s *configService) Load(ctx context.Context) error {
	return s.LoadFromFile(ctx, s.configFilename)
}

// LoadFromFile loads the configuration from the given JSON or YAML file. Values missing in the file keep their defaults
func (s *configService) LoadFromFile(ctx context.Context, filename string) error {
	logger := ctxhelper.Logger(ctx)
	logger.WithField(log.FldFile, filename).Info("Loading configuration file")
	conf, err := models.GetDefaultConfig()
	if err != nil {
		return errors.Wrap(err, "LoadFromFile: Failed to create default config")
	}
	f, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "LoadFromFile: cannot load configuration file")
	}
	defer f.Close()
	if isYAML(filename) {
		err = yaml.NewDecoder(f).Decode(conf)
	} else {
		err = json.NewDecoder(f).Decode(conf)
	}
	if err != nil {
		return errors.Wrap(err, "LoadFromFile: Failed to decode configuration file")
	}
	s.config = conf
	return nil
}

// ApplyEnv overrides the loaded configuration with the values of the environment. The given .env files (or ".env"
// in the working directory if none are given) are loaded first - existing environment variables are not replaced
func (s *configService) ApplyEnv(ctx context.Context, dotEnvFiles ...string) error {
	logger := ctxhelper.Logger(ctx)
	if len(dotEnvFiles) == 0 {
		dotEnvFiles = []string{defaultDotEnvFile}
	}
	for _, file := range dotEnvFiles {
		if err := godotenv.Load(file); err != nil {
			if os.IsNotExist(errors.Cause(err)) {
				continue
			}
			return errors.Wrapf(err, "ApplyEnv: Failed to load env file '%s'", file)
		}
		logger.WithField(log.FldFile, file).Info("Loaded environment file")
	}
	conf := s.GetConfig(ctx)
	setFromEnv(&conf.ListenAddress, EnvListenAddress)
	setFromEnv(&conf.PublicURL, EnvPublicURL)
	setFromEnv(&conf.Storage.Driver, EnvStorageDriver)
	if conf.Storage.Driver == models.StorageMongoDB {
		setFromEnv(&conf.Storage.URI, EnvMongoDBURI)
	}
	setFromEnv(&conf.Storage.URI, EnvStorageURI)
	setFromEnv(&conf.Media.CloudinaryURL, EnvCloudinaryURL)
	setFromEnv(&conf.Media.Provider, EnvMediaProvider)
	setFromEnv(&conf.Listing.Source, EnvListingSource)
	s.config = &conf
	return nil
}

// setFromEnv replaces the target with the environment variable's value if it is set and not empty
func setFromEnv(target *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*target = value
	}
}

// CheckPublicURL reports an error if the port of the public URL differs from the one the server listens on. A
// mismatch is fine behind a reverse proxy but leaves the API listing source calling a dead port otherwise
func CheckPublicURL(conf models.AppConfig) error {
	u, err := url.Parse(conf.PublicURL)
	if err != nil {
		return errors.Wrap(err, "CheckPublicURL: Invalid public URL")
	}
	_, listenPort, err := net.SplitHostPort(conf.ListenAddress)
	if err != nil {
		return errors.Wrap(err, "CheckPublicURL: Invalid listen address")
	}
	publicPort := u.Port()
	if publicPort == "" {
		publicPort = "80"
		if u.Scheme == "https" {
			publicPort = "443"
		}
	}
	if publicPort != listenPort {
		return errors.Errorf("CheckPublicURL: Public URL port %s does not match listen port %s", publicPort, listenPort)
	}
	return nil
}

// Write writes the current application configuration to the default file name
func (s *configService) Write(ctx context.Context) error {
	return s.WriteToFile(ctx, s.configFilename)
}

// WriteToFile writes the current application configuration to a JSON or YAML file
func (s *configService) WriteToFile(ctx context.Context, filename string) error {
	logger := ctxhelper.Logger(ctx)
	logger.WithField(log.FldFile, filename).Info("Writing configuration file")
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "WriteToFile: Cannot open configuration file '%s' to write to", filename)
	}
	defer f.Close()
	conf := s.GetConfig(ctx)
	if isYAML(filename) {
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		err = enc.Encode(&conf)
		if err == nil {
			err = enc.Close()
		}
	} else {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "    ")
		err = enc.Encode(&conf)
	}
	if err != nil {
		return errors.Wrap(err, "WriteToFile: Failed to serialize configuration data")
	}
	return nil
}

// GetConfig retuns the current application configuration
func (s *configService) GetConfig(ctx context.Context) models.AppConfig {
	var ret models.AppConfig
	if s.config != nil {
		ret = *s.config
	} else {
		if tmp, err := models.GetDefaultConfig(); err == nil {
			ret = *tmp
		}
	}
	return ret
}
