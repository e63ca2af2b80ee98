package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/jmoiron/sqlx"
	"github.com/kardianos/osext"
	_ "github.com/mattn/go-sqlite3" // Just needed for the sqlite driver
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	devevent "github.com/derWhity/devevent/internal"
	"github.com/derWhity/devevent/internal/ctxhelper"
	"github.com/derWhity/devevent/internal/listing"
	"github.com/derWhity/devevent/internal/log"
	"github.com/derWhity/devevent/internal/media"
	"github.com/derWhity/devevent/internal/media/cloudinary"
	"github.com/derWhity/devevent/internal/media/local"
	"github.com/derWhity/devevent/internal/migrate"
	"github.com/derWhity/devevent/internal/models"
	"github.com/derWhity/devevent/internal/repos"
	inmemrepo "github.com/derWhity/devevent/internal/repos/event/inmem"
	mongorepo "github.com/derWhity/devevent/internal/repos/event/mongo"
	pgrepo "github.com/derWhity/devevent/internal/repos/event/postgres"
	sqliterepo "github.com/derWhity/devevent/internal/repos/event/sqlite"
)

const (
	appName    = "DevEvent"
	appVersion = "0.1.0"
	mediaDir   = "media"
)

// Checks and tries to create the given directory recursively (or panics if this fails)
func checkAndCreateDir(path string, logger *logrus.Entry) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if e, ok := err.(*os.PathError); ok && e.Err == syscall.ENOENT {
			logger.WithField(log.FldPath, path).Info("Directory does not exist - trying to create...")
			if err = os.MkdirAll(path, os.ModePerm); err != nil {
				logger.WithError(err).Fatal("Failed to create directory")
			}
			logger.Info("Directory created successfully")
		} else {
			logger.WithError(err).Fatal("Stat has failed")
		}
	} else {
		if !fileInfo.IsDir() {
			logger.Fatalf("'%s' is not a directory. Remove the plain file if you want to continue", path)
		}
	}
}

// openEventRepo connects to the storage backend selected in the configuration. The connection is opened once and
// shared by all requests
func openEventRepo(ctx context.Context, conf models.AppConfig, logger *logrus.Entry) (repos.EventRepo, error) {
	logger = logger.WithField(log.FldDriver, conf.Storage.Driver)
	switch conf.Storage.Driver {
	case models.StorageSQLite, "":
		db, err := sqlx.Open("sqlite3", conf.SQLitePath())
		if err != nil {
			return nil, errors.Wrap(err, "openEventRepo: Failed to open database connection")
		}
		logger.Info("Performing database migrations...")
		if err = migrate.ExecuteMigrationsOnDb(db, logger); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "openEventRepo: Database migration has failed")
		}
		return sqliterepo.New(db, logger), nil
	case models.StorageMongoDB:
		return mongorepo.Connect(ctx, conf.Storage.URI, conf.Storage.Database, conf.Storage.Collection, logger)
	case models.StoragePostgres:
		return pgrepo.Connect(ctx, conf.Storage.URI, logger)
	case models.StorageMemory:
		logger.Warn("Events are kept in memory only and will be lost on shutdown")
		return inmemrepo.New(), nil
	}
	return nil, errors.Errorf("openEventRepo: Unknown storage driver '%s'", conf.Storage.Driver)
}

// openMediaStore creates the media store selected in the configuration. The returned directory is the one to serve
// the media files from - it is empty for remote stores
func openMediaStore(conf models.AppConfig, logger *logrus.Entry) (media.Store, string, error) {
	logger = logger.WithField(log.FldProvider, conf.Media.Provider)
	switch conf.Media.Provider {
	case models.MediaLocal, "":
		dir := filepath.Join(conf.DataDir, mediaDir)
		checkAndCreateDir(dir, logger)
		store := local.New(dir, conf.PublicURL, logger)
		return store, store.Dir(), nil
	case models.MediaCloudinary:
		store, err := cloudinary.New(conf.Media.CloudinaryURL, logger)
		return store, "", err
	}
	return nil, "", errors.Errorf("openMediaStore: Unknown media provider '%s'", conf.Media.Provider)
}

func main() {
	execDir, err := osext.ExecutableFolder()
	if err != nil {
		panic(err)
	}

	configFile := flag.String(
		"config",
		filepath.Join(execDir, "config.json"),
		"The configuration file to load the application's configuration from (JSON or YAML)",
	)
	dotEnvFile := flag.String("env", ".env", "Environment file to read additional settings from")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	ctx := context.Background()

	// Initialize the logger
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logger := logrus.WithField(log.FldVersion, appVersion)
	logger.Infof("%s version %s is starting up...", appName, appVersion)
	ctx = ctxhelper.WithLogger(ctx, logger)

	// Load the main configuration file - a missing one is created with the defaults
	cs := devevent.NewConfigService(*configFile)
	if err := cs.Load(ctx); err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			logger.Info("No configuration file found. Writing defaults")
			if err := cs.Write(ctx); err != nil {
				logger.WithError(err).Error("Cannot write default config")
			}
		} else {
			logger.WithError(err).Error("Cannot load config. Using defaults")
		}
	}
	if err := cs.ApplyEnv(ctx, *dotEnvFile); err != nil {
		logger.WithError(err).Fatal("Failed to apply environment settings")
	}
	conf := cs.GetConfig(ctx)

	logger.Infof("Using '%s' as data directory", conf.DataDir)
	checkAndCreateDir(conf.DataDir, logger)

	eventRepo, err := openEventRepo(ctx, conf, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to the event storage")
	}
	store, mediaRoot, err := openMediaStore(conf, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to set up the media store")
	}

	metrics, err := devevent.NewServiceMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		logger.WithError(err).Fatal("Failed to register service metrics")
	}
	evSrv := devevent.NewInstrumentingMiddleware(
		metrics,
		devevent.NewEventService(eventRepo, store, conf.Media.Folder, logger.WithField(log.FldFolder, conf.Media.Folder)),
	)

	src, err := listing.NewSource(conf.Listing, conf.PublicURL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to set up the listing source")
	}
	logger.WithField(log.FldSource, conf.Listing.Source).Info("Listing page source selected")
	if conf.Listing.Source == models.SourceAPI || conf.Listing.Source == "" {
		if err := devevent.CheckPublicURL(conf); err != nil {
			logger.WithError(err).Warn("The listing page may not reach the event API. Check publicURL and listenAddress")
		}
	}

	httpLogger := logger.WithField(log.FldTransport, "HTTP")

	h := devevent.MakeHTTPHandler(
		evSrv,
		listing.NewRenderer(src, httpLogger),
		devevent.HTTPConfig{
			MaxUploadBytes: conf.Media.MaxUploadBytes,
			MediaDir:       mediaRoot,
		},
		httpLogger,
	)
	srv := &http.Server{
		Addr:              conf.ListenAddress,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start listening
	errs := make(chan error)

	// Listen for stop signals that will end the service
	go func() {
		c := make(chan os.Signal, 2)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		err := fmt.Errorf("%s", <-c)
		logger.Info("Caught signal to stop. Shutting down.")
		daemon.SdNotify(false, daemon.SdNotifyStopping)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("HTTP server did not shut down cleanly")
		}
		errs <- err
	}()

	go func() {
		httpLogger.WithField("addr", conf.ListenAddress).Info("Starting listening port")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			errs <- err
		}
	}()

	// Watchdog for systemd
	go func() {
		interval, err := daemon.SdWatchdogEnabled(false)
		if err != nil || interval == 0 {
			return
		}
		logger.Info("Activating systemd watchdog goroutine")
		port := conf.ListenAddress[strings.LastIndex(conf.ListenAddress, ":")+1:]
		url := fmt.Sprintf("http://127.0.0.1:%s/alive", port)
		for {
			if res, err := http.Get(url); err == nil {
				res.Body.Close()
				daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
			time.Sleep(interval / 3)
		}
	}()

	// Notify systemd that we are ready to go (if available)
	daemon.SdNotify(false, daemon.SdNotifyReady)

	err = <-errs
	if cerr := eventRepo.Close(); cerr != nil {
		logger.WithError(cerr).Warn("Failed to close the event storage")
	}
	logger.WithError(err).Error("Shutdown complete")
}
