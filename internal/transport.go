package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/kardianos/osext"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/derWhity/devevent/internal/ctxhelper"
	"github.com/derWhity/devevent/internal/log"
)

const (
	apiBasePath = "/api"
	// MediaPath is the path prefix the locally stored media files are served at
	MediaPath = "/media/"
	// Size of the multipart form kept in memory - larger files are buffered on disk by the parser
	multipartMemory = 32 << 20
)

// Defines an error that defines the HTTP status that should be returned
type httpStatuser interface {
	Status() int
}

// Defines an error that returns a machine-readable error code
type errorCoder interface {
	ErrorCode() string
}

// Defines an error that contains a data field with additional information
type dataBearer interface {
	Data() interface{}
}

type errorResponse struct {
	Message string `json:"message"`
	// The underlying error - only sent for server-side faults
	Error string `json:"error,omitempty"`
}

// HTTPConfig holds the transport settings not owned by any service
type HTTPConfig struct {
	// Maximum size of a create request in bytes - 0 disables the limit
	MaxUploadBytes int64
	// Directory to serve at MediaPath - empty if media is not stored locally
	MediaDir string
}

// MakeHTTPHandler creates the main HTTP handler for the DevEvent service
func MakeHTTPHandler(es EventService, page http.Handler, conf HTTPConfig, logger *logrus.Entry) http.Handler {
	r := mux.NewRouter()

	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(encodeError),
		httptransport.ServerBefore(makeContextInjector(logger)),
	}

	// -- Event Service --------------------------------
	{
		evEp := MakeEventEndpoints(es)
		evEp.Create = MakeLoggingMiddleware("CreateEvent", logger)(evEp.Create)
		evEp.List = MakeLoggingMiddleware("ListEvents", logger)(evEp.List)

		// List
		r.Methods(http.MethodGet).Path(apiBasePath + "/events").Handler(httptransport.NewServer(
			evEp.List,
			decodeNilRequest,
			encodeJSONResponse,
			options...,
		))

		// Create
		r.Methods(http.MethodPost).Path(apiBasePath + "/events").Handler(httptransport.NewServer(
			evEp.Create,
			makeEventDraftDecoder(conf.MaxUploadBytes),
			encodeJSONResponse,
			options...,
		))
	}

	// The listing page
	r.Methods(http.MethodGet).Path("/").Handler(page)

	// Simple alive answer for checking if HTTP can be reached
	r.Methods(http.MethodGet).Path("/alive").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		data := map[string]bool{"ok": true}
		json.NewEncoder(w).Encode(data)
	})

	r.Methods(http.MethodGet).Path("/metrics").Handler(promhttp.Handler())

	if conf.MediaDir != "" {
		r.Methods(http.MethodGet).PathPrefix(MediaPath).Handler(
			http.StripPrefix(MediaPath, http.FileServer(http.Dir(conf.MediaDir))),
		)
	}

	// Plain file service for static assets serving everything from the "public" folder right beside the executable
	execDir, err := osext.ExecutableFolder()
	if err != nil {
		panic(err)
	}
	publicDir := filepath.Join(execDir, "public")
	r.Methods(http.MethodGet).PathPrefix("/").Handler(http.FileServer(http.Dir(publicDir)))

	return r
}

// decodeNilRequest just does nothing with the request. It is used for endpoints that don't need anything to be passed
func decodeNilRequest(_ context.Context, r *http.Request) (request interface{}, err error) {
	return nil, nil
}

// makeEventDraftDecoder returns a decoder that reads an event draft from a multipart form. All scalar fields are
// collected into the draft - for repeated fields, the last value wins. The image is read completely into memory
func makeEventDraftDecoder(maxBytes int64) httptransport.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (interface{}, error) {
		if maxBytes > 0 {
			r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
		}
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, makeMalformedRequestError(msgInvalidForm)
		}
		defer r.MultipartForm.RemoveAll()

		draft := &EventDraft{Fields: map[string]string{}}
		for key, values := range r.MultipartForm.Value {
			if len(values) == 0 {
				continue
			}
			value := values[len(values)-1]
			switch key {
			case fieldTags:
				draft.Tags = value
			case fieldAgenda:
				draft.Agenda = value
			default:
				draft.Fields[key] = value
			}
		}
		if files := r.MultipartForm.File[fieldImage]; len(files) > 0 {
			img, err := readImageFile(files[0])
			if err != nil {
				return nil, makeCreationFailedError(err)
			}
			draft.Image = img
		}
		return draft, nil
	}
}

// readImageFile buffers the complete uploaded file in memory
func readImageFile(fh *multipart.FileHeader) (*ImageFile, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "readImageFile: Cannot open uploaded file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "readImageFile: Cannot read uploaded file")
	}
	return &ImageFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// Encodes a typical JSON response - using the response's status code if it provides one
func encodeJSONResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if sc, ok := response.(httptransport.StatusCoder); ok {
		w.WriteHeader(sc.StatusCode())
	}
	return json.NewEncoder(w).Encode(response)
}

// Builds an error response based on the incoming error
func encodeError(ctx context.Context, err error, w http.ResponseWriter) {
	if err == nil {
		panic("encodeError with nil error")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	status := http.StatusInternalServerError
	if st, ok := err.(httpStatuser); ok {
		status = st.Status()
	}
	w.WriteHeader(status)
	ret := errorResponse{
		Message: err.Error(),
	}
	if db, ok := err.(dataBearer); ok && db.Data() != nil {
		if e, ok := db.Data().(error); ok {
			ret.Error = e.Error()
		} else {
			ret.Error = fmt.Sprint(db.Data())
		}
	} else if status >= http.StatusInternalServerError {
		ret.Error = err.Error()
	}
	code := ErrCodeUnknown
	if cd, ok := err.(errorCoder); ok {
		code = cd.ErrorCode()
	}
	ctxhelper.LoggerOr(ctx, logrus.NewEntry(logrus.StandardLogger())).
		WithFields(logrus.Fields{log.FldCode: code, log.FldStatus: status}).
		Debug("Request failed")
	json.NewEncoder(w).Encode(&ret)
}

func makeContextInjector(logger *logrus.Entry) httptransport.RequestFunc {
	return func(ctx context.Context, r *http.Request) context.Context {
		return ctxhelper.WithLogger(ctx, logger)
	}
}
