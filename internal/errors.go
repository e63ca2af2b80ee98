package internal

import "net/http"

const (
	// ErrCodeUnknown is the error code for unknown errors
	ErrCodeUnknown = "UNKNOWN_ERROR"
	// ErrCodeMalformedRequest is returned when the submitted form (or one of its serialized fields) cannot be parsed
	ErrCodeMalformedRequest = "MALFORMED_REQUEST"
	// ErrCodeMissingImage is returned when an event is submitted without an image file
	ErrCodeMissingImage = "MISSING_IMAGE"
	// ErrCodeCreationFailed is returned when storing a new event fails for any reason other than bad input
	ErrCodeCreationFailed = "CREATION_FAILED"
	// ErrCodeFetchFailed is returned when the stored events cannot be loaded
	ErrCodeFetchFailed = "FETCH_FAILED"
)

const (
	msgCreated        = "Event created successfully"
	msgFetched        = "Events fetched successfully"
	msgCreationFailed = "Event Creation Failed"
	msgFetchFailed    = "Event fetching failed"
	msgInvalidForm    = "Invalid form data format"
)

var (
	// ErrMissingImage is the error returned when a new event does not come with an image file
	ErrMissingImage = MakeError(
		http.StatusBadRequest,
		ErrCodeMissingImage,
		"Image file is required",
	)
)

// HTTPError is an error that contains information about the error message to return to the client
type HTTPError struct {
	message string
	code    string
	status  int
	data    interface{}
}

// MakeError creates a new HTTPError with the given contents
func MakeError(status int, code, message string) *HTTPError {
	return MakeErrorWithData(status, code, message, nil)
}

// MakeErrorWithData creates a new HTTPError with the given contents and an additional data element
func MakeErrorWithData(status int, code, message string, data interface{}) *HTTPError {
	return &HTTPError{message, code, status, data}
}

// Error implements the errorer interface
func (e *HTTPError) Error() string {
	return e.message
}

// Status returns the HTTP status that should be returned
func (e *HTTPError) Status() int {
	return e.status
}

// ErrorCode returns the machine-readable error code
func (e *HTTPError) ErrorCode() string {
	return e.code
}

// Data returns additional data about the error
func (e *HTTPError) Data() interface{} {
	return e.data
}

// makeMalformedRequestError creates the client error for a request that could not be parsed
func makeMalformedRequestError(message string) *HTTPError {
	return MakeError(http.StatusBadRequest, ErrCodeMalformedRequest, message)
}

// makeCreationFailedError creates the generic server error for a failed event creation
func makeCreationFailedError(cause error) *HTTPError {
	return MakeErrorWithData(http.StatusInternalServerError, ErrCodeCreationFailed, msgCreationFailed, cause)
}

// makeFetchFailedError creates the generic server error for a failed event listing
func makeFetchFailedError(cause error) *HTTPError {
	return MakeErrorWithData(http.StatusInternalServerError, ErrCodeFetchFailed, msgFetchFailed, cause)
}
