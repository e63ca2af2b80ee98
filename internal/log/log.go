package log

const (
	// FldFile is the name of the log field for storing file name information
	FldFile = "file"
	// FldPath is the name of the log field for storing path name information
	FldPath = "path"
	// FldTransport is the name of the log field for storing a transport name
	FldTransport = "transport"
	// FldVersion is the version number of the application
	FldVersion = "ver"
	// FldID is the ID of an entity used in the log entry
	FldID = "id"
	// FldTitle is the title of the event an entry is about
	FldTitle = "title"
	// FldMedia is the public ID of an uploaded media object
	FldMedia = "media"
	// FldURL is a URL (mostly of uploaded media) used in the log entry
	FldURL = "url"
	// FldSize is the size of a payload in bytes
	FldSize = "size"
	// FldFolder is the media folder an upload is stored in
	FldFolder = "folder"
	// FldDriver is the name of the storage driver in use
	FldDriver = "driver"
	// FldProvider is the name of the media provider in use
	FldProvider = "provider"
	// FldSource is the name of the data source feeding the listing page
	FldSource = "source"
	// FldCode is the machine-readable error code returned to a client
	FldCode = "code"
	// FldStatus is the HTTP status returned to a client
	FldStatus = "status"
	// FldCount is the number of items returned by an operation
	FldCount = "count"
	// FldEndpoint is the name of the called endpoint
	FldEndpoint = "endpoint"
	// FldDuration is the time an operation took
	FldDuration = "took"
)
