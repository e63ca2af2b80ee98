package internal

// -- Request data -----------------------------------------------------------------------------------------------------

// Names of the form fields that get special treatment when creating an event
const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldSlug        = "slug"
	fieldImage       = "image"
	fieldTags        = "tags"
	fieldAgenda      = "agenda"
)

// ImageFile is an uploaded image, completely read into memory
type ImageFile struct {
	// File name as sent by the client
	Filename string
	// Content type as sent by the client
	ContentType string
	// The file's contents
	Data []byte
}

// EventDraft is the event as submitted by the client - it only lives for the duration of a single create request
type EventDraft struct {
	// All scalar form fields. Tags and agenda are kept separately
	Fields map[string]string
	// The JSON-serialized list of tags
	Tags string
	// The JSON-serialized list of agenda entries
	Agenda string
	// The image file - nil if the client did not send one
	Image *ImageFile
}
