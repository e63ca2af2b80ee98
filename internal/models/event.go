package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Event describes a dev event listing - a hackathon, meetup or conference
type Event struct {
	// Internal ID (a UUID)
	ID string `db:"id" json:"id" bson:"_id"`
	// Title of the event
	Title string `db:"title" json:"title" bson:"title"`
	// URL-friendly name of the event, derived from the title if not submitted
	Slug string `db:"slug" json:"slug,omitempty" bson:"slug,omitempty"`
	// Free text describing the event
	Description string `db:"description" json:"description" bson:"description"`
	// Public URL of the event's image as returned by the media store
	Image string `db:"image" json:"image" bson:"image" validate:"required,url"`
	// Tags in the order they were submitted
	Tags StringList `db:"tags" json:"tags" bson:"tags"`
	// Agenda entries in the order they were submitted
	Agenda Agenda `db:"agenda" json:"agenda" bson:"agenda"`
	// All other scalar fields submitted with the event (venue, date, mode, ...)
	Attributes Attributes `db:"attributes" json:"attributes,omitempty" bson:"attributes,omitempty"`
	// Creation date of this entry - the listing is sorted by it
	CreatedAt time.Time `db:"createdAt" json:"createdAt" bson:"createdAt"`
}

// AgendaItem is a single entry on an event's agenda
type AgendaItem struct {
	Time  string `json:"time,omitempty" bson:"time,omitempty"`
	Topic string `json:"topic" bson:"topic"`
}

// UnmarshalJSON accepts either a full agenda object or a plain string which is taken as the topic
func (a *AgendaItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var topic string
		if err := json.Unmarshal(data, &topic); err != nil {
			return err
		}
		*a = AgendaItem{Topic: topic}
		return nil
	}
	// Alias type to avoid recursing into this method
	type plain AgendaItem
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = AgendaItem(p)
	return nil
}

// StringList is an ordered list of strings stored as a JSON array in SQL databases
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return jsonValue(l)
}

// Scan implements sql.Scanner
func (l *StringList) Scan(src interface{}) error {
	return jsonScan(src, l)
}

// MarshalJSON never emits null for an empty list
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Agenda is the ordered list of agenda entries stored as a JSON array in SQL databases
type Agenda []AgendaItem

// Value implements driver.Valuer
func (a Agenda) Value() (driver.Value, error) {
	if a == nil {
		a = Agenda{}
	}
	return jsonValue(a)
}

// Scan implements sql.Scanner
func (a *Agenda) Scan(src interface{}) error {
	return jsonScan(src, a)
}

// MarshalJSON never emits null for an empty list
func (a Agenda) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]AgendaItem(a))
}

// Attributes holds the free-form scalar fields of an event, stored as a JSON object in SQL databases
type Attributes map[string]string

// Value implements driver.Valuer
func (m Attributes) Value() (driver.Value, error) {
	if m == nil {
		m = Attributes{}
	}
	return jsonValue(m)
}

// Scan implements sql.Scanner
func (m *Attributes) Scan(src interface{}) error {
	return jsonScan(src, m)
}

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(src interface{}, dest interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dest)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}
