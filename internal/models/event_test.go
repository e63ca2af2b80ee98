package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgendaItemUnmarshal(t *testing.T) {
	var agenda Agenda
	require.NoError(t, json.Unmarshal([]byte(`["Opening", {"time":"10:00","topic":"Keynote"}, {"topic":"Lunch"}]`), &agenda))
	assert.Equal(t, Agenda{
		{Topic: "Opening"},
		{Time: "10:00", Topic: "Keynote"},
		{Topic: "Lunch"},
	}, agenda)

	assert.Error(t, json.Unmarshal([]byte(`[42]`), &agenda))
}

func TestEmptyListsMarshalAsArrays(t *testing.T) {
	data, err := json.Marshal(Event{ID: "1", Title: "Bare"})
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `[]`, string(raw["tags"]))
	assert.JSONEq(t, `[]`, string(raw["agenda"]))
	_, hasAttributes := raw["attributes"]
	assert.False(t, hasAttributes)
}

func TestSQLValueAndScan(t *testing.T) {
	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = Agenda{{Time: "09:00", Topic: "Doors"}}.Value()
	require.NoError(t, err)
	var agenda Agenda
	require.NoError(t, agenda.Scan([]byte(v.(string))))
	assert.Equal(t, Agenda{{Time: "09:00", Topic: "Doors"}}, agenda)

	var tags StringList
	require.NoError(t, tags.Scan(`["a","b"]`))
	assert.Equal(t, StringList{"a", "b"}, tags)

	var attrs Attributes
	require.NoError(t, attrs.Scan(nil))
	assert.Nil(t, attrs)
	require.NoError(t, attrs.Scan(`{"venue":"Hall 1"}`))
	assert.Equal(t, Attributes{"venue": "Hall 1"}, attrs)

	assert.Error(t, tags.Scan(42))
}

func TestSQLitePath(t *testing.T) {
	conf := AppConfig{DataDir: "/var/lib/devevent"}
	assert.Equal(t, "/var/lib/devevent/devevent.db", conf.SQLitePath())

	conf.Storage.URI = "mongodb://localhost:27017"
	assert.Equal(t, "/var/lib/devevent/devevent.db", conf.SQLitePath())

	conf.Storage.Path = "/srv/events.db"
	assert.Equal(t, "/srv/events.db", conf.SQLitePath())
}
