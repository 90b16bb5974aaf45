package boltstub

import (
	"testing"

	"github.com/launchdarkly/bolt-contract-tests/boltstub/packstream"
	"github.com/launchdarkly/bolt-contract-tests/cypher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, v cypher.Value, packstreamVersion int) cypher.Value {
	d, err := dehydrate(v, packstreamVersion)
	require.NoError(t, err)
	data, err := packstream.Marshal(d)
	require.NoError(t, err)
	raw, err := packstream.Unmarshal(data)
	require.NoError(t, err)
	h, err := hydrate(raw, packstreamVersion)
	require.NoError(t, err)
	return h
}

func TestTemporalValuesSurvivePacking(t *testing.T) {
	values := []cypher.Value{
		cypher.Date{Year: 2024, Month: 2, Day: 29},
		cypher.Date{Year: 1901, Month: 12, Day: 31},
		cypher.LocalTime{Hour: 23, Minute: 59, Second: 58, Nanosecond: 123456789},
		cypher.Time{LocalTime: cypher.LocalTime{Hour: 1, Minute: 2, Second: 3}, UTCOffset: -3600},
		cypher.LocalDateTime{
			Date:      cypher.Date{Year: 2020, Month: 6, Day: 15},
			LocalTime: cypher.LocalTime{Hour: 12, Nanosecond: 5},
		},
		cypher.DateTime{
			Date:      cypher.Date{Year: 2022, Month: 3, Day: 4},
			LocalTime: cypher.LocalTime{Hour: 5, Minute: 6, Second: 7, Nanosecond: 8},
			UTCOffset: cypher.Offset(7200),
		},
		cypher.DateTime{
			Date:      cypher.Date{Year: 2022, Month: 7, Day: 1},
			LocalTime: cypher.LocalTime{Hour: 10},
			UTCOffset: cypher.Offset(7200),
			Zone:      "Europe/Stockholm",
		},
		cypher.Duration{Months: 14, Days: 3, Seconds: 62, Nanoseconds: 9},
	}
	for _, version := range []int{1, 2} {
		for _, v := range values {
			got := roundTrip(t, v, version)
			assert.True(t, cypher.Equal(v, got), "packstream %d: %#v became %#v", version, v, got)
		}
	}
}

func TestDateTimeWireFormatDependsOnVersion(t *testing.T) {
	v := cypher.DateTime{
		Date:      cypher.Date{Year: 1970, Month: 1, Day: 1},
		LocalTime: cypher.LocalTime{Hour: 1},
		UTCOffset: cypher.Offset(3600),
	}
	legacy, err := dehydrate(v, 1)
	require.NoError(t, err)
	assert.Equal(t, &packstream.Struct{Tag: tagLegacyDateTime, Fields: []interface{}{int64(3600), int64(0), int64(3600)}}, legacy)

	utc, err := dehydrate(v, 2)
	require.NoError(t, err)
	assert.Equal(t, &packstream.Struct{Tag: tagDateTime, Fields: []interface{}{int64(0), int64(0), int64(3600)}}, utc)

	_, err = hydrate(legacy, 2)
	assert.Error(t, err)
	_, err = hydrate(utc, 1)
	assert.Error(t, err)
}

func TestZonedDateTimeGetsItsOffset(t *testing.T) {
	raw := &packstream.Struct{Tag: tagDateTimeZone, Fields: []interface{}{int64(0), int64(0), "Europe/Berlin"}}
	v, err := hydrate(raw, 2)
	require.NoError(t, err)
	assert.Equal(t, cypher.DateTime{
		Date:      cypher.Date{Year: 1970, Month: 1, Day: 1},
		LocalTime: cypher.LocalTime{Hour: 1},
		UTCOffset: cypher.Offset(3600),
		Zone:      "Europe/Berlin",
	}, v)
}

func TestPointsSurvivePacking(t *testing.T) {
	for _, p := range []cypher.Point{
		cypher.NewPoint2D(cypher.Cartesian, 1.5, -2),
		cypher.NewPoint3D(cypher.WGS84, 12.5, 56.25, 100),
	} {
		assert.True(t, cypher.Equal(p, roundTrip(t, p, 1)))
	}
	_, err := hydrate(&packstream.Struct{Tag: tagPoint2D, Fields: []interface{}{int64(1), 1.0, 2.0}}, 1)
	assert.Error(t, err)
}

func TestGraphValuesSurvivePacking(t *testing.T) {
	alice := cypher.Node{ID: 1, ElementID: "n1", Labels: []string{"Person"}, Props: cypher.Map{"name": cypher.String("Alice")}}
	bob := cypher.Node{ID: 2, ElementID: "n2", Labels: []string{}, Props: cypher.Map{}}
	knows := cypher.Relationship{
		ID: 10, StartNodeID: 1, EndNodeID: 2, Type: "KNOWS", Props: cypher.Map{},
		ElementID: "r10", StartNodeElementID: "n1", EndNodeElementID: "n2",
	}
	likes := cypher.Relationship{
		ID: 11, StartNodeID: 1, EndNodeID: 2, Type: "LIKES", Props: cypher.Map{"w": cypher.Int(3)},
		ElementID: "r11", StartNodeElementID: "n1", EndNodeElementID: "n2",
	}
	path := cypher.Path{
		Nodes:         []cypher.Node{alice, bob, alice},
		Relationships: []cypher.Relationship{knows, likes},
	}

	for _, v := range []cypher.Value{alice, knows, path} {
		got := roundTrip(t, v, 2)
		assert.True(t, cypher.Equal(v, got), "%#v became %#v", v, got)
	}

	d, err := dehydrate(path, 2)
	require.NoError(t, err)
	s := d.(*packstream.Struct)
	assert.Len(t, s.Fields[0], 2, "nodes are sent once")
	assert.Equal(t, []interface{}{int64(1), int64(1), int64(-2), int64(0)}, s.Fields[2])
}

func TestHydrateRejectsMalformedStructs(t *testing.T) {
	cases := []*packstream.Struct{
		{Tag: 0x01, Fields: nil},
		{Tag: tagDate, Fields: []interface{}{"monday"}},
		{Tag: tagNode, Fields: []interface{}{int64(1), []interface{}{"L"}}},
		{Tag: tagUnboundRelationship, Fields: []interface{}{int64(1), "T", map[string]interface{}{}}},
		{Tag: tagPath, Fields: []interface{}{[]interface{}{}, []interface{}{}, []interface{}{}}},
	}
	for _, s := range cases {
		_, err := hydrate(s, 1)
		assert.Error(t, err, "struct 0x%02X", s.Tag)
	}
}
