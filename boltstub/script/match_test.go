package script

import (
	"math"
	"testing"

	"github.com/launchdarkly/bolt-contract-tests/cypher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientLine(t *testing.T, content string) *Line {
	l, err := newLine(1, RoleClient, content)
	require.NoError(t, err)
	return l
}

func msg(name string, fields ...interface{}) *Message {
	m := &Message{Name: name}
	for _, f := range fields {
		m.Fields = append(m.Fields, cypher.Of(f))
	}
	return m
}

func TestMatchScalars(t *testing.T) {
	l := clientLine(t, `RUN "RETURN 1 AS n" {"x": 1, "y": 1.5, "z": null, "b": true} "*"`)

	assert.True(t, l.Matches(msg("RUN", "RETURN 1 AS n",
		map[string]interface{}{"x": 1, "y": 1.5, "z": nil, "b": true}, map[string]interface{}{})))
	assert.False(t, l.Matches(msg("RUN", "RETURN 1 AS n",
		map[string]interface{}{"x": 1.0, "y": 1.5, "z": nil, "b": true}, nil)), "int pattern does not match float")
	assert.False(t, l.Matches(msg("RUN", "RETURN 1 AS n",
		map[string]interface{}{"x": 1, "y": 1.5, "z": nil}, nil)), "missing key")
	assert.False(t, l.Matches(msg("RUN", "RETURN 1 AS n", map[string]interface{}{})), "field count")
	assert.False(t, l.Matches(msg("BEGIN", "RETURN 1 AS n", map[string]interface{}{}, nil)), "name")
}

func TestMatchEscapedStar(t *testing.T) {
	l := clientLine(t, `RUN "\\*"`)
	assert.True(t, l.Matches(msg("RUN", "*")))
	assert.False(t, l.Matches(msg("RUN", "anything")))
}

func TestMatchFloatNaN(t *testing.T) {
	l := clientLine(t, `RUN {"R": "NaN"}`)
	assert.True(t, l.Matches(&Message{Name: "RUN", Fields: []cypher.Value{cypher.Float(math.NaN())}}))
	assert.False(t, l.Matches(&Message{Name: "RUN", Fields: []cypher.Value{cypher.Float(1)}}))
}

func TestMatchTypedWildcards(t *testing.T) {
	cases := []struct {
		pattern string
		value   cypher.Value
		matches bool
	}{
		{`{"Z": "*"}`, cypher.Int(5), true},
		{`{"Z": "*"}`, cypher.Float(5), false},
		{`{"U": "*"}`, cypher.String("x"), true},
		{`{"T": "*"}`, cypher.Date{Year: 2020, Month: 1, Day: 2}, true},
		{`{"T": "*"}`, cypher.String("2020-01-02"), false},
		{`{"@": "*"}`, cypher.NewPoint2D(cypher.Cartesian, 1, 2), true},
		{`{"[]": "*"}`, cypher.List{}, true},
		{`{"{}": "*"}`, cypher.Map{}, true},
		{`{"Z": "42"}`, cypher.Int(42), true},
		{`{"Z": "42"}`, cypher.Int(43), false},
	}
	for _, c := range cases {
		t.Run(c.pattern, func(t *testing.T) {
			l := clientLine(t, "RUN "+c.pattern)
			assert.Equal(t, c.matches, l.Matches(&Message{Name: "RUN", Fields: []cypher.Value{c.value}}))
		})
	}
}

func TestMatchOptionalKey(t *testing.T) {
	l := clientLine(t, `BEGIN {"[mode]": "r", "db": "neo4j"}`)
	assert.True(t, l.Matches(msg("BEGIN", map[string]interface{}{"db": "neo4j"})))
	assert.True(t, l.Matches(msg("BEGIN", map[string]interface{}{"db": "neo4j", "mode": "r"})))
	assert.False(t, l.Matches(msg("BEGIN", map[string]interface{}{"db": "neo4j", "mode": "w"})))
	assert.False(t, l.Matches(msg("BEGIN", map[string]interface{}{"db": "neo4j", "extra": 1})))
}

func TestMatchUnorderedList(t *testing.T) {
	l := clientLine(t, `BEGIN {"bookmarks{}": ["a", "b"]}`)
	assert.True(t, l.Matches(msg("BEGIN", map[string]interface{}{"bookmarks": []interface{}{"b", "a"}})))
	assert.False(t, l.Matches(msg("BEGIN", map[string]interface{}{"bookmarks": []interface{}{"a", "a"}})))

	ordered := clientLine(t, `BEGIN {"bookmarks": ["a", "b"]}`)
	assert.False(t, ordered.Matches(msg("BEGIN", map[string]interface{}{"bookmarks": []interface{}{"b", "a"}})))
}

func TestMatchEscapedKeys(t *testing.T) {
	l := clientLine(t, `RUN {"\\[weird\\]": 1, "curly\\{}": 2}`)
	assert.True(t, l.Matches(msg("RUN", map[string]interface{}{"[weird]": 1, "curly{}": 2})))
}

func TestInvalidPatternIsRejected(t *testing.T) {
	_, err := newLine(3, RoleClient, `RUN {"Z": "not a number"}`)
	require.Error(t, err)
	var le *LineError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 3, le.Line)
}
