package script

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const messyScript = `!: BOLT 4.4
!: AUTO RESET
!: ALLOW RESTART

# comments and blank lines are dropped
C: HELLO   {"user_agent": "*",   "[routing]": null}
S: SUCCESS {"server": "Neo4j/4.4.0"}
?: GOODBYE
{{
C: RUN "x" {} {}
S: SUCCESS {}
----
C: BEGIN {}
S: SUCCESS {}
}}
{*
    C: RUN "y" {} {}
    S: SUCCESS {}
*}
C: GOODBYE
S: <EXIT>
`

func TestRenderIsCanonical(t *testing.T) {
	s, err := Parse(messyScript, nil)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "render", []byte(s.Render()))

	again, err := Parse(s.Render(), nil)
	require.NoError(t, err)
	assert.Equal(t, s.Render(), again.Render())
}

func TestParseHeader(t *testing.T) {
	s, err := Parse(`!: BOLT 5.4
!: AUTO HELLO
!: AUTO LOGON
!: ALLOW CONCURRENT
!: HANDSHAKE 00 00 04 05
!: HANDSHAKE_DELAY 1.5

C: RUN "RETURN 1" {} {}
`, nil)
	require.NoError(t, err)

	h := s.Header
	assert.Equal(t, Version{5, 4}, h.Protocol.Version)
	assert.Equal(t, map[string]bool{"HELLO": true, "LOGON": true}, h.Auto)
	assert.True(t, h.AllowConcurrent)
	assert.False(t, h.AllowRestart)
	assert.Equal(t, []byte{0, 0, 4, 5}, h.Handshake)
	assert.Equal(t, 1500*time.Millisecond, h.HandshakeDelay)
	assert.Len(t, s.Lines(), 1)
}

func TestParseAllowRestart(t *testing.T) {
	for _, header := range []string{"!: ALLOW RESTART", "!: ALLOW  RESTART"} {
		s, err := Parse("!: BOLT 4.4\n"+header+"\n\nC: RUN \"RETURN 1\" {} {}\n", nil)
		require.NoError(t, err, header)
		assert.True(t, s.Header.AllowRestart)
		assert.False(t, s.Header.AllowConcurrent)
	}
}

func TestParseSubstitutesVariables(t *testing.T) {
	text := "!: BOLT #VERSION#\n\nC: RUN \"#QUERY#\" {} {}\n"
	for _, vars := range []map[string]string{
		{"VERSION": "4.4", "QUERY": "RETURN 1"},
		{"#VERSION#": "4.4", "#QUERY#": "RETURN 1"},
	} {
		s, err := Parse(text, vars)
		require.NoError(t, err)
		assert.Equal(t, `C: RUN "RETURN 1" {} {}`, s.Lines()[0].Canonical())
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name, text, want string
	}{
		{"missing version", "C: HELLO {}\n", "!: BOLT"},
		{"unknown version", "!: BOLT 9.9\n", "9.9"},
		{"message not in version", "!: BOLT 4.4\nC: LOGON {}\n", "unknown client message LOGON"},
		{"server message as client", "!: BOLT 4.4\nC: SUCCESS {}\n", "unknown client message SUCCESS"},
		{"auto server message", "!: BOLT 4.4\n!: AUTO SUCCESS\n", "AUTO SUCCESS"},
		{"unknown bang", "!: BOLT 4.4\n!: FOO\n", "unknown bang line"},
		{"late bang", "!: BOLT 4.4\nC: RESET\n!: AUTO HELLO\n", "before the script body"},
		{"unknown command", "!: BOLT 4.4\nC: RESET\nS: <FOO>\n", "unknown command"},
		{"bad json", "!: BOLT 4.4\nC: RUN {\n", "json"},
		{"unclosed block", "!: BOLT 4.4\n{{\nC: RESET\n", "never closed"},
		{"mismatched close", "!: BOLT 4.4\n{?\nC: RESET\n*}\n", "expected ?}"},
		{"mixed separators", "!: BOLT 4.4\n{{\nC: RESET\n----\nC: RUN\n++++\nC: BEGIN\n}}\n", "cannot mix"},
		{"server first", "!: BOLT 4.4\nS: SUCCESS {}\n", "ambiguity"},
		{"server after repeat", "!: BOLT 4.4\n*: RESET\nS: SUCCESS {}\n", "ambiguity"},
		{"python line", "!: BOLT 4.4\nPY: x = 1\n", "python"},
		{"stray continuation", "!: BOLT 4.4\n    RESET\n", "unexpected line"},
		{"restart and concurrent", "!: BOLT 4.4\n!: ALLOW RESTART\n!: ALLOW CONCURRENT\n", "cannot be combined"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse(c.text, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.want)
		})
	}
}

func TestParseErrorCarriesLineNumber(t *testing.T) {
	_, err := Parse("!: BOLT 4.4\n\nC: RESET\nS: <SLEEP> soon\n", nil)
	var le *LineError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 4, le.Line)
}

func TestCacheReusesParsedScripts(t *testing.T) {
	c := NewCache()
	text := "!: BOLT 4.4\n\nC: RUN \"#Q#\" {} {}\n"

	a, err := c.Parse(text, map[string]string{"Q": "1"})
	require.NoError(t, err)
	b, err := c.Parse(text, map[string]string{"Q": "1"})
	require.NoError(t, err)
	other, err := c.Parse(text, map[string]string{"Q": "2"})
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
	assert.Equal(t, 2, c.Len())

	_, err = c.Parse("C: RESET\n", nil)
	assert.Error(t, err)
	assert.Equal(t, 2, c.Len())
}
