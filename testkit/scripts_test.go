package testkit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/bolt-contract-tests/boltstub/script"
)

func TestEmbeddedScriptsParse(t *testing.T) {
	for _, p := range []struct {
		name string
		vars map[string]string
	}{
		{"echo.script", map[string]string{"VALUE": "42"}},
		{"disconnect_on_pull.script", nil},
		{"retry_with_transient_failure.script", map[string]string{"ERROR": "Neo.TransientError.Completely.MadeUp"}},
		{"version_query.script", map[string]string{"VERSION": "4.4"}},
		{"version_query.script", map[string]string{"VERSION": "5.1", "LOGON": "!: AUTO LOGON"}},
	} {
		t.Run(p.name, func(t *testing.T) {
			_, err := script.Parse(loadScript(p.name), p.vars)
			require.NoError(t, err)
		})
	}
}

func TestVersionScriptNegotiatesGivenVersion(t *testing.T) {
	s, err := script.Parse(loadScript("version_query.script"), map[string]string{"VERSION": "5.2", "LOGON": "!: AUTO LOGON"})
	require.NoError(t, err)
	require.NotNil(t, s.Header.Protocol)
	assert.Equal(t, script.Version{Major: 5, Minor: 2}, s.Header.Protocol.Version)
	assert.True(t, s.Header.Auto["LOGON"])
}

func TestNestedIterationScript(t *testing.T) {
	text := nestedIterationScript(nestedFetchSize, nestedQueries)
	_, err := script.Parse(text, nil)
	require.NoError(t, err)

	// 7 outer records take 4 pulls, each of them runs 5 inner records in 3 pulls, and each of
	// those runs 3 innermost records in 2 pulls.
	assert.Equal(t, 4+7*3+7*5*2, strings.Count(text, "C: PULL"))
	assert.Equal(t, 1+7+7*5, strings.Count(text, "C: RUN"))
	assert.Equal(t, 1, strings.Count(text, "C: COMMIT"))
}

func TestBatch(t *testing.T) {
	values := []int{1, 2, 3}
	assert.Equal(t, []string{"RECORD [1]", "RECORD [2]", `SUCCESS {"has_more": true}`}, batch(values, 0, 2))
	assert.Equal(t, []string{"RECORD [3]", `SUCCESS {"type": "r"}`}, batch(values, 2, 2))
}
