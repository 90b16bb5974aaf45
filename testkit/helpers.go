package testkit

import (
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/bolt-contract-tests/cypher"
	"github.com/launchdarkly/bolt-contract-tests/frontend"
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

func basicAuth() servicedef.AuthorizationToken {
	return servicedef.BasicAuth("neo4j", "pass", "")
}

func newSession(t *T, d *frontend.Driver, config frontend.SessionConfig) *frontend.Session {
	s, err := d.Session(config)
	require.NoError(t, err)
	return s
}

func requireRecord(t *T, r *frontend.Result) servicedef.Record {
	rec, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, rec, "expected a record but the result ended")
	return *rec
}

func requireEnd(t *T, r *frontend.Result) {
	rec, err := r.Next()
	require.NoError(t, err)
	require.Nil(t, rec, "expected the end of the result")
}

// intField returns the only field of rec, which must be an Int.
func intField(t *T, rec servicedef.Record) int64 {
	require.Len(t, rec.Values, 1)
	v, ok := rec.Values[0].(cypher.Int)
	require.True(t, ok, "expected an Int but got %s", rec.Values[0].Kind())
	return int64(v)
}
