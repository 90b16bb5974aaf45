package testkit

import (
	"math"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/bolt-contract-tests/cypher"
	"github.com/launchdarkly/bolt-contract-tests/frontend"
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

var echoIntegers = []int64{
	0, 1, -1,
	math.MaxInt32, math.MinInt32,
	math.MaxInt32 + 1, math.MinInt32 - 1,
	1 << 62, -(1 << 62),
}

func DoTypesTests(t *T) {
	t.Run("test_echo_values", func(t *T) {
		t.RunClass("TestEchoValues", []string{servicedef.FeatureBolt44}, func(t *T) {
			t.Test("test_integers", nil, func(t *T) {
				for _, x := range echoIntegers {
					v := cypher.Int(x)
					got := echo(t, v)
					assert.True(t, cypher.Equal(v, got), "sent %d, got %v", x, got)
				}
			})

			t.Test("test_special_floats", nil, func(t *T) {
				for _, tc := range []struct {
					value   float64
					encoded string
				}{
					{math.Inf(1), `{"R": "+Infinity"}`},
					{math.Inf(-1), `{"R": "-Infinity"}`},
					{math.NaN(), `{"R": "NaN"}`},
				} {
					v := cypher.Float(tc.value)
					got := echo(t, v)
					assert.True(t, cypher.Equal(v, got), "sent %s, got %v", tc.encoded, got)
					encoded, err := cypher.Encode(got, true)
					require.NoError(t, err)
					assert.JSONEq(t, tc.encoded, string(encoded))
				}
			})
		})
	})
}

// echo has the driver send v as the parameter of "RETURN $x AS x" to a stub that returns it
// unchanged, and returns the value of the single record field.
func echo(t *T, v cypher.Value) cypher.Value {
	encoded, err := cypher.Encode(v, true)
	require.NoError(t, err)
	t.Debug("echo %s", encoded)

	stub := t.StartStub(9001, loadScript("echo.script"), map[string]string{"VALUE": string(encoded)})
	driver := t.NewDriver(stub.URI(), frontend.DriverConfig{Auth: basicAuth()})
	session := newSession(t, driver, frontend.SessionConfig{})

	result, err := session.Run("RETURN $x AS x", cypher.Params{"x": v})
	require.NoError(t, err)
	record := requireRecord(t, result)
	requireEnd(t, result)

	require.NoError(t, session.Close())
	require.NoError(t, driver.Close())
	stub.Done()

	require.Len(t, record.Values, 1)
	return record.Values[0]
}
