package testkit

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/bolt-contract-tests/frontend"
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

const nestedFetchSize = 2

var nestedQueries = []nestedQuery{
	{Query: "UNWIND range(0, 6) AS x RETURN x", From: 0, To: 6},
	{Query: "UNWIND range(7, 11) AS x RETURN x", From: 7, To: 11},
	{Query: "UNWIND range(999, 1001) AS x RETURN x", From: 999, To: 1001},
}

func DoIterationTests(t *T) {
	t.Run("test_iteration_tx_run", func(t *T) {
		t.RunClass("TestIterationTxRun", []string{servicedef.FeatureBolt44}, func(t *T) {
			t.Test("test_nested", nil, doNestedIteration)
		})
	})
}

func doNestedIteration(t *T) {
	stub := t.StartStub(9001, nestedIterationScript(nestedFetchSize, nestedQueries), nil)
	driver := t.NewDriver(stub.URI(), frontend.DriverConfig{Auth: basicAuth()})
	session := newSession(t, driver, frontend.SessionConfig{FetchSize: ldvalue.NewOptionalInt(nestedFetchSize)})
	tx, err := session.BeginTransaction(frontend.TxConfig{})
	require.NoError(t, err)

	// seen[level] collects every value read at that level, in order.
	seen := make([][]int64, len(nestedQueries))
	var iterate func(level int)
	iterate = func(level int) {
		result, err := tx.Run(nestedQueries[level].Query, nil)
		require.NoError(t, err)
		for {
			rec, err := result.Next()
			require.NoError(t, err)
			if rec == nil {
				break
			}
			seen[level] = append(seen[level], intField(t, *rec))
			if level+1 < len(nestedQueries) {
				iterate(level + 1)
			}
		}
	}
	iterate(0)

	require.NoError(t, tx.Commit())
	require.NoError(t, session.Close())
	require.NoError(t, driver.Close())
	stub.Done()

	repeats := 1
	for level, q := range nestedQueries {
		var want []int64
		for i := 0; i < repeats; i++ {
			for _, v := range q.values() {
				want = append(want, int64(v))
			}
		}
		assert.Equal(t, want, seen[level], "values of %q", q.Query)
		repeats *= len(q.values())
	}
}
