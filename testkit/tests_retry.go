package testkit

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/bolt-contract-tests/cypher"
	"github.com/launchdarkly/bolt-contract-tests/frontend"
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

func DoRetryTests(t *T) {
	t.Run("test_retry", func(t *T) {
		t.RunClass("TestRetry", []string{servicedef.FeatureBolt44, servicedef.FeatureAPIResultList}, func(t *T) {
			t.Test("test_retry_made_up_transient", nil, func(t *T) {
				doRetryWithTransientError(t, "Neo.TransientError.Completely.MadeUp")
			})
			t.Test("test_retry_database_unavailable", nil, func(t *T) {
				doRetryWithTransientError(t, "Neo.TransientError.Database.DatabaseUnavailable")
			})
		})
	})
}

func doRetryWithTransientError(t *T, code string) {
	stub := t.StartStub(9001, loadScript("retry_with_transient_failure.script"), map[string]string{"ERROR": code})
	driver := t.NewDriver(stub.URI(), frontend.DriverConfig{Auth: basicAuth()})
	session := newSession(t, driver, frontend.SessionConfig{})

	attempts := 0
	value, err := session.WriteTransaction(func(tx *frontend.Transaction) (interface{}, error) {
		attempts++
		result, err := tx.Run("RETURN 1 AS n", nil)
		if err != nil {
			return nil, err
		}
		return result.List()
	}, frontend.ManagedTxConfig{})
	require.NoError(t, err)

	require.NoError(t, session.Close())
	require.NoError(t, driver.Close())
	stub.Done()

	assert.Equal(t, 2, attempts)
	records, ok := value.([]servicedef.Record)
	require.True(t, ok, "work function result should be the record list, got %T", value)
	require.Len(t, records, 1)
	assert.Equal(t, cypher.Row{cypher.Int(1)}, records[0].Values)
	assert.Equal(t, 0, stub.CountRequests("ROLLBACK"))
}
