package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/bolt-contract-tests/config"
)

func TestDefaultRewrites(t *testing.T) {
	rules := DefaultRules()
	for _, p := range []struct{ driver, id, expected string }{
		{"go", "stub.retry.test_retry.TestRetry.test_retry_made_up_transient", "stub.retry.TestRetry.test_retry_made_up_transient"},
		{"java", "stub.iteration.test_iteration_tx_run.TestIterationTxRun.test_nested", "stub.iteration.TxRun.test_nested"},
		{"python", "stub.versions.test_versions.TestProtocolVersions.test_supports_bolt_5x1", "stub.versions.ProtocolVersions.test_supports_bolt_5x1"},
		{"dotnet", "stub.disconnects.test_disconnects.TestDisconnects.test_disconnect_on_pull", "stub.disconnected.SessionRunDisconnected.test_disconnect_on_pull"},
		{"javascript", "stub.routing.test_routing_v4x3.RoutingV4x3.test_should_read", "stub.routing.Routing.test_should_read"},
		{"ruby", "stub.retry.test_retry.TestRetry.test_retry_made_up_transient", "stub.retry.test_retry.TestRetry.test_retry_made_up_transient"},
		{"go", "stub.types.test_echo_values.TestEchoValues.test_integers", "stub.types.test_echo_values.TestEchoValues.test_integers"},
	} {
		t.Run(p.driver+" "+p.id, func(t *testing.T) {
			assert.Equal(t, p.expected, rules.Rewrite(p.driver, p.id))
		})
	}
}

func TestDefaultSkips(t *testing.T) {
	rules := DefaultRules()

	reason, skip := rules.SkipReason("java", "stub.retry.test_retry.TestRetry.test_disconnect_on_commit")
	assert.True(t, skip)
	assert.Equal(t, "Keeps retrying on commit despite connection being dropped", reason)

	_, skip = rules.SkipReason("python", "stub.retry.test_retry.TestRetry.test_disconnect_on_commit")
	assert.False(t, skip)

	_, skip = rules.SkipReason("java", "stub.retry.test_retry.TestRetry.test_disconnect_on_commit_later")
	assert.False(t, skip)
}

func TestExtraRulesApplyAfterDefaults(t *testing.T) {
	rules, err := NewRules(config.Rules{
		Rewrites: []config.RewriteRule{
			{Drivers: []string{"go"}, Pattern: `^stub\.retry\.TestRetry\.(.*)$`, Replacement: "retry.$1"},
			{Pattern: `^stub\.types\.`, Replacement: "types."},
		},
		Skips: []config.SkipRule{
			{Pattern: `test_special_floats$`, Reason: "No NaN support"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "retry.test_retry_database_unavailable",
		rules.Rewrite("go", "stub.retry.test_retry.TestRetry.test_retry_database_unavailable"))
	assert.Equal(t, "types.test_echo_values.TestEchoValues.test_integers",
		rules.Rewrite("ruby", "stub.types.test_echo_values.TestEchoValues.test_integers"))

	for _, driver := range []string{"go", "ruby"} {
		reason, skip := rules.SkipReason(driver, "stub.types.test_echo_values.TestEchoValues.test_special_floats")
		assert.True(t, skip)
		assert.Equal(t, "No NaN support", reason)
	}
}

func TestInvalidExtraRule(t *testing.T) {
	_, err := NewRules(config.Rules{Rewrites: []config.RewriteRule{{Pattern: `(`, Replacement: "x"}}})
	assert.Error(t, err)
	_, err = NewRules(config.Rules{Skips: []config.SkipRule{{Pattern: `[`, Reason: "x"}}})
	assert.Error(t, err)
}
