package main

import (
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/bolt-contract-tests/framework"
)

func TestRerunCommandSelectsOnlyFailedTests(t *testing.T) {
	failed := []string{
		"stub.retry.test_retry.TestRetry.test_retry_made_up_transient",
		"stub.types.test_echo_values.TestEchoValues.test_integers",
	}
	var ids []string
	for _, id := range failed {
		ids = append(ids, regexp.QuoteMeta(id))
	}
	var cmd commandBuilder
	cmd.add("./bolt-contract-tests")
	cmd.addFailedTests(ids)

	assert.Equal(t,
		`./bolt-contract-tests --run '^(stub\.retry\.test_retry\.TestRetry\.test_retry_made_up_transient|stub\.types\.test_echo_values\.TestEchoValues\.test_integers)$'`,
		cmd.String())

	params := &commandParams{}
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	params.register(flags)
	require.NoError(t, flags.Parse([]string{"--run", `^(stub\.retry\.test_retry\.TestRetry\.test_retry_made_up_transient|stub\.types\.test_echo_values\.TestEchoValues\.test_integers)$`}))
	for _, id := range failed {
		assert.True(t, params.filters.AsFilter(framework.TestID{Path: strings.Split(id, ".")}))
	}
	assert.False(t, params.filters.AsFilter(framework.TestID{Path: []string{"stub", "retry", "test_retry", "TestRetry", "test_retry_database_unavailable"}}))
}

func TestFlagsRegisterTogether(t *testing.T) {
	params := &commandParams{}
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	params.register(flags)
	require.NoError(t, flags.Parse([]string{"--skip", "disconnects", "--skip", "retry", "--debug"}))
	assert.True(t, params.debug)
	assert.False(t, params.debugAll)
	assert.True(t, params.filters.MustNotMatch.AnyMatch("stub.retry.x"))
	assert.True(t, params.filters.MustNotMatch.AnyMatch("stub.disconnects.x"))
	assert.False(t, params.filters.MustNotMatch.AnyMatch("stub.types.x"))
}
