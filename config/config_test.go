package config

import (
	"os"
	"testing"
	"time"

	helpers "github.com/launchdarkly/go-test-helpers/v2"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFlags(t *testing.T, args ...string) *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestDefaults(t *testing.T) {
	c, err := Load(parseFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9876", c.BackendAddress())
	assert.Equal(t, DefaultStubHost, c.StubHost)
	assert.Equal(t, DefaultBackendTimeout, c.ChannelTimeout())
	assert.Equal(t, DefaultConnectTimeout, c.ConnectTimeout)
	assert.False(t, c.DebugRequests)
	assert.Empty(t, c.Rules.Rewrites)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("TEST_BACKEND_HOST", "adapter")
	t.Setenv("TEST_BACKEND_PORT", "9999")
	t.Setenv("TEST_DRIVER_NAME", "go")
	t.Setenv("TEST_STUB_ADDRESS", "0.0.0.0")
	t.Setenv("TEST_DEBUG_REQRES", "1")
	t.Setenv("TEST_DEBUG_NO_BACKEND_TIMEOUT", "true")

	c, err := Load(parseFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "adapter:9999", c.BackendAddress())
	assert.Equal(t, "go", c.DriverName)
	assert.Equal(t, "0.0.0.0", c.StubHost)
	assert.True(t, c.DebugRequests)
	assert.Equal(t, time.Duration(0), c.ChannelTimeout())
}

func TestFlagsWinOverEnvironment(t *testing.T) {
	t.Setenv("TEST_DRIVER_NAME", "go")
	t.Setenv("TEST_BACKEND_PORT", "9999")

	c, err := Load(parseFlags(t, "--driver-name", "java", "--backend-timeout", "3s"))
	require.NoError(t, err)
	assert.Equal(t, "java", c.DriverName)
	assert.Equal(t, 9999, c.BackendPort)
	assert.Equal(t, 3*time.Second, c.ChannelTimeout())
}

func TestInvalidPort(t *testing.T) {
	_, err := Load(parseFlags(t, "--backend-port", "0"))
	assert.Error(t, err)
}

func TestRulesFile(t *testing.T) {
	data := `
rewrites:
  - drivers: [ruby]
    pattern: '^stub\.retry\.[^.]+\.'
    replacement: 'stub.retry.'
skips:
  - drivers: [go, java]
    pattern: '^stub\.disconnects\.'
    reason: "disconnects are flaky on CI"
`
	withTempFileData(t, data, func(path string) {
		c, err := Load(parseFlags(t, "--rules", path))
		require.NoError(t, err)
		require.Len(t, c.Rules.Rewrites, 1)
		assert.Equal(t, RewriteRule{Drivers: []string{"ruby"}, Pattern: `^stub\.retry\.[^.]+\.`, Replacement: "stub.retry."},
			c.Rules.Rewrites[0])
		require.Len(t, c.Rules.Skips, 1)
		assert.Equal(t, "disconnects are flaky on CI", c.Rules.Skips[0].Reason)
	})
}

func TestInvalidRulesFiles(t *testing.T) {
	for name, data := range map[string]string{
		"unknown field":  "rewrites:\n  - pattern: x\n    replace: y\n",
		"bad pattern":    "rewrites:\n  - pattern: '('\n",
		"missing reason": "skips:\n  - pattern: x\n",
		"not yaml":       "rewrites: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			withTempFileData(t, data, func(path string) {
				_, err := LoadRules(path)
				assert.Error(t, err)
			})
		})
	}
	_, err := LoadRules("/no/such/rules.yaml")
	assert.Error(t, err)
}

func withTempFileData(t *testing.T, data string, action func(path string)) {
	helpers.WithTempFile(func(path string) {
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
		action(path)
	})
}
