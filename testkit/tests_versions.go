package testkit

import (
	"fmt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/bolt-contract-tests/boltstub/script"
	"github.com/launchdarkly/bolt-contract-tests/frontend"
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

var testedVersions = []script.Version{{Major: 4, Minor: 4}, {Major: 5, Minor: 0}, {Major: 5, Minor: 1}, {Major: 5, Minor: 2}, {Major: 5, Minor: 3}, {Major: 5, Minor: 4}}

func DoVersionTests(t *T) {
	t.Run("test_versions", func(t *T) {
		t.RunClass("TestProtocolVersions", nil, func(t *T) {
			for _, v := range testedVersions {
				v := v
				name := fmt.Sprintf("test_supports_bolt_%dx%d", v.Major, v.Minor)
				t.Test(name, []string{servicedef.BoltVersionFeature(v.Major, v.Minor)}, func(t *T) {
					doVersionQuery(t, v)
				})
			}
		})
	})
}

func doVersionQuery(t *T, v script.Version) {
	vars := map[string]string{"VERSION": v.String()}
	if v.AtLeast(5, 1) {
		vars["LOGON"] = "!: AUTO LOGON"
	}
	stub := t.StartStub(9001, loadScript("version_query.script"), vars)
	driver := t.NewDriver(stub.URI(), frontend.DriverConfig{Auth: basicAuth()})
	session := newSession(t, driver, frontend.SessionConfig{})

	result, err := session.Run("RETURN 1 AS n", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), intField(t, requireRecord(t, result)))
	requireEnd(t, result)

	require.NoError(t, session.Close())
	require.NoError(t, driver.Close())
	stub.Done()
}
