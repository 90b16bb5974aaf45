package testkit

import (
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/bolt-contract-tests/frontend"
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

func DoDisconnectTests(t *T) {
	t.Run("test_disconnects", func(t *T) {
		t.RunClass("TestDisconnects", []string{servicedef.FeatureBolt44}, func(t *T) {
			t.Test("test_disconnect_on_pull", []string{servicedef.FeatureAPIResultList}, func(t *T) {
				stub := t.StartStub(9001, loadScript("disconnect_on_pull.script"), nil)
				driver := t.NewDriver(stub.URI(), frontend.DriverConfig{Auth: basicAuth()})
				session := newSession(t, driver, frontend.SessionConfig{})

				result, err := session.Run("RETURN 1 AS n", nil)
				if err == nil {
					_, err = result.List()
				}
				t.RequireDriverError(err, servicedef.ErrServiceUnavailable)

				if err := session.Close(); err != nil {
					t.Debug("closing session after disconnect: %s", err)
				}
				require.NoError(t, driver.Close())
				stub.Done()
			})
		})
	})
}
