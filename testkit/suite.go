package testkit

import (
	"time"

	"github.com/launchdarkly/bolt-contract-tests/backend"
	"github.com/launchdarkly/bolt-contract-tests/boltstub"
	"github.com/launchdarkly/bolt-contract-tests/boltstub/script"
	"github.com/launchdarkly/bolt-contract-tests/framework"
)

// Environment is what the test suite needs to know about the test run.
type Environment struct {
	Harness *framework.TestHarness
	// BackendAddress is host:port of the driver adapter. Every test opens its own connection.
	BackendAddress string
	Channel        backend.Config
	// StubHost is the interface stub servers listen on.
	StubHost string
	// StubTimeout bounds how long a stub server waits for its script to be played out.
	StubTimeout time.Duration
	Rules       *Rules
	Errors      ErrorMapping
}

type environment struct {
	harness     *framework.TestHarness
	address     string
	channel     backend.Config
	stubHost    string
	stubTimeout time.Duration
	rules       *Rules
	errors      ErrorMapping
	scripts     *script.Cache
	aborted     error
}

func newEnvironment(e Environment) *environment {
	env := &environment{
		harness:     e.Harness,
		address:     e.BackendAddress,
		channel:     e.Channel,
		stubHost:    e.StubHost,
		stubTimeout: e.StubTimeout,
		rules:       e.Rules,
		errors:      e.Errors,
		scripts:     script.NewCache(),
	}
	if env.stubHost == "" {
		env.stubHost = "127.0.0.1"
	}
	if env.stubTimeout <= 0 {
		env.stubTimeout = boltstub.DefaultTimeout
	}
	if env.rules == nil {
		env.rules = DefaultRules()
	}
	if env.errors == nil {
		env.errors = DefaultErrorMapping()
	}
	return env
}

// RunTestSuite runs every test that filter selects. The error is the harness protocol failure that
// stopped the run early, if there was one; the tests after it are reported as skipped.
func RunTestSuite(
	env Environment,
	filter framework.Filter,
	testLogger framework.TestLogger,
) (framework.Results, error) {
	e := newEnvironment(env)
	results := framework.Run(filter, testLogger, func(c *framework.Context) {
		t := newTestScope(c, e, nil)

		t.Run("stub", func(t *T) {
			t.Run("types", DoTypesTests)
			t.Run("iteration", DoIterationTests)
			t.Run("disconnects", DoDisconnectTests)
			t.Run("retry", DoRetryTests)
			t.Run("versions", DoVersionTests)
		})
	})
	return results, e.aborted
}
