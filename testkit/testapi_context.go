package testkit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/bolt-contract-tests/backend"
	"github.com/launchdarkly/bolt-contract-tests/framework"
	"github.com/launchdarkly/bolt-contract-tests/frontend"
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

// T represents a test or a group of tests in the driver test suite.
//
// It implements the same basic functionality as Go's testing.T, but in an environment that is
// outside of the Go test runner, with debug logging that is dumped when a test fails. Those
// features come from the lower-level framework package.
//
// A T created by Test has a harness channel of its own, opened after the capability gate passed
// and the adapter agreed to run the test, and closed when the test ends. Stub servers started
// from it are reset when the test ends, even if it failed.
//
// To make test assertions, you can use the assert and require packages, passing the *T as if it
// were a *testing.T.
type T struct {
	context  *framework.Context
	env      *environment
	required []string
	backend  *frontend.Backend
}

func newTestScope(context *framework.Context, env *environment, required []string) *T {
	return &T{context: context, env: env, required: required}
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods in
// the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a group of tests. This is equivalent to the Run method of testing.T.
func (t *T) Run(name string, action func(*T)) {
	t.RunClass(name, nil, action)
}

// RunClass runs a group of tests that all need the given features, in addition to the ones
// required by enclosing groups.
func (t *T) RunClass(name string, required []string, action func(*T)) {
	all := append(append([]string(nil), t.required...), required...)
	t.context.RunGroup(name, func(c *framework.Context) {
		action(newTestScope(c, t.env, all))
	})
}

// Test runs a single test. Before action is called, the test is skipped if the adapter lacks a
// required feature or a skip rule matches its id; otherwise a harness channel is opened and the
// adapter is asked whether it wants to run the test. Nothing is sent to the adapter for a test
// that the gate skips.
func (t *T) Test(name string, required []string, action func(*T)) {
	all := append(append([]string(nil), t.required...), required...)
	t.context.Run(name, func(c *framework.Context) {
		t1 := newTestScope(c, t.env, all)
		t1.setUp()
		action(t1)
	})
}

func (t *T) setUp() {
	if t.env.aborted != nil {
		t.context.SkipWithReason("run aborted after harness protocol error")
	}
	t.RequireFeatures(t.required...)

	id := t.context.ID().String()
	driver := t.DriverName()
	if reason, skip := t.env.rules.SkipReason(driver, id); skip {
		t.context.SkipWithReason(reason)
	}

	ch, err := backend.Dial(t.env.address, t.env.channel, t.context.DebugLogger())
	if err != nil {
		t.abort(err)
	}
	t.context.Defer(func() { _ = ch.Close() })
	t.context.Defer(func() { t.checkChannel(ch) })

	b := frontend.NewBackend(ch)
	run, reason, err := b.StartTest(t.env.rules.Rewrite(driver, id))
	if err != nil {
		t.checkChannel(ch)
		require.NoError(t, err)
	}
	if !run {
		t.context.SkipWithReason(reason)
	}
	t.backend = b
}

// checkChannel aborts the run if the channel broke during the test.
func (t *T) checkChannel(ch *backend.Channel) {
	if err := ch.Err(); err != nil && t.env.aborted == nil {
		t.abort(err)
	}
}

func (t *T) abort(err error) {
	t.env.aborted = err
	t.context.Errorf("aborting test run: %s", err)
	t.context.FailNow()
}

// Debug logs some debug output for the test. The output will be passed to the test logger at
// the end of the test.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

// ID is the test id, before any per-driver rewriting.
func (t *T) ID() string {
	return t.context.ID().String()
}

func (t *T) DriverName() string {
	return t.env.harness.DriverName()
}

// Supports reports whether the adapter declared all of the features. Tests use it to branch
// inside a test that runs either way.
func (t *T) Supports(features ...string) bool {
	return len(t.env.harness.MissingFeatures(features...)) == 0
}

// RequireFeatures skips the test unless the adapter declared all of the features.
func (t *T) RequireFeatures(features ...string) {
	if missing := t.env.harness.MissingFeatures(features...); len(missing) > 0 {
		t.context.SkipWithReason(fmt.Sprintf("Needs support for %s", strings.Join(missing, ", ")))
	}
}

// Skip skips the rest of the test.
func (t *T) Skip(reason string) {
	t.context.SkipWithReason(reason)
}

// Backend is the frontend on this test's harness channel.
func (t *T) Backend() *frontend.Backend {
	require.NotNil(t, t.backend, "only tests created with Test have a harness channel")
	return t.backend
}

// NewDriver creates a driver in the adapter. It is closed at the end of the test if the test did
// not close it.
func (t *T) NewDriver(uri string, config frontend.DriverConfig) *frontend.Driver {
	d, err := frontend.NewDriver(t.Backend(), uri, config)
	require.NoError(t, err)
	t.context.Defer(func() {
		if !d.Closed() && t.backend.Channel().Err() == nil {
			if err := d.Close(); err != nil {
				t.Debug("closing driver failed: %s", err)
			}
		}
	})
	return d
}

// RequireDriverError fails the test unless err is a DriverError of the given category, as the
// error mapping defines it for the driver under test.
func (t *T) RequireDriverError(err error, category servicedef.ErrorCategory) *servicedef.DriverError {
	var driverErr *servicedef.DriverError
	if !errors.As(err, &driverErr) {
		require.Fail(t, "expected a driver error", "category %s, got: %v", category, err)
	}
	if !t.env.errors.Matches(t.DriverName(), category, driverErr) {
		matcher := t.env.errors.Matcher(t.DriverName(), category)
		require.Fail(t, "driver error has the wrong type",
			"expected %s (one of %v or a code starting with %v), got %s", category, matcher.Types, matcher.CodePrefixes, driverErr)
	}
	return driverErr
}
