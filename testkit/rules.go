package testkit

import (
	"fmt"
	"regexp"

	"github.com/launchdarkly/bolt-contract-tests/config"
)

// legacyIDDrivers still address some tests by the ids they had before the test packages were
// reorganized.
var legacyIDDrivers = []string{"python", "java", "javascript", "go", "dotnet"}

var defaultRewrites = []config.RewriteRule{
	{Drivers: legacyIDDrivers, Pattern: `^stub\.bookmarks\.test_bookmarks\.TestBookmarks`, Replacement: "stub.bookmark.Tx"},
	{Drivers: legacyIDDrivers, Pattern: `^stub\.disconnects\.test_disconnects\.TestDisconnects\.`, Replacement: "stub.disconnected.SessionRunDisconnected."},
	{Drivers: legacyIDDrivers, Pattern: `^stub\.iteration\.[^.]+\.TestIterationSessionRun`, Replacement: "stub.iteration.SessionRun"},
	{Drivers: legacyIDDrivers, Pattern: `^stub\.iteration\.[^.]+\.TestIterationTxRun`, Replacement: "stub.iteration.TxRun"},
	{Drivers: legacyIDDrivers, Pattern: `^stub\.retry\.[^.]+\.`, Replacement: "stub.retry."},
	{Drivers: legacyIDDrivers, Pattern: `^stub\.routing\.[^.]+\.`, Replacement: "stub.routing."},
	{Drivers: legacyIDDrivers, Pattern: `^stub\.routing\.RoutingV4x1\.`, Replacement: "stub.routing.RoutingV4."},
	{Drivers: legacyIDDrivers, Pattern: `^stub\.routing\.RoutingV4x3\.`, Replacement: "stub.routing.Routing."},
	{Drivers: legacyIDDrivers, Pattern: `^stub\.session_run_parameters\.[^.]+\.TestSessionRunParameters\.`, Replacement: "stub.sessionparameters.SessionRunParameters."},
	{Drivers: legacyIDDrivers, Pattern: `^stub\.tx_begin_parameters\.[^.]+\.TestTxBeginParameters\.`, Replacement: "stub.txparameters.TxBeginParameters."},
	{Drivers: legacyIDDrivers, Pattern: `^stub\.versions\.[^.]+\.TestProtocolVersions`, Replacement: "stub.versions.ProtocolVersions"},
	{Drivers: legacyIDDrivers, Pattern: `^stub\.transport\.[^.]+\.TestTransport\.`, Replacement: "stub.transport.Transport."},
	{Drivers: legacyIDDrivers, Pattern: `^stub\.authorization\.[^.]+\.TestAuthorizationV4x3\.`, Replacement: "stub.authorization.AuthorizationTests."},
	{Drivers: legacyIDDrivers, Pattern: `^stub\.authorization\.[^.]+\.TestAuthorizationV4x1\.`, Replacement: "stub.authorization.AuthorizationTestsV4."},
	{Drivers: legacyIDDrivers, Pattern: `^stub\.authorization\.[^.]+\.TestAuthorizationV3\.`, Replacement: "stub.authorization.AuthorizationTestsV3."},
	{Drivers: legacyIDDrivers, Pattern: `^stub\.authorization\.[^.]+\.TestNoRoutingAuthorization\.`, Replacement: "stub.authorization.NoRoutingAuthorizationTests."},
	{Drivers: legacyIDDrivers, Pattern: `^stub\.server_side_routing\.test_server_side_routing\.TestServerSideRouting\.`, Replacement: "stub.serversiderouting.ServerSideRouting."},
}

var defaultSkips = []config.SkipRule{
	{Drivers: []string{"java", "dotnet"}, Pattern: `^stub\.retry\.[^.]+\.TestRetry\.test_disconnect_on_commit$`, Reason: "Keeps retrying on commit despite connection being dropped"},
	{Drivers: []string{"go"}, Pattern: `^stub\.routing\..*\.test_should_fail_discovery_when_router_fails_with_`, Reason: "verifyConnectivity not implemented in backend"},
}

type compiledRule struct {
	drivers map[string]bool
	pattern *regexp.Regexp
	text    string
}

func compileRule(drivers []string, pattern, text string) (compiledRule, error) {
	rx, err := regexp.Compile(pattern)
	if err != nil {
		return compiledRule{}, fmt.Errorf("invalid test id pattern %q: %w", pattern, err)
	}
	r := compiledRule{pattern: rx, text: text}
	if len(drivers) > 0 {
		r.drivers = make(map[string]bool, len(drivers))
		for _, d := range drivers {
			r.drivers[d] = true
		}
	}
	return r, nil
}

func (r compiledRule) appliesTo(driver string) bool {
	return r.drivers == nil || r.drivers[driver]
}

// Rules decides, per driver, which id a test is announced to the adapter with and which tests
// are not run at all.
type Rules struct {
	rewrites []compiledRule
	skips    []compiledRule
}

// NewRules compiles the built-in rules followed by extra ones.
func NewRules(extra config.Rules) (*Rules, error) {
	r := &Rules{}
	rewrites := append(append([]config.RewriteRule(nil), defaultRewrites...), extra.Rewrites...)
	for _, rw := range rewrites {
		c, err := compileRule(rw.Drivers, rw.Pattern, rw.Replacement)
		if err != nil {
			return nil, err
		}
		r.rewrites = append(r.rewrites, c)
	}
	skips := append(append([]config.SkipRule(nil), defaultSkips...), extra.Skips...)
	for _, s := range skips {
		c, err := compileRule(s.Drivers, s.Pattern, s.Reason)
		if err != nil {
			return nil, err
		}
		r.skips = append(r.skips, c)
	}
	return r, nil
}

// DefaultRules returns the built-in rules only.
func DefaultRules() *Rules {
	r, err := NewRules(config.Rules{})
	if err != nil {
		panic(err)
	}
	return r
}

// Rewrite applies every rewrite for driver in order, each to the result of the previous one.
func (r *Rules) Rewrite(driver, id string) string {
	for _, rw := range r.rewrites {
		if rw.appliesTo(driver) {
			id = rw.pattern.ReplaceAllString(id, rw.text)
		}
	}
	return id
}

// SkipReason reports whether the test with the given id must be skipped for driver, and why.
func (r *Rules) SkipReason(driver, id string) (string, bool) {
	for _, s := range r.skips {
		if s.appliesTo(driver) && s.pattern.MatchString(id) {
			return s.text, true
		}
	}
	return "", false
}
