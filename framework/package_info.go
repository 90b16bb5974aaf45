// Package framework contains the low-level implementation of test harness infrastructure
// that can be reused for different kinds of tests.
//
// The general model is:
//
// 1. The test harness communicates with a driver adapter, a small process that wraps one client
// driver and exposes it over a line-framed request/response protocol. The adapter is asked for
// its feature list once, before any test runs.
//
// 2. There is a general notion of a test context which is similar to Go's *testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results, with cleanups that run even when a test fails or is skipped.
//
// 3. Tests can be selected with regular expressions, and skipped when the adapter lacks a
// feature they need.
//
// The domain-specific code that knows what is being tested is responsible for opening channels to
// the adapter, starting stub servers, and providing a test API on top of the test context.
package framework
