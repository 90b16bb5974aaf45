// Package testkit is the driver test suite: the test scope that tests are written against, the
// capability gate and test id rules applied before a test starts, the per-driver error mapping,
// and the tests themselves with the stub scripts they play.
//
// Test ids have the form <package>.<area>.<module>.<Class>.<test>, for example
// "stub.retry.test_retry.TestRetry.test_retry_made_up_transient". Adapters see the id after the
// rewrite rules for their driver were applied.
package testkit
