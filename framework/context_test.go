package framework

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/bolt-contract-tests/logging"
)

type recordingTestLogger struct {
	started  []string
	skipped  map[string]string
	finished map[string]bool
}

func newRecordingTestLogger() *recordingTestLogger {
	return &recordingTestLogger{skipped: map[string]string{}, finished: map[string]bool{}}
}

func (r *recordingTestLogger) TestStarted(id TestID)           { r.started = append(r.started, id.String()) }
func (r *recordingTestLogger) TestError(id TestID, err error)  {}
func (r *recordingTestLogger) TestSkipped(id TestID, s string) { r.skipped[id.String()] = s }
func (r *recordingTestLogger) TestFinished(id TestID, failed bool, _ logging.CapturedOutput) {
	r.finished[id.String()] = failed
}

func TestRunRecordsPassFailAndSkip(t *testing.T) {
	tl := newRecordingTestLogger()
	results := Run(nil, tl, func(c *Context) {
		c.Run("stub", func(c *Context) {
			c.Run("pass", func(c *Context) {})
			c.Run("fail", func(c *Context) {
				c.Errorf("bad thing")
			})
			c.Run("failnow", func(c *Context) {
				c.FailNow()
			})
			c.Run("skip", func(c *Context) {
				c.SkipWithReason("Needs support for Feature:Bolt:5.1")
			})
		})
	})

	assert.False(t, results.OK())
	require.Len(t, results.Failures, 2)
	assert.Equal(t, "stub.fail", results.Failures[0].TestID.String())
	assert.Equal(t, "stub.failnow", results.Failures[1].TestID.String())
	require.Len(t, results.Skipped, 1)
	assert.Equal(t, "stub.skip", results.Skipped[0].TestID.String())
	assert.Equal(t, "Needs support for Feature:Bolt:5.1", tl.skipped["stub.skip"])
	assert.False(t, tl.finished["stub.pass"])
	assert.True(t, tl.finished["stub.fail"])
}

func TestUnexpectedPanicFailsTest(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("boom", func(c *Context) {
			panic(errors.New("kaboom"))
		})
	})
	require.Len(t, results.Failures, 1)
	require.Len(t, results.Failures[0].Errors, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "kaboom")
}

func TestDeferRunsInReverseOrderAfterFailure(t *testing.T) {
	var order []string
	results := Run(nil, nil, func(c *Context) {
		c.Run("x", func(c *Context) {
			c.Defer(func() { order = append(order, "first") })
			c.Defer(func() { order = append(order, "second") })
			c.FailNow()
		})
	})
	assert.Equal(t, []string{"second", "first"}, order)
	assert.Len(t, results.Failures, 1)
}

func TestFailureInDeferAfterSkipIsReported(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("x", func(c *Context) {
			c.Defer(func() {
				c.Errorf("stub server hanged")
				c.FailNow()
			})
			c.SkipWithReason("skipped")
		})
	})
	assert.Len(t, results.Failures, 1)
}

func TestFilterExcludesTests(t *testing.T) {
	var filters RegexFilters
	require.NoError(t, filters.MustNotMatch.Set(`\.slow$`))
	ran := map[string]bool{}
	results := Run(filters.AsFilter, nil, func(c *Context) {
		c.Run("a", func(c *Context) {
			c.Run("fast", func(c *Context) { ran["fast"] = true })
			c.Run("slow", func(c *Context) { ran["slow"] = true })
		})
	})
	assert.True(t, ran["fast"])
	assert.False(t, ran["slow"])
	assert.True(t, results.OK())
}

func TestFilterAppliesToTestsInsideGroups(t *testing.T) {
	var filters RegexFilters
	require.NoError(t, filters.MustMatch.Set(`TestRetry\.test_made_up$`))
	ran := map[string]bool{}
	results := Run(filters.AsFilter, nil, func(c *Context) {
		c.RunGroup("stub", func(c *Context) {
			c.RunGroup("retry", func(c *Context) {
				c.RunGroup("TestRetry", func(c *Context) {
					c.Run("test_made_up", func(c *Context) { ran["made_up"] = true })
					c.Run("test_read", func(c *Context) { ran["read"] = true })
				})
			})
		})
	})
	assert.True(t, ran["made_up"])
	assert.False(t, ran["read"])
	assert.Len(t, results.Tests, 2)
	assert.Len(t, results.Skipped, 1)
}

func TestFailingGroupIsReported(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.RunGroup("stub", func(c *Context) {
			c.Errorf("could not prepare group")
		})
	})
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "stub", results.Failures[0].TestID.String())
}

func TestHarnessMissingFeatures(t *testing.T) {
	h := NewTestHarness(TestServiceInfo{DriverName: "go", Features: []string{"Feature:Bolt:4.4"}}, nil)
	assert.True(t, h.HasFeature("Feature:Bolt:4.4"))
	assert.Equal(t, []string{"Feature:Bolt:5.1"}, h.MissingFeatures("Feature:Bolt:4.4", "Feature:Bolt:5.1"))
}

func TestQueryTestServiceInfoRetries(t *testing.T) {
	attempts := 0
	probe := func() ([]string, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return []string{"Feature:API:Result.Peek"}, nil
	}
	var out bytes.Buffer
	info, err := QueryTestServiceInfo("go", "127.0.0.1:9876", probe, time.Second*5, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []string{"Feature:API:Result.Peek"}, info.Features)
	assert.Contains(t, out.String(), "...")
}

func TestPrintResults(t *testing.T) {
	var out bytes.Buffer
	PrintResults(Results{
		Tests:    []TestResult{{TestID: TestID{Path: []string{"a"}}}, {TestID: TestID{Path: []string{"b"}}}},
		Failures: []TestResult{{TestID: TestID{Path: []string{"b"}}}},
	}, &out)
	assert.Contains(t, out.String(), "1 passed, 1 failed")
	assert.Contains(t, out.String(), "  * b\n")
}
