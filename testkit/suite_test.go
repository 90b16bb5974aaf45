package testkit

import (
	"bufio"
	"encoding/json"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/bolt-contract-tests/backend"
	"github.com/launchdarkly/bolt-contract-tests/config"
	"github.com/launchdarkly/bolt-contract-tests/framework"
	"github.com/launchdarkly/bolt-contract-tests/logging"
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

// fakeAdapter accepts harness connections and answers every StartTest with whatever answer
// returns, which must be a complete response block.
type fakeAdapter struct {
	listener    net.Listener
	answer      func(testName string) string
	lock        sync.Mutex
	connections int
	testNames   []string
}

func startFakeAdapter(t *testing.T, answer func(testName string) string) *fakeAdapter {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	a := &fakeAdapter{listener: listener, answer: answer}
	go a.acceptLoop()
	t.Cleanup(func() { _ = listener.Close() })
	return a
}

func (a *fakeAdapter) acceptLoop() {
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			return
		}
		a.lock.Lock()
		a.connections++
		a.lock.Unlock()
		go a.serve(conn)
	}
}

func (a *fakeAdapter) serve(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	var last string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\n")
		if line != "#request end" {
			last = line
			continue
		}
		var msg struct {
			Name string `json:"name"`
			Data struct {
				TestName string `json:"testName"`
			} `json:"data"`
		}
		if json.Unmarshal([]byte(last), &msg) != nil || msg.Name != "StartTest" {
			return
		}
		a.lock.Lock()
		a.testNames = append(a.testNames, msg.Data.TestName)
		a.lock.Unlock()
		if _, err := conn.Write([]byte(a.answer(msg.Data.TestName))); err != nil {
			return
		}
	}
}

func (a *fakeAdapter) stats() (int, []string) {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.connections, append([]string(nil), a.testNames...)
}

func skipTestAnswer(reason string) func(string) string {
	return func(string) string {
		body, _ := json.Marshal(map[string]interface{}{"name": "SkipTest", "data": map[string]string{"reason": reason}})
		return "#response begin\n" + string(body) + "\n#response end\n"
	}
}

type recordingTestLogger struct {
	skipped map[string]string
	failed  map[string]bool
}

func newRecordingTestLogger() *recordingTestLogger {
	return &recordingTestLogger{skipped: map[string]string{}, failed: map[string]bool{}}
}

func (r *recordingTestLogger) TestStarted(framework.TestID)              {}
func (r *recordingTestLogger) TestError(framework.TestID, error)         {}
func (r *recordingTestLogger) TestSkipped(id framework.TestID, s string) { r.skipped[id.String()] = s }
func (r *recordingTestLogger) TestFinished(id framework.TestID, failed bool, _ logging.CapturedOutput) {
	r.failed[id.String()] = failed
}

func testEnvironment(a *fakeAdapter, driver string, features ...string) Environment {
	return Environment{
		Harness:        framework.NewTestHarness(framework.TestServiceInfo{DriverName: driver, Features: features}, nil),
		BackendAddress: a.listener.Addr().String(),
		Channel:        backend.Config{Timeout: time.Second * 2, ConnectTimeout: time.Second},
	}
}

func only(t *testing.T, pattern string) framework.Filter {
	var filters framework.RegexFilters
	require.NoError(t, filters.MustMatch.Set(pattern))
	return filters.AsFilter
}

func TestMissingFeatureSkipsWithoutContactingAdapter(t *testing.T) {
	adapter := startFakeAdapter(t, skipTestAnswer("should not be asked"))
	tl := newRecordingTestLogger()

	results, err := RunTestSuite(testEnvironment(adapter, "go", servicedef.FeatureBolt44),
		only(t, `test_supports_bolt_5x1$`), tl)
	require.NoError(t, err)

	assert.True(t, results.OK())
	id := "stub.versions.test_versions.TestProtocolVersions.test_supports_bolt_5x1"
	require.Contains(t, tl.skipped, id)
	assert.Contains(t, tl.skipped[id], "Feature:Bolt:5.1")
	connections, names := adapter.stats()
	assert.Equal(t, 0, connections)
	assert.Len(t, names, 0)
}

func TestAdapterSkipReasonIsReportedVerbatim(t *testing.T) {
	adapter := startFakeAdapter(t, skipTestAnswer("Driver has no retry support yet"))
	tl := newRecordingTestLogger()

	env := testEnvironment(adapter, "go", servicedef.FeatureBolt44, servicedef.FeatureAPIResultList)
	results, err := RunTestSuite(env, only(t, `test_retry_made_up_transient$`), tl)
	require.NoError(t, err)

	assert.True(t, results.OK())
	assert.Equal(t, "Driver has no retry support yet",
		tl.skipped["stub.retry.test_retry.TestRetry.test_retry_made_up_transient"])
	connections, names := adapter.stats()
	assert.Equal(t, 1, connections)
	assert.Equal(t, []string{"stub.retry.TestRetry.test_retry_made_up_transient"}, names)
}

func TestUnrewrittenDriverSeesFullID(t *testing.T) {
	adapter := startFakeAdapter(t, skipTestAnswer("no"))

	env := testEnvironment(adapter, "ruby", servicedef.FeatureBolt44)
	_, err := RunTestSuite(env, only(t, `test_nested$`), nil)
	require.NoError(t, err)

	_, names := adapter.stats()
	assert.Equal(t, []string{"stub.iteration.test_iteration_tx_run.TestIterationTxRun.test_nested"}, names)
}

func TestSkipRuleSkipsWithoutContactingAdapter(t *testing.T) {
	adapter := startFakeAdapter(t, skipTestAnswer("should not be asked"))
	tl := newRecordingTestLogger()
	rules, err := NewRules(config.Rules{
		Skips: []config.SkipRule{{Drivers: []string{"python"}, Pattern: `\.test_nested$`, Reason: "Flaky on this driver"}},
	})
	require.NoError(t, err)

	env := testEnvironment(adapter, "python", servicedef.FeatureBolt44)
	env.Rules = rules
	_, err = RunTestSuite(env, only(t, `test_nested$`), tl)
	require.NoError(t, err)

	assert.Equal(t, "Flaky on this driver", tl.skipped["stub.iteration.test_iteration_tx_run.TestIterationTxRun.test_nested"])
	connections, _ := adapter.stats()
	assert.Equal(t, 0, connections)
}

func TestProtocolErrorAbortsRun(t *testing.T) {
	adapter := startFakeAdapter(t, func(string) string {
		return "#response begin\n{this is not json\n#response end\n"
	})
	tl := newRecordingTestLogger()

	env := testEnvironment(adapter, "go",
		servicedef.BoltVersionFeature(4, 4), servicedef.BoltVersionFeature(5, 0), servicedef.BoltVersionFeature(5, 1))
	results, err := RunTestSuite(env, only(t, `test_supports_bolt_(4x4|5x0|5x1)$`), tl)

	var protoErr *backend.ProtocolError
	require.ErrorAs(t, err, &protoErr)
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "stub.versions.test_versions.TestProtocolVersions.test_supports_bolt_4x4", results.Failures[0].TestID.String())
	for _, name := range []string{"test_supports_bolt_5x0", "test_supports_bolt_5x1"} {
		assert.Equal(t, "run aborted after harness protocol error",
			tl.skipped["stub.versions.test_versions.TestProtocolVersions."+name])
	}
	connections, _ := adapter.stats()
	assert.Equal(t, 1, connections)
}

func TestUnreachableAdapterAbortsRun(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := listener.Addr().String()
	require.NoError(t, listener.Close())

	env := Environment{
		Harness:        framework.NewTestHarness(framework.TestServiceInfo{DriverName: "go", Features: []string{servicedef.FeatureBolt44}}, nil),
		BackendAddress: address,
		Channel:        backend.Config{Timeout: time.Second, ConnectTimeout: time.Millisecond * 200},
	}
	results, err := RunTestSuite(env, only(t, `test_nested$`), nil)
	assert.Error(t, err)
	assert.False(t, results.OK())
}
