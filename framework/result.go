package framework

import (
	"fmt"
	"io"
	"strings"
)

type Results struct {
	Tests    []TestResult
	Failures []TestResult
	Skipped  []TestResult
}

type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// TestID identifies a node in the test tree. Its string form joins the path with dots, giving
// identifiers like "stub.iteration.SessionRun.test_nested", which is also the form that driver
// adapters are given in StartTest.
type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, ".")
}

func (t TestID) Plus(name string) TestID {
	return TestID{Path: append(append([]string(nil), t.Path...), name)}
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

// PrintResults writes a summary of the test run.
func PrintResults(results Results, out io.Writer) {
	passed := len(results.Tests) - len(results.Failures) - len(results.Skipped)
	if passed < 0 {
		passed = 0
	}
	fmt.Fprintf(out, "Ran %d tests: %d passed, %d failed, %d skipped\n",
		len(results.Tests), passed, len(results.Failures), len(results.Skipped))
	if results.OK() {
		fmt.Fprintln(out, "All tests passed")
		return
	}
	fmt.Fprintln(out, "FAILED TESTS:")
	for _, f := range results.Failures {
		fmt.Fprintf(out, "  * %s\n", f.TestID)
	}
}
