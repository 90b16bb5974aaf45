package framework

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// TestServiceInfo is what the test harness learns about the driver adapter before running tests.
type TestServiceInfo struct {
	DriverName string
	Features   []string
}

// FeatureProbe asks the adapter for its feature list. It is called repeatedly until it succeeds
// or the timeout passes, since the adapter may still be starting up.
type FeatureProbe func() ([]string, error)

func QueryTestServiceInfo(
	driverName string,
	address string,
	probe FeatureProbe,
	timeout time.Duration,
	output io.Writer,
) (TestServiceInfo, error) {
	fmt.Fprintf(output, "Connecting to driver adapter at %s", address)

	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		features, err := probe()
		if err == nil {
			fmt.Fprintln(output)
			fmt.Fprintf(output, "Driver adapter (%s) declared features: %s\n",
				describeDriverName(driverName), strings.Join(features, ", "))
			return TestServiceInfo{DriverName: driverName, Features: features}, nil
		}
		if !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return TestServiceInfo{}, fmt.Errorf("timed out, result of last query was: %w", err)
		}
		time.Sleep(time.Millisecond * 100)
	}
}

func describeDriverName(name string) string {
	if name == "" {
		return "unnamed"
	}
	return name
}
