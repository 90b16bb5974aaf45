package framework

import (
	"github.com/launchdarkly/bolt-contract-tests/logging"
)

// TestHarness holds what the test run knows about the driver adapter: its identity and the
// feature list it declared. The feature list is queried once and never changes afterward.
type TestHarness struct {
	testServiceInfo TestServiceInfo
	features        map[string]struct{}
	logger          logging.Logger
}

func NewTestHarness(info TestServiceInfo, debugLogger logging.Logger) *TestHarness {
	if debugLogger == nil {
		debugLogger = logging.NullLogger()
	}
	h := &TestHarness{
		testServiceInfo: info,
		features:        make(map[string]struct{}, len(info.Features)),
		logger:          debugLogger,
	}
	for _, f := range info.Features {
		h.features[f] = struct{}{}
	}
	return h
}

func (h *TestHarness) TestServiceInfo() TestServiceInfo {
	return h.testServiceInfo
}

func (h *TestHarness) DriverName() string {
	return h.testServiceInfo.DriverName
}

func (h *TestHarness) Logger() logging.Logger {
	return h.logger
}

func (h *TestHarness) HasFeature(desired string) bool {
	_, ok := h.features[desired]
	return ok
}

// MissingFeatures returns the members of desired that the adapter did not declare, in the order
// given.
func (h *TestHarness) MissingFeatures(desired ...string) []string {
	var missing []string
	for _, f := range desired {
		if !h.HasFeature(f) {
			missing = append(missing, f)
		}
	}
	return missing
}
