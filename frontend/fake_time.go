package frontend

import "github.com/launchdarkly/bolt-contract-tests/servicedef"

// FakeTime replaces the driver's clock until Uninstall is called.
type FakeTime struct {
	b *Backend
}

func InstallFakeTime(b *Backend) (*FakeTime, error) {
	if _, err := b.call(servicedef.FakeTimeInstall{}, "FakeTimeAck"); err != nil {
		return nil, err
	}
	return &FakeTime{b: b}, nil
}

func (f *FakeTime) Tick(incrementMS int64) error {
	_, err := f.b.call(servicedef.FakeTimeTick{IncrementMS: incrementMS}, "FakeTimeAck")
	return err
}

func (f *FakeTime) Uninstall() error {
	_, err := f.b.call(servicedef.FakeTimeUninstall{}, "FakeTimeAck")
	return err
}
