package frontend

import (
	"github.com/launchdarkly/bolt-contract-tests/cypher"
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

// EagerResult is the outcome of Driver.ExecuteQuery: all records were fetched already.
type EagerResult struct {
	driver  *Driver
	id      string
	Keys    []string
	Records []servicedef.Record
	Summary servicedef.Summary
}

func newEagerResult(d *Driver, r servicedef.EagerResult) *EagerResult {
	return &EagerResult{driver: d, id: r.ID, Keys: r.Keys, Records: r.Records, Summary: r.Summary}
}

// Single asks the driver for the only record, failing if there is not exactly one.
func (e *EagerResult) Single() (servicedef.Record, error) {
	res, err := e.driver.call(servicedef.EagerResultSingle{EagerResultID: e.id}, "Record")
	if err != nil {
		return servicedef.Record{}, err
	}
	return res.(servicedef.Record), nil
}

// Scalar asks the driver for the only value of the only record.
func (e *EagerResult) Scalar() (cypher.Value, error) {
	rec, err := e.driver.call(servicedef.EagerResultScalar{EagerResultID: e.id}, "Record")
	if err != nil {
		return nil, err
	}
	values := rec.(servicedef.Record).Values
	if len(values) != 1 {
		return nil, unexpected("a record with one value", rec)
	}
	return values[0], nil
}
