package frontend

import (
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

// Result is a stream of records held by the adapter.
type Result struct {
	session *Session
	id      string
	keys    []string
	closed  bool
}

func newResult(s *Session, r servicedef.Result) *Result {
	res := &Result{session: s, id: r.ID, keys: r.Keys}
	if s.results != nil {
		s.results[res] = struct{}{}
	}
	s.driver.b.registry(kindResult).Register(r.ID, res)
	return res
}

func (r *Result) ID() string {
	return r.id
}

func (r *Result) Keys() []string {
	return r.keys
}

func (r *Result) Closed() bool {
	return r.closed
}

func (r *Result) release() {
	r.closed = true
	if r.session.results != nil {
		delete(r.session.results, r)
	}
	r.session.driver.b.registry(kindResult).Unregister(r.id)
}

// Next moves to the next record. It returns nil at the end of the stream.
func (r *Result) Next() (*servicedef.Record, error) {
	return r.recordOrEnd(servicedef.ResultNext{ResultID: r.id})
}

// Peek returns the next record without consuming it, or nil at the end of the stream.
func (r *Result) Peek() (*servicedef.Record, error) {
	return r.recordOrEnd(servicedef.ResultPeek{ResultID: r.id})
}

func (r *Result) recordOrEnd(request interface{}) (*servicedef.Record, error) {
	res, err := r.session.driver.sendAndReceive(request)
	if err != nil {
		return nil, err
	}
	switch rec := res.(type) {
	case servicedef.Record:
		return &rec, nil
	case servicedef.NullRecord:
		return nil, nil
	}
	return nil, unexpected("Record or NullRecord", res)
}

// Single returns the only remaining record, failing if there is not exactly one.
func (r *Result) Single() (servicedef.Record, error) {
	res, err := r.session.driver.call(servicedef.ResultSingle{ResultID: r.id}, "Record")
	if err != nil {
		return servicedef.Record{}, err
	}
	return res.(servicedef.Record), nil
}

// SingleOptional is like Single but tolerates an empty stream, and reports further records as
// warnings instead of failing.
func (r *Result) SingleOptional() (servicedef.RecordOptional, error) {
	res, err := r.session.driver.call(servicedef.ResultSingleOptional{ResultID: r.id}, "RecordOptional")
	if err != nil {
		return servicedef.RecordOptional{}, err
	}
	return res.(servicedef.RecordOptional), nil
}

// Consume discards the remaining records and returns the summary.
func (r *Result) Consume() (servicedef.Summary, error) {
	res, err := r.session.driver.call(servicedef.ResultConsume{ResultID: r.id}, "Summary")
	if err != nil {
		return servicedef.Summary{}, err
	}
	return res.(servicedef.Summary), nil
}

// List returns all remaining records.
func (r *Result) List() ([]servicedef.Record, error) {
	res, err := r.session.driver.call(servicedef.ResultList{ResultID: r.id}, "RecordList")
	if err != nil {
		return nil, err
	}
	return res.(servicedef.RecordList).Records, nil
}
