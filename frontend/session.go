package frontend

import (
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/bolt-contract-tests/cypher"
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

type SessionConfig struct {
	// AccessMode is servicedef.AccessModeRead or servicedef.AccessModeWrite. It defaults to write.
	AccessMode                      string
	Bookmarks                       []string
	Database                        string
	FetchSize                       ldvalue.OptionalInt
	ImpersonatedUser                string
	BookmarkManager                 *BookmarkManager
	NotificationsMinSeverity        ldvalue.OptionalString
	NotificationsDisabledCategories []string
	Auth                            *servicedef.AuthorizationToken
}

// TxConfig holds the per-transaction settings that the driver forwards to the server.
type TxConfig struct {
	Metadata  cypher.Params
	TimeoutMS ldvalue.OptionalInt
}

type Session struct {
	driver       *Driver
	id           string
	results      map[*Result]struct{}
	transactions map[*Transaction]struct{}
	closed       bool
}

func newSession(d *Driver, config SessionConfig) (*Session, error) {
	accessMode := config.AccessMode
	if accessMode == "" {
		accessMode = servicedef.AccessModeWrite
	}
	req := servicedef.NewSession{
		DriverID:                        d.id,
		AccessMode:                      accessMode,
		Bookmarks:                       config.Bookmarks,
		Database:                        config.Database,
		FetchSize:                       config.FetchSize,
		ImpersonatedUser:                config.ImpersonatedUser,
		NotificationsMinSeverity:        config.NotificationsMinSeverity,
		NotificationsDisabledCategories: config.NotificationsDisabledCategories,
		AuthorizationToken:              config.Auth,
	}
	if config.BookmarkManager != nil {
		req.BookmarkManagerID = config.BookmarkManager.ID()
	}
	res, err := d.call(req, "Session")
	if err != nil {
		return nil, err
	}
	s := &Session{
		driver:       d,
		id:           res.(servicedef.Session).ID,
		results:      make(map[*Result]struct{}),
		transactions: make(map[*Transaction]struct{}),
	}
	if d.sessions != nil {
		d.sessions[s] = struct{}{}
	}
	d.b.registry(kindSession).Register(s.id, s)
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

// Close closes the session in the adapter and releases its results and transactions.
func (s *Session) Close() error {
	if _, err := s.driver.call(servicedef.SessionClose{SessionID: s.id}, "Session"); err != nil {
		return err
	}
	s.release()
	if s.driver.sessions != nil {
		delete(s.driver.sessions, s)
	}
	return nil
}

// Closed reports whether the session was closed directly or released by its driver.
func (s *Session) Closed() bool {
	return s.closed
}

func (s *Session) release() {
	s.closed = true
	for r := range s.results {
		r.release()
	}
	for tx := range s.transactions {
		tx.release()
	}
	s.results, s.transactions = nil, nil
	s.driver.b.registry(kindSession).Unregister(s.id)
}

func (s *Session) Run(query string, params cypher.Params) (*Result, error) {
	return s.RunWithConfig(query, params, TxConfig{})
}

func (s *Session) RunWithConfig(query string, params cypher.Params, config TxConfig) (*Result, error) {
	if params == nil {
		params = cypher.Params{}
	}
	res, err := s.driver.call(servicedef.SessionRun{
		SessionID: s.id,
		Cypher:    query,
		Params:    params,
		TxMeta:    config.Metadata,
		TimeoutMS: config.TimeoutMS,
	}, "Result")
	if err != nil {
		return nil, err
	}
	return newResult(s, res.(servicedef.Result)), nil
}

func (s *Session) BeginTransaction(config TxConfig) (*Transaction, error) {
	res, err := s.driver.call(servicedef.SessionBeginTransaction{
		SessionID: s.id,
		TxMeta:    config.Metadata,
		TimeoutMS: config.TimeoutMS,
	}, "Transaction")
	if err != nil {
		return nil, err
	}
	return newTransaction(s, res.(servicedef.Transaction).ID, false), nil
}

func (s *Session) LastBookmarks() ([]string, error) {
	res, err := s.driver.call(servicedef.SessionLastBookmarks{SessionID: s.id}, "Bookmarks")
	if err != nil {
		return nil, err
	}
	return res.(servicedef.Bookmarks).Bookmarks, nil
}

// ReadTransaction runs fn in a managed read transaction. The driver owns the retry loop: fn is
// called once per attempt with a fresh Transaction, and the value from the attempt that committed
// is returned.
func (s *Session) ReadTransaction(fn TxFunc, config ManagedTxConfig) (interface{}, error) {
	return s.runTxLoop(servicedef.SessionReadTransaction{
		SessionID:     s.id,
		TxMeta:        config.Metadata,
		TimeoutMS:     config.TimeoutMS,
		RetryFuncUsed: config.RetryFunc != nil,
	}, fn, config.RetryFunc)
}

func (s *Session) WriteTransaction(fn TxFunc, config ManagedTxConfig) (interface{}, error) {
	return s.runTxLoop(servicedef.SessionWriteTransaction{
		SessionID:     s.id,
		TxMeta:        config.Metadata,
		TimeoutMS:     config.TimeoutMS,
		RetryFuncUsed: config.RetryFunc != nil,
	}, fn, config.RetryFunc)
}
