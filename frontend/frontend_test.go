package frontend

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/bolt-contract-tests/backend"
	"github.com/launchdarkly/bolt-contract-tests/cypher"
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

func newSessionFor(t *testing.T, b *Backend, config DriverConfig) (*Driver, *Session) {
	d, err := NewDriver(b, "bolt://localhost:9001", config)
	require.NoError(t, err)
	s, err := d.Session(SessionConfig{})
	require.NoError(t, err)
	return d, s
}

func TestManagedTransactionReturnsValueOfSuccessfulAttempt(t *testing.T) {
	b := startFakeAdapter(t, func(a *fakeAdapter) {
		a.driverAndSession()
		a.expect("SessionWriteTransaction")
		a.respond("RetryableTry", obj{"id": "t1"})
		a.expect("TransactionRun")
		a.respond("Result", obj{"id": "r1", "keys": []string{"n"}})
		a.expect("ResultList")
		a.respond("DriverError", obj{"id": "e1", "errorType": "TransientError", "msg": "made up", "code": "Neo.TransientError.Completely.MadeUp"})
		data := a.expect("RetryableNegative")
		assert.Equal(t, "e1", data["errorId"])
		a.respond("RetryableTry", obj{"id": "t2"})
		a.expect("TransactionRun")
		a.respond("Result", obj{"id": "r2", "keys": []string{"n"}})
		a.expect("ResultList")
		a.respond("RecordList", obj{"records": []obj{{"values": []interface{}{obj{"Z": "1"}}}}})
		a.expect("RetryablePositive")
		a.respond("RetryableDone", obj{})
	})
	_, s := newSessionFor(t, b, DriverConfig{})

	attempts := 0
	value, err := s.WriteTransaction(func(tx *Transaction) (interface{}, error) {
		attempts++
		r, err := tx.Run("RETURN 1 AS n", nil)
		if err != nil {
			return nil, err
		}
		return r.List()
	}, ManagedTxConfig{})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	records := value.([]servicedef.Record)
	require.Len(t, records, 1)
	assert.Equal(t, cypher.Row{cypher.Int(1)}, records[0].Values)
}

func TestManagedTransactionRaisesLastDriverError(t *testing.T) {
	b := startFakeAdapter(t, func(a *fakeAdapter) {
		a.driverAndSession()
		a.expect("SessionReadTransaction")
		for i, id := range []string{"e1", "e2"} {
			a.respond("RetryableTry", obj{"id": []string{"t1", "t2"}[i]})
			a.expect("TransactionRun")
			a.respond("DriverError", obj{"id": id, "errorType": "TransientError", "msg": "nope"})
			data := a.expect("RetryableNegative")
			assert.Equal(t, id, data["errorId"])
		}
		a.respond("DriverError", obj{"id": "e2", "errorType": "TransientError", "msg": "nope"})
	})
	_, s := newSessionFor(t, b, DriverConfig{})
	_, err := s.ReadTransaction(func(tx *Transaction) (interface{}, error) {
		return tx.Run("RETURN 1", nil)
	}, ManagedTxConfig{})
	var driverErr *servicedef.DriverError
	require.True(t, errors.As(err, &driverErr))
	assert.Equal(t, "e2", driverErr.ID)
}

func TestManagedTransactionApplicationErrorIsReturned(t *testing.T) {
	b := startFakeAdapter(t, func(a *fakeAdapter) {
		a.driverAndSession()
		a.expect("SessionWriteTransaction")
		a.respond("RetryableTry", obj{"id": "t1"})
		data := a.expect("RetryableNegative")
		assert.Equal(t, "", data["errorId"])
		a.respond("FrontendError", obj{"msg": "Error from client"})
	})
	_, s := newSessionFor(t, b, DriverConfig{})
	_, err := s.WriteTransaction(func(*Transaction) (interface{}, error) {
		return nil, NewApplicationError("user code failed")
	}, ManagedTxConfig{})
	var appErr *ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "user code failed", appErr.Msg)
}

func TestManagedTransactionOtherErrorWaitsForFrontendError(t *testing.T) {
	b := startFakeAdapter(t, func(a *fakeAdapter) {
		a.driverAndSession()
		a.expect("SessionWriteTransaction")
		a.respond("RetryableTry", obj{"id": "t1"})
		a.expect("RetryableNegative")
		a.respond("FrontendError", obj{"msg": "Error from client"})
	})
	_, s := newSessionFor(t, b, DriverConfig{})
	original := errors.New("something unrelated")
	_, err := s.WriteTransaction(func(*Transaction) (interface{}, error) {
		return nil, original
	}, ManagedTxConfig{})
	assert.Equal(t, original, err)
}

func TestManagedTransactionPanicContinuesAfterRollback(t *testing.T) {
	b := startFakeAdapter(t, func(a *fakeAdapter) {
		a.driverAndSession()
		a.expect("SessionWriteTransaction")
		a.respond("RetryableTry", obj{"id": "t1"})
		a.expect("RetryableNegative")
		a.respond("FrontendError", obj{"msg": "Error from client"})
	})
	_, s := newSessionFor(t, b, DriverConfig{})
	assert.PanicsWithValue(t, "assertion failed", func() {
		_, _ = s.WriteTransaction(func(*Transaction) (interface{}, error) {
			panic("assertion failed")
		}, ManagedTxConfig{})
	})
}

func TestRetryFuncIsConsulted(t *testing.T) {
	b := startFakeAdapter(t, func(a *fakeAdapter) {
		a.driverAndSession()
		data := a.expect("SessionWriteTransaction")
		assert.Equal(t, true, data["retryFunctionRegistered"])
		a.respond("RetryFunc", obj{"exception": obj{"name": "DriverError"}, "attempt": 1, "maxAttempts": 3})
		data = a.expect("RetryFuncResult")
		assert.Equal(t, false, data["retry"])
		assert.Equal(t, float64(250), data["delayMs"])
		a.respond("RetryableDone", obj{})
	})
	_, s := newSessionFor(t, b, DriverConfig{})
	var gotAttempt, gotMax int
	_, err := s.WriteTransaction(func(*Transaction) (interface{}, error) { return nil, nil }, ManagedTxConfig{
		RetryFunc: func(exception ldvalue.Value, attempt, maxAttempts int) (bool, int64) {
			gotAttempt, gotMax = attempt, maxAttempts
			return false, 250
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, gotAttempt)
	assert.Equal(t, 3, gotMax)
}

func TestResolverIsScopedToItsDriver(t *testing.T) {
	b := startFakeAdapter(t, func(a *fakeAdapter) {
		data := a.expect("NewDriver")
		assert.Equal(t, true, data["resolverRegistered"])
		a.respond("Driver", obj{"id": "d1"})
		a.expect("VerifyConnectivity")
		a.respond("ResolverResolutionRequired", obj{"id": "x", "address": "seed:7687"})
		data = a.expect("ResolverResolutionCompleted")
		assert.Equal(t, []interface{}{"seed:9001", "seed:9002"}, data["addresses"])
		a.respond("Driver", obj{"id": "d1"})
	})
	d, err := NewDriver(b, "neo4j://seed:7687", DriverConfig{
		Resolver: func(address string) ([]string, error) {
			host := address[:len(address)-len(":7687")]
			return []string{host + ":9001", host + ":9002"}, nil
		},
	})
	require.NoError(t, err)
	require.NoError(t, d.VerifyConnectivity())
}

func TestBookmarkManagerSupplierAndUnknownID(t *testing.T) {
	b := startFakeAdapter(t, func(a *fakeAdapter) {
		data := a.expect("NewBookmarkManager")
		assert.Equal(t, true, data["bookmarksSupplierRegistered"])
		assert.Equal(t, false, data["bookmarksConsumerRegistered"])
		a.respond("BookmarkManager", obj{"id": "bm1"})
		a.driverAndSession()
		a.expect("SessionRun")
		a.respond("BookmarksSupplierRequest", obj{"id": "c1", "bookmarkManagerId": "bm1", "database": "neo4j"})
		data = a.expect("BookmarksSupplierCompleted")
		assert.Equal(t, []interface{}{"neo4j:bm"}, data["bookmarks"])
		a.respond("BookmarksSupplierRequest", obj{"id": "c2", "bookmarkManagerId": "bm-unknown", "database": "neo4j"})
	})
	_, err := NewBookmarkManager(b, BookmarkManagerConfig{
		Supplier: func(database string) ([]string, error) { return []string{database + ":bm"}, nil },
	})
	require.NoError(t, err)
	_, s := newSessionFor(t, b, DriverConfig{})
	_, err = s.Run("RETURN 1", nil)
	var unknown *backend.UnknownHandleError
	require.True(t, errors.As(err, &unknown), "got %v", err)
	assert.Equal(t, "bm-unknown", unknown.ID)
}

func TestResultIterationAndScopedRelease(t *testing.T) {
	b := startFakeAdapter(t, func(a *fakeAdapter) {
		a.driverAndSession()
		a.expect("SessionRun")
		a.respond("Result", obj{"id": "r1", "keys": []string{"x"}})
		a.expect("ResultNext")
		a.respond("Record", obj{"values": []interface{}{obj{"Z": "2147483648"}}})
		a.expect("ResultNext")
		a.respond("NullRecord", obj{})
		a.expect("SessionClose")
		a.respond("Session", obj{"id": "s1"})
		a.expect("DriverClose")
		a.respond("Driver", obj{"id": "d1"})
	})
	d, s := newSessionFor(t, b, DriverConfig{})
	r, err := s.Run("RETURN $x AS x", cypher.Params{"x": cypher.Int(2147483648)})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, r.Keys())

	rec, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, cypher.Row{cypher.Int(2147483648)}, rec.Values)
	rec, err = r.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)

	assert.Equal(t, 1, b.registry(kindResult).Len())
	require.NoError(t, s.Close())
	assert.True(t, r.Closed())
	assert.Equal(t, 0, b.registry(kindResult).Len())
	assert.Equal(t, 0, b.registry(kindSession).Len())

	require.NoError(t, d.Close())
	assert.True(t, d.Closed())
	assert.Equal(t, 0, b.registry(kindDriver).Len())
}

func TestStartTest(t *testing.T) {
	b := startFakeAdapter(t, func(a *fakeAdapter) {
		data := a.expect("StartTest")
		assert.Equal(t, "stub.a.B.test_c", data["testName"])
		a.respond("RunTest", nil)
		a.expect("StartTest")
		a.respond("SkipTest", obj{"reason": "not today"})
	})
	run, _, err := b.StartTest("stub.a.B.test_c")
	require.NoError(t, err)
	assert.True(t, run)
	run, reason, err := b.StartTest("stub.a.B.test_d")
	require.NoError(t, err)
	assert.False(t, run)
	assert.Equal(t, "not today", reason)
}

func TestAuthTokenManagerCallback(t *testing.T) {
	b := startFakeAdapter(t, func(a *fakeAdapter) {
		a.expect("NewAuthTokenManager")
		a.respond("AuthTokenManager", obj{"id": "m1"})
		data := a.expect("NewDriver")
		assert.Equal(t, "m1", data["authTokenManagerId"])
		assert.Nil(t, data["authorizationToken"])
		a.respond("AuthTokenManagerGetAuthRequest", obj{"id": "c1", "authTokenManagerId": "m1"})
		data = a.expect("AuthTokenManagerGetAuthCompleted")
		auth := data["auth"].(map[string]interface{})
		assert.Equal(t, "AuthorizationToken", auth["name"])
		a.respond("Driver", obj{"id": "d1"})
		a.expect("AuthTokenManagerClose")
		a.respond("AuthTokenManager", obj{"id": "m1"})
	})
	calls := 0
	m, err := NewAuthTokenManager(b, func() (servicedef.AuthorizationToken, error) {
		calls++
		return servicedef.BasicAuth("neo4j", "pass", ""), nil
	}, nil)
	require.NoError(t, err)
	_, err = NewDriver(b, "bolt://localhost:9001", DriverConfig{AuthManager: m})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.NoError(t, m.Close())
}
