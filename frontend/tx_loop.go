package frontend

import (
	"errors"
	"fmt"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

// TxFunc is the work function of a managed transaction.
type TxFunc func(tx *Transaction) (interface{}, error)

// RetryFunc lets a test decide whether the driver should retry a failed managed transaction, and
// after how long.
type RetryFunc func(exception ldvalue.Value, attempt, maxAttempts int) (retry bool, delayMS int64)

type ManagedTxConfig struct {
	TxConfig
	RetryFunc RetryFunc
}

// runTxLoop sends a managed transaction request and serves the attempts the driver makes. The
// harness never retries on its own: every attempt starts with a RetryableTry from the adapter.
func (s *Session) runTxLoop(request interface{}, fn TxFunc, retryFunc RetryFunc) (interface{}, error) {
	d := s.driver
	if err := d.send(request); err != nil {
		return nil, err
	}
	var value interface{}
	var lastErr error
	for {
		res, err := d.receive()
		if err != nil {
			var frontendErr *servicedef.FrontendError
			if lastErr != nil && errors.As(err, &frontendErr) {
				return nil, lastErr
			}
			return nil, err
		}
		switch r := res.(type) {
		case servicedef.RetryableTry:
			tx := newTransaction(s, r.ID, true)
			v, fnErr := callTxFunc(fn, tx)
			tx.release()
			if fnErr == nil {
				value, lastErr = v, nil
				if err := d.send(servicedef.RetryablePositive{SessionID: s.id}); err != nil {
					return nil, err
				}
				continue
			}
			lastErr = fnErr
			var driverErr *servicedef.DriverError
			var appErr *ApplicationError
			switch {
			case errors.As(fnErr, &driverErr):
				err = d.send(servicedef.RetryableNegative{SessionID: s.id, ErrorID: driverErr.ID})
			case errors.As(fnErr, &appErr):
				err = d.send(servicedef.RetryableNegative{SessionID: s.id})
			default:
				// The adapter rolls back and answers with a FrontendError; the caller sees fnErr.
				res, err := d.sendAndReceive(servicedef.RetryableNegative{SessionID: s.id})
				var frontendErr *servicedef.FrontendError
				if errors.As(err, &frontendErr) {
					var p *txPanic
					if errors.As(fnErr, &p) {
						panic(p.value)
					}
					return nil, fnErr
				}
				if err != nil {
					return nil, err
				}
				return nil, unexpected("FrontendError", res)
			}
			if err != nil {
				return nil, err
			}
		case servicedef.RetryFunc:
			if retryFunc == nil {
				return nil, errors.New("adapter asked for a retry decision but no retry function was registered")
			}
			retry, delay := retryFunc(r.Exception, r.Attempt, r.MaxAttempts)
			if err := d.send(servicedef.RetryFuncResult{Retry: retry, DelayMS: delay}); err != nil {
				return nil, err
			}
		case servicedef.RetryableDone:
			return value, nil
		default:
			return nil, unexpected("RetryableTry, RetryFunc or RetryableDone", res)
		}
	}
}

// txPanic carries a panic out of a transaction function, so that the attempt can be failed in the
// adapter before the panic continues. Test assertions unwind this way.
type txPanic struct {
	value interface{}
}

func (p *txPanic) Error() string {
	return fmt.Sprintf("transaction function panicked: %v", p.value)
}

func callTxFunc(fn TxFunc, tx *Transaction) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &txPanic{value: r}
		}
	}()
	return fn(tx)
}
