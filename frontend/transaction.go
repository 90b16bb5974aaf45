package frontend

import (
	"github.com/launchdarkly/bolt-contract-tests/cypher"
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

// Transaction is either an explicit transaction from Session.BeginTransaction, or the transaction
// handed to one attempt of a managed transaction function.
type Transaction struct {
	session *Session
	id      string
	managed bool
	results map[*Result]struct{}
	closed  bool
}

func newTransaction(s *Session, id string, managed bool) *Transaction {
	tx := &Transaction{session: s, id: id, managed: managed, results: make(map[*Result]struct{})}
	if s.transactions != nil {
		s.transactions[tx] = struct{}{}
	}
	s.driver.b.registry(kindTransaction).Register(id, tx)
	return tx
}

func (tx *Transaction) ID() string {
	return tx.id
}

func (tx *Transaction) Run(query string, params cypher.Params) (*Result, error) {
	if params == nil {
		params = cypher.Params{}
	}
	res, err := tx.session.driver.call(servicedef.TransactionRun{TxID: tx.id, Cypher: query, Params: params}, "Result")
	if err != nil {
		return nil, err
	}
	r := newResult(tx.session, res.(servicedef.Result))
	if tx.results != nil {
		tx.results[r] = struct{}{}
	}
	return r, nil
}

func (tx *Transaction) Commit() error {
	return tx.finish(servicedef.TransactionCommit{TxID: tx.id})
}

func (tx *Transaction) Rollback() error {
	return tx.finish(servicedef.TransactionRollback{TxID: tx.id})
}

// Close rolls the transaction back if it is still open.
func (tx *Transaction) Close() error {
	return tx.finish(servicedef.TransactionClose{TxID: tx.id})
}

func (tx *Transaction) finish(request interface{}) error {
	if _, err := tx.session.driver.call(request, "Transaction"); err != nil {
		return err
	}
	tx.release()
	return nil
}

func (tx *Transaction) Closed() bool {
	return tx.closed
}

func (tx *Transaction) release() {
	tx.closed = true
	for r := range tx.results {
		r.release()
	}
	tx.results = nil
	if tx.session.transactions != nil {
		delete(tx.session.transactions, tx)
	}
	tx.session.driver.b.registry(kindTransaction).Unregister(tx.id)
}
