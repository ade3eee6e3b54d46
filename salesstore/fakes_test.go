package salesstore_test

import (
	"context"
	"fmt"

	"github.com/storeops/sales-analytics-engine/salesstore/internal/adapters"
)

// fakeRows replays canned result rows through the adapter row interface.
type fakeRows struct {
	data    [][]any
	index   int
	scanErr error
	iterErr error
}

func (r *fakeRows) Next() bool {
	return r.index < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}

	row := r.data[r.index]
	r.index++

	for i, value := range row {
		switch d := dest[i].(type) {
		case *int64:
			*d = value.(int64)
		case *int:
			*d = value.(int)
		case *string:
			*d = value.(string)
		case *float64:
			*d = value.(float64)
		default:
			return fmt.Errorf("unsupported scan destination %T", dest[i])
		}
	}

	return nil
}

func (r *fakeRows) Err() error   { return r.iterErr }
func (r *fakeRows) Close() error { return nil }

type fakeResult struct {
	rowsAffected int64
}

func (r fakeResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

// queryResponse is one canned answer for a Query call, consumed in order.
type queryResponse struct {
	rows *fakeRows
	err  error
}

// fakeTx records every statement routed through the transaction and whether
// the transaction ended in a commit or a rollback.
type fakeTx struct {
	queries    []string
	execs      []string
	responses  []queryResponse
	execErrAt  int // 1-based index of the Exec call that fails; 0 means none
	commitErr  error
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Query(_ context.Context, query string) (adapters.DBRows, error) {
	tx.queries = append(tx.queries, query)

	if len(tx.responses) == 0 {
		return &fakeRows{}, nil
	}

	response := tx.responses[0]
	tx.responses = tx.responses[1:]

	return response.rows, response.err
}

func (tx *fakeTx) Exec(_ context.Context, query string) (adapters.DBResult, error) {
	tx.execs = append(tx.execs, query)

	if tx.execErrAt > 0 && len(tx.execs) == tx.execErrAt {
		return nil, fmt.Errorf("exec %d failed", tx.execErrAt)
	}

	return fakeResult{rowsAffected: 1}, nil
}

func (tx *fakeTx) Commit(_ context.Context) error {
	if tx.commitErr != nil {
		return tx.commitErr
	}

	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(_ context.Context) error {
	tx.rolledBack = true
	return nil
}

// fakeAdapter satisfies the adapter interface with canned responses.
type fakeAdapter struct {
	queries      []string
	execs        []string
	responses    []queryResponse
	execErr      error
	rowsAffected int64
	beginErr     error
	tx           *fakeTx
}

func (a *fakeAdapter) Query(_ context.Context, query string) (adapters.DBRows, error) {
	a.queries = append(a.queries, query)

	if len(a.responses) == 0 {
		return &fakeRows{}, nil
	}

	response := a.responses[0]
	a.responses = a.responses[1:]

	return response.rows, response.err
}

func (a *fakeAdapter) Exec(_ context.Context, query string) (adapters.DBResult, error) {
	a.execs = append(a.execs, query)

	if a.execErr != nil {
		return nil, a.execErr
	}

	return fakeResult{rowsAffected: a.rowsAffected}, nil
}

func (a *fakeAdapter) BeginTx(_ context.Context) (adapters.DBTx, error) {
	if a.beginErr != nil {
		return nil, a.beginErr
	}

	if a.tx == nil {
		a.tx = &fakeTx{}
	}

	return a.tx, nil
}

func (a *fakeAdapter) Ping(_ context.Context) error { return nil }
