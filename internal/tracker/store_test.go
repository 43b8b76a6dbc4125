package tracker

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/ordering"
)

// memStore is an in-memory Store for testing.
type memStore struct {
	mu         sync.Mutex
	accounts   map[string]model.Account
	categories map[string]model.Category
	txs        []model.Transaction

	commitErr   error
	createErr   error
	orderWrites [][]ordering.Write
}

func newMemStore() *memStore {
	return &memStore{
		accounts:   make(map[string]model.Account),
		categories: make(map[string]model.Category),
	}
}

func (m *memStore) LoadScopeOrderables(_ context.Context, scope model.Scope) ([]model.Orderable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Orderable
	for _, c := range m.categories {
		if c.Scope() == scope {
			out = append(out, c.Orderable())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) LoadAccount(_ context.Context, id, ownerID string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok || a.OwnerID != ownerID {
		return nil, nil
	}
	return &a, nil
}

func (m *memStore) LoadCategory(_ context.Context, id, ownerID string) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.categories[id]
	if !ok || c.OwnerID != ownerID {
		return nil, nil
	}
	return &c, nil
}

func (m *memStore) HasTransactionsForAccount(_ context.Context, accountID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tx := range m.txs {
		if tx.AccountID == accountID || tx.CounterAccountID == accountID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateAccount(_ context.Context, acct model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[acct.ID]; ok {
		return errors.New("duplicate account")
	}
	m.accounts[acct.ID] = acct
	return nil
}

func (m *memStore) UpdateAccount(_ context.Context, acct model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[acct.ID]; !ok {
		return errors.New("no such account")
	}
	m.accounts[acct.ID] = acct
	return nil
}

func (m *memStore) CreateCategory(_ context.Context, cat model.Category, rebalance []ordering.Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if len(rebalance) > 0 {
		if err := m.applyOrderLocked(rebalance); err != nil {
			return err
		}
	}
	m.categories[cat.ID] = cat
	return nil
}

func (m *memStore) ApplyOrder(_ context.Context, writes []ordering.Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.applyOrderLocked(writes)
}

func (m *memStore) applyOrderLocked(writes []ordering.Write) error {
	for _, w := range writes {
		if _, ok := m.categories[w.ID]; !ok {
			return errors.New("no such category")
		}
	}
	for _, w := range writes {
		c := m.categories[w.ID]
		c.SortOrder = w.SortOrder
		m.categories[w.ID] = c
	}
	m.orderWrites = append(m.orderWrites, writes)
	return nil
}

func (m *memStore) CommitLedger(_ context.Context, ws ledger.WriteSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.commitErr != nil {
		return m.commitErr
	}
	m.txs = append(m.txs, ws.Transaction)
	for _, u := range ws.AccountUpdates {
		a := m.accounts[u.ID]
		a.Balance = u.Balance
		m.accounts[u.ID] = a
	}
	return nil
}

func (m *memStore) ListAccounts(_ context.Context, ownerID string) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Account
	for _, a := range m.accounts {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListCategories(_ context.Context, ownerID string) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Category
	for _, c := range m.categories {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ParentID != out[j].ParentID {
			return out[i].ParentID < out[j].ParentID
		}
		return out[i].SortOrder < out[j].SortOrder
	})
	return out, nil
}

func (m *memStore) ListTransactions(_ context.Context, ownerID string) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Transaction
	for _, tx := range m.txs {
		if tx.OwnerID == ownerID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

// setBalance overwrites a stored balance without a transaction.
func (m *memStore) setBalance(id string, balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a := m.accounts[id]
	a.Balance = balance
	m.accounts[id] = a
}
