package ledger

import (
	"fmt"
	"sort"

	"github.com/cleared-dev/tally/internal/model"
)

// Accounts are the rows a validated transaction touches.
type Accounts struct {
	From *model.Account
	To   *model.Account
}

// AccountUpdate sets an account's balance.
type AccountUpdate struct {
	ID      string
	Balance int64
}

// WriteSet is everything one transaction changes. The caller must persist it
// in a single storage transaction; a transfer committed without both updates
// creates or destroys money.
type WriteSet struct {
	Transaction    model.Transaction
	AccountUpdates []AccountUpdate
}

// Delta is the signed effect of a transaction on one account.
type Delta struct {
	AccountID string
	Amount    int64
}

// Effects returns the signed balance changes tx causes. Unassigned income and
// expense have none.
func Effects(tx model.Transaction) []Delta {
	switch tx.Type {
	case model.TransactionTypeIncome:
		if tx.AccountID == "" {
			return nil
		}
		return []Delta{{AccountID: tx.AccountID, Amount: tx.Amount}}
	case model.TransactionTypeExpense:
		if tx.AccountID == "" {
			return nil
		}
		return []Delta{{AccountID: tx.AccountID, Amount: -tx.Amount}}
	case model.TransactionTypeTransfer:
		return []Delta{
			{AccountID: tx.AccountID, Amount: -tx.Amount},
			{AccountID: tx.CounterAccountID, Amount: tx.Amount},
		}
	}
	panic(fmt.Sprintf("ledger: unhandled transaction type %q", tx.Type))
}

// Applier turns validated transactions into write-sets.
type Applier struct{}

// NewApplier creates an Applier.
func NewApplier() *Applier {
	return &Applier{}
}

// Apply computes the write-set for tx. It must only be called after Validate
// succeeded for the same inputs; a missing account or transfer leg panics.
func (a *Applier) Apply(tx ProposedTransaction, accts Accounts) WriteSet {
	if tx.ID == "" {
		panic("ledger: applying transaction without id")
	}

	row := model.Transaction{
		ID:               tx.ID,
		OwnerID:          tx.OwnerID,
		Type:             tx.Type,
		Amount:           tx.Amount,
		CurrencyCode:     tx.CurrencyCode,
		AccountID:        tx.AccountID,
		CounterAccountID: tx.CounterAccountID,
		CategoryID:       tx.CategoryID,
		TxDate:           toDate(tx.TxDate),
		Note:             tx.Note,
	}

	ws := WriteSet{Transaction: row}
	for _, d := range Effects(row) {
		acct := accountFor(d.AccountID, accts)
		if acct == nil {
			panic(fmt.Sprintf("ledger: %s %s has no loaded account %s", tx.Type, tx.ID, d.AccountID))
		}
		ws.AccountUpdates = append(ws.AccountUpdates, AccountUpdate{
			ID:      acct.ID,
			Balance: acct.Balance + d.Amount,
		})
	}

	if tx.Type == model.TransactionTypeTransfer && len(ws.AccountUpdates) != 2 {
		panic(fmt.Sprintf("ledger: transfer %s produced %d legs", tx.ID, len(ws.AccountUpdates)))
	}
	return ws
}

func accountFor(id string, accts Accounts) *model.Account {
	if accts.From != nil && accts.From.ID == id {
		return accts.From
	}
	if accts.To != nil && accts.To.ID == id {
		return accts.To
	}
	return nil
}

// Replay recomputes balances from scratch by summing every transaction's effects.
func Replay(txs []model.Transaction) map[string]int64 {
	balances := make(map[string]int64)
	for _, tx := range txs {
		for _, d := range Effects(tx) {
			balances[d.AccountID] += d.Amount
		}
	}
	return balances
}

// Discrepancy is an account whose stored balance differs from its replayed one.
type Discrepancy struct {
	AccountID string
	Stored    int64
	Derived   int64
}

// Reconcile compares stored balances against the replayed transaction log.
// Results are sorted by account id.
func Reconcile(accounts []model.Account, txs []model.Transaction) []Discrepancy {
	derived := Replay(txs)
	var out []Discrepancy
	for _, a := range accounts {
		if d := derived[a.ID]; d != a.Balance {
			out = append(out, Discrepancy{AccountID: a.ID, Stored: a.Balance, Derived: d})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}
