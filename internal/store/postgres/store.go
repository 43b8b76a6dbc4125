// Package postgres is the shared tracker store, backed by a pgx connection pool.
// Write-sets commit under SERIALIZABLE isolation and are retried on
// serialization failures.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/ordering"
)

const (
	maxRetries   = 3
	queryTimeout = 5 * time.Second
)

// Store implements tracker.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// LoadScopeOrderables returns every category in scope sorted by key.
func (s *Store) LoadScopeOrderables(ctx context.Context, scope model.Scope) ([]model.Orderable, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, sort_order FROM categories
		WHERE owner_id = $1 AND parent_id = $2 AND is_archived = $3
		ORDER BY sort_order, id`,
		scope.OwnerID, scope.ParentID, scope.Archived)
	if err != nil {
		return nil, fmt.Errorf("querying scope: %w", err)
	}
	defer rows.Close()

	var out []model.Orderable
	for rows.Next() {
		var o model.Orderable
		if err := rows.Scan(&o.ID, &o.SortOrder); err != nil {
			return nil, fmt.Errorf("scanning orderable: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

const accountColumns = `id, owner_id, name, type, currency_code, balance,
	savings_target_amount, savings_target_date, debt_initial_amount, debt_due_date,
	debt_is_owed_to_me, is_archived, archived_at, created_at`

func scanAccount(row pgx.Row) (model.Account, error) {
	var (
		a         model.Account
		typ       string
		createdAt time.Time
	)
	err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &typ, &a.CurrencyCode, &a.Balance,
		&a.SavingsTargetAmount, &a.SavingsTargetDate, &a.DebtInitialAmount, &a.DebtDueDate,
		&a.DebtIsOwedToMe, &a.IsArchived, &a.ArchivedAt, &createdAt)
	if err != nil {
		return model.Account{}, err
	}
	a.Type = model.AccountType(typ)
	a.CreatedAt = createdAt.UTC()
	if a.ArchivedAt != nil {
		t := a.ArchivedAt.UTC()
		a.ArchivedAt = &t
	}
	return a, nil
}

// LoadAccount returns the account, or nil if it does not exist for ownerID.
func (s *Store) LoadAccount(ctx context.Context, id, ownerID string) (*model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	a, err := scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	return &a, nil
}

const categoryColumns = `id, owner_id, name, type, parent_id, sort_order, is_archived`

func scanCategory(row pgx.Row) (model.Category, error) {
	var (
		c   model.Category
		typ string
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &typ, &c.ParentID, &c.SortOrder, &c.IsArchived); err != nil {
		return model.Category{}, err
	}
	c.Type = model.CategoryType(typ)
	return c, nil
}

// LoadCategory returns the category, or nil if it does not exist for ownerID.
func (s *Store) LoadCategory(ctx context.Context, id, ownerID string) (*model.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	c, err := scanCategory(s.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading category: %w", err)
	}
	return &c, nil
}

// HasTransactionsForAccount reports whether any transaction touches the account.
func (s *Store) HasTransactionsForAccount(ctx context.Context, accountID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM transactions WHERE account_id = $1 OR counter_account_id = $1
		)`, accountID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking transactions: %w", err)
	}
	return exists, nil
}

// CreateAccount inserts a new account.
func (s *Store) CreateAccount(ctx context.Context, a model.Account) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.OwnerID, a.Name, string(a.Type), a.CurrencyCode, a.Balance,
		a.SavingsTargetAmount, a.SavingsTargetDate, a.DebtInitialAmount, a.DebtDueDate,
		a.DebtIsOwedToMe, a.IsArchived, a.ArchivedAt, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

// UpdateAccount rewrites an account's descriptive fields. Balance is only
// changed through CommitLedger.
func (s *Store) UpdateAccount(ctx context.Context, a model.Account) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts SET
			name = $1, type = $2, currency_code = $3,
			savings_target_amount = $4, savings_target_date = $5,
			debt_initial_amount = $6, debt_due_date = $7, debt_is_owed_to_me = $8,
			is_archived = $9, archived_at = $10
		WHERE id = $11 AND owner_id = $12`,
		a.Name, string(a.Type), a.CurrencyCode,
		a.SavingsTargetAmount, a.SavingsTargetDate,
		a.DebtInitialAmount, a.DebtDueDate, a.DebtIsOwedToMe,
		a.IsArchived, a.ArchivedAt,
		a.ID, a.OwnerID)
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
	}
	return expectOne(tag, "account", a.ID)
}

// CreateCategory inserts c together with any rebalance writes for its scope
// in one serializable transaction.
func (s *Store) CreateCategory(ctx context.Context, c model.Category, rebalance []ordering.Write) error {
	return s.withRetry(ctx, func(tx pgx.Tx) error {
		if err := updateOrder(ctx, tx, rebalance); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO categories (`+categoryColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			c.ID, c.OwnerID, c.Name, string(c.Type), c.ParentID, c.SortOrder, c.IsArchived)
		if err != nil {
			return fmt.Errorf("inserting category: %w", err)
		}
		return nil
	})
}

// ApplyOrder writes every key in one serializable transaction.
func (s *Store) ApplyOrder(ctx context.Context, writes []ordering.Write) error {
	return s.withRetry(ctx, func(tx pgx.Tx) error {
		return updateOrder(ctx, tx, writes)
	})
}

func updateOrder(ctx context.Context, tx pgx.Tx, writes []ordering.Write) error {
	if len(writes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, w := range writes {
		batch.Queue(`UPDATE categories SET sort_order = $1 WHERE id = $2`, w.SortOrder, w.ID)
	}
	results := tx.SendBatch(ctx, batch)
	for _, w := range writes {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return fmt.Errorf("updating sort order of %s: %w", w.ID, err)
		}
		if err := expectOne(tag, "category", w.ID); err != nil {
			results.Close()
			return err
		}
	}
	return results.Close()
}

// CommitLedger inserts the transaction row and updates every affected balance
// in one serializable transaction.
func (s *Store) CommitLedger(ctx context.Context, ws ledger.WriteSet) error {
	t := ws.Transaction
	return s.withRetry(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO transactions (id, owner_id, type, amount, currency_code, account_id,
				counter_account_id, category_id, tx_date, note, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			t.ID, t.OwnerID, string(t.Type), t.Amount, t.CurrencyCode, t.AccountID,
			t.CounterAccountID, t.CategoryID, t.TxDate, t.Note, t.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting transaction: %w", err)
		}

		for _, u := range ws.AccountUpdates {
			tag, err := tx.Exec(ctx,
				`UPDATE accounts SET balance = $1 WHERE id = $2 AND owner_id = $3`,
				u.Balance, u.ID, t.OwnerID)
			if err != nil {
				return fmt.Errorf("updating balance of %s: %w", u.ID, err)
			}
			if err := expectOne(tag, "account", u.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// withRetry runs fn in a SERIALIZABLE transaction, retrying on
// serialization failures (SQLSTATE 40001).
func (s *Store) withRetry(ctx context.Context, fn func(pgx.Tx) error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = s.runTx(ctx, fn)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "40001" {
			time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
			continue
		}
		return err
	}
	return fmt.Errorf("giving up after %d serialization failures: %w", maxRetries, err)
}

func (s *Store) runTx(ctx context.Context, fn func(pgx.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// ListAccounts returns the owner's accounts by creation time.
func (s *Store) ListAccounts(ctx context.Context, ownerID string) ([]model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListCategories returns the owner's categories grouped by scope in key order.
func (s *Store) ListCategories(ctx context.Context, ownerID string) ([]model.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE owner_id = $1
		ORDER BY is_archived, parent_id, sort_order, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListTransactions returns the owner's transactions by date.
func (s *Store) ListTransactions(ctx context.Context, ownerID string) ([]model.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, type, amount, currency_code, account_id, counter_account_id,
			category_id, tx_date, note, created_at
		FROM transactions
		WHERE owner_id = $1
		ORDER BY tx_date, created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var (
			t   model.Transaction
			typ string
		)
		if err := rows.Scan(&t.ID, &t.OwnerID, &typ, &t.Amount, &t.CurrencyCode,
			&t.AccountID, &t.CounterAccountID, &t.CategoryID, &t.TxDate, &t.Note, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		t.Type = model.TransactionType(typ)
		t.CreatedAt = t.CreatedAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

func expectOne(tag pgconn.CommandTag, kind, id string) error {
	if n := tag.RowsAffected(); n != 1 {
		return fmt.Errorf("%s %s: %d rows affected", kind, id, n)
	}
	return nil
}
