// Package sqlite is the local tracker store, backed by a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/ordering"
)

// Timestamps are stored in UTC with a fixed-width fraction so that text
// ordering matches time ordering.
const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store implements tracker.Store on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadScopeOrderables returns every category in scope sorted by key.
func (s *Store) LoadScopeOrderables(ctx context.Context, scope model.Scope) ([]model.Orderable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sort_order FROM categories
		WHERE owner_id = ? AND parent_id = ? AND is_archived = ?
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

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (model.Account, error) {
	var (
		a                                model.Account
		savingsDate, dueDate, archivedAt sql.NullString
		createdAt                        string
	)
	err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Type, &a.CurrencyCode, &a.Balance,
		&a.SavingsTargetAmount, &savingsDate, &a.DebtInitialAmount, &dueDate,
		&a.DebtIsOwedToMe, &a.IsArchived, &archivedAt, &createdAt)
	if err != nil {
		return model.Account{}, err
	}

	if a.SavingsTargetDate, err = parseNull(dateLayout, savingsDate); err != nil {
		return model.Account{}, err
	}
	if a.DebtDueDate, err = parseNull(dateLayout, dueDate); err != nil {
		return model.Account{}, err
	}
	if a.ArchivedAt, err = parseNull(timeLayout, archivedAt); err != nil {
		return model.Account{}, err
	}
	if a.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return model.Account{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return a, nil
}

// LoadAccount returns the account, or nil if it does not exist for ownerID.
func (s *Store) LoadAccount(ctx context.Context, id, ownerID string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND owner_id = ?`, id, ownerID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	return &a, nil
}

const categoryColumns = `id, owner_id, name, type, parent_id, sort_order, is_archived`

func scanCategory(row scanner) (model.Category, error) {
	var c model.Category
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Type, &c.ParentID, &c.SortOrder, &c.IsArchived)
	return c, err
}

// LoadCategory returns the category, or nil if it does not exist for ownerID.
func (s *Store) LoadCategory(ctx context.Context, id, ownerID string) (*model.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND owner_id = ?`, id, ownerID)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading category: %w", err)
	}
	return &c, nil
}

// HasTransactionsForAccount reports whether any transaction touches the account.
func (s *Store) HasTransactionsForAccount(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM transactions WHERE account_id = ? OR counter_account_id = ?
		)`, accountID, accountID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking transactions: %w", err)
	}
	return exists, nil
}

// CreateAccount inserts a new account.
func (s *Store) CreateAccount(ctx context.Context, a model.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OwnerID, a.Name, string(a.Type), a.CurrencyCode, a.Balance,
		a.SavingsTargetAmount, formatNull(dateLayout, a.SavingsTargetDate),
		a.DebtInitialAmount, formatNull(dateLayout, a.DebtDueDate),
		a.DebtIsOwedToMe, a.IsArchived, formatNull(timeLayout, a.ArchivedAt),
		a.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

// UpdateAccount rewrites an account's descriptive fields. Balance is only
// changed through CommitLedger.
func (s *Store) UpdateAccount(ctx context.Context, a model.Account) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET
			name = ?, type = ?, currency_code = ?,
			savings_target_amount = ?, savings_target_date = ?,
			debt_initial_amount = ?, debt_due_date = ?, debt_is_owed_to_me = ?,
			is_archived = ?, archived_at = ?
		WHERE id = ? AND owner_id = ?`,
		a.Name, string(a.Type), a.CurrencyCode,
		a.SavingsTargetAmount, formatNull(dateLayout, a.SavingsTargetDate),
		a.DebtInitialAmount, formatNull(dateLayout, a.DebtDueDate), a.DebtIsOwedToMe,
		a.IsArchived, formatNull(timeLayout, a.ArchivedAt),
		a.ID, a.OwnerID)
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
	}
	return expectOne(res, "account", a.ID)
}

// CreateCategory inserts c. Any rebalance writes for c's scope are applied in
// the same transaction, so a failed insert leaves the scope untouched.
func (s *Store) CreateCategory(ctx context.Context, c model.Category, rebalance []ordering.Write) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := updateOrder(ctx, tx, rebalance); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, string(c.Type), c.ParentID, c.SortOrder, c.IsArchived)
	if err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing category: %w", err)
	}
	return nil
}

// ApplyOrder writes every key in one transaction.
func (s *Store) ApplyOrder(ctx context.Context, writes []ordering.Write) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := updateOrder(ctx, tx, writes); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing order: %w", err)
	}
	return nil
}

func updateOrder(ctx context.Context, tx *sql.Tx, writes []ordering.Write) error {
	if len(writes) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `UPDATE categories SET sort_order = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing update: %w", err)
	}
	defer stmt.Close()

	for _, w := range writes {
		res, err := stmt.ExecContext(ctx, w.SortOrder, w.ID)
		if err != nil {
			return fmt.Errorf("updating sort order of %s: %w", w.ID, err)
		}
		if err := expectOne(res, "category", w.ID); err != nil {
			return err
		}
	}
	return nil
}

// CommitLedger inserts the transaction row and updates every affected balance
// in one transaction.
func (s *Store) CommitLedger(ctx context.Context, ws ledger.WriteSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	t := ws.Transaction
	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, owner_id, type, amount, currency_code, account_id,
			counter_account_id, category_id, tx_date, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, string(t.Type), t.Amount, t.CurrencyCode, t.AccountID,
		t.CounterAccountID, t.CategoryID, t.TxDate.Format(dateLayout), t.Note,
		t.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}

	for _, u := range ws.AccountUpdates {
		res, err := tx.ExecContext(ctx,
			`UPDATE accounts SET balance = ? WHERE id = ? AND owner_id = ?`,
			u.Balance, u.ID, t.OwnerID)
		if err != nil {
			return fmt.Errorf("updating balance of %s: %w", u.ID, err)
		}
		if err := expectOne(res, "account", u.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListAccounts returns the owner's accounts by creation time.
func (s *Store) ListAccounts(ctx context.Context, ownerID string) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
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
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE owner_id = ?
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
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, type, amount, currency_code, account_id, counter_account_id,
			category_id, tx_date, note, created_at
		FROM transactions
		WHERE owner_id = ?
		ORDER BY tx_date, created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var (
			t                 model.Transaction
			txDate, createdAt string
		)
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Type, &t.Amount, &t.CurrencyCode,
			&t.AccountID, &t.CounterAccountID, &t.CategoryID, &txDate, &t.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		if t.TxDate, err = time.Parse(dateLayout, txDate); err != nil {
			return nil, fmt.Errorf("parsing tx_date of %s: %w", t.ID, err)
		}
		if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at of %s: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("%s %s: %d rows affected", kind, id, n)
	}
	return nil
}

func formatNull(layout string, t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(layout), Valid: true}
}

func parseNull(layout string, s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(layout, s.String)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", s.String, err)
	}
	return &t, nil
}
