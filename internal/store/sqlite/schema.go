package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id                    TEXT PRIMARY KEY,
	owner_id              TEXT NOT NULL,
	name                  TEXT NOT NULL,
	type                  TEXT NOT NULL,
	currency_code         TEXT NOT NULL,
	balance               INTEGER NOT NULL DEFAULT 0,
	savings_target_amount INTEGER,
	savings_target_date   TEXT,
	debt_initial_amount   INTEGER,
	debt_due_date         TEXT,
	debt_is_owed_to_me    INTEGER,
	is_archived           INTEGER NOT NULL DEFAULT 0,
	archived_at           TEXT,
	created_at            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts(owner_id);

CREATE TABLE IF NOT EXISTS categories (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	parent_id   TEXT NOT NULL DEFAULT '',
	sort_order  INTEGER NOT NULL,
	is_archived INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_categories_scope ON categories(owner_id, parent_id, is_archived, sort_order);

CREATE TABLE IF NOT EXISTS transactions (
	id                 TEXT PRIMARY KEY,
	owner_id           TEXT NOT NULL,
	type               TEXT NOT NULL,
	amount             INTEGER NOT NULL CHECK (amount > 0),
	currency_code      TEXT NOT NULL,
	account_id         TEXT NOT NULL DEFAULT '',
	counter_account_id TEXT NOT NULL DEFAULT '',
	category_id        TEXT NOT NULL DEFAULT '',
	tx_date            TEXT NOT NULL,
	note               TEXT NOT NULL DEFAULT '',
	created_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_owner_date ON transactions(owner_id, tx_date);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_counter_account ON transactions(counter_account_id);
`
