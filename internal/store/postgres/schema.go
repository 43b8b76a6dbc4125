package postgres

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id                    TEXT PRIMARY KEY,
	owner_id              TEXT NOT NULL,
	name                  TEXT NOT NULL,
	type                  TEXT NOT NULL,
	currency_code         TEXT NOT NULL,
	balance               BIGINT NOT NULL DEFAULT 0,
	savings_target_amount BIGINT,
	savings_target_date   DATE,
	debt_initial_amount   BIGINT,
	debt_due_date         DATE,
	debt_is_owed_to_me    BOOLEAN,
	is_archived           BOOLEAN NOT NULL DEFAULT FALSE,
	archived_at           TIMESTAMPTZ,
	created_at            TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts(owner_id);

CREATE TABLE IF NOT EXISTS categories (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	parent_id   TEXT NOT NULL DEFAULT '',
	sort_order  BIGINT NOT NULL,
	is_archived BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_categories_scope ON categories(owner_id, parent_id, is_archived, sort_order);

CREATE TABLE IF NOT EXISTS transactions (
	id                 TEXT PRIMARY KEY,
	owner_id           TEXT NOT NULL,
	type               TEXT NOT NULL,
	amount             BIGINT NOT NULL CHECK (amount > 0),
	currency_code      TEXT NOT NULL,
	account_id         TEXT NOT NULL DEFAULT '',
	counter_account_id TEXT NOT NULL DEFAULT '',
	category_id        TEXT NOT NULL DEFAULT '',
	tx_date            DATE NOT NULL,
	note               TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_owner_date ON transactions(owner_id, tx_date);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_counter_account ON transactions(counter_account_id);
`
