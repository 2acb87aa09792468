package journal

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	order_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity TEXT NOT NULL,
	price TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	simulated INTEGER NOT NULL,
	closed INTEGER NOT NULL,
	profit TEXT,
	profit_percent TEXT,
	cost TEXT,
	unmatched TEXT NOT NULL,
	matches TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_symbol ON transactions(symbol);
CREATE INDEX IF NOT EXISTS idx_transactions_timestamp ON transactions(timestamp);
`
