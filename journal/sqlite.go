// Package journal provides durable backends for the ledger's transaction
// history: SQLite for queryable storage and a whole-file JSON snapshot.
// Decimal columns are stored as text so values round-trip losslessly.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/stockledger/ledger"
)

// Compile-time interface check.
var _ ledger.Store = (*SQLite)(nil)

// SQLite stores transactions in a SQLite database, one row per order ID.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// Append inserts a new transaction row. The insert is synchronous; the row
// is durable when Append returns.
func (j *SQLite) Append(tx ledger.Transaction) error {
	matches, err := json.Marshal(tx.Matches)
	if err != nil {
		return fmt.Errorf("encode matches: %w", err)
	}
	_, err = j.db.Exec(`
		INSERT INTO transactions
		(order_id, symbol, side, quantity, price, timestamp, simulated, closed,
		 profit, profit_percent, cost, unmatched, matches)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.OrderID, tx.Symbol, string(tx.Side),
		tx.Quantity.String(), tx.Price.String(), tx.Timestamp.UTC(),
		tx.Simulated, tx.Closed,
		nullDecimal(tx.Profit), nullDecimal(tx.ProfitPercent), nullDecimal(tx.Cost),
		tx.Unmatched.String(), string(matches),
	)
	return err
}

// Update amends an existing row in place. Only the amendable fields change;
// UPDATE (rather than REPLACE) keeps the rowid, preserving insertion order
// for LoadAll.
func (j *SQLite) Update(tx ledger.Transaction) error {
	res, err := j.db.Exec(`
		UPDATE transactions
		SET quantity = ?, closed = ?, profit = ?, profit_percent = ?, cost = ?,
		    unmatched = ?
		WHERE order_id = ?`,
		tx.Quantity.String(), tx.Closed,
		nullDecimal(tx.Profit), nullDecimal(tx.ProfitPercent), nullDecimal(tx.Cost),
		tx.Unmatched.String(), tx.OrderID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update: unknown transaction %q", tx.OrderID)
	}
	return nil
}

// LoadAll returns every transaction in insertion order.
func (j *SQLite) LoadAll() ([]ledger.Transaction, error) {
	rows, err := j.db.Query(`
		SELECT order_id, symbol, side, quantity, price, timestamp, simulated,
		       closed, profit, profit_percent, cost, unmatched, matches
		FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		var (
			tx                  ledger.Transaction
			side                string
			qty, price, unmatch string
			ts                  time.Time
			profit, pct, cost   sql.NullString
			matches             string
		)
		if err := rows.Scan(&tx.OrderID, &tx.Symbol, &side, &qty, &price, &ts,
			&tx.Simulated, &tx.Closed, &profit, &pct, &cost, &unmatch, &matches); err != nil {
			return nil, err
		}

		tx.Side, err = ledger.ParseSide(side)
		if err != nil {
			return nil, err
		}
		tx.Timestamp = ts.UTC()
		if tx.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("quantity for %s: %w", tx.OrderID, err)
		}
		if tx.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("price for %s: %w", tx.OrderID, err)
		}
		if tx.Unmatched, err = decimal.NewFromString(unmatch); err != nil {
			return nil, fmt.Errorf("unmatched for %s: %w", tx.OrderID, err)
		}
		if tx.Profit, err = parseDecimal(profit); err != nil {
			return nil, fmt.Errorf("profit for %s: %w", tx.OrderID, err)
		}
		if tx.ProfitPercent, err = parseDecimal(pct); err != nil {
			return nil, fmt.Errorf("profit percent for %s: %w", tx.OrderID, err)
		}
		if tx.Cost, err = parseDecimal(cost); err != nil {
			return nil, fmt.Errorf("cost for %s: %w", tx.OrderID, err)
		}
		if err := json.Unmarshal([]byte(matches), &tx.Matches); err != nil {
			return nil, fmt.Errorf("matches for %s: %w", tx.OrderID, err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
