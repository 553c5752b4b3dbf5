package storage

import (
	"database/sql"
	"fmt"
	"time"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/lysmm203/stock-market-simulator/internal/finance"
)

type DB interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	Begin() (*sql.Tx, error)
	Close() error
}

// OpenSQLite opens dsn with a single connection, so ":memory:" databases
// keep one schema across calls.
func OpenSQLite(dsn string) (DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func InitSchema(db DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS tickers(
		symbol TEXT NOT NULL,
		first_trade_epoch INTEGER NOT NULL,
		company_name TEXT NOT NULL,
		loaded_at INTEGER NOT NULL
	)`)
	return err
}

// TickerStore persists the last loaded ticker universe so a restart can serve
// the catalog before the CSV is read again.
type TickerStore struct{ db DB }

func NewTickerStore(db DB) *TickerStore { return &TickerStore{db: db} }

// ReplaceAll deletes every stored ticker and inserts records in one transaction.
func (s *TickerStore) ReplaceAll(records []finance.TickerRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM tickers`); err != nil {
		return fmt.Errorf("clear tickers: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO tickers(symbol,first_trade_epoch,company_name,loaded_at) VALUES(?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, r := range records {
		if _, err := stmt.Exec(r.Symbol, r.FirstTradeEpoch, r.CompanyName, now); err != nil {
			return fmt.Errorf("insert %s: %w", r.Symbol, err)
		}
	}
	return tx.Commit()
}

// All returns the stored tickers in insertion order.
func (s *TickerStore) All() ([]finance.TickerRecord, error) {
	rows, err := s.db.Query(`SELECT symbol, first_trade_epoch, company_name FROM tickers ORDER BY rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []finance.TickerRecord
	for rows.Next() {
		var r finance.TickerRecord
		if err := rows.Scan(&r.Symbol, &r.FirstTradeEpoch, &r.CompanyName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadedAt is when the stored set was written, or zero if the table is empty.
func (s *TickerStore) LoadedAt() (time.Time, error) {
	rows, err := s.db.Query(`SELECT MAX(loaded_at) FROM tickers`)
	if err != nil {
		return time.Time{}, err
	}
	defer rows.Close()
	var ts sql.NullInt64
	if rows.Next() {
		if err := rows.Scan(&ts); err != nil {
			return time.Time{}, err
		}
	}
	if !ts.Valid {
		return time.Time{}, rows.Err()
	}
	return time.Unix(ts.Int64, 0), rows.Err()
}
