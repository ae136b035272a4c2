package history

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/voldca/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps all assets' histories in one SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			asset        TEXT NOT NULL,
			timestamp    TEXT NOT NULL,
			price        TEXT NOT NULL,
			quote_amount TEXT NOT NULL,
			base_amount  TEXT NOT NULL,
			volatility   REAL NOT NULL,
			external_ref TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_asset ON trades(asset, id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the asset history in append order.
func (s *SQLiteStore) Load(ctx context.Context, asset string) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, price, quote_amount, base_amount, volatility, external_ref
		 FROM trades WHERE asset = ? ORDER BY id`, strings.ToUpper(asset))
	if err != nil {
		return nil, errors.Wrapf(err, "query %s history", asset)
	}
	defer rows.Close()

	records := make([]domain.TradeRecord, 0)
	for rows.Next() {
		var (
			ts, price, quote, base string
			vol                    float64
			ref                    sql.NullString
		)
		if err := rows.Scan(&ts, &price, &quote, &base, &vol, &ref); err != nil {
			return nil, errors.Wrap(err, "scan trade")
		}

		rec := domain.TradeRecord{Asset: strings.ToUpper(asset), Volatility: vol, ExternalRef: ref.String}
		if rec.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, errors.Wrap(err, "decode trade timestamp")
		}
		if rec.Price, err = decimal.NewFromString(price); err != nil {
			return nil, errors.Wrap(err, "decode trade price")
		}
		if rec.QuoteAmount, err = decimal.NewFromString(quote); err != nil {
			return nil, errors.Wrap(err, "decode trade quote amount")
		}
		if rec.BaseAmount, err = decimal.NewFromString(base); err != nil {
			return nil, errors.Wrap(err, "decode trade base amount")
		}

		records = append(records, rec)
	}

	return records, errors.Wrap(rows.Err(), "iterate trades")
}

// Append adds rec inside a transaction.
func (s *SQLiteStore) Append(ctx context.Context, asset string, rec domain.TradeRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin append")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO trades (asset, timestamp, price, quote_amount, base_amount, volatility, external_ref)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		strings.ToUpper(asset),
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.Price.String(),
		rec.QuoteAmount.String(),
		rec.BaseAmount.String(),
		rec.Volatility,
		rec.ExternalRef,
	)
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrapf(err, "insert %s trade", asset)
	}

	return errors.Wrap(tx.Commit(), "commit append")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
