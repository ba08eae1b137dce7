package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"credit-sales/domain"

	_ "modernc.org/sqlite" // register sqlite driver
)

const quoteSchemaSQL = `
CREATE TABLE IF NOT EXISTS loan_quotes (
    id                   TEXT PRIMARY KEY,
    kind                 TEXT NOT NULL,
    principal            REAL NOT NULL,
    term_months          INTEGER NOT NULL,
    annual_rate_percent  REAL NOT NULL,
    monthly_payment      REAL NOT NULL,
    total_payment        REAL NOT NULL,
    total_interest       REAL NOT NULL,
    schedule_json        TEXT,
    created_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_loan_quotes_created ON loan_quotes(created_at);
`

// createdAtLayout has a fixed-width fraction so timestamps sort as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteQuoteRepository persists quote records in a SQLite database.
type SQLiteQuoteRepository struct {
	db *sql.DB
}

// OpenSQLiteQuoteRepository opens or creates the database at path. The
// special path ":memory:" keeps everything in memory.
func OpenSQLiteQuoteRepository(path string) (*SQLiteQuoteRepository, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening quote db: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(quoteSchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteQuoteRepository{db: db}, nil
}

func (r *SQLiteQuoteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteQuoteRepository) Save(ctx context.Context, record domain.QuoteRecord) error {
	var schedule sql.NullString
	if len(record.Quote.Schedule) > 0 {
		raw, err := json.Marshal(record.Quote.Schedule)
		if err != nil {
			return fmt.Errorf("encoding schedule: %w", err)
		}
		schedule = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO loan_quotes (
			id, kind, principal, term_months, annual_rate_percent,
			monthly_payment, total_payment, total_interest, schedule_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		string(record.Kind),
		record.Request.Principal,
		record.Request.TermMonths,
		record.Request.AnnualRatePercent,
		record.Quote.MonthlyPayment,
		record.Quote.TotalPayment,
		record.Quote.TotalInterest,
		schedule,
		record.CreatedAt.UTC().Format(createdAtLayout),
	)
	if err != nil {
		return fmt.Errorf("saving quote %s: %w", record.ID, err)
	}
	return nil
}

func (r *SQLiteQuoteRepository) List(ctx context.Context, limit int) ([]domain.QuoteRecord, error) {
	query := `
		SELECT id, kind, principal, term_months, annual_rate_percent,
		       monthly_payment, total_payment, total_interest, schedule_json, created_at
		FROM loan_quotes
		ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.QuoteRecord
	for rows.Next() {
		var (
			rec       domain.QuoteRecord
			kind      string
			schedule  sql.NullString
			createdAt string
		)
		if err := rows.Scan(
			&rec.ID, &kind,
			&rec.Request.Principal, &rec.Request.TermMonths, &rec.Request.AnnualRatePercent,
			&rec.Quote.MonthlyPayment, &rec.Quote.TotalPayment, &rec.Quote.TotalInterest,
			&schedule, &createdAt,
		); err != nil {
			return nil, err
		}
		rec.Kind = domain.QuoteKind(kind)
		if schedule.Valid {
			if err := json.Unmarshal([]byte(schedule.String), &rec.Quote.Schedule); err != nil {
				return nil, fmt.Errorf("decoding schedule of %s: %w", rec.ID, err)
			}
		}
		if rec.CreatedAt, err = time.Parse(createdAtLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at of %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
