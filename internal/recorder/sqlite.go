package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"

	"CandleKeeper/internal/model"
)

// SQLiteRecorder persists candlesticks to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so the admin API can read while an ingest run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	// A single connection serializes readers behind an open batch instead of
	// failing with SQLITE_BUSY, and keeps ":memory:" databases usable.
	db.SetMaxOpenConns(1)

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS candlesticks (
			timestamp INTEGER NOT NULL,
			open      REAL    NOT NULL,
			close     REAL    NOT NULL,
			low       REAL    NOT NULL,
			high      REAL    NOT NULL,
			volume    INTEGER NOT NULL,
			symbol    TEXT    NOT NULL,
			UNIQUE (symbol, timestamp)
		)`,
		// An insert for an existing key updates that row and is then dropped,
		// so the INSERT itself reports zero changed rows.
		`CREATE TRIGGER IF NOT EXISTS candlesticks_upsert
		BEFORE INSERT ON candlesticks
		WHEN EXISTS (SELECT 1 FROM candlesticks WHERE symbol = NEW.symbol AND timestamp = NEW.timestamp)
		BEGIN
			UPDATE candlesticks
			SET open = NEW.open, close = NEW.close, low = NEW.low, high = NEW.high, volume = NEW.volume
			WHERE symbol = NEW.symbol AND timestamp = NEW.timestamp;
			SELECT RAISE(IGNORE);
		END`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) AddRows(ctx context.Context, symbol string, candles []model.Candlestick) error {
	if err := checkBatch(symbol, candles); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}
	// Once started, a batch runs to commit or rollback.
	ctx = context.WithoutCancel(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", model.ErrPersistence, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO candlesticks ("+insertColumns+") VALUES (?,?,?,?,?,?,?)")
	if err != nil {
		return fmt.Errorf("%w: prepare: %w", model.ErrPersistence, err)
	}
	defer stmt.Close()

	counts := make([]int64, 0, len(candles))
	var firstErr error
	for _, c := range candles {
		res, err := stmt.ExecContext(ctx, insertArgs(symbol, c)...)
		if err != nil {
			counts = append(counts, RowCountFailed)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = RowCountUnknown
		}
		counts = append(counts, n)
	}

	if err := classifyBatch(counts, len(candles)); err != nil {
		if firstErr != nil {
			err = fmt.Errorf("%w: first error: %v", err, firstErr)
		}
		log.Printf("[ERROR] %s: rolling back batch of %d: %v", symbol, len(candles), err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", model.ErrPersistence, err)
	}
	return nil
}

func (r *SQLiteRecorder) AddRow(ctx context.Context, symbol string, c model.Candlestick) error {
	return r.AddRows(ctx, symbol, []model.Candlestick{c})
}

func (r *SQLiteRecorder) GetAllRowsByName(ctx context.Context, symbol string) ([]model.Candlestick, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT timestamp, open, close, low, high, volume FROM candlesticks
		WHERE symbol = ? ORDER BY timestamp ASC`, symbol)
	if err != nil {
		return nil, fmt.Errorf("query candlesticks: %w", err)
	}
	defer rows.Close()

	var out []model.Candlestick
	for rows.Next() {
		var c model.Candlestick
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.Close, &c.Low, &c.High, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candlestick: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) ResetTable(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.ExecContext(ctx, "DELETE FROM candlesticks"); err != nil {
		return fmt.Errorf("%w: reset table: %w", model.ErrPersistence, err)
	}
	log.Println("[WARN] candlesticks table reset")
	return nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
